package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rickgao/stockwatch/internal/display"
	"github.com/rickgao/stockwatch/internal/stream"
)

func newTailCmd(g *globals) *cobra.Command {
	var (
		wsURL  string
		groups []string
	)
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Follow the row stream of a running stockwatch server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.load(os.Stderr)
			if err != nil {
				return err
			}
			if wsURL == "" {
				wsURL = "ws://" + hostPort(cfg.Server.Addr) + "/ws"
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client := stream.NewClient(stream.ClientConfig{URL: wsURL, Groups: groups}, logger)
			out := cmd.OutOrStdout()
			return client.Run(ctx, func(s display.Snapshot) {
				printSnapshot(out, s)
			})
		},
	}
	cmd.Flags().StringVar(&wsURL, "url", "", "stream url (default derived from server.addr)")
	cmd.Flags().StringSliceVarP(&groups, "group", "g", nil, "groups to follow (server default group when empty)")
	return cmd
}

// hostPort turns a listen address such as ":8080" into a dialable one.
func hostPort(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

func printSnapshot(w io.Writer, s display.Snapshot) {
	fmt.Fprintf(w, "[%s] %s\n", s.At.Format("15:04:05"), s.Group)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, r := range s.Rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			r.Index, r.Code, r.Name, r.Price, r.ChangeAmount, r.ChangeRateDisplay)
	}
	tw.Flush()
}
