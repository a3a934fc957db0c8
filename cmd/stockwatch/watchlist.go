package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rickgao/stockwatch/internal/app"
	"github.com/rickgao/stockwatch/internal/model"
	"github.com/rickgao/stockwatch/internal/table"
)

// newService opens the watchlist and upstream for one-shot edits.
func (g *globals) newService() (*app.Service, error) {
	cfg, logger, err := g.load(os.Stderr)
	if err != nil {
		return nil, err
	}
	store, err := openWatchlist(cfg.Watchlist, logger)
	if err != nil {
		return nil, err
	}
	up := newUpstream(cfg.API, logger)
	board := table.NewBoard(store, logger)
	return app.New(store, board, up.quotes, up.klines, cfg.Poller.Timeout, logger), nil
}

func newGroupCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage watchlist groups",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := g.newService()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "GROUP\tSYMBOLS\t")
			for _, info := range svc.Groups() {
				ro := ""
				if info.ReadOnly {
					ro = "read-only"
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\n", info.Name, info.Symbols, ro)
			}
			return tw.Flush()
		},
	}

	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := g.newService()
			if err != nil {
				return err
			}
			return svc.AddGroup(args[0])
		},
	}

	remove := &cobra.Command{
		Use:     "remove NAME",
		Aliases: []string{"rm"},
		Short:   "Delete a group",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := g.newService()
			if err != nil {
				return err
			}
			return svc.RemoveGroup(args[0])
		},
	}

	cmd.AddCommand(list, add, remove)
	return cmd
}

func newStockCmd(g *globals) *cobra.Command {
	var group string
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Manage the symbols of a group",
	}
	cmd.PersistentFlags().StringVarP(&group, "group", "g", "", "group name (default group when empty)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List a group's symbols",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.load(os.Stderr)
			if err != nil {
				return err
			}
			store, err := openWatchlist(cfg.Watchlist, logger)
			if err != nil {
				return err
			}
			name := group
			if name == "" {
				name = store.DefaultGroupName()
			}
			if !store.HasGroup(name) {
				return fmt.Errorf("group %q not found", name)
			}
			for _, sym := range store.Symbols(name) {
				fmt.Fprintln(cmd.OutOrStdout(), sym.Display())
			}
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add SYMBOL",
		Short: "Add a symbol after checking it has a quote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := g.newService()
			if err != nil {
				return err
			}
			row, err := svc.AddSymbol(cmd.Context(), group, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s %s %s %s\n",
				row.DisplayCode, row.Name, model.FormatPrice(row.Price), row.ChangeRateDisplay)
			return nil
		},
	}

	remove := &cobra.Command{
		Use:     "remove SYMBOL",
		Aliases: []string{"rm"},
		Short:   "Remove a symbol",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := g.newService()
			if err != nil {
				return err
			}
			return svc.RemoveSymbol(group, args[0])
		},
	}

	cmd.AddCommand(list, add, remove)
	return cmd
}
