package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rickgao/stockwatch/internal/api"
	"github.com/rickgao/stockwatch/internal/config"
	"github.com/rickgao/stockwatch/internal/display"
	"github.com/rickgao/stockwatch/internal/poller"
	"github.com/rickgao/stockwatch/internal/version"
	"github.com/rickgao/stockwatch/internal/watchlist"
)

// globals holds the persistent flags.
type globals struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "stockwatch",
		Short:         "Watch realtime A-share quotes",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", os.Getenv("STOCKWATCH_CONFIG"), "path to config file (defaults apply when empty)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "override log.level")

	root.AddCommand(
		newRunCmd(g),
		newQuoteCmd(g),
		newKlineCmd(g),
		newGroupCmd(g),
		newStockCmd(g),
		newTailCmd(g),
		newVersionCmd(),
	)
	return root
}

// load reads the config and builds the logger writing to w.
func (g *globals) load(w io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadAndValidate(g.configPath)
	if err != nil {
		return nil, nil, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	logger, err := newLogger(cfg.Log, w)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func newLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func openWatchlist(cfg config.WatchlistConfig, logger *slog.Logger) (*watchlist.Store, error) {
	return watchlist.Open(watchlist.Options{
		Dir:          cfg.Dir,
		GroupsFile:   cfg.GroupsFile,
		CSVFile:      cfg.CSVFile,
		DefaultGroup: cfg.DefaultGroup,
	}, logger)
}

func palette(cfg config.DisplayConfig) display.Palette {
	return display.Palette{
		Up:   cfg.UpColor,
		Down: cfg.DownColor,
		Flat: cfg.FlatColor,
	}
}

// upstream is the configured quote provider plus the EastMoney history
// client.
type upstream struct {
	quotes interface {
		poller.Fetcher
		BreakerState() string
	}
	klines *api.Client
}

func newUpstream(cfg config.APIConfig, logger *slog.Logger) upstream {
	opts := []api.ClientOption{
		api.WithLogger(logger),
		api.WithTimeout(cfg.Timeout),
		api.WithRateLimit(cfg.RateLimit, cfg.Burst),
		api.WithKlineURL(cfg.KlineURL),
	}
	if cfg.Breaker.Enabled {
		opts = append(opts, api.WithBreaker(api.BreakerConfig{
			ConsecutiveFailures: cfg.Breaker.ConsecutiveFailures,
			OpenTimeout:         cfg.Breaker.OpenTimeout,
		}))
	}

	client := api.NewClient(cfg.QuoteURL, opts...)
	u := upstream{quotes: client, klines: client}
	if cfg.Provider == "sina" {
		u.quotes = api.NewSinaClient(cfg.SinaURL, opts...)
	}
	return u
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "stockwatch", version.String())
		},
	}
}
