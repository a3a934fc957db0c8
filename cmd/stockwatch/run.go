package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rickgao/stockwatch/internal/app"
	"github.com/rickgao/stockwatch/internal/config"
	"github.com/rickgao/stockwatch/internal/database"
	"github.com/rickgao/stockwatch/internal/poller"
	"github.com/rickgao/stockwatch/internal/server"
	"github.com/rickgao/stockwatch/internal/stream"
	"github.com/rickgao/stockwatch/internal/table"
	"github.com/rickgao/stockwatch/internal/version"
	"github.com/rickgao/stockwatch/internal/writer"
)

const shutdownTimeout = 30 * time.Second

func newRunCmd(g *globals) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Poll the watchlist and serve rows over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.load(os.Stdout)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "override server.addr")
	return cmd
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting stockwatch",
		"version", version.Version,
		"commit", version.Commit,
		"provider", cfg.API.Provider,
		"interval", cfg.Poller.Interval,
	)

	store, err := openWatchlist(cfg.Watchlist, logger)
	if err != nil {
		return err
	}
	logger.Info("watchlist loaded",
		"path", store.Path(),
		"groups", len(store.Groups()),
		"symbols", len(store.AllSymbols()),
	)

	up := newUpstream(cfg.API, logger)
	board := table.NewBoard(store, logger)
	hub := stream.NewHub()
	publisher := stream.NewPublisher(hub, board, palette(cfg.Display), logger)

	// Board first: the publisher renders what the board just applied.
	sinks := poller.Sinks{board, publisher}

	history, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	var qw *writer.QuoteWriter
	if history != nil {
		defer history.Close()
		logger.Info("history store opened", "driver", cfg.Database.Driver)

		qw = writer.NewQuoteWriter(writer.WriterConfig{
			BatchSize:     cfg.Writer.BatchSize,
			FlushInterval: cfg.Writer.FlushInterval,
			BufferSize:    cfg.Writer.BufferSize,
		}, history, logger)
		if err := qw.Start(ctx); err != nil {
			return err
		}
		sinks = append(sinks, qw)
	}

	svc := app.New(store, board, up.quotes, up.klines, cfg.Poller.Timeout, logger)

	if cfg.Watchlist.Watch {
		err := store.Watch(ctx, func() {
			svc.Reloaded()
			for _, group := range store.Groups() {
				publisher.Refresh(group)
			}
		})
		if err != nil {
			logger.Warn("watchlist watching disabled", "err", err)
		}
	}

	p := poller.New(poller.Config{
		Interval:    cfg.Poller.Interval,
		Concurrency: cfg.Poller.Concurrency,
		Timeout:     cfg.Poller.Timeout,
	}, up.quotes, store, sinks, logger)
	if err := p.Start(ctx); err != nil {
		return err
	}

	ws := stream.NewServer(hub, logger)
	ws.DefaultTopic = store.DefaultGroupName
	srv := server.New(server.Config{
		Addr: cfg.Server.Addr,
		Mode: cfg.Server.Mode,
	}, server.Deps{
		Service:      svc,
		Publisher:    publisher,
		Stream:       ws,
		History:      history,
		Palette:      palette(cfg.Display),
		BreakerState: up.quotes.BreakerState,
	}, logger)

	serveErr := srv.Run(ctx)
	if serveErr != nil {
		logger.Error("http server error", "err", serveErr)
	}

	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := p.Stop(shutdownCtx); err != nil {
		logger.Warn("poller stop", "err", err)
	}
	if qw != nil {
		if err := qw.Stop(shutdownCtx); err != nil {
			logger.Warn("writer stop", "err", err)
		}
		stats := qw.Stats()
		logger.Info("history writer stopped",
			"inserts", stats.Inserts,
			"conflicts", stats.Conflicts,
			"dropped", stats.Dropped,
		)
	}

	logger.Info("stockwatch stopped")
	return serveErr
}
