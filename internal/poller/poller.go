package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/stockwatch/internal/metrics"
	"github.com/rickgao/stockwatch/internal/model"
)

// Fetcher retrieves the latest quote for one symbol.
type Fetcher interface {
	FetchQuote(ctx context.Context, sym model.Symbol) (model.Quote, error)
}

// Source provides the symbols to poll, in submission order.
type Source interface {
	AllSymbols() []model.Symbol
}

// Sink receives every completed cycle.
type Sink interface {
	Apply(cycle model.Cycle)
}

// SinkFunc is a function adapter for Sink.
type SinkFunc func(model.Cycle)

func (f SinkFunc) Apply(c model.Cycle) {
	f(c)
}

// Sinks fans a cycle out to several sinks in order.
type Sinks []Sink

func (s Sinks) Apply(c model.Cycle) {
	for _, sink := range s {
		if sink != nil {
			sink.Apply(c)
		}
	}
}

// Config holds poller configuration.
type Config struct {
	Interval    time.Duration // Poll interval (default: 3s)
	Concurrency int           // Max concurrent requests (default: 16)
	Timeout     time.Duration // Per-request timeout (default: 8s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:    3 * time.Second,
		Concurrency: 16,
		Timeout:     8 * time.Second,
	}
}

// Poller periodically fetches quotes for every watched symbol.
type Poller struct {
	cfg     Config
	fetcher Fetcher
	source  Source
	sink    Sink
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller.
func New(cfg Config, fetcher Fetcher, source Source, sink Sink, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &Poller{
		cfg:     cfg,
		fetcher: fetcher,
		source:  source,
		sink:    sink,
		logger:  logger,
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("quote poller started",
		"interval", p.cfg.Interval,
		"concurrency", p.cfg.Concurrency,
		"timeout", p.cfg.Timeout,
	)

	return nil
}

// Stop cancels in-flight fetches, discards the partial cycle and waits for
// the loop to exit.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("quote poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main polling loop.
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Poll immediately on start.
	p.RunCycle(p.ctx)

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.RunCycle(p.ctx)
		}
	}
}

// RunCycle performs one full cycle synchronously: fetch every symbol,
// join, then hand the collated cycle to the sink. If ctx is cancelled
// before the join completes the cycle is discarded and ctx.Err() returned.
func (p *Poller) RunCycle(ctx context.Context) (model.Cycle, error) {
	cycle := model.Cycle{
		ID:        uuid.New(),
		StartedAt: time.Now(),
		Symbols:   p.source.AllSymbols(),
	}
	cycle.Results = make([]*model.Quote, len(cycle.Symbols))

	if len(cycle.Symbols) == 0 {
		p.logger.Debug("no symbols to poll")
		return cycle, nil
	}

	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)
	var fetched, failed atomic.Int64

	for i, sym := range cycle.Symbols {
		g.Go(func() error {
			q, ok := p.fetchOne(ctx, sym, cycle.ID)
			if !ok {
				failed.Add(1)
				return nil
			}
			cycle.Results[i] = &q
			fetched.Add(1)
			return nil
		})
	}

	_ = g.Wait()
	cycle.Duration = time.Since(cycle.StartedAt)

	if err := ctx.Err(); err != nil {
		p.logger.Debug("discarding partial cycle", "cycle_id", cycle.ID, "err", err)
		return cycle, err
	}

	if p.sink != nil {
		p.sink.Apply(cycle)
	}

	metrics.ObserveCycle(int(fetched.Load()), int(failed.Load()), cycle.Duration)

	p.logger.Info("poll cycle complete",
		"cycle_id", cycle.ID,
		"symbols", len(cycle.Symbols),
		"fetched", fetched.Load(),
		"errors", failed.Load(),
		"duration", cycle.Duration,
	)

	return cycle, nil
}

// fetchOne fetches a single symbol under the per-request timeout.
func (p *Poller) fetchOne(ctx context.Context, sym model.Symbol, cycleID uuid.UUID) (model.Quote, bool) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	q, err := p.fetcher.FetchQuote(ctx, sym)
	if err != nil {
		p.logger.Warn("failed to fetch quote",
			"cycle_id", cycleID,
			"symbol", sym.Display(),
			"err", err,
		)
		return model.Quote{}, false
	}
	q.Symbol = sym
	return q, true
}
