package writer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/stockwatch/internal/metrics"
	"github.com/rickgao/stockwatch/internal/model"
)

// QuoteWriter consumes poll cycles and writes their quotes to a Store.
type QuoteWriter struct {
	cfg    WriterConfig
	logger *slog.Logger

	// Input from the poller
	input chan model.Cycle

	store Store

	// Batching
	batch       []QuoteRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Metrics
	metrics WriterMetrics
}

// NewQuoteWriter creates a new QuoteWriter.
func NewQuoteWriter(cfg WriterConfig, store Store, logger *slog.Logger) *QuoteWriter {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultWriterConfig()
	if cfg.BatchSize < 1 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = def.FlushInterval
	}
	if cfg.BufferSize < 1 {
		cfg.BufferSize = def.BufferSize
	}
	return &QuoteWriter{
		cfg:    cfg,
		input:  make(chan model.Cycle, cfg.BufferSize),
		store:  store,
		logger: logger,
		batch:  make([]QuoteRow, 0, cfg.BatchSize),
	}
}

// Apply enqueues a cycle. It never blocks the poller: when the buffer is
// full the cycle is dropped and counted.
func (w *QuoteWriter) Apply(c model.Cycle) {
	select {
	case w.input <- c:
	default:
		w.batchMu.Lock()
		w.metrics.Dropped++
		w.batchMu.Unlock()
		metrics.WriterDroppedTotal.Inc()
		w.logger.Warn("quote writer buffer full, dropping cycle", "cycle_id", c.ID)
	}
}

// Start begins consuming cycles and writing to the store.
func (w *QuoteWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	// Consumer goroutine
	w.wg.Add(1)
	go w.consumeLoop()

	// Flush ticker goroutine
	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("quote writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
		"buffer_size", w.cfg.BufferSize,
	)
	return nil
}

// Stop gracefully shuts down the writer, draining queued cycles into a
// final flush.
func (w *QuoteWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping quote writer")

	if w.cancel != nil {
		w.cancel()
	}

	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	// Wait for goroutines
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("quote writer stopped")
	case <-ctx.Done():
		w.logger.Warn("quote writer stop timed out")
	}

	w.drain()

	// Final flush
	w.flushWith(ctx)

	return nil
}

// Stats returns current metrics.
func (w *QuoteWriter) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

// consumeLoop reads cycles from the input channel and accumulates batches.
func (w *QuoteWriter) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case c := <-w.input:
			w.handleCycle(c)
		}
	}
}

// drain moves whatever is still queued into the batch.
func (w *QuoteWriter) drain() {
	for {
		select {
		case c := <-w.input:
			w.addRows(transform(c))
		default:
			return
		}
	}
}

// flushLoop periodically flushes the batch.
func (w *QuoteWriter) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush()
		}
	}
}

// handleCycle transforms and adds a cycle's quotes to the batch.
func (w *QuoteWriter) handleCycle(c model.Cycle) {
	if w.addRows(transform(c)) {
		w.flush()
	}
}

func (w *QuoteWriter) addRows(rows []QuoteRow) (shouldFlush bool) {
	if len(rows) == 0 {
		return false
	}
	w.batchMu.Lock()
	w.batch = append(w.batch, rows...)
	shouldFlush = len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()
	return shouldFlush
}

// transform converts a cycle's successful quotes to rows.
func transform(c model.Cycle) []QuoteRow {
	present := c.Present()
	rows := make([]QuoteRow, 0, len(present))
	for _, q := range present {
		rows = append(rows, QuoteRow{
			CycleID:      c.ID,
			SymbolKey:    q.Symbol.Key(),
			Market:       string(q.Symbol.Market),
			Code:         q.Symbol.Code,
			Name:         q.Name,
			PreClose:     q.PreClose,
			Price:        q.Price,
			ChangeRate:   q.ChangeRate,
			ChangeAmount: q.ChangeAmount,
			FetchedAt:    q.FetchedAt,
		})
	}
	return rows
}

func (w *QuoteWriter) flush() {
	w.flushWith(w.ctx)
}

// flushWith writes the current batch to the store.
func (w *QuoteWriter) flushWith(ctx context.Context) {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := w.batch
	w.batch = make([]QuoteRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	conflicts, err := w.store.InsertQuotes(ctx, batch)
	if err != nil {
		w.logger.Error("batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		metrics.WriterErrorsTotal.Inc()
		return
	}

	w.batchMu.Lock()
	w.metrics.Inserts += int64(len(batch) - conflicts)
	w.metrics.Conflicts += int64(conflicts)
	w.metrics.Flushes++
	w.batchMu.Unlock()

	metrics.WriterFlushesTotal.Inc()
	metrics.WriterRowsTotal.Add(float64(len(batch) - conflicts))

	w.logger.Debug("flushed quotes",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}
