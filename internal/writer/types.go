package writer

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// WriterConfig holds common configuration for writers.
type WriterConfig struct {
	// BatchSize is the number of rows to accumulate before flushing.
	BatchSize int

	// FlushInterval is the maximum time between flushes.
	FlushInterval time.Duration

	// BufferSize is the number of cycles queued before new ones are dropped.
	BufferSize int
}

// DefaultWriterConfig returns sensible defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BatchSize:     500,
		FlushInterval: 5 * time.Second,
		BufferSize:    64,
	}
}

// QuoteRow is one stored quote.
type QuoteRow struct {
	CycleID      uuid.UUID
	SymbolKey    string // e.g. "0_000001"
	Market       string // SZ or SH
	Code         string
	Name         string
	PreClose     float64
	Price        float64
	ChangeRate   float64
	ChangeAmount float64
	FetchedAt    time.Time
}

// Store persists quote rows.
type Store interface {
	// InsertQuotes writes rows, skipping ones already stored, and returns
	// the number of skipped rows.
	InsertQuotes(ctx context.Context, rows []QuoteRow) (conflicts int, err error)
}

// WriterMetrics holds metrics for a writer.
type WriterMetrics struct {
	Inserts   int64
	Conflicts int64
	Errors    int64
	Flushes   int64
	Dropped   int64
}
