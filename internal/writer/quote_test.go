package writer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/stockwatch/internal/model"
)

type memStore struct {
	mu   sync.Mutex
	rows []QuoteRow
	seen map[string]bool
	err  error
}

func (m *memStore) InsertQuotes(_ context.Context, rows []QuoteRow) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	conflicts := 0
	for _, r := range rows {
		k := r.SymbolKey + "/" + r.CycleID.String()
		if m.seen[k] {
			conflicts++
			continue
		}
		m.seen[k] = true
		m.rows = append(m.rows, r)
	}
	return conflicts, nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func testCycle(t *testing.T, codes ...string) model.Cycle {
	t.Helper()
	c := model.Cycle{ID: uuid.New(), StartedAt: time.Now()}
	for _, code := range codes {
		sym, err := model.ParseSymbol(code)
		require.NoError(t, err)
		q := model.NewQuote(sym, "n", 10, 11, time.Now())
		c.Symbols = append(c.Symbols, sym)
		c.Results = append(c.Results, &q)
	}
	return c
}

func TestTransform(t *testing.T) {
	c := testCycle(t, "SZ000001", "SH600519")
	c.Results[1] = nil

	rows := transform(c)
	require.Len(t, rows, 1)
	r := rows[0]
	assert.Equal(t, c.ID, r.CycleID)
	assert.Equal(t, "0_000001", r.SymbolKey)
	assert.Equal(t, "SZ", r.Market)
	assert.Equal(t, "000001", r.Code)
	assert.Equal(t, 11.0, r.Price)
	assert.InDelta(t, 0.1, r.ChangeRate, 1e-9)
	assert.InDelta(t, 1.0, r.ChangeAmount, 1e-9)
}

func TestQuoteWriter_FlushOnBatchSize(t *testing.T) {
	store := &memStore{}
	w := NewQuoteWriter(WriterConfig{BatchSize: 2, FlushInterval: time.Hour, BufferSize: 4}, store, nil)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop(context.Background())

	w.Apply(testCycle(t, "SZ000001", "SH600519"))

	assert.Eventually(t, func() bool { return store.count() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(1), w.Stats().Flushes)
}

func TestQuoteWriter_FlushOnInterval(t *testing.T) {
	store := &memStore{}
	w := NewQuoteWriter(WriterConfig{BatchSize: 100, FlushInterval: 20 * time.Millisecond, BufferSize: 4}, store, nil)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop(context.Background())

	w.Apply(testCycle(t, "SZ000001"))

	assert.Eventually(t, func() bool { return store.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestQuoteWriter_FinalFlushOnStop(t *testing.T) {
	store := &memStore{}
	w := NewQuoteWriter(WriterConfig{BatchSize: 100, FlushInterval: time.Hour, BufferSize: 4}, store, nil)
	require.NoError(t, w.Start(context.Background()))

	w.Apply(testCycle(t, "SZ000001", "SZ000002", "SZ000003"))
	require.NoError(t, w.Stop(context.Background()))

	assert.Equal(t, 3, store.count())
	assert.Equal(t, int64(3), w.Stats().Inserts)
}

func TestQuoteWriter_DropsWhenFull(t *testing.T) {
	store := &memStore{}
	// Not started: nothing consumes the buffer.
	w := NewQuoteWriter(WriterConfig{BatchSize: 100, FlushInterval: time.Hour, BufferSize: 1}, store, nil)

	w.Apply(testCycle(t, "SZ000001"))
	w.Apply(testCycle(t, "SZ000002"))

	assert.Equal(t, int64(1), w.Stats().Dropped)
}

func TestQuoteWriter_Conflicts(t *testing.T) {
	store := &memStore{}
	w := NewQuoteWriter(WriterConfig{BatchSize: 100, FlushInterval: time.Hour, BufferSize: 4}, store, nil)
	require.NoError(t, w.Start(context.Background()))

	c := testCycle(t, "SZ000001")
	w.Apply(c)
	w.Apply(c)
	require.NoError(t, w.Stop(context.Background()))

	stats := w.Stats()
	assert.Equal(t, int64(1), stats.Inserts)
	assert.Equal(t, int64(1), stats.Conflicts)
}

func TestQuoteWriter_StoreError(t *testing.T) {
	store := &memStore{err: errors.New("disk full")}
	w := NewQuoteWriter(WriterConfig{BatchSize: 1, FlushInterval: time.Hour, BufferSize: 4}, store, nil)
	require.NoError(t, w.Start(context.Background()))

	w.Apply(testCycle(t, "SZ000001"))
	assert.Eventually(t, func() bool { return w.Stats().Errors == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, w.Stop(context.Background()))
}

func TestDefaultWriterConfig(t *testing.T) {
	w := NewQuoteWriter(WriterConfig{}, &memStore{}, nil)
	assert.Equal(t, DefaultWriterConfig(), w.cfg)
}
