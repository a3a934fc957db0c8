package table

import (
	"slices"
	"sync"

	"github.com/rickgao/stockwatch/internal/model"
)

// Table is a keyed collection of rows. It is safe for concurrent use; each
// Apply is atomic with respect to readers.
//
// Display order is the order in which keys were first inserted. Updates
// never move a row; only Remove and Prune change the order.
type Table struct {
	mu    sync.RWMutex
	rows  map[string]*model.Row
	order []string
}

// New creates an empty table.
func New() *Table {
	return &Table{rows: make(map[string]*model.Row)}
}

// Apply merges the successful results of a cycle in submission order.
func (t *Table) Apply(c model.Cycle) {
	t.ApplyQuotes(c.Present())
}

// ApplyQuotes upserts quotes by key. The i-th quote gets index i+1. Rows
// whose symbol is absent keep their previous values, index and position.
func (t *Table) ApplyQuotes(quotes []model.Quote) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, q := range quotes {
		t.upsertLocked(q, i+1)
	}
}

// Insert adds or refreshes a single row. A new key is appended to the end
// of the display order with the next index.
func (t *Table) Insert(q model.Quote) model.Row {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := q.Symbol.Key()
	if r, ok := t.rows[key]; ok {
		r.Update(q, r.Index)
		return *r
	}
	maxIndex := 0
	for _, r := range t.rows {
		maxIndex = max(maxIndex, r.Index)
	}
	return *t.upsertLocked(q, maxIndex+1)
}

func (t *Table) upsertLocked(q model.Quote, index int) *model.Row {
	key := q.Symbol.Key()
	if r, ok := t.rows[key]; ok {
		r.Update(q, index)
		return r
	}
	r := model.RowFromQuote(q, index)
	t.rows[key] = &r
	t.order = append(t.order, key)
	return &r
}

// Remove deletes the row with key and renumbers the rest 1..n in display
// order. It reports whether a row was removed.
func (t *Table) Remove(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[key]; !ok {
		return false
	}
	delete(t.rows, key)
	t.order = slices.DeleteFunc(t.order, func(k string) bool { return k == key })
	t.renumberLocked()
	return true
}

// Prune removes every row whose key is not in keep and returns how many
// were dropped.
func (t *Table) Prune(keep map[string]struct{}) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	before := len(t.order)
	t.order = slices.DeleteFunc(t.order, func(k string) bool {
		if _, ok := keep[k]; ok {
			return false
		}
		delete(t.rows, k)
		return true
	})
	removed := before - len(t.order)
	if removed > 0 {
		t.renumberLocked()
	}
	return removed
}

func (t *Table) renumberLocked() {
	for i, k := range t.order {
		t.rows[k].Index = i + 1
	}
}

// Get returns a copy of the row with key.
func (t *Table) Get(key string) (model.Row, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r, ok := t.rows[key]
	if !ok {
		return model.Row{}, false
	}
	return *r, true
}

// Rows returns copies of all rows in display order.
func (t *Table) Rows() []model.Row {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]model.Row, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, *t.rows[k])
	}
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}
