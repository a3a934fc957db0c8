package table

import (
	"log/slog"
	"sync"

	"github.com/rickgao/stockwatch/internal/metrics"
	"github.com/rickgao/stockwatch/internal/model"
)

// Groups lists watchlist groups and their symbols in display order.
type Groups interface {
	Groups() []string
	Symbols(group string) []model.Symbol
}

// Board keeps one Table per watchlist group.
type Board struct {
	groups Groups
	logger *slog.Logger

	mu     sync.RWMutex
	tables map[string]*Table
}

// NewBoard creates a board over the given groups.
func NewBoard(groups Groups, logger *slog.Logger) *Board {
	if logger == nil {
		logger = slog.Default()
	}
	return &Board{
		groups: groups,
		logger: logger,
		tables: make(map[string]*Table),
	}
}

// Apply distributes a cycle to every group. Each group's table receives the
// cycle's successful quotes for its own symbols, in the group's order.
func (b *Board) Apply(c model.Cycle) {
	byKey := make(map[string]model.Quote, len(c.Results))
	for _, q := range c.Present() {
		byKey[q.Symbol.Key()] = q
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, group := range b.groups.Groups() {
		syms := b.groups.Symbols(group)
		quotes := make([]model.Quote, 0, len(syms))
		for _, sym := range syms {
			if q, ok := byKey[sym.Key()]; ok {
				quotes = append(quotes, q)
			}
		}

		t := b.tableLocked(group)
		t.ApplyQuotes(quotes)
		metrics.Rows.WithLabelValues(group).Set(float64(t.Len()))
	}
}

func (b *Board) tableLocked(group string) *Table {
	t, ok := b.tables[group]
	if !ok {
		t = New()
		b.tables[group] = t
	}
	return t
}

// Groups returns the current group names.
func (b *Board) Groups() []string {
	return b.groups.Groups()
}

// Rows returns the group's rows in display order.
func (b *Board) Rows(group string) []model.Row {
	b.mu.RLock()
	defer b.mu.RUnlock()

	t, ok := b.tables[group]
	if !ok {
		return []model.Row{}
	}
	return t.Rows()
}

// Insert places a freshly validated quote at the end of the group's rows.
func (b *Board) Insert(group string, q model.Quote) model.Row {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := b.tableLocked(group)
	row := t.Insert(q)
	metrics.Rows.WithLabelValues(group).Set(float64(t.Len()))
	return row
}

// Remove deletes the row for key from the group and renumbers the rest.
func (b *Board) Remove(group, key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.tables[group]
	if !ok {
		return false
	}
	removed := t.Remove(key)
	metrics.Rows.WithLabelValues(group).Set(float64(t.Len()))
	return removed
}

// DropGroup forgets a deleted group's table.
func (b *Board) DropGroup(group string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.tables, group)
	metrics.Rows.DeleteLabelValues(group)
}

// Prune reconciles the board with the current groups: tables of vanished
// groups are dropped and rows whose symbol left a group are removed.
func (b *Board) Prune() {
	b.mu.Lock()
	defer b.mu.Unlock()

	live := make(map[string]struct{})
	for _, group := range b.groups.Groups() {
		live[group] = struct{}{}

		t, ok := b.tables[group]
		if !ok {
			continue
		}
		keep := make(map[string]struct{})
		for _, sym := range b.groups.Symbols(group) {
			keep[sym.Key()] = struct{}{}
		}
		if n := t.Prune(keep); n > 0 {
			b.logger.Info("pruned rows", "group", group, "removed", n)
			metrics.Rows.WithLabelValues(group).Set(float64(t.Len()))
		}
	}

	for group := range b.tables {
		if _, ok := live[group]; !ok {
			delete(b.tables, group)
			metrics.Rows.DeleteLabelValues(group)
			b.logger.Info("dropped group table", "group", group)
		}
	}
}
