package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/stockwatch/internal/model"
)

func sym(t *testing.T, s string) model.Symbol {
	t.Helper()
	out, err := model.ParseSymbol(s)
	require.NoError(t, err)
	return out
}

func quote(t *testing.T, s string, preClose, price float64) model.Quote {
	t.Helper()
	return model.NewQuote(sym(t, s), "name-"+s, preClose, price, time.Now())
}

func cycleOf(syms []model.Symbol, results ...*model.Quote) model.Cycle {
	return model.Cycle{Symbols: syms, Results: results}
}

func keys(rows []model.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Key
	}
	return out
}

func TestApply_PartialFailure(t *testing.T) {
	a := quote(t, "SZ000001", 10, 10.5)
	tbl := New()

	tbl.Apply(cycleOf([]model.Symbol{a.Symbol, sym(t, "SH600000")}, &a, nil))

	rows := tbl.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "0_000001", rows[0].Key)
	assert.Equal(t, 1, rows[0].Index)
	_, ok := tbl.Get("1_600000")
	assert.False(t, ok)
}

func TestApply_UpdatesInPlace(t *testing.T) {
	tbl := New()
	a1 := quote(t, "SZ000001", 10, 10.5)
	tbl.ApplyQuotes([]model.Quote{a1})

	a2 := quote(t, "SZ000001", 10, 9.5)
	tbl.ApplyQuotes([]model.Quote{a2})

	require.Equal(t, 1, tbl.Len())
	row, ok := tbl.Get("0_000001")
	require.True(t, ok)
	assert.Equal(t, 9.5, row.Price)
	assert.Equal(t, "-5.00%", row.ChangeRateDisplay)
	assert.Equal(t, model.TrendDown, row.Trend())
}

func TestApply_IndicesFollowSubmissionOrder(t *testing.T) {
	tbl := New()
	a := quote(t, "SZ000001", 1, 1)
	b := quote(t, "SH600000", 1, 1)
	c := quote(t, "SZ300750", 1, 1)

	tbl.ApplyQuotes([]model.Quote{a, b, c})
	assert.Equal(t, []string{"0_000001", "1_600000", "0_300750"}, keys(tbl.Rows()))

	// b fails next cycle: a and c take new indices, b keeps its old one.
	tbl.Apply(cycleOf([]model.Symbol{a.Symbol, b.Symbol, c.Symbol}, &a, nil, &c))
	ra, _ := tbl.Get(a.Symbol.Key())
	rb, _ := tbl.Get(b.Symbol.Key())
	rc, _ := tbl.Get(c.Symbol.Key())
	assert.Equal(t, 1, ra.Index)
	assert.Equal(t, 2, rb.Index)
	assert.Equal(t, 2, rc.Index)
	// Display order does not follow the index.
	assert.Equal(t, []string{"0_000001", "1_600000", "0_300750"}, keys(tbl.Rows()))
}

func TestApply_PartialCycleKeepsDisplayOrder(t *testing.T) {
	tbl := New()
	a := quote(t, "SZ000001", 1, 1)
	b := quote(t, "SH600000", 1, 1)
	c := quote(t, "SZ300750", 1, 1)
	syms := []model.Symbol{a.Symbol, b.Symbol, c.Symbol}

	tbl.Apply(cycleOf(syms, &a, &b, &c))
	tbl.Apply(cycleOf(syms, nil, nil, &c))

	rows := tbl.Rows()
	assert.Equal(t, []string{"0_000001", "1_600000", "0_300750"}, keys(rows))
	assert.Equal(t, []int{1, 2, 1}, []int{rows[0].Index, rows[1].Index, rows[2].Index})
}

func TestApply_LateKeyAppendsAfterExisting(t *testing.T) {
	tbl := New()
	a := quote(t, "SZ000001", 1, 1)
	b := quote(t, "SH600000", 1, 1)
	c := quote(t, "SZ300750", 1, 1)
	syms := []model.Symbol{a.Symbol, b.Symbol, c.Symbol}

	tbl.Apply(cycleOf(syms, nil, &b, &c))
	tbl.Apply(cycleOf(syms, &a, &b, &c))

	rows := tbl.Rows()
	assert.Equal(t, []string{"1_600000", "0_300750", "0_000001"}, keys(rows))
	assert.Equal(t, 1, rows[2].Index)

	// Removing renumbers along the display order.
	require.True(t, tbl.Remove("1_600000"))
	rows = tbl.Rows()
	assert.Equal(t, []string{"0_300750", "0_000001"}, keys(rows))
	assert.Equal(t, []int{1, 2}, []int{rows[0].Index, rows[1].Index})
}

func TestRemove_Renumbers(t *testing.T) {
	tbl := New()
	tbl.ApplyQuotes([]model.Quote{
		quote(t, "SZ000001", 1, 1),
		quote(t, "SH600000", 1, 1),
		quote(t, "SZ300750", 1, 1),
	})

	assert.True(t, tbl.Remove("1_600000"))
	assert.False(t, tbl.Remove("1_600000"))

	rows := tbl.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "0_000001", rows[0].Key)
	assert.Equal(t, 1, rows[0].Index)
	assert.Equal(t, "0_300750", rows[1].Key)
	assert.Equal(t, 2, rows[1].Index)
}

func TestInsert_AppendsAtEnd(t *testing.T) {
	tbl := New()
	tbl.ApplyQuotes([]model.Quote{quote(t, "SZ000001", 1, 1), quote(t, "SH600000", 1, 1)})

	row := tbl.Insert(quote(t, "SH600519", 1400, 1450))
	assert.Equal(t, 3, row.Index)
	assert.Equal(t, "SH600519", row.DisplayCode)
	assert.Equal(t, "1_600519", tbl.Rows()[2].Key)

	// Re-inserting an existing key keeps one row.
	tbl.Insert(quote(t, "SZ000001", 1, 2))
	assert.Equal(t, 3, tbl.Len())
}

func TestPrune(t *testing.T) {
	tbl := New()
	tbl.ApplyQuotes([]model.Quote{
		quote(t, "SZ000001", 1, 1),
		quote(t, "SH600000", 1, 1),
		quote(t, "SZ300750", 1, 1),
	})

	n := tbl.Prune(map[string]struct{}{"0_300750": {}})
	assert.Equal(t, 2, n)

	rows := tbl.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Index)
}

func TestRows_ReturnsCopies(t *testing.T) {
	tbl := New()
	tbl.ApplyQuotes([]model.Quote{quote(t, "SZ000001", 1, 1)})

	rows := tbl.Rows()
	rows[0].Price = 999

	row, _ := tbl.Get("0_000001")
	assert.Equal(t, 1.0, row.Price)
}
