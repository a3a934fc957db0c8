package display

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/stockwatch/internal/model"
)

func TestNewRowView(t *testing.T) {
	sym, err := model.ParseSymbol("SZ000001")
	require.NoError(t, err)

	p := DefaultPalette()
	up := model.RowFromQuote(model.NewQuote(sym, "平安银行", 100, 105, time.Now()), 1)
	v := NewRowView(up, p)

	assert.Equal(t, "SZ000001", v.Code)
	assert.Equal(t, "105.000", v.Price)
	assert.Equal(t, "5.000", v.ChangeAmount)
	assert.Equal(t, "5.00%", v.ChangeRateDisplay)
	assert.Equal(t, "up", v.Trend)
	assert.Equal(t, "red", v.Color)

	down := model.RowFromQuote(model.NewQuote(sym, "平安银行", 100, 99, time.Now()), 1)
	assert.Equal(t, "green", NewRowView(down, p).Color)

	flat := model.RowFromQuote(model.NewQuote(sym, "平安银行", 10, 10, time.Now()), 1)
	assert.Equal(t, "gray", NewRowView(flat, Palette{Up: "a", Down: "b", Flat: "gray"}).Color)
}

func TestNewSnapshot(t *testing.T) {
	id := uuid.New()
	snap := NewSnapshot("自选", id, nil, DefaultPalette())
	assert.Equal(t, "自选", snap.Group)
	assert.Equal(t, id, snap.CycleID)
	assert.NotNil(t, snap.Rows)
	assert.Empty(t, snap.Rows)
}
