package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/stockwatch/internal/api"
	"github.com/rickgao/stockwatch/internal/model"
	"github.com/rickgao/stockwatch/internal/table"
	"github.com/rickgao/stockwatch/internal/watchlist"
)

type fakeFetcher map[string]float64

func (f fakeFetcher) FetchQuote(_ context.Context, sym model.Symbol) (model.Quote, error) {
	price, ok := f[sym.Key()]
	if !ok {
		return model.Quote{}, api.ErrNoData
	}
	return model.NewQuote(sym, "name-"+sym.Code, 10, price, time.Now()), nil
}

type fakeKlines struct{ got model.Symbol }

func (f *fakeKlines) GetKlines(_ context.Context, sym model.Symbol, _ api.KlineParams) ([]model.Kline, error) {
	f.got = sym
	return []model.Kline{{Date: "2025-08-18"}}, nil
}

func newService(t *testing.T, fetcher fakeFetcher) (*Service, *watchlist.Store, *table.Board) {
	t.Helper()
	store, err := watchlist.Open(watchlist.Options{Dir: t.TempDir()}, nil)
	require.NoError(t, err)
	board := table.NewBoard(store, nil)
	return New(store, board, fetcher, &fakeKlines{}, time.Second, nil), store, board
}

func snapshot(store *watchlist.Store, board *table.Board) ([]model.Symbol, []model.Row) {
	group := store.DefaultGroupName()
	return store.Symbols(group), board.Rows(group)
}

func TestAddSymbol_Success(t *testing.T) {
	svc, store, board := newService(t, fakeFetcher{"0_000001": 10.5, "1_600519": 9})

	row, err := svc.AddSymbol(context.Background(), "", "SZ000001")
	require.NoError(t, err)
	assert.Equal(t, 1, row.Index)
	assert.Equal(t, "5.00%", row.ChangeRateDisplay)

	row, err = svc.AddSymbol(context.Background(), watchlist.DefaultGroup, "600519")
	require.NoError(t, err)
	assert.Equal(t, 2, row.Index)

	syms, rows := snapshot(store, board)
	assert.Len(t, syms, 2)
	require.Len(t, rows, 2)
	assert.Equal(t, "1_600519", rows[1].Key)
}

func TestAddSymbol_RejectsDuplicate(t *testing.T) {
	svc, _, _ := newService(t, fakeFetcher{"0_000001": 10.5})

	_, err := svc.AddSymbol(context.Background(), "", "SZ000001")
	require.NoError(t, err)
	_, err = svc.AddSymbol(context.Background(), "", "0.000001")
	assert.ErrorIs(t, err, watchlist.ErrDuplicateSymbol)
}

func TestAddSymbol_RollsBackWithoutQuote(t *testing.T) {
	svc, store, board := newService(t, fakeFetcher{"0_000001": 10.5})
	_, err := svc.AddSymbol(context.Background(), "", "SZ000001")
	require.NoError(t, err)

	beforeSyms, beforeRows := snapshot(store, board)

	_, err = svc.AddSymbol(context.Background(), "", "SH600000")
	assert.ErrorIs(t, err, ErrNoQuote)

	afterSyms, afterRows := snapshot(store, board)
	assert.Equal(t, beforeSyms, afterSyms)
	assert.Equal(t, beforeRows, afterRows)
}

func TestAddRemove_RoundTrip(t *testing.T) {
	svc, store, board := newService(t, fakeFetcher{"0_000001": 10.5, "1_600519": 9})
	_, err := svc.AddSymbol(context.Background(), "", "SZ000001")
	require.NoError(t, err)

	beforeSyms, beforeRows := snapshot(store, board)

	_, err = svc.AddSymbol(context.Background(), "", "SH600519")
	require.NoError(t, err)
	require.NoError(t, svc.RemoveSymbol("", "SH600519"))

	afterSyms, afterRows := snapshot(store, board)
	assert.Equal(t, beforeSyms, afterSyms)
	assert.Equal(t, beforeRows, afterRows)
}

func TestAddSymbol_Errors(t *testing.T) {
	svc, _, _ := newService(t, fakeFetcher{})

	_, err := svc.AddSymbol(context.Background(), "", "XX123")
	assert.ErrorIs(t, err, model.ErrInvalidSymbol)

	_, err = svc.AddSymbol(context.Background(), "missing", "SZ000001")
	assert.ErrorIs(t, err, watchlist.ErrGroupNotFound)

	err = svc.RemoveSymbol("", "SZ000001")
	assert.ErrorIs(t, err, watchlist.ErrSymbolNotFound)
}

func TestGroups(t *testing.T) {
	svc, _, board := newService(t, fakeFetcher{"0_000001": 11})

	require.NoError(t, svc.AddGroup("银行"))
	_, err := svc.AddSymbol(context.Background(), "银行", "SZ000001")
	require.NoError(t, err)

	groups := svc.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, GroupInfo{Name: "银行", Symbols: 1}, groups[1])

	name, rows, err := svc.Rows("银行")
	require.NoError(t, err)
	assert.Equal(t, "银行", name)
	assert.Len(t, rows, 1)

	require.NoError(t, svc.RemoveGroup("银行"))
	assert.Empty(t, board.Rows("银行"))

	_, _, err = svc.Rows("银行")
	assert.True(t, errors.Is(err, watchlist.ErrGroupNotFound))
}

func TestKlines(t *testing.T) {
	svc, _, _ := newService(t, fakeFetcher{})
	klines, err := svc.Klines(context.Background(), "sh600519", api.KlineParams{})
	require.NoError(t, err)
	assert.Len(t, klines, 1)
	assert.Equal(t, "SH600519", svc.klines.(*fakeKlines).got.Display())
}
