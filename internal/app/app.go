// Package app ties the watchlist, the row board and the quote upstream
// together for user-initiated operations.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rickgao/stockwatch/internal/api"
	"github.com/rickgao/stockwatch/internal/model"
	"github.com/rickgao/stockwatch/internal/poller"
	"github.com/rickgao/stockwatch/internal/table"
	"github.com/rickgao/stockwatch/internal/watchlist"
)

// ErrNoQuote is returned when a symbol being added yields no quote.
var ErrNoQuote = errors.New("no quote for symbol")

// Watchlist is the persistent group store.
type Watchlist interface {
	table.Groups
	HasGroup(name string) bool
	DefaultGroupName() string
	AddGroup(name string) error
	RemoveGroup(name string) error
	Add(group string, sym model.Symbol) error
	Remove(group string, sym model.Symbol) error
}

// KlineSource serves history candles.
type KlineSource interface {
	GetKlines(ctx context.Context, sym model.Symbol, params api.KlineParams) ([]model.Kline, error)
}

// GroupInfo summarises one group.
type GroupInfo struct {
	Name     string `json:"name"`
	Symbols  int    `json:"symbols"`
	ReadOnly bool   `json:"read_only"`
}

// Service performs validated watchlist edits.
type Service struct {
	store   Watchlist
	board   *table.Board
	fetcher poller.Fetcher
	klines  KlineSource
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a Service. klines may be nil when history is unavailable.
func New(store Watchlist, board *table.Board, fetcher poller.Fetcher, klines KlineSource, timeout time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = poller.DefaultConfig().Timeout
	}
	return &Service{
		store:   store,
		board:   board,
		fetcher: fetcher,
		klines:  klines,
		timeout: timeout,
		logger:  logger,
	}
}

// resolveGroup maps "" to the default group and checks existence.
func (s *Service) resolveGroup(group string) (string, error) {
	if group == "" {
		group = s.store.DefaultGroupName()
	}
	if !s.store.HasGroup(group) {
		return "", fmt.Errorf("%q: %w", group, watchlist.ErrGroupNotFound)
	}
	return group, nil
}

// Groups lists every group with its symbol count.
func (s *Service) Groups() []GroupInfo {
	names := s.store.Groups()
	out := make([]GroupInfo, 0, len(names))
	for _, name := range names {
		out = append(out, GroupInfo{
			Name:     name,
			Symbols:  len(s.store.Symbols(name)),
			ReadOnly: name == watchlist.AllGroup,
		})
	}
	return out
}

// AddGroup creates a group.
func (s *Service) AddGroup(name string) error {
	if err := s.store.AddGroup(name); err != nil {
		return err
	}
	s.logger.Info("group added", "group", name)
	return nil
}

// RemoveGroup deletes a group and its rows.
func (s *Service) RemoveGroup(name string) error {
	if err := s.store.RemoveGroup(name); err != nil {
		return err
	}
	s.board.DropGroup(name)
	s.logger.Info("group removed", "group", name)
	return nil
}

// Rows returns a group's rows in display order.
func (s *Service) Rows(group string) (string, []model.Row, error) {
	group, err := s.resolveGroup(group)
	if err != nil {
		return "", nil, err
	}
	return group, s.board.Rows(group), nil
}

// AddSymbol adds input to group, fetches it once and keeps it only if a
// quote came back. On success the new row is placed at the end of the
// group. On failure the watchlist and board are left as they were.
func (s *Service) AddSymbol(ctx context.Context, group, input string) (model.Row, error) {
	sym, err := model.ParseSymbol(input)
	if err != nil {
		return model.Row{}, err
	}
	group, err = s.resolveGroup(group)
	if err != nil {
		return model.Row{}, err
	}

	if err := s.store.Add(group, sym); err != nil {
		return model.Row{}, err
	}

	q, err := s.Quote(ctx, sym)
	if err != nil {
		s.rollback(group, sym)
		s.logger.Warn("rejected symbol without quote",
			"group", group,
			"symbol", sym.Display(),
			"err", err,
		)
		return model.Row{}, fmt.Errorf("%s: %w: %v", sym, ErrNoQuote, err)
	}

	row := s.board.Insert(group, q)
	s.logger.Info("symbol added",
		"group", group,
		"symbol", sym.Display(),
		"name", q.Name,
	)
	return row, nil
}

func (s *Service) rollback(group string, sym model.Symbol) {
	if err := s.store.Remove(group, sym); err != nil && !errors.Is(err, watchlist.ErrSymbolNotFound) {
		s.logger.Error("failed to roll back symbol", "group", group, "symbol", sym.Display(), "err", err)
	}
	// A concurrent cycle may already have created a row.
	s.board.Remove(group, sym.Key())
}

// RemoveSymbol deletes input from group and drops its row.
func (s *Service) RemoveSymbol(group, input string) error {
	sym, err := model.ParseSymbol(input)
	if err != nil {
		return err
	}
	group, err = s.resolveGroup(group)
	if err != nil {
		return err
	}

	if err := s.store.Remove(group, sym); err != nil {
		return err
	}
	s.board.Remove(group, sym.Key())
	s.logger.Info("symbol removed", "group", group, "symbol", sym.Display())
	return nil
}

// Quote fetches one quote outside the poll loop.
func (s *Service) Quote(ctx context.Context, sym model.Symbol) (model.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.fetcher.FetchQuote(ctx, sym)
}

// Klines fetches history candles for input.
func (s *Service) Klines(ctx context.Context, input string, params api.KlineParams) ([]model.Kline, error) {
	if s.klines == nil {
		return nil, errors.New("history is not available")
	}
	sym, err := model.ParseSymbol(input)
	if err != nil {
		return nil, err
	}
	return s.klines.GetKlines(ctx, sym, params)
}

// Reloaded reconciles the board after the watchlist changed on disk.
func (s *Service) Reloaded() {
	s.board.Prune()
}
