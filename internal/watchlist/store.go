package watchlist

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rickgao/stockwatch/internal/model"
)

// AllGroup is the read-only pseudo-group backed by the CSV file.
const AllGroup = "全部"

// Defaults for Options.
const (
	DefaultGroupsFile = "groups.json"
	DefaultCSVFile    = "stocks.csv"
	DefaultGroup      = "自选"
)

var (
	ErrGroupNotFound   = errors.New("group not found")
	ErrGroupExists     = errors.New("group already exists")
	ErrLastGroup       = errors.New("cannot remove the last group")
	ErrInvalidName     = errors.New("group name is empty")
	ErrReadOnlyGroup   = errors.New("group is read-only")
	ErrDuplicateSymbol = errors.New("symbol already in group")
	ErrSymbolNotFound  = errors.New("symbol not in group")
)

type fileStock struct {
	MarketCode string `json:"marketCode"`
	StockCode  string `json:"stockCode"`
}

type fileGroup struct {
	Name   string      `json:"name"`
	Stocks []fileStock `json:"stocks"`
}

type fileFormat struct {
	Groups []fileGroup `json:"groups"`
}

type group struct {
	name    string
	symbols []model.Symbol
}

// Options locates the watchlist files.
type Options struct {
	Dir          string // Directory holding both files; "~" is expanded
	GroupsFile   string // default: groups.json
	CSVFile      string // default: stocks.csv; "-" disables
	DefaultGroup string // default: 自选
}

// Store is the file-backed watchlist. It is safe for concurrent use.
type Store struct {
	path         string
	csvPath      string
	defaultGroup string
	logger       *slog.Logger

	mu     sync.RWMutex
	groups []group
	csv    []model.Symbol
}

// Open loads the watchlist, creating the directory and a default groups
// file when missing.
func Open(opts Options, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dir, err := expandHome(opts.Dir)
	if err != nil {
		return nil, err
	}
	if opts.GroupsFile == "" {
		opts.GroupsFile = DefaultGroupsFile
	}
	if opts.CSVFile == "" {
		opts.CSVFile = DefaultCSVFile
	}
	if opts.DefaultGroup == "" {
		opts.DefaultGroup = DefaultGroup
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create watchlist dir: %w", err)
	}

	s := &Store{
		path:         filepath.Join(dir, opts.GroupsFile),
		defaultGroup: opts.DefaultGroup,
		logger:       logger,
	}
	if opts.CSVFile != "-" {
		s.csvPath = filepath.Join(dir, opts.CSVFile)
	}

	if err := s.load(true); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the groups file location.
func (s *Store) Path() string {
	return s.path
}

// Reload re-reads both files. A missing groups file keeps the current
// groups; an unparsable one is an error and also keeps them.
func (s *Store) Reload() error {
	return s.load(false)
}

func (s *Store) load(create bool) error {
	groups, err := s.readGroups()
	if errors.Is(err, os.ErrNotExist) {
		if !create {
			return nil
		}
		groups, err = nil, nil
	}
	if err != nil {
		return err
	}

	csvSyms, err := loadCSV(s.csvPath, s.logger)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.groups = groups
	s.csv = csvSyms
	if len(s.groups) == 0 {
		s.groups = []group{{name: s.defaultGroup}}
		return s.saveLocked()
	}
	return nil
}

func (s *Store) readGroups() ([]group, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}

	var ff fileFormat
	if err := json.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}

	groups := make([]group, 0, len(ff.Groups))
	seen := make(map[string]bool)
	for _, fg := range ff.Groups {
		name := strings.TrimSpace(fg.Name)
		if name == "" || name == AllGroup || seen[name] {
			s.logger.Warn("skipping group", "group", fg.Name, "file", s.path)
			continue
		}
		seen[name] = true

		g := group{name: name}
		keys := make(map[string]bool)
		for _, st := range fg.Stocks {
			market, ok := model.ParseMarket(st.MarketCode)
			if !ok {
				s.logger.Warn("skipping stock", "group", name, "market", st.MarketCode, "code", st.StockCode)
				continue
			}
			sym, err := model.NewSymbol(market, st.StockCode)
			if err != nil {
				s.logger.Warn("skipping stock", "group", name, "err", err)
				continue
			}
			if keys[sym.Key()] {
				continue
			}
			keys[sym.Key()] = true
			g.symbols = append(g.symbols, sym)
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// saveLocked writes the groups file via a temp file and rename.
func (s *Store) saveLocked() error {
	ff := fileFormat{Groups: make([]fileGroup, len(s.groups))}
	for i, g := range s.groups {
		stocks := make([]fileStock, len(g.symbols))
		for j, sym := range g.symbols {
			stocks[j] = fileStock{MarketCode: sym.Market.WireCode(), StockCode: sym.Code}
		}
		ff.Groups[i] = fileGroup{Name: g.name, Stocks: stocks}
	}

	data, err := json.MarshalIndent(ff, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal groups: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".groups-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write groups: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync groups: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close groups: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace groups file: %w", err)
	}
	return nil
}

// Groups returns the group names in file order, followed by AllGroup when
// the CSV file has entries.
func (s *Store) Groups() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.groups)+1)
	for _, g := range s.groups {
		out = append(out, g.name)
	}
	if len(s.csv) > 0 {
		out = append(out, AllGroup)
	}
	return out
}

// HasGroup reports whether name is a known group.
func (s *Store) HasGroup(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if name == AllGroup {
		return len(s.csv) > 0
	}
	return s.indexLocked(name) >= 0
}

// DefaultGroupName returns the group used when none is specified.
func (s *Store) DefaultGroupName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.indexLocked(s.defaultGroup) >= 0 || len(s.groups) == 0 {
		return s.defaultGroup
	}
	return s.groups[0].name
}

func (s *Store) indexLocked(name string) int {
	for i, g := range s.groups {
		if g.name == name {
			return i
		}
	}
	return -1
}

// AddGroup creates an empty group.
func (s *Store) AddGroup(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if name == AllGroup || s.indexLocked(name) >= 0 {
		return fmt.Errorf("%q: %w", name, ErrGroupExists)
	}

	prev := s.groups
	s.groups = append(append([]group(nil), s.groups...), group{name: name})
	if err := s.saveLocked(); err != nil {
		s.groups = prev
		return err
	}
	return nil
}

// RemoveGroup deletes a group and its symbols. The last group cannot be
// removed.
func (s *Store) RemoveGroup(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == AllGroup {
		return fmt.Errorf("%q: %w", name, ErrReadOnlyGroup)
	}
	i := s.indexLocked(name)
	if i < 0 {
		return fmt.Errorf("%q: %w", name, ErrGroupNotFound)
	}
	if len(s.groups) == 1 {
		return ErrLastGroup
	}

	prev := s.groups
	next := make([]group, 0, len(s.groups)-1)
	next = append(next, s.groups[:i]...)
	next = append(next, s.groups[i+1:]...)
	s.groups = next
	if err := s.saveLocked(); err != nil {
		s.groups = prev
		return err
	}
	return nil
}

// Symbols returns a copy of the group's symbols in display order.
func (s *Store) Symbols(name string) []model.Symbol {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if name == AllGroup {
		return append([]model.Symbol(nil), s.csv...)
	}
	i := s.indexLocked(name)
	if i < 0 {
		return nil
	}
	return append([]model.Symbol(nil), s.groups[i].symbols...)
}

// Contains reports whether sym is in the group.
func (s *Store) Contains(name string, sym model.Symbol) bool {
	for _, have := range s.Symbols(name) {
		if have.Key() == sym.Key() {
			return true
		}
	}
	return false
}

// Add appends sym to the group and saves.
func (s *Store) Add(name string, sym model.Symbol) error {
	if !sym.Market.Valid() || !isCode(sym.Code) {
		return fmt.Errorf("%w: %q", model.ErrInvalidSymbol, sym.Code)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if name == AllGroup {
		return fmt.Errorf("%q: %w", name, ErrReadOnlyGroup)
	}
	i := s.indexLocked(name)
	if i < 0 {
		return fmt.Errorf("%q: %w", name, ErrGroupNotFound)
	}
	for _, have := range s.groups[i].symbols {
		if have.Key() == sym.Key() {
			return fmt.Errorf("%s in %q: %w", sym, name, ErrDuplicateSymbol)
		}
	}

	prev := s.groups[i].symbols
	s.groups[i].symbols = append(append([]model.Symbol(nil), prev...), sym)
	if err := s.saveLocked(); err != nil {
		s.groups[i].symbols = prev
		return err
	}
	return nil
}

// Remove deletes sym from the group and saves.
func (s *Store) Remove(name string, sym model.Symbol) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == AllGroup {
		return fmt.Errorf("%q: %w", name, ErrReadOnlyGroup)
	}
	i := s.indexLocked(name)
	if i < 0 {
		return fmt.Errorf("%q: %w", name, ErrGroupNotFound)
	}

	prev := s.groups[i].symbols
	next := make([]model.Symbol, 0, len(prev))
	for _, have := range prev {
		if have.Key() != sym.Key() {
			next = append(next, have)
		}
	}
	if len(next) == len(prev) {
		return fmt.Errorf("%s in %q: %w", sym, name, ErrSymbolNotFound)
	}

	s.groups[i].symbols = next
	if err := s.saveLocked(); err != nil {
		s.groups[i].symbols = prev
		return err
	}
	return nil
}

// AddSymbol is Add reporting only success. Duplicates, invalid symbols,
// unknown groups and save failures all return false.
func (s *Store) AddSymbol(name string, sym model.Symbol) bool {
	if err := s.Add(name, sym); err != nil {
		s.logger.Debug("add symbol rejected", "group", name, "symbol", sym.Display(), "err", err)
		return false
	}
	return true
}

// RemoveSymbol is Remove reporting only success.
func (s *Store) RemoveSymbol(name string, sym model.Symbol) bool {
	if err := s.Remove(name, sym); err != nil {
		s.logger.Debug("remove symbol rejected", "group", name, "symbol", sym.Display(), "err", err)
		return false
	}
	return true
}

// AllSymbols returns the union of every group, then the CSV entries,
// deduplicated by key in first-seen order.
func (s *Store) AllSymbols() []model.Symbol {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var out []model.Symbol
	add := func(syms []model.Symbol) {
		for _, sym := range syms {
			if !seen[sym.Key()] {
				seen[sym.Key()] = true
				out = append(out, sym)
			}
		}
	}
	for _, g := range s.groups {
		add(g.symbols)
	}
	add(s.csv)
	return out
}

func isCode(code string) bool {
	_, err := model.NewSymbol(model.MarketSZ, code)
	return err == nil
}

func expandHome(dir string) (string, error) {
	if dir == "" {
		dir = "~/.stockMonitor"
	}
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	return dir, nil
}
