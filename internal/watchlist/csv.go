package watchlist

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/rickgao/stockwatch/internal/model"
)

// loadCSV reads "market,code" lines. A single column is parsed as a symbol
// (SZ000001, 600519). Blank lines and # comments are ignored, bad lines are
// skipped. A missing file yields no symbols.
func loadCSV(path string, logger *slog.Logger) ([]model.Symbol, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return parseCSV(f, logger)
}

func parseCSV(r io.Reader, logger *slog.Logger) ([]model.Symbol, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	seen := make(map[string]bool)
	var out []model.Symbol
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		sym, err := csvRecordSymbol(record)
		if err != nil {
			line, _ := reader.FieldPos(0)
			logger.Warn("skipping csv line", "line", line, "err", err)
			continue
		}
		if seen[sym.Key()] {
			continue
		}
		seen[sym.Key()] = true
		out = append(out, sym)
	}
	return out, nil
}

func csvRecordSymbol(record []string) (model.Symbol, error) {
	fields := make([]string, 0, len(record))
	for _, f := range record {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}

	switch len(fields) {
	case 0:
		return model.Symbol{}, fmt.Errorf("%w: empty record", model.ErrInvalidSymbol)
	case 1:
		return model.ParseSymbol(fields[0])
	default:
		market, ok := model.ParseMarket(fields[0])
		if !ok {
			return model.Symbol{}, fmt.Errorf("%w: unknown market %q", model.ErrInvalidSymbol, fields[0])
		}
		return model.NewSymbol(market, fields[1])
	}
}
