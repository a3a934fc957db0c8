package api

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rickgao/stockwatch/internal/model"
)

// stripJSONP unwraps "cb({...});" style responses. Plain JSON is returned as is.
func stripJSONP(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] == '{' || trimmed[0] == '[' {
		return trimmed
	}
	open := bytes.IndexByte(trimmed, '(')
	end := bytes.LastIndexByte(trimmed, ')')
	if open < 0 || end <= open {
		return trimmed
	}
	return trimmed[open+1 : end]
}

// ToQuote converts a trends response to a quote for sym. The price is the
// close of the last trend point.
func (r *TrendsResponse) ToQuote(sym model.Symbol, fetchedAt time.Time) (model.Quote, error) {
	if r == nil || r.Data == nil {
		return model.Quote{}, fmt.Errorf("%s: %w: missing data", sym, ErrNoData)
	}
	d := r.Data
	if strings.TrimSpace(d.Name) == "" {
		return model.Quote{}, fmt.Errorf("%s: %w: missing name", sym, ErrNoData)
	}
	if len(d.Trends) == 0 {
		return model.Quote{}, fmt.Errorf("%s: %w: empty trends", sym, ErrNoData)
	}

	price, err := trendPrice(d.Trends[len(d.Trends)-1])
	if err != nil {
		return model.Quote{}, fmt.Errorf("%s: %w", sym, err)
	}

	return model.NewQuote(sym, d.Name, d.PreClose, price, fetchedAt), nil
}

// trendPrice extracts the third comma-separated field of a trend point.
func trendPrice(point string) (float64, error) {
	fields := strings.Split(point, ",")
	if len(fields) < 3 {
		return 0, fmt.Errorf("%w: malformed trend point %q", ErrNoData, point)
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad price %q", ErrNoData, fields[2])
	}
	return price, nil
}

// ParseKline parses "date,open,close,high,low,volume,turnover[,...]".
func ParseKline(line string) (model.Kline, error) {
	f := strings.Split(line, ",")
	if len(f) < 7 {
		return model.Kline{}, fmt.Errorf("malformed kline %q", line)
	}

	var (
		k   = model.Kline{Date: f[0]}
		err error
	)
	floats := []struct {
		dst *float64
		src string
	}{
		{&k.Open, f[1]},
		{&k.Close, f[2]},
		{&k.High, f[3]},
		{&k.Low, f[4]},
		{&k.Turnover, f[6]},
	}
	for _, p := range floats {
		if *p.dst, err = strconv.ParseFloat(p.src, 64); err != nil {
			return model.Kline{}, fmt.Errorf("kline %s: parse %q: %w", f[0], p.src, err)
		}
	}
	vol, err := strconv.ParseFloat(f[5], 64)
	if err != nil {
		return model.Kline{}, fmt.Errorf("kline %s: parse volume %q: %w", f[0], f[5], err)
	}
	k.Volume = int64(vol)

	return k, nil
}
