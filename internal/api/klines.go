package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rickgao/stockwatch/internal/model"
)

// Kline periods understood by the history endpoint.
const (
	PeriodDaily   = 101
	PeriodWeekly  = 102
	PeriodMonthly = 103
)

// Price adjustment modes.
const (
	AdjustNone    = 0
	AdjustForward = 1
	AdjustBack    = 2
)

const (
	klineFields1 = "f1,f2,f3,f4,f5,f6,f7,f8,f9,f10,f11,f12,f13"
	klineFields2 = "f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61"
	klineUT      = "fa5fd1943c7b386f172d6893dbfba10b"
)

// KlineParams selects a history range.
type KlineParams struct {
	Begin  string // yyyyMMdd, empty for the earliest available
	End    string // yyyyMMdd, empty for today
	Period int    // PeriodDaily if zero
	Adjust int
}

// GetKlines fetches history candles for sym.
func (c *Client) GetKlines(ctx context.Context, sym model.Symbol, params KlineParams) ([]model.Kline, error) {
	if params.Period == 0 {
		params.Period = PeriodDaily
	}
	if params.Begin == "" {
		params.Begin = "0"
	}
	if params.End == "" {
		params.End = "20500101"
	}

	query := url.Values{}
	query.Set("fields1", klineFields1)
	query.Set("fields2", klineFields2)
	query.Set("beg", params.Begin)
	query.Set("end", params.End)
	query.Set("ut", klineUT)
	query.Set("rtntype", "6")
	query.Set("secid", sym.SecID())
	query.Set("klt", strconv.Itoa(params.Period))
	query.Set("fqt", strconv.Itoa(params.Adjust))

	var resp KlinesResponse
	if err := c.get(ctx, c.klineURL, query, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("%s: %w", sym, ErrNoData)
	}

	klines := make([]model.Kline, 0, len(resp.Data.Klines))
	for _, line := range resp.Data.Klines {
		k, err := ParseKline(line)
		if err != nil {
			c.logger.Warn("skipping kline", "symbol", sym.Display(), "error", err)
			continue
		}
		klines = append(klines, k)
	}

	c.logger.Debug("fetched klines",
		"symbol", sym.Display(),
		"count", len(klines),
	)

	return klines, nil
}
