package model

import (
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Quotes
// -----------------------------------------------------------------------------

// Quote is the result of one successful per-symbol fetch.
type Quote struct {
	Symbol            Symbol
	Name              string    // Display name from the upstream
	PreClose          float64   // Previous close
	Price             float64   // Latest trend point price
	ChangeRate        float64   // Fraction, 0 when PreClose is 0
	ChangeRateDisplay string    // e.g. "1.23%"
	ChangeAmount      float64   // Price - PreClose
	FetchedAt         time.Time // Local time the response was parsed
}

// NewQuote builds a Quote and derives the change fields.
func NewQuote(sym Symbol, name string, preClose, price float64, fetchedAt time.Time) Quote {
	rate := ChangeRate(price, preClose)
	amount := price - preClose
	if !finite(amount) {
		amount = 0
	}
	return Quote{
		Symbol:            sym,
		Name:              name,
		PreClose:          preClose,
		Price:             price,
		ChangeRate:        rate,
		ChangeRateDisplay: FormatRate(rate),
		ChangeAmount:      amount,
		FetchedAt:         fetchedAt,
	}
}

// Cycle is one poll: the symbols submitted, in order, and their results.
// Results[i] belongs to Symbols[i]; nil marks a failed fetch.
type Cycle struct {
	ID        uuid.UUID
	StartedAt time.Time
	Duration  time.Duration
	Symbols   []Symbol
	Results   []*Quote
}

// Present returns the successful results in submission order.
func (c Cycle) Present() []Quote {
	out := make([]Quote, 0, len(c.Results))
	for _, q := range c.Results {
		if q != nil {
			out = append(out, *q)
		}
	}
	return out
}

// -----------------------------------------------------------------------------
// Rows
// -----------------------------------------------------------------------------

// Trend is the direction of a row's change since the previous close.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// Row is the live display record for one symbol.
type Row struct {
	Key               string
	Symbol            Symbol
	DisplayCode       string
	Name              string
	Price             float64
	ChangeRate        float64
	ChangeRateDisplay string
	ChangeAmount      float64
	Index             int // 1-based position among this cycle's successful results
	UpdatedAt         time.Time
}

// RowFromQuote builds a new row for a first-seen symbol.
func RowFromQuote(q Quote, index int) Row {
	return Row{
		Key:               q.Symbol.Key(),
		Symbol:            q.Symbol,
		DisplayCode:       q.Symbol.Display(),
		Name:              q.Name,
		Price:             q.Price,
		ChangeRate:        q.ChangeRate,
		ChangeRateDisplay: q.ChangeRateDisplay,
		ChangeAmount:      q.ChangeAmount,
		Index:             index,
		UpdatedAt:         q.FetchedAt,
	}
}

// Update copies the mutable fields of q into r.
func (r *Row) Update(q Quote, index int) {
	r.Name = q.Name
	r.Price = q.Price
	r.ChangeRate = q.ChangeRate
	r.ChangeRateDisplay = q.ChangeRateDisplay
	r.ChangeAmount = q.ChangeAmount
	r.Index = index
	r.UpdatedAt = q.FetchedAt
}

// Trend reports up/down/flat from the sign of ChangeAmount.
func (r Row) Trend() Trend {
	switch {
	case r.ChangeAmount > 0:
		return TrendUp
	case r.ChangeAmount < 0:
		return TrendDown
	default:
		return TrendFlat
	}
}

// -----------------------------------------------------------------------------
// History
// -----------------------------------------------------------------------------

// Kline is one candle of historical data.
type Kline struct {
	Date     string  `json:"date"` // yyyy-MM-dd
	Open     float64 `json:"open"`
	Close    float64 `json:"close"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Volume   int64   `json:"volume"`
	Turnover float64 `json:"turnover"`
}
