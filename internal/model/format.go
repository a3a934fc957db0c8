package model

import (
	"math"

	"github.com/shopspring/decimal"
)

// ChangeRate returns (price - preClose) / preClose, or 0 when the result
// would not be finite.
func ChangeRate(price, preClose float64) float64 {
	if preClose == 0 {
		return 0
	}
	rate := (price - preClose) / preClose
	if !finite(rate) {
		return 0
	}
	return rate
}

// FormatRate renders a fractional rate as a percentage with two decimals,
// e.g. 0.0123 -> "1.23%".
func FormatRate(rate float64) string {
	if !finite(rate) {
		rate = 0
	}
	return decimal.NewFromFloat(rate).Shift(2).StringFixed(2) + "%"
}

// FormatPrice renders a price with three decimals.
func FormatPrice(price float64) string {
	if !finite(price) {
		price = 0
	}
	return decimal.NewFromFloat(price).StringFixed(3)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
