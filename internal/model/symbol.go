package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSymbol is returned when a symbol cannot be parsed or validated.
var ErrInvalidSymbol = errors.New("invalid symbol")

// Market identifies an exchange.
type Market string

const (
	MarketSZ Market = "SZ" // Shenzhen, wire code "0"
	MarketSH Market = "SH" // Shanghai, wire code "1"
)

// Valid reports whether m is a supported market.
func (m Market) Valid() bool {
	return m == MarketSZ || m == MarketSH
}

// WireCode returns the numeric market code used by EastMoney and groups.json.
func (m Market) WireCode() string {
	switch m {
	case MarketSZ:
		return "0"
	case MarketSH:
		return "1"
	default:
		return ""
	}
}

// ParseMarket accepts "SZ"/"SH" in any case or the wire codes "0"/"1".
func ParseMarket(s string) (Market, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SZ", "0":
		return MarketSZ, true
	case "SH", "1":
		return MarketSH, true
	default:
		return "", false
	}
}

// Symbol is a (market, code) pair identifying a tradable instrument.
type Symbol struct {
	Market Market
	Code   string
}

// NewSymbol validates and builds a Symbol. Codes are 1-8 ASCII digits.
func NewSymbol(market Market, code string) (Symbol, error) {
	if !market.Valid() {
		return Symbol{}, fmt.Errorf("%w: unknown market %q", ErrInvalidSymbol, market)
	}
	if !isDigits(code) || len(code) > 8 {
		return Symbol{}, fmt.Errorf("%w: code %q must be 1-8 digits", ErrInvalidSymbol, code)
	}
	return Symbol{Market: market, Code: code}, nil
}

// Key returns the identity key, e.g. "0_000001".
func (s Symbol) Key() string {
	return s.Market.WireCode() + "_" + s.Code
}

// Display returns the code shown to users, e.g. "SZ000001".
func (s Symbol) Display() string {
	return string(s.Market) + s.Code
}

// SecID returns the EastMoney security id, e.g. "0.000001".
func (s Symbol) SecID() string {
	return s.Market.WireCode() + "." + s.Code
}

func (s Symbol) String() string {
	return s.Display()
}

// ParseSymbol parses the forms users and files use:
//
//	SZ000001, sh600519   market prefix + code
//	0.000001, 1_600519   wire code + separator + code
//	000001               bare code, market inferred from the code prefix
func ParseSymbol(s string) (Symbol, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Symbol{}, fmt.Errorf("%w: empty", ErrInvalidSymbol)
	}

	if i := strings.IndexAny(s, "._"); i > 0 {
		market, ok := ParseMarket(s[:i])
		if !ok {
			return Symbol{}, fmt.Errorf("%w: unknown market %q", ErrInvalidSymbol, s[:i])
		}
		return NewSymbol(market, s[i+1:])
	}

	if len(s) > 2 {
		if market, ok := ParseMarket(s[:2]); ok && !isDigits(s[:2]) {
			return NewSymbol(market, s[2:])
		}
	}

	market, ok := InferMarket(s)
	if !ok {
		return Symbol{}, fmt.Errorf("%w: cannot infer market for %q", ErrInvalidSymbol, s)
	}
	return NewSymbol(market, s)
}

// InferMarket guesses the exchange of a bare A-share code from its prefix.
func InferMarket(code string) (Market, bool) {
	if len(code) < 2 || !isDigits(code) {
		return "", false
	}
	switch code[:2] {
	case "00", "30":
		return MarketSZ, true
	case "60", "68":
		return MarketSH, true
	default:
		return "", false
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
