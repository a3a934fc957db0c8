// Package model defines shared data types used across stockwatch.
//
// Conventions:
//   - Symbols are keyed by "<wire market code>_<code>", e.g. "0_000001" for SZ000001
//   - Prices are float64 in CNY as returned by the upstream
//   - Change rates are fractions (0.0123 = 1.23%)
//   - Display strings are formatted with fixed decimals, never locale dependent
package model
