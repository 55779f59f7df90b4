// Package money provides monetary parsing and rounding helpers.
//
// Statement amounts are accumulated unrounded and rounded to 2 decimal
// places only at emission points, so rounding error does not compound
// across many trades.
package money

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Round2 rounds a monetary value to 2 decimal places (half away from zero,
// matching broker statement conventions).
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Format2 renders a monetary value for display, e.g. 1629.822617 -> "1629.82".
func Format2(v float64) string {
	return decimal.NewFromFloat(v).Round(2).StringFixed(2)
}

// Parse parses a statement amount. Thousands separators are stripped
// (brokers export "-2,290" for -2290) and accounting-style parentheses
// mean negation ("(123.45)" for -123.45).
func Parse(s string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	negate := false
	if len(cleaned) >= 2 && strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negate = true
		cleaned = strings.TrimSpace(cleaned[1 : len(cleaned)-1])
	}
	if cleaned == "" {
		return 0, fmt.Errorf("empty amount")
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if negate {
		v = -v
	}
	return v, nil
}

// RunningTotal accumulates amounts with the running total rounded to
// 2 decimals after every addition, matching how brokers round their own
// cumulative columns.
type RunningTotal struct {
	total decimal.Decimal
}

// Add adds v and rounds the running total, returning the new total.
func (r *RunningTotal) Add(v float64) float64 {
	r.total = r.total.Add(decimal.NewFromFloat(v)).Round(2)
	return r.total.InexactFloat64()
}

// Value returns the current running total.
func (r *RunningTotal) Value() float64 {
	return r.total.InexactFloat64()
}
