// Package core provides the classroom domain types.
//
// This file contains amount parsing and display helpers. Amounts are
// decimal.Decimal throughout so that sums over many small payments stay exact.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts travel as plain JSON numbers, the shape stored records have always had.
	decimal.MarshalJSONWithoutQuotes = true
}

// ParseAmount converts user input to a non-negative amount.
//
// Both dot (12.50) and comma (12,50) decimal separators are accepted. Signs,
// thousands separators and anything that is not a digit are rejected.
//
// Examples:
//
//	ParseAmount("2000")  -> 2000, nil
//	ParseAmount("12,5")  -> 12.5, nil
//	ParseAmount("0")     -> 0, nil
//	ParseAmount("-1")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, p := range parts {
		for _, r := range p {
			if !unicode.IsDigit(r) {
				return decimal.Zero, ErrInvalidAmount
			}
		}
	}
	if parts[0] == "" && (len(parts) == 1 || parts[1] == "") {
		return decimal.Zero, ErrInvalidAmount
	}
	if parts[0] == "" {
		s = "0" + s
	}
	if strings.HasSuffix(s, ".") {
		s = strings.TrimSuffix(s, ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParsePositiveAmount is ParseAmount restricted to values above zero, the rule
// for expenses.
func ParsePositiveAmount(s string) (decimal.Decimal, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders d with the currency symbol for display, e.g. "Rp 2000"
// or "Rp 12.50".
func FormatAmount(symbol string, d decimal.Decimal) string {
	var s string
	if d.Equal(d.Truncate(0)) {
		s = d.Truncate(0).String()
	} else {
		s = d.StringFixed(2)
	}
	if symbol == "" {
		return s
	}
	return symbol + " " + s
}
