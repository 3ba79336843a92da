// Package core provides money parsing and display helpers.
//
// Amounts are kept as float64 across the core; rounding to two decimals only
// happens when a value is rendered.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// CurrencySymbol prefixes every rendered amount.
const CurrencySymbol = "S/"

// ParseAmount converts user input into a positive amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Signs,
// exponents, thousands separators and zero are rejected.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,5")  -> 12.5, nil
//	ParseAmount("-1")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	for _, p := range parts {
		for _, r := range p {
			if !unicode.IsDigit(r) {
				return 0, ErrInvalidAmount
			}
		}
	}
	if parts[0] == "" {
		s = "0" + s
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !(v > 0) || math.IsInf(v, 0) {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// FormatAmount renders v as "S/ 1234.50".
func FormatAmount(v float64) string {
	if v < 0 {
		return "-" + CurrencySymbol + " " + strconv.FormatFloat(-v, 'f', 2, 64)
	}
	return CurrencySymbol + " " + strconv.FormatFloat(v, 'f', 2, 64)
}

// FormatSigned renders a transaction amount with the sign of its type.
func FormatSigned(t Transaction) string {
	sign := "-"
	if t.Type == Income {
		sign = "+"
	}
	return sign + " " + FormatAmount(t.Amount)
}
