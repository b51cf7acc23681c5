// Package core provides the transaction domain types and money handling.
//
// This file contains functions for parsing amounts typed by users and
// formatting them for display.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencySymbol prefixes every displayed amount.
const CurrencySymbol = "$"

// maxAmountExponent bounds the power of ten an amount may carry. Printing a
// decimal expands every digit its exponent implies.
const maxAmountExponent = 15

// ParseAmount converts user text into a strictly positive decimal amount.
//
// Surrounding whitespace is ignored. Anything that is not a finite number
// greater than zero fails with ErrAmountNotPositive.
//
// Examples:
//
//	ParseAmount("4.5")  -> 4.5, nil
//	ParseAmount(" 12 ") -> 12, nil
//	ParseAmount("0")    -> error
//	ParseAmount("-5")   -> error
//	ParseAmount("abc")  -> error
//	ParseAmount("1e400") -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, ErrAmountNotPositive
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, ErrAmountNotPositive
	}
	if !d.IsPositive() || !InRange(d) {
		return decimal.Decimal{}, ErrAmountNotPositive
	}
	return d, nil
}

// InRange reports whether d has a bounded exponent and a finite float64 value.
func InRange(d decimal.Decimal) bool {
	if e := d.Exponent(); e > maxAmountExponent || e < -maxAmountExponent {
		return false
	}
	f, _ := d.Float64()
	return !math.IsInf(f, 0)
}

// FormatAmount renders an amount with the currency symbol and exactly two
// decimal places, e.g. 4.5 -> "$4.50".
func FormatAmount(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + CurrencySymbol + d.Neg().StringFixed(2)
	}
	return CurrencySymbol + d.StringFixed(2)
}
