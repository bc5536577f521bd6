// Package clp holds money helpers for Chilean pesos. CLP has no minor unit,
// so every amount that reaches a customer is a whole number of pesos.
package clp

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Round rounds an amount half-up to the nearest whole peso.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// Format renders an amount as a display string with dot thousands
// separators, e.g. 1234567 -> "1.234.567". The amount is rounded to whole
// pesos first.
func Format(d decimal.Decimal) string {
	s := Round(d).String()

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return b.String()
}
