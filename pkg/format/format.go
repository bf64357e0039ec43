// Package format renders normalized numbers for display. Every function is
// pure; non-finite input renders as NotAvailable.
package format

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// NotAvailable is rendered for NaN and infinite values.
const NotAvailable = "N/A"

// USD renders v as an en-US dollar amount with two decimals: $64,250.10.
func USD(v float64) string {
	d, ok := toDecimal(v)
	if !ok {
		return NotAvailable
	}
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	return sign + "$" + group(d.StringFixed(2))
}

// Number renders v with thousands separators and at most three decimals,
// trailing zeros trimmed: 1,234,567.891.
func Number(v float64) string {
	d, ok := toDecimal(v)
	if !ok {
		return NotAvailable
	}
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	return sign + group(d.Round(3).String())
}

// Percent renders a signed change with two decimals: +1.25%, -0.40%.
func Percent(v float64) string {
	d, ok := toDecimal(v)
	if !ok {
		return NotAvailable
	}
	d = d.Round(2)
	s := d.StringFixed(2)
	if d.IsPositive() {
		s = "+" + s
	}
	return s + "%"
}

// Confidence renders a 0..1 score as a whole percentage. Zero and invalid
// scores render as the empty string.
func Confidence(c float64) string {
	d, ok := toDecimal(c)
	if !ok || d.IsZero() {
		return ""
	}
	return d.Mul(decimal.NewFromInt(100)).Round(0).String() + "%"
}

func toDecimal(v float64) (decimal.Decimal, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(v), true
}

// group inserts commas into the integer part of an unsigned decimal string.
func group(s string) string {
	intPart, frac, hasFrac := strings.Cut(s, ".")
	if len(intPart) > 3 {
		var b strings.Builder
		lead := len(intPart) % 3
		if lead > 0 {
			b.WriteString(intPart[:lead])
		}
		for i := lead; i < len(intPart); i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(intPart[i : i+3])
		}
		intPart = b.String()
	}
	if hasFrac {
		return intPart + "." + frac
	}
	return intPart
}
