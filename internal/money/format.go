// Package money formats amounts, percentages and multiples for display.
//
// One Formatter is built per run from the currency settings and shared by the
// console summary and the PDF report, so every surface renders values the same
// way. Rounding is half away from zero on the decimal value.
package money

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"salesreport/internal/config"
)

// Formatter renders numbers with configurable separators and currency symbol
type Formatter struct {
	Symbol    string
	Thousands string
	Decimal   string
}

// NewFormatter builds a Formatter from the currency config
func NewFormatter(cfg config.CurrencyConfig) Formatter {
	f := Formatter{
		Symbol:    cfg.Symbol,
		Thousands: cfg.ThousandsSep,
		Decimal:   cfg.DecimalSep,
	}
	if f.Decimal == "" {
		f.Decimal = "."
	}
	return f
}

// Default returns the Brazilian real layout: R$ 1.234,56
func Default() Formatter {
	return NewFormatter(config.Default().Currency)
}

// Amount renders v with two decimals and the currency symbol
func (f Formatter) Amount(v float64) string {
	number := f.Number(v, 2)
	if f.Symbol == "" {
		return number
	}
	return f.Symbol + " " + number
}

// Number renders v rounded to places decimals with grouped thousands.
// Non-finite values render as NaN, ∞ or -∞.
func (f Formatter) Number(v float64, places int32) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "∞"
	case math.IsInf(v, -1):
		return "-∞"
	}

	raw := decimal.NewFromFloat(v).StringFixed(places)

	sign := ""
	if strings.HasPrefix(raw, "-") {
		sign = "-"
		raw = raw[1:]
	}

	intPart, fracPart, _ := strings.Cut(raw, ".")
	out := sign + groupThousands(intPart, f.Thousands)
	if fracPart != "" {
		out += f.Decimal + fracPart
	}
	return out
}

// Percent renders a percentage with one decimal, e.g. 80,0%
func (f Formatter) Percent(v float64) string {
	return f.Number(v, 1) + "%"
}

// Multiple renders a ratio with one decimal, e.g. 1,6x
func (f Formatter) Multiple(v float64) string {
	return f.Number(v, 1) + "x"
}

// groupThousands groups the digits of raw using sep
func groupThousands(raw string, sep string) string {
	if len(raw) <= 3 || sep == "" {
		return raw
	}

	var builder strings.Builder
	firstGroupLen := len(raw) % 3
	if firstGroupLen == 0 {
		firstGroupLen = 3
	}

	builder.WriteString(raw[:firstGroupLen])
	for index := firstGroupLen; index < len(raw); index += 3 {
		builder.WriteString(sep)
		builder.WriteString(raw[index : index+3])
	}

	return builder.String()
}
