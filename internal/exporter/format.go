package exporter

import (
	"github.com/shopspring/decimal"
)

// formatFloat formats a value with exactly 2 decimal places, rounding half
// away from zero
func formatFloat(f float64) string {
	return decimal.NewFromFloat(f).StringFixed(2)
}
