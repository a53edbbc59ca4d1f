// Package core provides the dashboard data model and money formatting.
//
// Amounts travel as JSON numbers. Display formatting goes through decimal
// rounding so that values like 12.345 render the same on every platform.
package core

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount reads a numeric form value. Empty or unparseable input yields 0,
// the same as an empty number input would.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// FormatDollars renders an amount as "$12.50".
func FormatDollars(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}

// FormatWholeDollars renders an amount without cents, e.g. "$13".
func FormatWholeDollars(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(0)
}

// FormatNumber prints v with the shortest representation: 85, 85.5.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
