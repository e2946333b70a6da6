// Package finance implements the calculation engine: period-stepping
// projections (compound interest, loan payoff, retirement, debt payoff) and
// closed-form formulas (inflation, SIP, EMI, income tax, GST).
//
// Every calculator is a pure function of its parameters. Results are rounded
// with the helpers in this file so that the same input always renders the
// same literal values.
package finance

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round2 rounds v to two decimal places, half away from zero.
//
// Rounding is performed on the shortest decimal representation of v, so
// 1.005 rounds to 1.01 even though its binary value is slightly below.
func Round2(v float64) float64 { return roundPlaces(v, 2) }

// Round1 rounds v to one decimal place, half away from zero.
func Round1(v float64) float64 { return roundPlaces(v, 1) }

// Round0 rounds v to the nearest whole unit, half away from zero.
func Round0(v float64) float64 { return roundPlaces(v, 0) }

func roundPlaces(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	if f == 0 {
		// normalise -0
		return 0
	}
	return f
}

// FormatFixed2 renders v with exactly two decimals using the same rounding
// policy as Round2.
func FormatFixed2(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero.StringFixed(2)
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

func isFinite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
