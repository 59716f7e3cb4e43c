package planning

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// RoundCents rounds a monetary value to 2 decimal places.
// The exact binary value is rounded, ties to even: 2.675 becomes 2.67
// and 0.125 becomes 0.12.
func RoundCents(v float64) float64 {
	return roundPlaces(v, 2)
}

// YearsFromMonths converts a month count to years, rounded to 1 decimal
// place with ties to even (3 months is 0.2 years, 9 months is 0.8).
func YearsFromMonths(months int) float64 {
	return decimal.NewFromInt(int64(months)).
		Div(decimal.NewFromInt(MonthsPerYear)).
		RoundBank(1).
		InexactFloat64()
}

func roundPlaces(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.RequireFromString(strconv.FormatFloat(v, 'f', places, 64)).InexactFloat64()
}
