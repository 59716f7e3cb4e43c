/*
yield.go - Real and net yield calculator

PURPOSE:
  Turns a nominal annual rate (e.g. the Selic target) and an annual inflation
  rate (e.g. 12-month IPCA) into the real rate that feeds the projection
  engine. All rates are decimal fractions: 10.5% is 0.105.

FORMULAS:
  real     = (1 + nominal) / (1 + inflation) - 1
  net real = real(nominal * (1 - WithholdingRate), inflation)
  nominal  = (1 + real) * (1 + inflation) - 1      (inverse of real)

EXAMPLE:
  planning.RealYield(0.105, 0.0468)    // ≈ 0.0556
  planning.NetRealYield(0.105, 0.0468) // ≈ 0.0406
*/
package planning

import (
	"github.com/shopspring/decimal"
)

// WithholdingRate is the income tax withheld on the nominal return.
const WithholdingRate = 0.15

var hundred = decimal.NewFromInt(100)

// RealYield removes inflation from a nominal rate.
func RealYield(nominal, inflation float64) float64 {
	return (1+nominal)/(1+inflation) - 1
}

// NetRealYield is RealYield after withholding tax on the nominal rate.
func NetRealYield(nominal, inflation float64) float64 {
	return RealYield(NetNominal(nominal), inflation)
}

// NetNominal applies the withholding rate to a nominal rate.
func NetNominal(nominal float64) float64 {
	return nominal * (1 - WithholdingRate)
}

// NominalFromReal inverts RealYield for a known inflation rate.
func NominalFromReal(realRate, inflation float64) float64 {
	return (1+realRate)*(1+inflation) - 1
}

// PercentToFraction converts a published percentage (10.50) to a fraction (0.105).
func PercentToFraction(percent decimal.Decimal) float64 {
	return percent.Div(hundred).InexactFloat64()
}

// FractionToPercent converts a fraction to a percentage rounded to 4 places.
func FractionToPercent(fraction float64) float64 {
	return decimal.NewFromFloat(fraction).Mul(hundred).Round(4).InexactFloat64()
}
