package planning_test

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/warp/goal-planner/planning"
)

func TestRealYield_SelicAndIPCA(t *testing.T) {
	// GIVEN: Selic 10.5%, IPCA 4.68%
	// THEN: Real yield is about 5.56%

	assert.InDelta(t, 0.0556, planning.RealYield(0.105, 0.0468), 0.0001)
}

func TestRealYield_EqualRatesIsZero(t *testing.T) {
	assert.InDelta(t, 0.0, planning.RealYield(0.07, 0.07), 1e-15)
}

func TestRealYield_InflationAboveNominalIsNegative(t *testing.T) {
	assert.Less(t, planning.RealYield(0.03, 0.08), 0.0)
}

func TestNetRealYield_WithholdsFifteenPercent(t *testing.T) {
	net := planning.NetRealYield(0.105, 0.0468)

	assert.InDelta(t, 0.08925, planning.NetNominal(0.105), 1e-12)
	assert.InDelta(t, planning.RealYield(0.08925, 0.0468), net, 1e-12)
	assert.InDelta(t, 0.04055, net, 0.0001)
	assert.Less(t, net, planning.RealYield(0.105, 0.0468))
}

func TestNominalFromReal_RoundTrip(t *testing.T) {
	cases := []struct{ nominal, inflation float64 }{
		{0.105, 0.0468},
		{0.1375, 0.0462},
		{0.02, 0.09},
		{0, 0},
		{-0.01, 0.003},
	}

	for _, c := range cases {
		r := planning.RealYield(c.nominal, c.inflation)
		back := planning.NominalFromReal(r, c.inflation)
		assert.InDelta(t, c.nominal, back, 1e-12, "nominal %v inflation %v", c.nominal, c.inflation)
	}
}

func TestMonthlyRate_CompoundsToAnnual(t *testing.T) {
	for _, annual := range []float64{0.03, 0.0556, -0.2, 0} {
		monthly := planning.MonthlyRate(annual)
		assert.InDelta(t, annual, math.Pow(1+monthly, 12)-1, 1e-12)
	}
	assert.Less(t, planning.MonthlyRate(0.12), 0.01, "compounded monthly rate is below annual/12")
}

func TestPercentToFraction(t *testing.T) {
	assert.Equal(t, 0.105, planning.PercentToFraction(decimal.RequireFromString("10.50")))
	assert.Equal(t, 0.0468, planning.PercentToFraction(decimal.RequireFromString("4.68")))
	assert.Equal(t, 5.5598, planning.FractionToPercent(planning.RealYield(0.105, 0.0468)))
}

func TestRoundCents(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.125, 0.12},  // exact tie goes to even
		{0.375, 0.38},  // exact tie goes to even
		{2.675, 2.67},  // binary value sits below the tie
		{1.005, 1.0},   // binary value sits below the tie
		{1001514.5912, 1001514.59},
		{-2.675, -2.67},
		{0, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, planning.RoundCents(tt.in), "RoundCents(%v)", tt.in)
	}
	assert.True(t, math.IsInf(planning.RoundCents(math.Inf(1)), 1))
}

func TestYearsFromMonths(t *testing.T) {
	tests := []struct {
		months int
		want   float64
	}{
		{0, 0.0},
		{1, 0.1},
		{3, 0.2},  // 0.25 ties to even
		{9, 0.8},  // 0.75 ties to even
		{15, 1.2}, // 1.25 ties to even
		{27, 2.2},
		{63, 5.2},
		{21, 1.8},
		{74, 6.2},
		{551, 45.9},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, planning.YearsFromMonths(tt.months), "YearsFromMonths(%d)", tt.months)
	}
}
