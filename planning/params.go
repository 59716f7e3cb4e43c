package planning

import (
	"math"
)

// MonthsPerYear is the length of one contribution cycle.
const MonthsPerYear = 12

// MaxNonContributionMonths keeps at least one contribution month per year.
const MaxNonContributionMonths = MonthsPerYear - 1

// PlanParameters are the inputs of a goal projection.
type PlanParameters struct {
	InitialBalance               float64
	MonthlyContribution          float64
	NonContributionMonthsPerYear int
	TargetBalance                float64

	// AnnualRealRate is a decimal fraction (0.0468 = 4.68%). May be negative.
	AnnualRealRate float64
}

// ContributionMonthsPerYear returns how many months of each 12-month cycle
// receive a deposit. Always in [1, 12] for validated parameters.
func (p PlanParameters) ContributionMonthsPerYear() int {
	return MonthsPerYear - p.NonContributionMonthsPerYear
}

// Contributes reports whether the given month of the simulation (1-based,
// counted from the start of the plan) receives a deposit.
//
// Deposits happen in the FIRST N months of every 12-month cycle; the gap
// months are taken from the end of the cycle.
func (p PlanParameters) Contributes(month int) bool {
	n := p.ContributionMonthsPerYear()
	monthInYear := month % MonthsPerYear
	if monthInYear == 0 {
		return n == MonthsPerYear
	}
	return monthInYear <= n
}

// Validate checks every field against its constraint.
func (p PlanParameters) Validate() error {
	if !isFinite(p.InitialBalance) || p.InitialBalance <= 0 {
		return &InvalidParameterError{Field: "initial_balance", Value: p.InitialBalance, Reason: "must be greater than 0"}
	}
	if !isFinite(p.MonthlyContribution) || p.MonthlyContribution < 0 {
		return &InvalidParameterError{Field: "monthly_contribution", Value: p.MonthlyContribution, Reason: "must be 0 or greater"}
	}
	if p.NonContributionMonthsPerYear < 0 || p.NonContributionMonthsPerYear > MaxNonContributionMonths {
		return &InvalidParameterError{Field: "non_contribution_months_per_year", Value: p.NonContributionMonthsPerYear, Reason: "must be between 0 and 11"}
	}
	if !isFinite(p.TargetBalance) || p.TargetBalance <= 0 {
		return &InvalidParameterError{Field: "target_balance", Value: p.TargetBalance, Reason: "must be greater than 0"}
	}
	// (1 + rate) ** (1/12) is undefined at or below -100%.
	if !isFinite(p.AnnualRealRate) || p.AnnualRealRate <= -1 {
		return &InvalidParameterError{Field: "annual_real_rate", Value: p.AnnualRealRate, Reason: "must be a finite rate greater than -1"}
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
