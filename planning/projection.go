/*
projection.go - Goal projection engine

PURPOSE:
  Answers "how long until my savings reach the goal?" by simulating the plan
  month by month: interest is credited on the running balance, then the
  month's deposit (if any) is added. The simulation stops as soon as the
  balance reaches the target, or fails once the horizon passes the ceiling.

MONTHLY RATE:
  The annual real rate is converted with true compounding:

    monthly = (1 + annual) ** (1/12) - 1

  Twelve monthly steps at this rate compound to exactly the annual rate.
  Dividing by 12 would overstate growth.

ORDER WITHIN A MONTH:
  1. Interest on the balance carried in from last month
  2. Deposit, if this is a contribution month
  3. Year close, if this is month 12, 24, 36, ...

YEARLY SUMMARIES:
  One YearSummary per fully closed 12-month period. A partial final year is
  NOT summarised. Values are rounded to cents only when emitted; the running
  balance is never rounded.

CEILING:
  The loop refuses to continue once more than MaxMonths months have been
  simulated. This is a hard failure even if the balance is one cent short.

EXAMPLE:
  result, err := planning.Project(ctx, planning.PlanParameters{
      InitialBalance:               6000,
      MonthlyContribution:          1000,
      NonContributionMonthsPerYear: 2,
      TargetBalance:                1_000_000,
      AnnualRealRate:               0.03,
  })

SEE ALSO:
  - params.go: PlanParameters and the contribution-month policy
  - yield.go: Where AnnualRealRate usually comes from
  - errors.go: GoalUnreachableError
*/
package planning

import (
	"context"
	"fmt"
	"math"
)

// DefaultMaxMonths is the 100-year simulation ceiling.
const DefaultMaxMonths = 1200

// =============================================================================
// RESULT TYPES
// =============================================================================

// YearSummary is the ledger line for one completed year of the plan.
type YearSummary struct {
	Year                 int
	BalanceAtYearStart   float64
	ContributionsInYear  float64
	InterestEarnedInYear float64
	BalanceAtYearEnd     float64
}

// ProjectionResult is the outcome of a successful projection.
type ProjectionResult struct {
	MonthsToGoal    int
	YearsToGoal     float64
	FinalBalance    float64
	YearlySummaries []YearSummary
}

// =============================================================================
// PROJECTION ENGINE
// =============================================================================

// ProjectionEngine runs goal projections. The zero value uses DefaultMaxMonths.
// An engine holds no per-call state and is safe for concurrent use.
type ProjectionEngine struct {
	MaxMonths int
}

var defaultEngine = &ProjectionEngine{MaxMonths: DefaultMaxMonths}

// Project runs a projection with the default 1200-month ceiling.
func Project(ctx context.Context, params PlanParameters) (*ProjectionResult, error) {
	return defaultEngine.Project(ctx, params)
}

// MonthlyRate converts an annual rate to the equivalent compounded monthly rate.
func MonthlyRate(annual float64) float64 {
	return math.Pow(1+annual, 1.0/MonthsPerYear) - 1
}

// Project simulates the plan until the balance reaches the target.
//
// Returns *InvalidParameterError for out-of-range inputs and
// *GoalUnreachableError when the ceiling is exceeded. The context is checked
// between months; no partial result is ever returned.
func (e *ProjectionEngine) Project(ctx context.Context, params PlanParameters) (*ProjectionResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	maxMonths := e.MaxMonths
	if maxMonths <= 0 {
		maxMonths = DefaultMaxMonths
	}

	monthlyRate := MonthlyRate(params.AnnualRealRate)

	balance := params.InitialBalance
	month := 0
	summaries := []YearSummary{}

	yearStart := params.InitialBalance
	interestThisYear := 0.0
	contributionsThisYear := 0.0

	for balance < params.TargetBalance {
		if month > maxMonths {
			return nil, &GoalUnreachableError{
				MaxMonths: maxMonths,
				Balance:   RoundCents(balance),
				Target:    params.TargetBalance,
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("projection cancelled at month %d: %w", month, err)
		}

		month++

		interest := balance * monthlyRate
		balance += interest
		interestThisYear += interest

		if params.Contributes(month) {
			balance += params.MonthlyContribution
			contributionsThisYear += params.MonthlyContribution
		}

		if month%MonthsPerYear == 0 {
			summaries = append(summaries, YearSummary{
				Year:                 month / MonthsPerYear,
				BalanceAtYearStart:   RoundCents(yearStart),
				ContributionsInYear:  RoundCents(contributionsThisYear),
				InterestEarnedInYear: RoundCents(interestThisYear),
				BalanceAtYearEnd:     RoundCents(balance),
			})
			yearStart = balance
			interestThisYear = 0
			contributionsThisYear = 0
		}
	}

	return &ProjectionResult{
		MonthsToGoal:    month,
		YearsToGoal:     YearsFromMonths(month),
		FinalBalance:    RoundCents(balance),
		YearlySummaries: summaries,
	}, nil
}
