package planning_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/goal-planner/planning"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func plan(initial, monthly float64, gap int, target, rate float64) planning.PlanParameters {
	return planning.PlanParameters{
		InitialBalance:               initial,
		MonthlyContribution:          monthly,
		NonContributionMonthsPerYear: gap,
		TargetBalance:                target,
		AnnualRealRate:               rate,
	}
}

func mustProject(t *testing.T, p planning.PlanParameters) *planning.ProjectionResult {
	t.Helper()
	result, err := planning.Project(context.Background(), p)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

// =============================================================================
// REFERENCE SCENARIO
// =============================================================================

func TestProject_ReferenceScenario(t *testing.T) {
	// GIVEN: 6000 initial, 1000/month, 2 months off per year, 1M goal, 3% real
	// WHEN: Projecting
	// THEN: Goal reached in month 551 with one summary per closed year

	result := mustProject(t, plan(6000, 1000, 2, 1_000_000, 0.03))

	assert.Equal(t, 551, result.MonthsToGoal)
	assert.Equal(t, 45.9, result.YearsToGoal)
	assert.InDelta(t, 1_001_514.59, result.FinalBalance, 0.01)
	assert.GreaterOrEqual(t, result.FinalBalance, 1_000_000.0)
	assert.Len(t, result.YearlySummaries, result.MonthsToGoal/12)

	first := result.YearlySummaries[0]
	assert.Equal(t, 1, first.Year)
	assert.Equal(t, 6000.0, first.BalanceAtYearStart)
	assert.Equal(t, 10000.0, first.ContributionsInYear)
	assert.InDelta(t, 341.65, first.InterestEarnedInYear, 0.001)
	assert.InDelta(t, 16341.65, first.BalanceAtYearEnd, 0.001)

	second := result.YearlySummaries[1]
	assert.Equal(t, 2, second.Year)
	assert.Equal(t, first.BalanceAtYearEnd, second.BalanceAtYearStart)
	assert.InDelta(t, 651.90, second.InterestEarnedInYear, 0.001)

	last := result.YearlySummaries[len(result.YearlySummaries)-1]
	assert.Equal(t, 45, last.Year)
	assert.InDelta(t, 964_876.65, last.BalanceAtYearEnd, 0.01)
}

func TestProject_SummariesAreChronologicalAndChained(t *testing.T) {
	result := mustProject(t, plan(6000, 1000, 2, 1_000_000, 0.03))

	for i, s := range result.YearlySummaries {
		assert.Equal(t, i+1, s.Year)
		if i > 0 {
			assert.Equal(t, result.YearlySummaries[i-1].BalanceAtYearEnd, s.BalanceAtYearStart,
				"year %d should start where year %d ended", s.Year, s.Year-1)
		}
		assert.InDelta(t, s.BalanceAtYearStart+s.ContributionsInYear+s.InterestEarnedInYear,
			s.BalanceAtYearEnd, 0.02, "year %d does not add up", s.Year)
	}
}

// =============================================================================
// CONTRIBUTION POLICY
// =============================================================================

func TestProject_NoGap_EveryMonthContributes(t *testing.T) {
	// GIVEN: Zero rate, 100/month, no gap
	// THEN: Twelve deposits per year, including month 12

	result := mustProject(t, plan(1000, 100, 0, 10_000, 0))

	require.NotEmpty(t, result.YearlySummaries)
	assert.Equal(t, 1200.0, result.YearlySummaries[0].ContributionsInYear)
	assert.Equal(t, 2200.0, result.YearlySummaries[0].BalanceAtYearEnd)
}

func TestProject_ElevenMonthGap_OneDepositPerYear(t *testing.T) {
	// GIVEN: Zero rate, 100/month, 11 months off
	// THEN: Only month 1 of each year contributes; 1000 -> 2000 takes 109 months

	result := mustProject(t, plan(1000, 100, 11, 2000, 0))

	assert.Equal(t, 109, result.MonthsToGoal)
	assert.Equal(t, 9.1, result.YearsToGoal)
	assert.Equal(t, 2000.0, result.FinalBalance)
	require.Len(t, result.YearlySummaries, 9)
	for _, s := range result.YearlySummaries {
		assert.Equal(t, 100.0, s.ContributionsInYear)
		assert.Equal(t, 0.0, s.InterestEarnedInYear)
	}
}

func TestPlanParameters_Contributes_FirstMonthsOfEachCycle(t *testing.T) {
	tests := []struct {
		name string
		gap  int
		want []int // contributing months within months 1..24
	}{
		{"no gap", 0, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24}},
		{"two months off", 2, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22}},
		{"one month off", 1, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23}},
		{"eleven months off", 11, []int{1, 13}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := plan(1, 1, tt.gap, 2, 0)
			var got []int
			for m := 1; m <= 24; m++ {
				if p.Contributes(m) {
					got = append(got, m)
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProject_InterestBeforeContribution(t *testing.T) {
	// GIVEN: 12% real, 1000 initial, 500 deposit
	// THEN: Month 1 interest is computed on 1000, not 1500

	monthly := planning.MonthlyRate(0.12)
	result := mustProject(t, plan(1000, 500, 0, 1500.5, 0.12))

	assert.Equal(t, 1, result.MonthsToGoal)
	assert.InDelta(t, 1000*(1+monthly)+500, result.FinalBalance, 0.005)
	assert.Greater(t, 1500*(1+monthly)-result.FinalBalance, 4.0)
}

// =============================================================================
// BOUNDARIES
// =============================================================================

func TestProject_AlreadyAtTarget_ZeroMonths(t *testing.T) {
	// GIVEN: Initial balance already equals the target
	// THEN: No month is simulated and there are no summaries

	result := mustProject(t, plan(1000, 0, 0, 1000, 0.05))

	assert.Equal(t, 0, result.MonthsToGoal)
	assert.Equal(t, 0.0, result.YearsToGoal)
	assert.Equal(t, 1000.0, result.FinalBalance)
	assert.NotNil(t, result.YearlySummaries)
	assert.Empty(t, result.YearlySummaries)
}

func TestProject_PartialYearNotSummarised(t *testing.T) {
	// GIVEN: 12% real, no deposits, doubling takes 74 months
	// THEN: Six closed years, the six months of year 7 are not summarised

	result := mustProject(t, plan(1000, 0, 0, 2000, 0.12))

	assert.Equal(t, 74, result.MonthsToGoal)
	assert.Equal(t, 6.2, result.YearsToGoal)
	assert.InDelta(t, 2011.46, result.FinalBalance, 0.001)
	require.Len(t, result.YearlySummaries, 6)
	assert.InDelta(t, 120.0, result.YearlySummaries[0].InterestEarnedInYear, 0.001)
	assert.InDelta(t, 1120.0, result.YearlySummaries[0].BalanceAtYearEnd, 0.001)
}

func TestProject_GoalReachedOnYearBoundary_YearIsSummarised(t *testing.T) {
	// GIVEN: Zero rate, 800 initial, 100/month toward 2000
	// THEN: The closing month is also month 12, so year 1 is emitted

	result := mustProject(t, plan(800, 100, 0, 2000, 0))

	assert.Equal(t, 12, result.MonthsToGoal)
	assert.Equal(t, 1.0, result.YearsToGoal)
	require.Len(t, result.YearlySummaries, 1)
	assert.Equal(t, 2000.0, result.YearlySummaries[0].BalanceAtYearEnd)
}

func TestProject_MonthsToGoalIsMinimal(t *testing.T) {
	// GIVEN: A projection that needs m months
	// WHEN: Running the same plan with a ceiling that stops after month m-1
	// THEN: The goal is not reached, so no smaller month count works

	p := plan(6000, 1000, 2, 250_000, 0.045)
	result := mustProject(t, p)
	require.Greater(t, result.MonthsToGoal, 2)

	engine := &planning.ProjectionEngine{MaxMonths: result.MonthsToGoal - 2}
	_, err := engine.Project(context.Background(), p)
	assert.ErrorIs(t, err, planning.ErrGoalUnreachable)

	engine = &planning.ProjectionEngine{MaxMonths: result.MonthsToGoal - 1}
	again, err := engine.Project(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, result, again)
}

// =============================================================================
// CEILING
// =============================================================================

func TestProject_NegativeRate_GoalUnreachable(t *testing.T) {
	// GIVEN: -50% real, no deposits, target above the initial balance
	// THEN: The balance shrinks forever and the projection fails

	result, err := planning.Project(context.Background(), plan(1000, 0, 0, 2000, -0.5))

	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, errors.Is(err, planning.ErrGoalUnreachable))

	var unreachable *planning.GoalUnreachableError
	require.ErrorAs(t, err, &unreachable)
	assert.Equal(t, planning.DefaultMaxMonths, unreachable.MaxMonths)
	assert.Equal(t, 2000.0, unreachable.Target)
	assert.Equal(t, 0.0, unreachable.Balance)
	assert.True(t, planning.IsClientError(err))
}

func TestProject_CeilingBoundary(t *testing.T) {
	// GIVEN: Zero rate, 1 deposited every month from a balance of 1
	// THEN: The ceiling check runs before each month, so a goal first reached
	//       in month 1201 still succeeds and one reached in month 1202 fails

	reached := mustProject(t, plan(1, 1, 0, 1202, 0))
	assert.Equal(t, planning.DefaultMaxMonths+1, reached.MonthsToGoal)
	assert.Len(t, reached.YearlySummaries, 100)

	_, err := planning.Project(context.Background(), plan(1, 1, 0, 1203, 0))
	assert.ErrorIs(t, err, planning.ErrGoalUnreachable)
}

func TestProjectionEngine_CustomCeiling(t *testing.T) {
	engine := &planning.ProjectionEngine{MaxMonths: 24}

	_, err := engine.Project(context.Background(), plan(1000, 100, 0, 10_000, 0))

	var unreachable *planning.GoalUnreachableError
	require.ErrorAs(t, err, &unreachable)
	assert.Equal(t, 24, unreachable.MaxMonths)
	assert.Equal(t, 3500.0, unreachable.Balance) // 25 deposits
}

func TestProjectionEngine_ZeroValueUsesDefaultCeiling(t *testing.T) {
	var engine planning.ProjectionEngine

	_, err := engine.Project(context.Background(), plan(1000, 0, 0, 2000, -0.5))

	var unreachable *planning.GoalUnreachableError
	require.ErrorAs(t, err, &unreachable)
	assert.Equal(t, planning.DefaultMaxMonths, unreachable.MaxMonths)
}

// =============================================================================
// PROPERTIES
// =============================================================================

func TestProject_BalanceNonDecreasingForNonNegativeRates(t *testing.T) {
	for _, rate := range []float64{0, 0.01, 0.0468, 0.1} {
		result := mustProject(t, plan(500, 250, 3, 150_000, rate))
		prev := 500.0
		for _, s := range result.YearlySummaries {
			assert.GreaterOrEqual(t, s.BalanceAtYearEnd, prev, "rate %v year %d", rate, s.Year)
			assert.GreaterOrEqual(t, s.InterestEarnedInYear, 0.0)
			prev = s.BalanceAtYearEnd
		}
		assert.GreaterOrEqual(t, result.FinalBalance, prev)
	}
}

func TestProject_Idempotent(t *testing.T) {
	p := plan(6000, 1000, 2, 1_000_000, 0.03)

	first := mustProject(t, p)
	second := mustProject(t, p)

	assert.Equal(t, first, second)
}

func TestProject_ConcurrentCallsAreIndependent(t *testing.T) {
	p := plan(6000, 1000, 2, 1_000_000, 0.03)
	want := mustProject(t, p)

	results := make(chan *planning.ProjectionResult, 16)
	for i := 0; i < cap(results); i++ {
		go func() {
			r, err := planning.Project(context.Background(), p)
			if err != nil {
				results <- nil
				return
			}
			results <- r
		}()
	}
	for i := 0; i < cap(results); i++ {
		assert.Equal(t, want, <-results)
	}
}

// =============================================================================
// VALIDATION & CANCELLATION
// =============================================================================

func TestProject_InvalidParameters(t *testing.T) {
	tests := []struct {
		name  string
		p     planning.PlanParameters
		field string
	}{
		{"zero initial", plan(0, 100, 0, 1000, 0.03), "initial_balance"},
		{"negative contribution", plan(100, -1, 0, 1000, 0.03), "monthly_contribution"},
		{"gap of twelve", plan(100, 10, 12, 1000, 0.03), "non_contribution_months_per_year"},
		{"negative gap", plan(100, 10, -1, 1000, 0.03), "non_contribution_months_per_year"},
		{"zero target", plan(100, 10, 0, 0, 0.03), "target_balance"},
		{"rate of -100%", plan(100, 10, 0, 1000, -1), "annual_real_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := planning.Project(context.Background(), tt.p)

			assert.Nil(t, result)
			var invalid *planning.InvalidParameterError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.field, invalid.Field)
			assert.ErrorIs(t, err, planning.ErrInvalidParameter)
			assert.True(t, planning.IsClientError(err))
		})
	}
}

func TestProject_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := planning.Project(ctx, plan(1000, 100, 0, 1_000_000, 0.03))

	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, planning.IsClientError(err))
}

func TestProject_CancelledContext_AlreadyReachedStillSucceeds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := planning.Project(ctx, plan(1000, 0, 0, 500, 0.03))

	require.NoError(t, err)
	assert.Equal(t, 0, result.MonthsToGoal)
}
