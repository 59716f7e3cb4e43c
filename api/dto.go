/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the planning engine's types from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

RATES:
  All rates are decimal fractions (0.0468 = 4.68%).

VALIDATION:
  Request fields that are required are pointers so a missing field can be
  told apart from an explicit zero. Range checks live in
  planning.PlanParameters.Validate.

SEE ALSO:
  - handlers.go: Uses these types
  - planning/projection.go: ProjectionResult
*/
package api

import (
	"time"

	"github.com/warp/goal-planner/indicators"
	"github.com/warp/goal-planner/planning"
	"github.com/warp/goal-planner/store/sqlite"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// ProjectionRequest is the body of POST /api/projections.
type ProjectionRequest struct {
	InitialBalance               *float64 `json:"initial_balance"`
	MonthlyContribution          *float64 `json:"monthly_contribution"`
	NonContributionMonthsPerYear *int     `json:"non_contribution_months_per_year,omitempty"` // default 0
	TargetBalance                *float64 `json:"target_balance"`

	// Optional: skip the indicators and use this real rate.
	AnnualRealRate *float64 `json:"annual_real_rate,omitempty"`
	// Optional: "net" (default) or "gross".
	YieldBasis string `json:"yield_basis,omitempty"`
}

// ProjectionResponse is the result of a projection.
type ProjectionResponse struct {
	MonthsToGoal    int              `json:"months_to_goal"`
	YearsToGoal     float64          `json:"years_to_goal"`
	FinalBalance    float64          `json:"final_balance"`
	YearlySummaries []YearSummaryDTO `json:"yearly_summaries"`

	AnnualRealRate float64 `json:"annual_real_rate"`
	YieldBasis     string  `json:"yield_basis,omitempty"` // only for indicator rates
	RateSource     string  `json:"rate_source"` // "request" or "indicators"
}

// YearSummaryDTO is one closed year of a projection.
type YearSummaryDTO struct {
	Year                 int     `json:"year"`
	BalanceAtYearStart   float64 `json:"balance_at_year_start"`
	ContributionsInYear  float64 `json:"contributions_in_year"`
	InterestEarnedInYear float64 `json:"interest_earned_in_year"`
	BalanceAtYearEnd     float64 `json:"balance_at_year_end"`
}

// IndicatorsDTO is the current indicator snapshot.
type IndicatorsDTO struct {
	Selic              float64 `json:"selic"`
	IPCA               float64 `json:"ipca"`
	RealYield          float64 `json:"real_yield"`
	NetRealYield       float64 `json:"net_real_yield"`
	SelicReferenceDate string  `json:"selic_reference_date"`
	IPCAReferenceDate  string  `json:"ipca_reference_date"`
	FetchedAt          string  `json:"fetched_at"`
	Stale              bool    `json:"stale"`
}

// YieldDTO is the response of the pure yield calculator.
type YieldDTO struct {
	Nominal      float64 `json:"nominal"`
	Inflation    float64 `json:"inflation"`
	RealYield    float64 `json:"real_yield"`
	NetRealYield float64 `json:"net_real_yield"`
	NetNominal   float64 `json:"net_nominal"`
}

// RefreshRunDTO is an indicator refresh attempt.
type RefreshRunDTO struct {
	ID          string  `json:"id"`
	Trigger     string  `json:"trigger"`
	Status      string  `json:"status"`
	SnapshotID  *int64  `json:"snapshot_id,omitempty"`
	Error       string  `json:"error,omitempty"`
	StartedAt   string  `json:"started_at"`
	CompletedAt *string `json:"completed_at,omitempty"`
}

// WelcomeDTO is returned by GET /api.
type WelcomeDTO struct {
	Message   string   `json:"message"`
	Endpoints []string `json:"endpoints"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

// NewProjectionResponse converts an engine result to the wire shape.
// Also used by the CLI for --json output. basis is dropped for request rates.
func NewProjectionResponse(r *planning.ProjectionResult, rate float64, basis indicators.YieldBasis, source string) ProjectionResponse {
	summaries := make([]YearSummaryDTO, len(r.YearlySummaries))
	for i, s := range r.YearlySummaries {
		summaries[i] = YearSummaryDTO{
			Year:                 s.Year,
			BalanceAtYearStart:   s.BalanceAtYearStart,
			ContributionsInYear:  s.ContributionsInYear,
			InterestEarnedInYear: s.InterestEarnedInYear,
			BalanceAtYearEnd:     s.BalanceAtYearEnd,
		}
	}
	if source == RateSourceRequest {
		basis = ""
	}
	return ProjectionResponse{
		MonthsToGoal:    r.MonthsToGoal,
		YearsToGoal:     r.YearsToGoal,
		FinalBalance:    r.FinalBalance,
		YearlySummaries: summaries,
		AnnualRealRate:  rate,
		YieldBasis:      string(basis),
		RateSource:      source,
	}
}

// NewIndicatorsDTO converts a snapshot to the wire shape.
func NewIndicatorsDTO(s indicators.Snapshot) IndicatorsDTO {
	return IndicatorsDTO{
		Selic:              s.Selic,
		IPCA:               s.IPCA,
		RealYield:          s.RealYield,
		NetRealYield:       s.NetRealYield,
		SelicReferenceDate: s.SelicReferenceDate.Format(time.DateOnly),
		IPCAReferenceDate:  s.IPCAReferenceDate.Format(time.DateOnly),
		FetchedAt:          s.FetchedAt.Format(time.RFC3339),
		Stale:              s.Stale,
	}
}

func toRefreshRunDTO(r sqlite.RefreshRun) RefreshRunDTO {
	dto := RefreshRunDTO{
		ID:         r.ID,
		Trigger:    r.Trigger,
		Status:     r.Status,
		SnapshotID: r.SnapshotID,
		Error:      r.Error,
		StartedAt:  r.StartedAt.Format(time.RFC3339),
	}
	if r.CompletedAt != nil {
		s := r.CompletedAt.Format(time.RFC3339)
		dto.CompletedAt = &s
	}
	return dto
}
