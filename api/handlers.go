/*
handlers.go - HTTP API handlers for the savings goal planner

PURPOSE:
  Exposes the projection engine and the indicator service via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to
  domain logic.

ENDPOINTS:
  GET    /api                       Welcome message and endpoint list
  GET    /health                    Liveness + database ping

  Indicators:
    GET    /api/indicators            Current Selic/IPCA snapshot with yields
    POST   /api/indicators/refresh    Force a refresh from the central bank
    GET    /api/indicators/history    Cached snapshots, newest first
    GET    /api/indicators/runs       Refresh attempts, newest first
    GET    /api/indicators/runs/{id}  One refresh attempt

  Calculators:
    GET    /api/yield?nominal=&inflation=   Real and net real yield
    POST   /api/projections                 Goal projection

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Indicators: Snapshot service (SGS client + SQLite cache)
  - Store: Refresh-run audit records
  - Engine: Projection engine (stateless)

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Resolve the real rate (request override or indicators)
  4. Call planning.ProjectionEngine.Project
  5. Serialize response

ERROR HANDLING:
  Errors are returned as JSON {error, code, details}:
  - 400 invalid_parameter:      Bad or missing input
  - 404 not_found:              Unknown refresh run
  - 422 goal_unreachable:       Target not reachable within 100 years
  - 502 upstream_failed:        Forced refresh could not reach SGS
  - 503 indicators_unavailable: No live or cached rate to project with
  - 500 internal_error:         Anything else

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - scheduler.go: Background indicator refresh
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/warp/goal-planner/indicators"
	"github.com/warp/goal-planner/planning"
	"github.com/warp/goal-planner/store/sqlite"
)

// Error codes
const (
	CodeInvalidParameter      = "invalid_parameter"
	CodeGoalUnreachable       = "goal_unreachable"
	CodeUpstreamFailed        = "upstream_failed"
	CodeIndicatorsUnavailable = "indicators_unavailable"
	CodeNotFound              = "not_found"
	CodeInternal              = "internal_error"
)

// Refresh triggers recorded with each run.
const (
	TriggerStartup   = "startup"
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
)

// Where a projection's rate came from.
const (
	RateSourceRequest    = "request"
	RateSourceIndicators = "indicators"
)

const defaultListLimit = 50

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Indicators *indicators.Service
	Store      *sqlite.Store
	Engine     *planning.ProjectionEngine
	Log        zerolog.Logger
}

// NewHandler creates a new handler with the given dependencies.
func NewHandler(svc *indicators.Service, store *sqlite.Store, log zerolog.Logger) *Handler {
	return &Handler{
		Indicators: svc,
		Store:      store,
		Engine:     &planning.ProjectionEngine{MaxMonths: planning.DefaultMaxMonths},
		Log:        log.With().Str("component", "api").Logger(),
	}
}

// =============================================================================
// GENERAL
// =============================================================================

// Welcome returns a greeting and the endpoint list.
// GET /api
func (h *Handler) Welcome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, WelcomeDTO{
		Message: "Welcome to the savings goal planner",
		Endpoints: []string{
			"GET /api/indicators",
			"POST /api/indicators/refresh",
			"GET /api/indicators/history",
			"GET /api/indicators/runs",
			"GET /api/indicators/runs/{id}",
			"GET /api/yield?nominal=0.105&inflation=0.0468",
			"POST /api/projections",
		},
	})
}

// Health reports liveness.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.Store != nil {
		if err := h.Store.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, CodeInternal, "Database unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// INDICATOR HANDLERS
// =============================================================================

// GetIndicators returns the current snapshot.
// GET /api/indicators
func (h *Handler) GetIndicators(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Indicators.Current(r.Context())
	if err != nil {
		h.writeIndicatorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NewIndicatorsDTO(*snap))
}

// RefreshIndicators forces a refresh from the central bank.
// POST /api/indicators/refresh
func (h *Handler) RefreshIndicators(w http.ResponseWriter, r *http.Request) {
	snap, err := h.refreshIndicators(r.Context(), TriggerManual)
	if err != nil {
		writeError(w, http.StatusBadGateway, CodeUpstreamFailed, "Failed to refresh indicators", err)
		return
	}
	writeJSON(w, http.StatusOK, NewIndicatorsDTO(*snap))
}

// ListIndicatorHistory returns cached snapshots.
// GET /api/indicators/history?limit=N
func (h *Handler) ListIndicatorHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidParameter, "Invalid limit", err)
		return
	}

	history, err := h.Indicators.History(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to list indicator history", err)
		return
	}

	dtos := make([]IndicatorsDTO, len(history))
	for i, s := range history {
		dtos[i] = NewIndicatorsDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListRefreshRuns returns refresh attempts.
// GET /api/indicators/runs?status=failed&limit=N
func (h *Handler) ListRefreshRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidParameter, "Invalid limit", err)
		return
	}

	if h.Store == nil {
		writeJSON(w, http.StatusOK, []RefreshRunDTO{})
		return
	}

	runs, err := h.Store.ListRefreshRuns(r.Context(), r.URL.Query().Get("status"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to list refresh runs", err)
		return
	}

	dtos := make([]RefreshRunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRefreshRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRefreshRun returns one refresh attempt.
// GET /api/indicators/runs/{id}
func (h *Handler) GetRefreshRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if h.Store == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "Refresh run not found", nil)
		return
	}

	run, err := h.Store.GetRefreshRun(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to load refresh run", err)
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "Refresh run not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toRefreshRunDTO(*run))
}

// refreshIndicators refreshes the snapshot and records the attempt.
// Shared by the refresh endpoint and the scheduler.
func (h *Handler) refreshIndicators(ctx context.Context, trigger string) (*indicators.Snapshot, error) {
	run := sqlite.RefreshRun{
		ID:        fmt.Sprintf("run-%d", time.Now().UnixNano()),
		Trigger:   trigger,
		Status:    sqlite.RunStatusRunning,
		StartedAt: time.Now(),
	}
	h.saveRun(ctx, run)

	snap, snapshotID, err := h.Indicators.Refresh(ctx)

	completedAt := time.Now()
	run.CompletedAt = &completedAt
	if err != nil {
		run.Status = sqlite.RunStatusFailed
		run.Error = err.Error()
		h.Log.Warn().Err(err).Str("trigger", trigger).Msg("Indicator refresh failed")
	} else {
		run.Status = sqlite.RunStatusCompleted
		if snapshotID > 0 {
			run.SnapshotID = &snapshotID
		}
	}
	h.saveRun(ctx, run)

	return snap, err
}

func (h *Handler) saveRun(ctx context.Context, run sqlite.RefreshRun) {
	if h.Store == nil {
		return
	}
	if err := h.Store.SaveRefreshRun(ctx, run); err != nil {
		h.Log.Warn().Err(err).Str("run_id", run.ID).Msg("Failed to record refresh run")
	}
}

func (h *Handler) writeIndicatorError(w http.ResponseWriter, err error) {
	if errors.Is(err, indicators.ErrUnavailable) {
		writeError(w, http.StatusServiceUnavailable, CodeIndicatorsUnavailable, "Indicator data unavailable", err)
		return
	}
	h.Log.Error().Err(err).Msg("Unexpected indicator failure")
	writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to load indicators", err)
}

// =============================================================================
// CALCULATOR HANDLERS
// =============================================================================

// CalculateYield computes real and net real yields.
// GET /api/yield?nominal=0.105&inflation=0.0468
func (h *Handler) CalculateYield(w http.ResponseWriter, r *http.Request) {
	nominal, err := parseRateParam(r, "nominal")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidParameter, "Invalid nominal rate", err)
		return
	}
	inflation, err := parseRateParam(r, "inflation")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidParameter, "Invalid inflation rate", err)
		return
	}

	writeJSON(w, http.StatusOK, YieldDTO{
		Nominal:      nominal,
		Inflation:    inflation,
		RealYield:    planning.RealYield(nominal, inflation),
		NetRealYield: planning.NetRealYield(nominal, inflation),
		NetNominal:   planning.NetNominal(nominal),
	})
}

// CreateProjection runs a goal projection.
// POST /api/projections
func (h *Handler) CreateProjection(w http.ResponseWriter, r *http.Request) {
	var req ProjectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidParameter, "Invalid request body", err)
		return
	}

	params, err := req.toPlanParameters()
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidParameter, err.Error(), err)
		return
	}

	basis, err := indicators.ParseYieldBasis(req.YieldBasis)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidParameter, "Invalid yield_basis", err)
		return
	}

	rateSource := RateSourceRequest
	if req.AnnualRealRate != nil {
		params.AnnualRealRate = *req.AnnualRealRate
	} else {
		snap, err := h.Indicators.Current(r.Context())
		if err != nil {
			h.writeIndicatorError(w, err)
			return
		}
		params.AnnualRealRate = snap.Rate(basis)
		rateSource = RateSourceIndicators
	}

	// Reject bad input before simulating.
	if err := params.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidParameter, err.Error(), err)
		return
	}

	result, err := h.Engine.Project(r.Context(), params)
	if err != nil {
		h.writeProjectionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, NewProjectionResponse(result, params.AnnualRealRate, basis, rateSource))
}

func (h *Handler) writeProjectionError(w http.ResponseWriter, err error) {
	var unreachable *planning.GoalUnreachableError
	var invalid *planning.InvalidParameterError
	switch {
	case errors.As(err, &unreachable):
		writeError(w, http.StatusUnprocessableEntity, CodeGoalUnreachable,
			"Goal cannot be reached within 100 years; increase the contribution or lower the target", unreachable)
	case errors.As(err, &invalid):
		writeError(w, http.StatusBadRequest, CodeInvalidParameter, invalid.Error(), invalid)
	default:
		h.Log.Error().Err(err).Msg("Projection failed")
		writeError(w, http.StatusInternalServerError, CodeInternal, "Projection failed", nil)
	}
}

// toPlanParameters checks required fields and applies defaults.
// AnnualRealRate is resolved by the caller.
func (req ProjectionRequest) toPlanParameters() (planning.PlanParameters, error) {
	var params planning.PlanParameters

	if req.InitialBalance == nil {
		return params, missingField("initial_balance")
	}
	if req.MonthlyContribution == nil {
		return params, missingField("monthly_contribution")
	}
	if req.TargetBalance == nil {
		return params, missingField("target_balance")
	}

	params.InitialBalance = *req.InitialBalance
	params.MonthlyContribution = *req.MonthlyContribution
	params.TargetBalance = *req.TargetBalance
	if req.NonContributionMonthsPerYear != nil {
		params.NonContributionMonthsPerYear = *req.NonContributionMonthsPerYear
	}
	return params, nil
}

func missingField(name string) error {
	return &planning.InvalidParameterError{Field: name, Value: nil, Reason: "field is required"}
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string, err error) {
	resp := ErrorResponse{Error: message, Code: code}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("limit must be a positive integer, got %q", raw)
	}
	return limit, nil
}

func parseRateParam(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", name, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= -1 {
		return 0, fmt.Errorf("%s must be a finite rate greater than -1", name)
	}
	return v, nil
}
