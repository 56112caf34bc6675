// Package handler provides the HTTP request handlers.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arvergara/Hualpen-sub001/internal/metrics"
	"github.com/arvergara/Hualpen-sub001/internal/repository"
	"github.com/arvergara/Hualpen-sub001/pkg/errors"
	"github.com/arvergara/Hualpen-sub001/pkg/logger"
	"github.com/arvergara/Hualpen-sub001/pkg/roster"
)

// RosterHandler dispatches optimization runs and tracks their status.
// The engine itself is synchronous; asynchronous dispatch, status tracking
// and caller-side cancellation all live here.
type RosterHandler struct {
	engine  *roster.Engine
	repo    *repository.RunRepository // optional
	metrics *metrics.Metrics          // optional
	timeout time.Duration

	mu   sync.RWMutex
	runs map[uuid.UUID]*runState
}

type runState struct {
	Status repository.RunStatus `json:"status"`
	Result *roster.Result       `json:"result,omitempty"`
	Error  string               `json:"error,omitempty"`
	cancel context.CancelFunc
}

// NewRosterHandler creates the handler. repo and m may be nil.
func NewRosterHandler(engine *roster.Engine, repo *repository.RunRepository, m *metrics.Metrics, timeout time.Duration) *RosterHandler {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &RosterHandler{
		engine:  engine,
		repo:    repo,
		metrics: m,
		timeout: timeout,
		runs:    make(map[uuid.UUID]*runState),
	}
}

// SolveRequest is the run submission payload.
type SolveRequest struct {
	roster.Input
}

// SolveResponse acknowledges an accepted run.
type SolveResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// Solve accepts a run and dispatches it without blocking the request.
func (h *RosterHandler) Solve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, errors.New(errors.CodeInvalidInput, "method not allowed"))
		return
	}

	var req SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Wrap(err, errors.CodeInvalidInput, "malformed request body"))
		return
	}

	runID := uuid.New()
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)

	h.mu.Lock()
	h.runs[runID] = &runState{Status: repository.RunPending, cancel: cancel}
	h.mu.Unlock()

	if h.repo != nil {
		run := &repository.Run{
			ID:           runID,
			Status:       repository.RunPending,
			HorizonStart: req.Horizon.StartDate,
			HorizonEnd:   req.Horizon.EndDate,
			CreatedAt:    time.Now(),
		}
		if err := h.repo.Create(r.Context(), run); err != nil {
			logger.WithError(err).Str("run_id", runID.String()).Msg("persist run failed")
		}
	}

	go h.execute(ctx, cancel, runID, req.Input)

	writeJSON(w, http.StatusAccepted, SolveResponse{RunID: runID.String(), Status: string(repository.RunPending)})
}

func (h *RosterHandler) execute(ctx context.Context, cancel context.CancelFunc, runID uuid.UUID, in roster.Input) {
	defer cancel()
	start := time.Now()

	h.setStatus(ctx, runID, repository.RunRunning, "")

	result, err := h.engine.Run(ctx, in)

	if h.metrics != nil {
		h.metrics.RunDuration.Observe(time.Since(start).Seconds())
	}

	h.mu.Lock()
	state := h.runs[runID]
	switch {
	case err != nil:
		state.Status = repository.RunFailed
		state.Error = err.Error()
	case result.Status == roster.StatusSuccess:
		state.Status = repository.RunCompleted
		state.Result = result
	default:
		state.Status = repository.RunFailed
		state.Result = result
		state.Error = string(result.Reason)
	}
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.RunsTotal.WithLabelValues(string(state.Status)).Inc()
		for _, attempt := range resultAttempts(result) {
			h.metrics.AttemptsTotal.WithLabelValues(string(attempt.Status)).Inc()
			h.metrics.AttemptDuration.Observe(attempt.Elapsed.Seconds())
		}
		if state.Status == repository.RunCompleted {
			h.metrics.DriversUsed.Set(float64(result.DriversUsed))
		}
	}

	if h.repo != nil {
		persistCtx, cancelPersist := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelPersist()
		var perr error
		if state.Status == repository.RunCompleted {
			perr = h.repo.Complete(persistCtx, runID, result.DriversUsed, result.Assignments)
		} else {
			perr = h.repo.SetStatus(persistCtx, runID, repository.RunFailed, state.Error)
		}
		if perr != nil {
			logger.WithError(perr).Str("run_id", runID.String()).Msg("persist run outcome failed")
		}
	}
}

func (h *RosterHandler) setStatus(ctx context.Context, runID uuid.UUID, status repository.RunStatus, reason string) {
	h.mu.Lock()
	if state, ok := h.runs[runID]; ok {
		state.Status = status
	}
	h.mu.Unlock()
	if h.repo != nil {
		if err := h.repo.SetStatus(ctx, runID, status, reason); err != nil {
			logger.WithError(err).Str("run_id", runID.String()).Msg("persist run status failed")
		}
	}
}

// Run reports the status (and, when finished, the result) of one run.
// Routed as GET /api/v1/roster/runs/{id}.
func (h *RosterHandler) Run(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/v1/roster/runs/")
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, errors.InvalidInput("run_id", "must be a UUID"))
		return
	}

	h.mu.RLock()
	state, ok := h.runs[id]
	h.mu.RUnlock()
	if !ok {
		writeError(w, errors.NotFound("run", id.String()))
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// Cancel aborts a pending or running run.
func (h *RosterHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, errors.New(errors.CodeInvalidInput, "method not allowed"))
		return
	}
	idStr := strings.TrimPrefix(r.URL.Path, "/api/v1/roster/cancel/")
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, errors.InvalidInput("run_id", "must be a UUID"))
		return
	}

	h.mu.RLock()
	state, ok := h.runs[id]
	h.mu.RUnlock()
	if !ok {
		writeError(w, errors.NotFound("run", id.String()))
		return
	}

	state.cancel()
	writeJSON(w, http.StatusOK, map[string]string{"run_id": id.String(), "status": "cancelling"})
}

func resultAttempts(result *roster.Result) []searchAttempt {
	if result == nil {
		return nil
	}
	out := make([]searchAttempt, 0, len(result.Attempts))
	for _, a := range result.Attempts {
		out = append(out, searchAttempt{Status: string(a.Status), Elapsed: a.Elapsed})
	}
	return out
}

type searchAttempt struct {
	Status  string
	Elapsed time.Duration
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithError(err).Msg("encode response failed")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := errors.GetHTTPStatus(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	payload := map[string]interface{}{
		"code":    string(errors.GetCode(err)),
		"message": err.Error(),
	}
	if encodeErr := json.NewEncoder(w).Encode(payload); encodeErr != nil {
		logger.WithError(encodeErr).Msg("encode error response failed")
	}
}
