// Package roster is the batch optimization engine: it turns service
// definitions and a planning horizon into a minimal-headcount driver roster.
package roster

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arvergara/Hualpen-sub001/pkg/errors"
	"github.com/arvergara/Hualpen-sub001/pkg/logger"
	"github.com/arvergara/Hualpen-sub001/pkg/model"
	"github.com/arvergara/Hualpen-sub001/pkg/roster/compat"
	"github.com/arvergara/Hualpen-sub001/pkg/roster/generate"
	"github.com/arvergara/Hualpen-sub001/pkg/roster/report"
	"github.com/arvergara/Hualpen-sub001/pkg/roster/search"
	"github.com/arvergara/Hualpen-sub001/pkg/validator"
)

// Input is the full contract from the data-ingestion side of the system.
type Input struct {
	Horizon    model.DateRange            `json:"horizon"`
	Services   []model.ServiceDefinition  `json:"services"`
	Params     model.ConstraintParameters `json:"params"`
	PoolFloor  int                        `json:"pool_floor,omitempty"`   // optional override of the computed lower bound
	PoolCeiling int                       `json:"pool_ceiling,omitempty"` // optional override of the search ceiling
	HourlyRate float64                    `json:"hourly_rate,omitempty"`
}

// Status tags the run result.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Result is the tagged output contract of one run. A run either satisfies
// every hard constraint or fails with a typed reason; nothing in between.
type Result struct {
	RunID       string             `json:"run_id"`
	Status      Status             `json:"status"`
	DriversUsed int                `json:"drivers_used,omitempty"`
	Assignments []model.Assignment `json:"assignments,omitempty"`
	Report      *report.Report     `json:"report,omitempty"`
	LowerBound  int                `json:"lower_bound"`
	Attempts    []search.Attempt   `json:"attempts"`
	// Failure details, set when Status is failed.
	AttemptedRange string            `json:"attempted_range,omitempty"`
	Reason         search.FailReason `json:"reason,omitempty"`
	Elapsed        time.Duration     `json:"elapsed"`
}

// Engine is the synchronous run(params) -> result entry point. Each run owns
// its shifts, index and models exclusively; the engine itself never tracks
// run status or dispatches asynchronously.
type Engine struct {
	search  search.Config
	factory search.SolverFactory
	log     *logger.RosterLogger
}

// NewEngine creates an engine. A nil factory uses the in-process DFS backend.
func NewEngine(cfg search.Config, factory search.SolverFactory) *Engine {
	return &Engine{search: cfg, factory: factory, log: logger.NewRosterLogger()}
}

// Run executes one optimization run to completion or typed failure.
func (e *Engine) Run(ctx context.Context, in Input) (*Result, error) {
	runID := uuid.New().String()
	start := time.Now()

	if err := e.validate(in); err != nil {
		return nil, err
	}

	shifts, err := generate.Generate(in.Services, in.Horizon, in.Params.RestWeekday)
	if err != nil {
		return nil, err
	}
	e.log.StartRun(runID, len(shifts), in.Horizon.NumDays())

	index := compat.BuildIndex(shifts, in.Params)

	driver := search.NewDriver(e.search, e.factory)
	found, err := driver.Search(ctx, runID, shifts, index, in.Horizon, in.Params, in.PoolFloor, in.PoolCeiling)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:      runID,
		LowerBound: found.LowerBound,
		Attempts:   found.Attempts,
		Elapsed:    time.Since(start),
	}

	if !found.Feasible {
		result.Status = StatusFailed
		result.AttemptedRange = found.AttemptedRange()
		result.Reason = found.Reason
		e.log.RunFailed(runID, string(found.Reason), result.Elapsed)
		return result, nil
	}

	// The audit guards against model or solver defects; a dirty solution is
	// never returned silently.
	if violations := validator.Verify(found.Assignments, shifts, index, in.Horizon, in.Params); len(violations) > 0 {
		return nil, errors.SolutionRejected(
			fmt.Sprintf("solver output failed audit: %d violations, first: %s", len(violations), violations[0].Message))
	}

	result.Status = StatusSuccess
	result.Assignments = found.Assignments
	result.Report = report.Build(found.Assignments, in.Params, in.HourlyRate)
	// Headcount is what the roster actually uses, not the pool size the
	// search happened to solve at; a caller-raised floor can leave drivers idle.
	result.DriversUsed = result.Report.Metrics.DriversUsed
	result.Elapsed = time.Since(start)
	e.log.RunComplete(runID, result.DriversUsed, result.Elapsed)
	return result, nil
}

// validate fails fast on configuration errors before any solver work.
func (e *Engine) validate(in Input) error {
	if err := in.Horizon.Validate(); err != nil {
		return err
	}
	if len(in.Services) == 0 {
		return errors.InvalidInput("services", "at least one service is required")
	}
	for i := range in.Services {
		if err := in.Services[i].Validate(); err != nil {
			return err
		}
	}
	if err := in.Params.Validate(); err != nil {
		return err
	}
	if in.PoolFloor < 0 || in.PoolCeiling < 0 {
		return errors.InvalidInput("pool bounds", "must not be negative")
	}
	if in.PoolCeiling > 0 && in.PoolFloor > in.PoolCeiling {
		return errors.InvalidInput("pool bounds", "floor above ceiling")
	}
	return nil
}
