// Package search drives the incremental pool-size search over solver attempts.
package search

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/arvergara/Hualpen-sub001/pkg/errors"
	"github.com/arvergara/Hualpen-sub001/pkg/logger"
	"github.com/arvergara/Hualpen-sub001/pkg/model"
	"github.com/arvergara/Hualpen-sub001/pkg/roster/build"
	"github.com/arvergara/Hualpen-sub001/pkg/roster/compat"
	"github.com/arvergara/Hualpen-sub001/pkg/roster/generate"
	"github.com/arvergara/Hualpen-sub001/pkg/roster/sat"
)

// AttemptStatus is the per-attempt state machine outcome.
type AttemptStatus string

const (
	StatusFeasible   AttemptStatus = "feasible"
	StatusInfeasible AttemptStatus = "infeasible"
	// StatusTimeout means the attempt budget ran out with no proof either
	// way. Search continues as if infeasible but the distinction survives.
	StatusTimeout AttemptStatus = "timeout"
)

// FailReason distinguishes terminal failures for the caller.
type FailReason string

const (
	ReasonNone FailReason = ""
	// ReasonInfeasible: every attempted pool size was proven infeasible.
	ReasonInfeasible FailReason = "no_feasible_pool_size"
	// ReasonBudget: at least one attempt was inconclusive, so a larger
	// budget (not more drivers) may resolve the run.
	ReasonBudget FailReason = "time_budget_exhausted"
)

// Attempt records one ATTEMPTING(N) transition.
type Attempt struct {
	Drivers   int           `json:"drivers"`
	Status    AttemptStatus `json:"status"`
	Nodes     int64         `json:"nodes"`
	Elapsed   time.Duration `json:"elapsed"`
	Presolved bool          `json:"presolved"` // decided arithmetically, solver never invoked
}

// Config tunes the search loop.
type Config struct {
	// AttemptBudget is the hard wall-clock budget per attempt, not cumulative.
	AttemptBudget time.Duration `json:"attempt_budget"`
	// Workers is the solver parallelism within one attempt.
	Workers int `json:"workers"`
	// Seed randomizes solver branching; 0 is deterministic.
	Seed int64 `json:"seed"`
	// CeilingFactor bounds the search at ceil(factor * lower bound) when the
	// caller gives no explicit ceiling.
	CeilingFactor float64 `json:"ceiling_factor"`
	// Objective weights forwarded to the model builder.
	Build build.Config `json:"build"`
}

// DefaultConfig returns the reference search configuration.
func DefaultConfig() Config {
	return Config{
		AttemptBudget: 30 * time.Second,
		Workers:       4,
		CeilingFactor: 2.0,
		Build:         build.DefaultConfig(),
	}
}

// Result is the terminal state of one search run.
type Result struct {
	Feasible    bool               `json:"feasible"`
	Drivers     int                `json:"drivers"`
	Assignments []model.Assignment `json:"assignments,omitempty"`
	Objective   int                `json:"objective"`
	LowerBound  int                `json:"lower_bound"`
	Ceiling     int                `json:"ceiling"`
	Attempts    []Attempt          `json:"attempts"`
	Reason      FailReason         `json:"reason,omitempty"`
}

// AttemptedRange describes the pool sizes a failed run tried.
func (r *Result) AttemptedRange() string {
	if len(r.Attempts) == 0 {
		return "none"
	}
	return fmt.Sprintf("%d..%d", r.Attempts[0].Drivers, r.Attempts[len(r.Attempts)-1].Drivers)
}

// SolverFactory builds a fresh backend for each attempt; model size depends
// on N, so nothing is reused between attempts.
type SolverFactory func() sat.Solver

// Driver runs the sequential pool-size search.
type Driver struct {
	cfg     Config
	factory SolverFactory
	log     *logger.RosterLogger
}

// NewDriver creates a search driver. A nil factory uses the in-process DFS
// backend.
func NewDriver(cfg Config, factory SolverFactory) *Driver {
	if factory == nil {
		factory = func() sat.Solver { return sat.NewDFS() }
	}
	if cfg.AttemptBudget <= 0 {
		cfg.AttemptBudget = DefaultConfig().AttemptBudget
	}
	if cfg.CeilingFactor <= 1 {
		cfg.CeilingFactor = DefaultConfig().CeilingFactor
	}
	return &Driver{cfg: cfg, factory: factory, log: logger.NewRosterLogger()}
}

// LowerBound is the hour-arithmetic floor on the pool size:
// ceil(total shift hours / monthly cap per driver).
func LowerBound(shifts []model.ShiftInstance, params model.ConstraintParameters) int {
	total := generate.TotalHours(shifts)
	if total == 0 {
		return 0
	}
	return int(math.Ceil(total / params.MaxMonthlyHours))
}

// Search attempts increasing pool sizes until one is feasible or the ceiling
// is exhausted. floor/ceiling of 0 mean "computed default". Attempts are
// strictly sequential; each owns a fresh model and budget.
func (d *Driver) Search(ctx context.Context, runID string, shifts []model.ShiftInstance, index *compat.Index, horizon model.DateRange, params model.ConstraintParameters, floor, ceiling int) (*Result, error) {
	if len(shifts) == 0 {
		return nil, errors.InvalidInput("shifts", "nothing to cover")
	}

	lower := LowerBound(shifts, params)
	if lower == 0 {
		lower = 1
	}
	start := lower
	if floor > 0 {
		start = floor
	}
	if ceiling <= 0 {
		ceiling = int(math.Ceil(d.cfg.CeilingFactor * float64(lower)))
	}
	if ceiling < start {
		ceiling = start
	}

	result := &Result{LowerBound: lower, Ceiling: ceiling}
	totalHours := generate.TotalHours(shifts)
	sawTimeout := false

	for n := start; n <= ceiling; n++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.CodeTimeout, "search cancelled")
		}

		// Presolve: when n drivers cannot absorb the total hours, coverage
		// plus the monthly cap is infeasible by arithmetic alone. Reporting
		// it here keeps below-bound attempts from ever timing out.
		if float64(n)*params.MaxMonthlyHours < totalHours {
			attempt := Attempt{Drivers: n, Status: StatusInfeasible, Presolved: true}
			result.Attempts = append(result.Attempts, attempt)
			d.log.AttemptFinished(runID, n, string(StatusInfeasible), 0)
			continue
		}

		m := build.Build(d.factory(), shifts, index, horizon, params, n, d.cfg.Build)
		outcome := m.Solver().Solve(ctx, sat.Options{
			Budget:        d.cfg.AttemptBudget,
			Workers:       d.cfg.Workers,
			Seed:          d.cfg.Seed,
			FirstSolution: d.cfg.Build.MultiShiftBonus <= 0,
		})

		attempt := Attempt{Drivers: n, Status: attemptStatus(outcome.Status), Nodes: outcome.Nodes, Elapsed: outcome.Elapsed}
		result.Attempts = append(result.Attempts, attempt)
		d.log.AttemptFinished(runID, n, string(attempt.Status), outcome.Elapsed)

		switch outcome.Status {
		case sat.StatusFeasible:
			result.Feasible = true
			result.Drivers = n
			result.Objective = outcome.Objective
			result.Assignments = m.Extract(outcome)
			return result, nil
		case sat.StatusUnknown:
			sawTimeout = true
		}
	}

	if sawTimeout {
		result.Reason = ReasonBudget
	} else {
		result.Reason = ReasonInfeasible
	}
	return result, nil
}

func attemptStatus(s sat.Status) AttemptStatus {
	switch s {
	case sat.StatusFeasible:
		return StatusFeasible
	case sat.StatusInfeasible:
		return StatusInfeasible
	default:
		return StatusTimeout
	}
}
