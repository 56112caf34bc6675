// Package sat defines the boolean solver surface used by the roster model
// builder, plus an in-process depth-first solver implementation.
package sat

import (
	"context"
	"time"
)

// BoolVar is a handle to a boolean decision variable.
type BoolVar int

// Term is one weighted variable in a linear expression.
type Term struct {
	Var   BoolVar
	Coeff int
}

// Status is the outcome classification of one solve call.
type Status int

const (
	// StatusUnknown means the budget ran out with no proof either way.
	StatusUnknown Status = iota
	// StatusFeasible means a full assignment satisfying all constraints was found.
	StatusFeasible
	// StatusInfeasible means the search space was exhausted without a solution.
	StatusInfeasible
)

// String returns the status label.
func (s Status) String() string {
	switch s {
	case StatusFeasible:
		return "feasible"
	case StatusInfeasible:
		return "infeasible"
	default:
		return "unknown"
	}
}

// Options controls one solve call.
type Options struct {
	// Budget is the hard wall-clock limit for the call.
	Budget time.Duration
	// Workers is the number of parallel search workers (portfolio).
	Workers int
	// Seed randomizes branching order; 0 keeps the deterministic order.
	Seed int64
	// FirstSolution stops at the first feasible assignment instead of
	// optimizing the objective within the budget.
	FirstSolution bool
}

// Outcome is the result of one solve call.
type Outcome struct {
	Status    Status
	Values    []bool // indexed by BoolVar; valid when Status is feasible
	Objective int
	Nodes     int64
	Elapsed   time.Duration
}

// Solver is the pluggable model-building and solving surface. A model is
// fully built before Solve and is read-only during the search; Solve may be
// called more than once but never concurrently.
type Solver interface {
	// NewBoolVar adds a boolean decision variable.
	NewBoolVar(name string) BoolVar

	// AddExactlyOne requires exactly one of vars to be true.
	AddExactlyOne(vars ...BoolVar)

	// AddAtMostOne requires at most one of vars to be true.
	AddAtMostOne(vars ...BoolVar)

	// AddLinearLE requires sum(coeff*var) <= bound. Coefficients may be negative.
	AddLinearLE(terms []Term, bound int)

	// Minimize sets the objective as a linear expression to minimize.
	Minimize(terms []Term)

	// NumVars returns the number of variables added so far.
	NumVars() int

	// Solve runs the search under the given options.
	Solve(ctx context.Context, opts Options) Outcome
}
