package search

import (
	"context"
	"testing"
	"time"

	"github.com/arvergara/Hualpen-sub001/pkg/model"
	"github.com/arvergara/Hualpen-sub001/pkg/roster/compat"
	"github.com/arvergara/Hualpen-sub001/pkg/roster/sat"
)

func shiftOn(date string, number, startMin, endMin int, hours float64) model.ShiftInstance {
	return model.ShiftInstance{
		Date:          date,
		ServiceID:     "svc",
		Vehicle:       0,
		Number:        number,
		StartMin:      startMin,
		EndMin:        endMin,
		DurationHours: hours,
	}
}

func looseParams() model.ConstraintParameters {
	p := model.DefaultParameters()
	p.MaxConsecutiveDays = 7
	p.MinRestDaysOff = 0
	return p
}

func TestLowerBound(t *testing.T) {
	params := model.DefaultParameters()

	var month []model.ShiftInstance
	for i := 0; i < 168; i++ {
		month = append(month, shiftOn("2026-03-02", i, 0, 0, 8))
	}

	tests := []struct {
		name   string
		shifts []model.ShiftInstance
		want   int
	}{
		{name: "empty", shifts: nil, want: 0},
		{name: "single shift", shifts: []model.ShiftInstance{shiftOn("2026-03-02", 1, 360, 840, 8)}, want: 1},
		{name: "exact fit", shifts: month[:45], want: 2}, // 360h / 180h
		{name: "full month", shifts: month, want: 8},     // 1344h / 180h, rounded up
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LowerBound(tt.shifts, params); got != tt.want {
				t.Errorf("LowerBound() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSearch_FeasibleAtSplit(t *testing.T) {
	// Two overlapping shifts need two drivers even though the hour arithmetic
	// allows one; the search must climb from the bound to the answer.
	shifts := []model.ShiftInstance{
		shiftOn("2026-03-02", 1, 360, 840, 8),
		shiftOn("2026-03-02", 2, 600, 1080, 8),
	}
	params := looseParams()
	idx := compat.BuildIndex(shifts, params)
	horizon := model.DateRange{StartDate: "2026-03-02", EndDate: "2026-03-02"}

	d := NewDriver(Config{AttemptBudget: 10 * time.Second, Workers: 1}, nil)
	result, err := d.Search(context.Background(), "run-1", shifts, idx, horizon, params, 0, 0)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	if !result.Feasible {
		t.Fatalf("Search() infeasible, reason %s", result.Reason)
	}
	if result.LowerBound != 1 {
		t.Errorf("LowerBound = %d, want 1", result.LowerBound)
	}
	if result.Drivers != 2 {
		t.Errorf("Drivers = %d, want 2", result.Drivers)
	}
	if len(result.Assignments) != 2 {
		t.Errorf("extracted %d assignments, want 2", len(result.Assignments))
	}
	if len(result.Attempts) != 2 {
		t.Fatalf("recorded %d attempts, want 2", len(result.Attempts))
	}
	if result.Attempts[0].Status != StatusInfeasible || result.Attempts[1].Status != StatusFeasible {
		t.Errorf("attempt statuses = %v, %v", result.Attempts[0].Status, result.Attempts[1].Status)
	}
}

func TestSearch_PresolveBelowBound(t *testing.T) {
	// 360 hours against a 180-hour cap: pool sizes below 2 are settled by
	// arithmetic alone, without ever invoking a solver.
	var shifts []model.ShiftInstance
	for i := 0; i < 45; i++ {
		shifts = append(shifts, shiftOn("2026-03-02", i, 0, 0, 8))
	}
	params := looseParams()
	idx := compat.BuildIndex(shifts, params)
	horizon := model.DateRange{StartDate: "2026-03-02", EndDate: "2026-03-02"}

	factory := func() sat.Solver {
		t.Fatal("solver must not be invoked for presolved pool sizes")
		return nil
	}
	d := NewDriver(Config{AttemptBudget: time.Second, Workers: 1}, factory)

	// Force the whole range under the lower bound via an explicit ceiling.
	result, err := d.Search(context.Background(), "run-2", shifts, idx, horizon, params, 1, 1)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	if result.Feasible {
		t.Fatal("pool below the lower bound cannot be feasible")
	}
	if result.Reason != ReasonInfeasible {
		t.Errorf("Reason = %s, want %s", result.Reason, ReasonInfeasible)
	}
	if len(result.Attempts) != 1 {
		t.Fatalf("recorded %d attempts, want 1", len(result.Attempts))
	}
	a := result.Attempts[0]
	if a.Status != StatusInfeasible || !a.Presolved {
		t.Errorf("attempt = %+v, want presolved infeasible", a)
	}
	if result.AttemptedRange() != "1..1" {
		t.Errorf("AttemptedRange() = %s, want 1..1", result.AttemptedRange())
	}
}

// stubSolver lets the search loop be tested without a real backend.
type stubSolver struct {
	status sat.Status
}

func (s *stubSolver) NewBoolVar(string) sat.BoolVar          { return 0 }
func (s *stubSolver) AddExactlyOne(...sat.BoolVar)           {}
func (s *stubSolver) AddAtMostOne(...sat.BoolVar)            {}
func (s *stubSolver) AddLinearLE([]sat.Term, int)            {}
func (s *stubSolver) Minimize([]sat.Term)                    {}
func (s *stubSolver) NumVars() int                           { return 1 }
func (s *stubSolver) Solve(context.Context, sat.Options) sat.Outcome {
	return sat.Outcome{Status: s.status}
}

func TestSearch_BudgetReason(t *testing.T) {
	shifts := []model.ShiftInstance{shiftOn("2026-03-02", 1, 360, 840, 8)}
	params := looseParams()
	idx := compat.BuildIndex(shifts, params)
	horizon := model.DateRange{StartDate: "2026-03-02", EndDate: "2026-03-02"}

	factory := func() sat.Solver { return &stubSolver{status: sat.StatusUnknown} }
	d := NewDriver(Config{AttemptBudget: time.Second, Workers: 1}, factory)

	result, err := d.Search(context.Background(), "run-3", shifts, idx, horizon, params, 0, 3)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	if result.Feasible {
		t.Fatal("stub never reports feasible")
	}
	// An inconclusive attempt means a bigger budget, not more drivers, might
	// resolve the run.
	if result.Reason != ReasonBudget {
		t.Errorf("Reason = %s, want %s", result.Reason, ReasonBudget)
	}
	for _, a := range result.Attempts {
		if a.Status != StatusTimeout {
			t.Errorf("attempt status = %s, want %s", a.Status, StatusTimeout)
		}
	}
}

func TestSearch_InfeasibleReason(t *testing.T) {
	shifts := []model.ShiftInstance{shiftOn("2026-03-02", 1, 360, 840, 8)}
	params := looseParams()
	idx := compat.BuildIndex(shifts, params)
	horizon := model.DateRange{StartDate: "2026-03-02", EndDate: "2026-03-02"}

	factory := func() sat.Solver { return &stubSolver{status: sat.StatusInfeasible} }
	d := NewDriver(Config{AttemptBudget: time.Second, Workers: 1}, factory)

	result, err := d.Search(context.Background(), "run-4", shifts, idx, horizon, params, 0, 2)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if result.Reason != ReasonInfeasible {
		t.Errorf("Reason = %s, want %s", result.Reason, ReasonInfeasible)
	}
	if result.AttemptedRange() != "1..2" {
		t.Errorf("AttemptedRange() = %s, want 1..2", result.AttemptedRange())
	}
}

func TestSearch_CancelledContext(t *testing.T) {
	shifts := []model.ShiftInstance{shiftOn("2026-03-02", 1, 360, 840, 8)}
	params := looseParams()
	idx := compat.BuildIndex(shifts, params)
	horizon := model.DateRange{StartDate: "2026-03-02", EndDate: "2026-03-02"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDriver(Config{AttemptBudget: time.Second, Workers: 1}, nil)
	if _, err := d.Search(ctx, "run-5", shifts, idx, horizon, params, 0, 0); err == nil {
		t.Error("Search() should surface context cancellation")
	}
}

func TestSearch_EmptyShifts(t *testing.T) {
	d := NewDriver(DefaultConfig(), nil)
	if _, err := d.Search(context.Background(), "run-6", nil, nil, model.DateRange{}, looseParams(), 0, 0); err == nil {
		t.Error("Search() should reject an empty shift set")
	}
}
