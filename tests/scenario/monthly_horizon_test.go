package scenario

import (
	"context"
	"testing"
	"time"

	"github.com/arvergara/Hualpen-sub001/pkg/model"
	"github.com/arvergara/Hualpen-sub001/pkg/roster"
	"github.com/arvergara/Hualpen-sub001/pkg/roster/compat"
	"github.com/arvergara/Hualpen-sub001/pkg/roster/generate"
	"github.com/arvergara/Hualpen-sub001/pkg/roster/sat"
	"github.com/arvergara/Hualpen-sub001/pkg/roster/search"
	"github.com/arvergara/Hualpen-sub001/pkg/validator"
)

// monthlyServices is a full 28-day operation: two lines with three daily
// turns each, running every day of the week.
func monthlyServices() []model.ServiceDefinition {
	allWeek := []time.Weekday{
		time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
		time.Thursday, time.Friday, time.Saturday,
	}
	turns := []model.ShiftTemplate{
		{Number: 1, StartTime: "05:00", EndTime: "13:00", DurationHours: 8},
		{Number: 2, StartTime: "13:00", EndTime: "21:00", DurationHours: 8},
		{Number: 3, StartTime: "21:00", EndTime: "05:00", DurationHours: 8},
	}
	return []model.ServiceDefinition{
		{ID: "linea-10", Name: "Línea 10", OperatingDays: allWeek, Vehicles: 1, Shifts: turns},
		{ID: "linea-30", Name: "Línea 30", OperatingDays: allWeek, Vehicles: 1, Shifts: turns},
	}
}

// TestMonthlyHorizonBound checks the hour arithmetic of a realistic month:
// 168 shifts of 8 hours against a 180-hour cap put the floor at 8 drivers.
func TestMonthlyHorizonBound(t *testing.T) {
	horizon := model.DateRange{StartDate: "2026-03-02", EndDate: "2026-03-29"}
	params := model.DefaultParameters()

	shifts, err := generate.Generate(monthlyServices(), horizon, params.RestWeekday)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	if len(shifts) != 168 {
		t.Fatalf("generated %d shifts, want 168", len(shifts))
	}
	if total := generate.TotalHours(shifts); total != 1344 {
		t.Fatalf("TotalHours = %v, want 1344", total)
	}
	if lb := search.LowerBound(shifts, params); lb != 8 {
		t.Errorf("LowerBound = %d, want 8", lb)
	}
}

// TestMonthlyHorizonFeasible drives the full month end to end. The Sunday
// rotation binds harder than the hour arithmetic (six incompatible shifts
// every Sunday, two Sundays off per driver), so the climb has to pass the
// floor before the roster closes, and the finished roster must survive the
// audit untouched.
func TestMonthlyHorizonFeasible(t *testing.T) {
	if testing.Short() {
		t.Skip("full-month solve")
	}

	params := model.DefaultParameters()
	in := roster.Input{
		Horizon:  model.DateRange{StartDate: "2026-03-02", EndDate: "2026-03-29"},
		Services: monthlyServices(),
		Params:   params,
	}

	engine := roster.NewEngine(scenarioConfig(), nil)
	result, err := engine.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if result.Status != roster.StatusSuccess {
		t.Fatalf("Status = %s, reason %s, attempted %s", result.Status, result.Reason, result.AttemptedRange)
	}

	if result.LowerBound != 8 {
		t.Errorf("LowerBound = %d, want 8", result.LowerBound)
	}
	if result.DriversUsed < result.LowerBound {
		t.Errorf("DriversUsed = %d below the bound %d", result.DriversUsed, result.LowerBound)
	}
	if len(result.Assignments) != 168 {
		t.Errorf("assignments = %d, want 168", len(result.Assignments))
	}

	shifts, err := generate.Generate(in.Services, in.Horizon, params.RestWeekday)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	idx := compat.BuildIndex(shifts, params)
	if violations := validator.Verify(result.Assignments, shifts, idx, in.Horizon, params); len(violations) != 0 {
		t.Fatalf("audit found %d violations, first: %+v", len(violations), violations[0])
	}

	t.Logf("month closed with %d drivers after %d attempts in %s",
		result.DriversUsed, len(result.Attempts), result.Elapsed)
}

// TestMonthlyHorizonPresolve forces the search through every pool size under
// the bound: each one must be settled arithmetically, instantly, with no
// solver attempt and no timeout.
func TestMonthlyHorizonPresolve(t *testing.T) {
	horizon := model.DateRange{StartDate: "2026-03-02", EndDate: "2026-03-29"}
	params := model.DefaultParameters()

	shifts, err := generate.Generate(monthlyServices(), horizon, params.RestWeekday)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	idx := compat.BuildIndex(shifts, params)

	cfg := scenarioConfig()
	cfg.AttemptBudget = time.Second
	d := search.NewDriver(cfg, func() sat.Solver {
		t.Fatal("solver must not run below the arithmetic bound")
		return nil
	})

	result, err := d.Search(context.Background(), "monthly-presolve", shifts, idx, horizon, params, 1, 7)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	if result.Feasible {
		t.Fatal("pool sizes below the bound cannot be feasible")
	}
	if result.Reason != search.ReasonInfeasible {
		t.Errorf("Reason = %s, want %s", result.Reason, search.ReasonInfeasible)
	}
	if len(result.Attempts) != 7 {
		t.Fatalf("attempts = %d, want 7", len(result.Attempts))
	}
	for _, a := range result.Attempts {
		if !a.Presolved || a.Status != search.StatusInfeasible {
			t.Errorf("attempt at %d drivers = %+v, want presolved infeasible", a.Drivers, a)
		}
		if a.Status == search.StatusTimeout {
			t.Errorf("attempt at %d drivers timed out below the bound", a.Drivers)
		}
	}
}
