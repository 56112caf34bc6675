package validator

import (
	"testing"

	"github.com/arvergara/Hualpen-sub001/pkg/model"
	"github.com/arvergara/Hualpen-sub001/pkg/roster/compat"
)

type fixture struct {
	shifts  []model.ShiftInstance
	index   *compat.Index
	horizon model.DateRange
	params  model.ConstraintParameters
}

// newFixture holds two non-overlapping shifts per day over one week.
func newFixture() *fixture {
	params := model.DefaultParameters()
	params.MinRestDaysOff = 0

	var shifts []model.ShiftInstance
	for _, date := range []string{"2026-03-02", "2026-03-03", "2026-03-04"} {
		shifts = append(shifts,
			model.ShiftInstance{Date: date, ServiceID: "svc", Number: 1, StartMin: 360, EndMin: 840, DurationHours: 8},
			model.ShiftInstance{Date: date, ServiceID: "svc", Number: 2, StartMin: 900, EndMin: 1380, DurationHours: 8},
		)
	}
	return &fixture{
		shifts:  shifts,
		index:   compat.BuildIndex(shifts, params),
		horizon: model.DateRange{StartDate: "2026-03-02", EndDate: "2026-03-08"},
		params:  params,
	}
}

// split assigns shift template 1 to driver 0 and template 2 to driver 1.
func (f *fixture) split() []model.Assignment {
	var assignments []model.Assignment
	for i := range f.shifts {
		assignments = append(assignments, model.NewAssignment(f.shifts[i].Number-1, &f.shifts[i]))
	}
	return assignments
}

func hasViolation(violations []Violation, vt ViolationType) bool {
	for _, v := range violations {
		if v.Type == vt {
			return true
		}
	}
	return false
}

func TestVerify_CleanRoster(t *testing.T) {
	f := newFixture()
	violations := Verify(f.split(), f.shifts, f.index, f.horizon, f.params)
	if len(violations) != 0 {
		t.Fatalf("clean roster reported %d violations, first: %+v", len(violations), violations[0])
	}
}

func TestVerify_UncoveredShift(t *testing.T) {
	f := newFixture()
	assignments := f.split()[1:] // drop one cover

	violations := Verify(assignments, f.shifts, f.index, f.horizon, f.params)
	if !hasViolation(violations, ViolationCoverage) {
		t.Error("missing cover must be reported")
	}
}

func TestVerify_DoubleCoveredShift(t *testing.T) {
	f := newFixture()
	assignments := f.split()
	dup := assignments[0]
	dup.Driver = 1
	assignments = append(assignments, dup)

	violations := Verify(assignments, f.shifts, f.index, f.horizon, f.params)
	if !hasViolation(violations, ViolationCoverage) {
		t.Error("double cover must be reported")
	}
}

func TestVerify_DoubleBooking(t *testing.T) {
	f := newFixture()
	// Both daily shifts on one driver: 16h combined with a 1h gap breaks the
	// continuous-duty rule, so the pair is incompatible.
	var assignments []model.Assignment
	for i := range f.shifts {
		assignments = append(assignments, model.NewAssignment(0, &f.shifts[i]))
	}

	violations := Verify(assignments, f.shifts, f.index, f.horizon, f.params)
	if !hasViolation(violations, ViolationDoubleBooking) {
		t.Error("incompatible pair on one driver must be reported")
	}
}

func TestVerify_WeeklyHours(t *testing.T) {
	f := newFixture()
	f.params.MaxWeeklyHours = 20 // each driver works 24h in the window

	violations := Verify(f.split(), f.shifts, f.index, f.horizon, f.params)
	if !hasViolation(violations, ViolationWeeklyHours) {
		t.Error("weekly cap excess must be reported")
	}
}

func TestVerify_MonthlyHours(t *testing.T) {
	f := newFixture()
	f.params.MaxMonthlyHours = 20

	violations := Verify(f.split(), f.shifts, f.index, f.horizon, f.params)
	if !hasViolation(violations, ViolationMonthlyHours) {
		t.Error("monthly cap excess must be reported")
	}
}

func TestVerify_ConsecutiveDays(t *testing.T) {
	f := newFixture()
	f.params.MaxConsecutiveDays = 2 // each driver works 3 days in the window

	violations := Verify(f.split(), f.shifts, f.index, f.horizon, f.params)
	if !hasViolation(violations, ViolationConsecutive) {
		t.Error("consecutive-day excess must be reported")
	}
}

func TestVerify_RestDayQuota(t *testing.T) {
	params := model.DefaultParameters()
	params.MinRestDaysOff = 2

	// Two Sundays in the horizon, both worked by driver 0.
	shifts := []model.ShiftInstance{
		{Date: "2026-03-01", ServiceID: "svc", Number: 1, StartMin: 360, EndMin: 840, DurationHours: 8},
		{Date: "2026-03-08", ServiceID: "svc", Number: 1, StartMin: 360, EndMin: 840, DurationHours: 8},
	}
	index := compat.BuildIndex(shifts, params)
	horizon := model.DateRange{StartDate: "2026-03-01", EndDate: "2026-03-08"}

	assignments := []model.Assignment{
		model.NewAssignment(0, &shifts[0]),
		model.NewAssignment(0, &shifts[1]),
	}
	violations := Verify(assignments, shifts, index, horizon, params)
	if !hasViolation(violations, ViolationRestDayQuota) {
		t.Error("rest-day quota breach must be reported")
	}
}

func TestVerify_UnknownShift(t *testing.T) {
	f := newFixture()
	assignments := f.split()
	assignments[0].ShiftKey = "2026-03-02/ghost/v9/s9"

	violations := Verify(assignments, f.shifts, f.index, f.horizon, f.params)
	if !hasViolation(violations, ViolationUnknownShift) {
		t.Error("assignment to an unknown shift must be reported")
	}
}
