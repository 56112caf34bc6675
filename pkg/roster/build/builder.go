// Package build turns a shift set and a candidate pool size into a boolean
// assignment model on the solver backend.
package build

import (
	"fmt"
	"math"

	"github.com/arvergara/Hualpen-sub001/pkg/model"
	"github.com/arvergara/Hualpen-sub001/pkg/roster/compat"
	"github.com/arvergara/Hualpen-sub001/pkg/roster/sat"
)

// Config tunes the objective. The headcount weight must dominate the
// multi-shift bonus so utilization never buys extra drivers.
type Config struct {
	HeadcountWeight int `json:"headcount_weight"`
	MultiShiftBonus int `json:"multi_shift_bonus"`
	HourScale       int `json:"hour_scale"` // integer scaling for fractional hours
}

// DefaultConfig returns the reference objective weights.
func DefaultConfig() Config {
	return Config{
		HeadcountWeight: 1000,
		MultiShiftBonus: 0,
		HourScale:       10,
	}
}

// Model is one built attempt: the variable layout for (driver, shift) pairs
// plus everything needed to read a solution back out. Variables live only as
// long as the attempt; drivers are pool indices with no cross-attempt identity.
type Model struct {
	solver sat.Solver
	shifts []model.ShiftInstance
	n      int

	vars [][]sat.BoolVar // [driver][shift]
	used []sat.BoolVar
}

// Build constructs the full constraint model for a pool of n drivers.
// The shift list and compatibility index are read-only inputs shared across
// attempts; the solver is always a fresh backend owned by this model.
func Build(solver sat.Solver, shifts []model.ShiftInstance, index *compat.Index, horizon model.DateRange, params model.ConstraintParameters, n int, cfg Config) *Model {
	m := &Model{
		solver: solver,
		shifts: shifts,
		n:      n,
		vars:   make([][]sat.BoolVar, n),
		used:   make([]sat.BoolVar, n),
	}

	scale := cfg.HourScale
	if scale <= 0 {
		scale = 10
	}

	for w := 0; w < n; w++ {
		m.vars[w] = make([]sat.BoolVar, len(shifts))
		for s := range shifts {
			m.vars[w][s] = solver.NewBoolVar(fmt.Sprintf("x_w%d_%s", w, shifts[s].Key()))
		}
	}

	m.addCoverage()
	m.addCompatibility(index)
	m.addHourCaps(horizon, params, scale)
	worked := m.addWorkedDays(horizon)
	m.addConsecutiveDays(horizon, params, worked)
	m.addRestDayQuota(horizon, params, worked)
	m.addObjective(cfg)

	return m
}

// addCoverage: every shift is covered by exactly one driver.
func (m *Model) addCoverage() {
	for s := range m.shifts {
		column := make([]sat.BoolVar, m.n)
		for w := 0; w < m.n; w++ {
			column[w] = m.vars[w][s]
		}
		m.solver.AddExactlyOne(column...)
	}
}

// addCompatibility: no driver takes both halves of an incompatible pair.
// Compatible pairs get no constraint; absence is the permission to double up.
func (m *Model) addCompatibility(index *compat.Index) {
	for _, pair := range index.Incompatible() {
		for w := 0; w < m.n; w++ {
			m.solver.AddAtMostOne(m.vars[w][pair.A], m.vars[w][pair.B])
		}
	}
}

// addHourCaps: weekly caps over non-overlapping 7-day windows anchored at the
// horizon start, plus the monthly cap over the full horizon. Hours are scaled
// to integers to keep the arithmetic exact.
func (m *Model) addHourCaps(horizon model.DateRange, params model.ConstraintParameters, scale int) {
	days := horizon.Days()
	windowOf := make(map[string]int, len(days))
	for i, d := range days {
		windowOf[d] = i / 7
	}
	numWindows := (len(days) + 6) / 7

	weeklyBound := scaleHours(params.MaxWeeklyHours, scale)
	monthlyBound := scaleHours(params.MaxMonthlyHours, scale)

	for w := 0; w < m.n; w++ {
		weekly := make([][]sat.Term, numWindows)
		monthly := make([]sat.Term, 0, len(m.shifts))
		for s := range m.shifts {
			coeff := scaleHours(m.shifts[s].DurationHours, scale)
			win, ok := windowOf[m.shifts[s].Date]
			if !ok {
				continue
			}
			weekly[win] = append(weekly[win], sat.Term{Var: m.vars[w][s], Coeff: coeff})
			monthly = append(monthly, sat.Term{Var: m.vars[w][s], Coeff: coeff})
		}
		for _, terms := range weekly {
			if len(terms) > 0 {
				m.solver.AddLinearLE(terms, weeklyBound)
			}
		}
		if len(monthly) > 0 {
			m.solver.AddLinearLE(monthly, monthlyBound)
		}
	}
}

// addWorkedDays defines the derived "worked that date" booleans, linked both
// ways to the assignment variables of that date.
func (m *Model) addWorkedDays(horizon model.DateRange) map[string][]sat.BoolVar {
	shiftsByDate := make(map[string][]int)
	for s := range m.shifts {
		shiftsByDate[m.shifts[s].Date] = append(shiftsByDate[m.shifts[s].Date], s)
	}

	worked := make(map[string][]sat.BoolVar)
	for _, date := range horizon.Days() {
		ids, ok := shiftsByDate[date]
		if !ok {
			continue
		}
		vars := make([]sat.BoolVar, m.n)
		for w := 0; w < m.n; w++ {
			wd := m.solver.NewBoolVar(fmt.Sprintf("worked_w%d_%s", w, date))
			vars[w] = wd
			// wd is the OR of that driver's shift vars on the date.
			down := make([]sat.Term, 0, len(ids)+1)
			down = append(down, sat.Term{Var: wd, Coeff: 1})
			for _, s := range ids {
				m.solver.AddLinearLE([]sat.Term{{Var: m.vars[w][s], Coeff: 1}, {Var: wd, Coeff: -1}}, 0)
				down = append(down, sat.Term{Var: m.vars[w][s], Coeff: -1})
			}
			m.solver.AddLinearLE(down, 0)
		}
		worked[date] = vars
	}
	return worked
}

// addConsecutiveDays: in every sliding 7-date window a driver works at most
// the configured number of days.
func (m *Model) addConsecutiveDays(horizon model.DateRange, params model.ConstraintParameters, worked map[string][]sat.BoolVar) {
	days := horizon.Days()
	if params.MaxConsecutiveDays >= 7 {
		return
	}
	for start := 0; start+7 <= len(days); start++ {
		window := days[start : start+7]
		for w := 0; w < m.n; w++ {
			terms := make([]sat.Term, 0, 7)
			for _, date := range window {
				if vars, ok := worked[date]; ok {
					terms = append(terms, sat.Term{Var: vars[w], Coeff: 1})
				}
			}
			if len(terms) > params.MaxConsecutiveDays {
				m.solver.AddLinearLE(terms, params.MaxConsecutiveDays)
			}
		}
	}
}

// addRestDayQuota: each driver keeps at least the minimum number of
// designated rest days fully off across the horizon.
func (m *Model) addRestDayQuota(horizon model.DateRange, params model.ConstraintParameters, worked map[string][]sat.BoolVar) {
	var restDates []string
	total := 0
	for _, date := range horizon.Days() {
		weekday, err := model.Weekday(date)
		if err != nil || weekday != params.RestWeekday {
			continue
		}
		total++
		if _, ok := worked[date]; ok {
			restDates = append(restDates, date)
		}
	}
	if total == 0 || params.MinRestDaysOff == 0 {
		return
	}
	bound := total - params.MinRestDaysOff
	for w := 0; w < m.n; w++ {
		terms := make([]sat.Term, 0, len(restDates))
		for _, date := range restDates {
			terms = append(terms, sat.Term{Var: worked[date][w], Coeff: 1})
		}
		if len(terms) > bound {
			m.solver.AddLinearLE(terms, bound)
		}
	}
}

// addObjective: minimize the weighted driver headcount, optionally rewarding
// drivers who cover two or more shifts on the same date.
func (m *Model) addObjective(cfg Config) {
	headcount := cfg.HeadcountWeight
	if headcount <= 0 {
		headcount = 1000
	}

	objective := make([]sat.Term, 0, m.n)
	for w := 0; w < m.n; w++ {
		m.used[w] = m.solver.NewBoolVar(fmt.Sprintf("used_w%d", w))
		// Any covered shift marks the driver as used.
		terms := make([]sat.Term, 0, len(m.shifts)+1)
		terms = append(terms, sat.Term{Var: m.used[w], Coeff: -len(m.shifts)})
		for s := range m.shifts {
			terms = append(terms, sat.Term{Var: m.vars[w][s], Coeff: 1})
		}
		m.solver.AddLinearLE(terms, 0)
		objective = append(objective, sat.Term{Var: m.used[w], Coeff: headcount})
	}

	// Pool slots are interchangeable; ordering used flags breaks the symmetry.
	for w := 0; w+1 < m.n; w++ {
		m.solver.AddLinearLE([]sat.Term{{Var: m.used[w+1], Coeff: 1}, {Var: m.used[w], Coeff: -1}}, 0)
	}

	if cfg.MultiShiftBonus > 0 {
		shiftsByDate := make(map[string][]int)
		for s := range m.shifts {
			shiftsByDate[m.shifts[s].Date] = append(shiftsByDate[m.shifts[s].Date], s)
		}
		for date, ids := range shiftsByDate {
			if len(ids) < 2 {
				continue
			}
			for w := 0; w < m.n; w++ {
				multi := m.solver.NewBoolVar(fmt.Sprintf("multi_w%d_%s", w, date))
				terms := make([]sat.Term, 0, len(ids)+1)
				terms = append(terms, sat.Term{Var: multi, Coeff: 2})
				for _, s := range ids {
					terms = append(terms, sat.Term{Var: m.vars[w][s], Coeff: -1})
				}
				m.solver.AddLinearLE(terms, 0)
				objective = append(objective, sat.Term{Var: multi, Coeff: -cfg.MultiShiftBonus})
			}
		}
	}

	m.solver.Minimize(objective)
}

// Solver returns the backend this model was built on.
func (m *Model) Solver() sat.Solver {
	return m.solver
}

// PoolSize returns the candidate pool size the model was built for.
func (m *Model) PoolSize() int {
	return m.n
}

// Extract reads the covered (driver, shift) pairs out of a feasible outcome.
func (m *Model) Extract(outcome sat.Outcome) []model.Assignment {
	if outcome.Status != sat.StatusFeasible {
		return nil
	}
	var assignments []model.Assignment
	for w := 0; w < m.n; w++ {
		for s := range m.shifts {
			if outcome.Values[m.vars[w][s]] {
				assignments = append(assignments, model.NewAssignment(w, &m.shifts[s]))
			}
		}
	}
	return assignments
}

func scaleHours(hours float64, scale int) int {
	return int(math.Round(hours * float64(scale)))
}
