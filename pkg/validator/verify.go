// Package validator audits a finished roster against every hard rule.
// The engine runs it before returning a solution; a violation here means the
// solver or the model is wrong, never the input.
package validator

import (
	"fmt"
	"sort"

	"github.com/arvergara/Hualpen-sub001/pkg/model"
	"github.com/arvergara/Hualpen-sub001/pkg/roster/compat"
)

// ViolationType labels the rule that was broken.
type ViolationType string

const (
	ViolationCoverage       ViolationType = "coverage"
	ViolationDoubleBooking  ViolationType = "double_booking"
	ViolationWeeklyHours    ViolationType = "weekly_hours"
	ViolationMonthlyHours   ViolationType = "monthly_hours"
	ViolationConsecutive    ViolationType = "consecutive_days"
	ViolationRestDayQuota   ViolationType = "rest_day_quota"
	ViolationUnknownShift   ViolationType = "unknown_shift"
)

// Violation is one broken rule with enough context to debug it.
type Violation struct {
	Type    ViolationType `json:"type"`
	Driver  int           `json:"driver"`
	Date    string        `json:"date,omitempty"`
	Message string        `json:"message"`
}

// Verify checks coverage, compatibility, hour caps, the consecutive-day cap
// and the rest-day quota over a finished assignment list.
func Verify(assignments []model.Assignment, shifts []model.ShiftInstance, index *compat.Index, horizon model.DateRange, params model.ConstraintParameters) []Violation {
	var violations []Violation

	shiftIdx := make(map[string]int, len(shifts))
	for i := range shifts {
		shiftIdx[shifts[i].Key()] = i
	}

	// Coverage: every shift covered by exactly one driver.
	covered := make(map[string]int)
	byDriver := make(map[int][]model.Assignment)
	for _, a := range assignments {
		if _, ok := shiftIdx[a.ShiftKey]; !ok {
			violations = append(violations, Violation{
				Type:    ViolationUnknownShift,
				Driver:  a.Driver,
				Date:    a.Date,
				Message: fmt.Sprintf("assignment references unknown shift %s", a.ShiftKey),
			})
			continue
		}
		covered[a.ShiftKey]++
		byDriver[a.Driver] = append(byDriver[a.Driver], a)
	}
	for i := range shifts {
		key := shifts[i].Key()
		if n := covered[key]; n != 1 {
			violations = append(violations, Violation{
				Type:    ViolationCoverage,
				Driver:  -1,
				Date:    shifts[i].Date,
				Message: fmt.Sprintf("shift %s covered by %d drivers, want 1", key, n),
			})
		}
	}

	restDayTotal := 0
	for _, date := range horizon.Days() {
		if weekday, err := model.Weekday(date); err == nil && weekday == params.RestWeekday {
			restDayTotal++
		}
	}
	windowOf := make(map[string]int)
	days := horizon.Days()
	for i, d := range days {
		windowOf[d] = i / 7
	}

	drivers := make([]int, 0, len(byDriver))
	for id := range byDriver {
		drivers = append(drivers, id)
	}
	sort.Ints(drivers)

	for _, id := range drivers {
		list := byDriver[id]
		violations = append(violations, verifyDriver(id, list, shiftIdx, index, params, windowOf, days, restDayTotal)...)
	}

	return violations
}

func verifyDriver(id int, list []model.Assignment, shiftIdx map[string]int, index *compat.Index, params model.ConstraintParameters, windowOf map[string]int, days []string, restDayTotal int) []Violation {
	var violations []Violation

	// No double booking over incompatible same-date pairs.
	for i := 0; i < len(list); i++ {
		for j := i + 1; j < len(list); j++ {
			if list[i].Date != list[j].Date {
				continue
			}
			a, okA := shiftIdx[list[i].ShiftKey]
			b, okB := shiftIdx[list[j].ShiftKey]
			if !okA || !okB {
				continue
			}
			if !index.Compatible(a, b) {
				violations = append(violations, Violation{
					Type:    ViolationDoubleBooking,
					Driver:  id,
					Date:    list[i].Date,
					Message: fmt.Sprintf("driver %d holds incompatible shifts %s and %s", id, list[i].ShiftKey, list[j].ShiftKey),
				})
			}
		}
	}

	// Hour caps.
	hoursByWindow := make(map[int]float64)
	var totalHours float64
	workedDates := make(map[string]bool)
	restDaysWorked := 0
	for _, a := range list {
		totalHours += a.DurationHours
		if win, ok := windowOf[a.Date]; ok {
			hoursByWindow[win] += a.DurationHours
		}
		if !workedDates[a.Date] {
			workedDates[a.Date] = true
			if weekday, err := model.Weekday(a.Date); err == nil && weekday == params.RestWeekday {
				restDaysWorked++
			}
		}
	}
	for win, hours := range hoursByWindow {
		if hours > params.MaxWeeklyHours+1e-9 {
			violations = append(violations, Violation{
				Type:    ViolationWeeklyHours,
				Driver:  id,
				Message: fmt.Sprintf("driver %d works %.1fh in week window %d, cap %.1fh", id, hours, win, params.MaxWeeklyHours),
			})
		}
	}
	if totalHours > params.MaxMonthlyHours+1e-9 {
		violations = append(violations, Violation{
			Type:    ViolationMonthlyHours,
			Driver:  id,
			Message: fmt.Sprintf("driver %d works %.1fh in the horizon, cap %.1fh", id, totalHours, params.MaxMonthlyHours),
		})
	}

	// Consecutive-day cap over every sliding 7-date window.
	for start := 0; start+7 <= len(days); start++ {
		worked := 0
		for _, date := range days[start : start+7] {
			if workedDates[date] {
				worked++
			}
		}
		if worked > params.MaxConsecutiveDays {
			violations = append(violations, Violation{
				Type:    ViolationConsecutive,
				Driver:  id,
				Date:    days[start],
				Message: fmt.Sprintf("driver %d works %d days in the 7-date window starting %s, cap %d", id, worked, days[start], params.MaxConsecutiveDays),
			})
			break
		}
	}

	// Rest-day quota.
	if restDaysWorked > restDayTotal-params.MinRestDaysOff {
		violations = append(violations, Violation{
			Type:    ViolationRestDayQuota,
			Driver:  id,
			Message: fmt.Sprintf("driver %d works %d of %d rest days, minimum %d off", id, restDaysWorked, restDayTotal, params.MinRestDaysOff),
		})
	}

	return violations
}
