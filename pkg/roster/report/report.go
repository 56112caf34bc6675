// Package report turns a raw assignment into driver-facing rosters and metrics.
package report

import (
	"fmt"
	"sort"

	"github.com/arvergara/Hualpen-sub001/pkg/model"
	"github.com/arvergara/Hualpen-sub001/pkg/stats"
)

// DriverRoster is the shift list of one driver in the pool.
type DriverRoster struct {
	Driver         int                `json:"driver"`
	Shifts         []model.Assignment `json:"shifts"`
	TotalHours     float64            `json:"total_hours"`
	DaysWorked     int                `json:"days_worked"`
	MultiShiftDays int                `json:"multi_shift_days"`
	RestDaysWorked int                `json:"rest_days_worked"`
}

// Metrics summarizes the whole roster.
type Metrics struct {
	DriversUsed    int                   `json:"drivers_used"`
	TotalShifts    int                   `json:"total_shifts"`
	TotalHours     float64               `json:"total_hours"`
	AvgUtilization float64               `json:"avg_utilization"` // share of the monthly cap actually worked
	MultiShiftDays int                   `json:"multi_shift_days"`
	EstimatedCost  float64               `json:"estimated_cost"`
	Workload       stats.WorkloadMetrics `json:"workload"`
}

// Report is the formatted run output: pure function of the solution.
type Report struct {
	Drivers  []DriverRoster `json:"drivers"`
	Metrics  Metrics        `json:"metrics"`
	Warnings []string       `json:"warnings,omitempty"`
}

// Build formats a solution. hourlyRate feeds the cost estimate; zero skips it.
func Build(assignments []model.Assignment, params model.ConstraintParameters, hourlyRate float64) *Report {
	byDriver := make(map[int][]model.Assignment)
	for _, a := range assignments {
		byDriver[a.Driver] = append(byDriver[a.Driver], a)
	}

	ids := make([]int, 0, len(byDriver))
	for id := range byDriver {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	rpt := &Report{}
	var totalHours float64
	var hoursPerDriver []float64

	for _, id := range ids {
		shifts := byDriver[id]
		sort.Slice(shifts, func(i, j int) bool {
			if shifts[i].Date != shifts[j].Date {
				return shifts[i].Date < shifts[j].Date
			}
			return shifts[i].StartMin < shifts[j].StartMin
		})

		roster := DriverRoster{Driver: id, Shifts: shifts}
		perDate := make(map[string]int)
		for _, a := range shifts {
			roster.TotalHours += a.DurationHours
			perDate[a.Date]++
		}
		roster.DaysWorked = len(perDate)
		for date, count := range perDate {
			if count >= 2 {
				roster.MultiShiftDays++
			}
			if weekday, err := model.Weekday(date); err == nil && weekday == params.RestWeekday {
				roster.RestDaysWorked++
			}
		}

		totalHours += roster.TotalHours
		hoursPerDriver = append(hoursPerDriver, roster.TotalHours)
		rpt.Metrics.MultiShiftDays += roster.MultiShiftDays
		rpt.Drivers = append(rpt.Drivers, roster)

		if params.MaxMonthlyHours > 0 && roster.TotalHours > 0.95*params.MaxMonthlyHours {
			rpt.Warnings = append(rpt.Warnings,
				fmt.Sprintf("driver %d at %.1fh of the %.0fh monthly cap", id, roster.TotalHours, params.MaxMonthlyHours))
		}
	}

	rpt.Metrics.DriversUsed = len(rpt.Drivers)
	rpt.Metrics.TotalShifts = len(assignments)
	rpt.Metrics.TotalHours = totalHours
	if rpt.Metrics.DriversUsed > 0 && params.MaxMonthlyHours > 0 {
		rpt.Metrics.AvgUtilization = totalHours / (float64(rpt.Metrics.DriversUsed) * params.MaxMonthlyHours)
	}
	if hourlyRate > 0 {
		rpt.Metrics.EstimatedCost = totalHours * hourlyRate
	}
	rpt.Metrics.Workload = stats.AnalyzeWorkload(hoursPerDriver)

	return rpt
}
