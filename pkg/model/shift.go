package model

import "fmt"

// ShiftInstance is one concrete, dated duty requiring exactly one driver.
// Instances are created once per run by the generator and read-only after.
type ShiftInstance struct {
	Date          string  `json:"date" db:"date"` // YYYY-MM-DD
	ServiceID     string  `json:"service_id" db:"service_id"`
	Vehicle       int     `json:"vehicle" db:"vehicle"`
	Number        int     `json:"number" db:"number"`
	StartMin      int     `json:"start_min" db:"start_min"` // minutes since midnight
	EndMin        int     `json:"end_min" db:"end_min"`
	DurationHours float64 `json:"duration_hours" db:"duration_hours"`
	RestDay       bool    `json:"rest_day" db:"rest_day"` // falls on the designated weekly rest day
}

// Key returns the unique composite identifier of the instance.
func (s *ShiftInstance) Key() string {
	return fmt.Sprintf("%s/%s/v%d/s%d", s.Date, s.ServiceID, s.Vehicle, s.Number)
}

// Overlaps reports whether two same-date instances overlap in time.
func (s *ShiftInstance) Overlaps(other *ShiftInstance) bool {
	if s.Date != other.Date {
		return false
	}
	return s.StartMin < other.EndMin && other.StartMin < s.EndMin
}

// Assignment is one (driver, shift) pairing in a finished roster.
// Driver ids are pool indices; they carry no identity across runs.
type Assignment struct {
	Driver        int     `json:"driver" db:"driver"`
	ShiftKey      string  `json:"shift_key" db:"shift_key"`
	Date          string  `json:"date" db:"date"`
	ServiceID     string  `json:"service_id" db:"service_id"`
	Vehicle       int     `json:"vehicle" db:"vehicle"`
	Number        int     `json:"number" db:"number"`
	StartMin      int     `json:"start_min" db:"start_min"`
	EndMin        int     `json:"end_min" db:"end_min"`
	DurationHours float64 `json:"duration_hours" db:"duration_hours"`
}

// NewAssignment builds the assignment tuple for a covered shift.
func NewAssignment(driver int, s *ShiftInstance) Assignment {
	return Assignment{
		Driver:        driver,
		ShiftKey:      s.Key(),
		Date:          s.Date,
		ServiceID:     s.ServiceID,
		Vehicle:       s.Vehicle,
		Number:        s.Number,
		StartMin:      s.StartMin,
		EndMin:        s.EndMin,
		DurationHours: s.DurationHours,
	}
}
