package model

import (
	"time"

	"github.com/arvergara/Hualpen-sub001/pkg/errors"
)

// ShiftTemplate is one recurring shift inside a service definition.
type ShiftTemplate struct {
	Number        int     `json:"number" db:"number"`
	StartTime     string  `json:"start_time" db:"start_time"` // HH:MM
	EndTime       string  `json:"end_time" db:"end_time"`     // HH:MM
	DurationHours float64 `json:"duration_hours" db:"duration_hours"`
}

// Validate checks the template clock fields.
func (t ShiftTemplate) Validate() error {
	if _, err := ParseClock(t.StartTime); err != nil {
		return errors.InvalidInput("start_time", "must be HH:MM")
	}
	if _, err := ParseClock(t.EndTime); err != nil {
		return errors.InvalidInput("end_time", "must be HH:MM")
	}
	if t.DurationHours <= 0 {
		return errors.InvalidInput("duration_hours", "must be positive")
	}
	return nil
}

// ServiceDefinition is a recurring duty template owned by the caller.
type ServiceDefinition struct {
	ID            string          `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	OperatingDays []time.Weekday  `json:"operating_days" db:"operating_days"`
	Vehicles      int             `json:"vehicles" db:"vehicles"`
	Shifts        []ShiftTemplate `json:"shifts" db:"-"`
}

// OperatesOn reports whether the service runs on the given weekday.
func (s *ServiceDefinition) OperatesOn(day time.Weekday) bool {
	for _, d := range s.OperatingDays {
		if d == day {
			return true
		}
	}
	return false
}

// Validate checks the definition is usable by the generator.
func (s *ServiceDefinition) Validate() error {
	if s.ID == "" {
		return errors.InvalidService(s.ID, "missing id")
	}
	if s.Vehicles <= 0 {
		return errors.InvalidService(s.ID, "must define at least one vehicle")
	}
	if len(s.Shifts) == 0 {
		return errors.InvalidService(s.ID, "must define at least one shift")
	}
	if len(s.OperatingDays) == 0 {
		return errors.InvalidService(s.ID, "must define at least one operating day")
	}
	for _, t := range s.Shifts {
		if err := t.Validate(); err != nil {
			return errors.InvalidService(s.ID, err.Error())
		}
	}
	return nil
}
