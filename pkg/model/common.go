// Package model defines the core data model of the roster engine.
package model

import (
	"time"

	"github.com/arvergara/Hualpen-sub001/pkg/errors"
)

// DateFormat is the canonical date layout used across the engine.
const DateFormat = "2006-01-02"

// TimeFormat is the canonical clock layout for shift templates.
const TimeFormat = "15:04"

// DateRange is a closed date interval.
type DateRange struct {
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD
}

// Validate checks the range is well formed and non-empty.
func (r DateRange) Validate() error {
	start, err := time.Parse(DateFormat, r.StartDate)
	if err != nil {
		return errors.InvalidHorizon("start_date must be YYYY-MM-DD")
	}
	end, err := time.Parse(DateFormat, r.EndDate)
	if err != nil {
		return errors.InvalidHorizon("end_date must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return errors.InvalidHorizon("end_date before start_date")
	}
	return nil
}

// Days returns every date in the range, in order.
func (r DateRange) Days() []string {
	start, err1 := time.Parse(DateFormat, r.StartDate)
	end, err2 := time.Parse(DateFormat, r.EndDate)
	if err1 != nil || err2 != nil || end.Before(start) {
		return nil
	}
	var days []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DateFormat))
	}
	return days
}

// NumDays returns the number of dates in the range.
func (r DateRange) NumDays() int {
	return len(r.Days())
}

// Weekday returns the weekday of a YYYY-MM-DD date.
func Weekday(date string) (time.Weekday, error) {
	t, err := time.Parse(DateFormat, date)
	if err != nil {
		return time.Sunday, errors.InvalidInput("date", "must be YYYY-MM-DD")
	}
	return t.Weekday(), nil
}

// ParseClock converts an HH:MM clock string to minutes since midnight.
func ParseClock(clock string) (int, error) {
	t, err := time.Parse(TimeFormat, clock)
	if err != nil {
		return 0, errors.InvalidInput("time", "must be HH:MM")
	}
	return t.Hour()*60 + t.Minute(), nil
}
