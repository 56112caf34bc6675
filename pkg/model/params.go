package model

import (
	"time"

	"github.com/arvergara/Hualpen-sub001/pkg/errors"
)

// ConstraintParameters are the labor-law and operational caps for one run.
// Supplied by the caller and never mutated by the engine.
type ConstraintParameters struct {
	MaxWeeklyHours     float64      `json:"max_weekly_hours"`
	MaxMonthlyHours    float64      `json:"max_monthly_hours"`
	MaxConsecutiveDays int          `json:"max_consecutive_days"`
	RestGapMin         int          `json:"rest_gap_min"`         // gap that resets continuous-duty accounting (minutes)
	MaxContinuousHours float64      `json:"max_continuous_hours"` // combined cap for closely spaced shifts
	MaxDutySpanHours   float64      `json:"max_duty_span_hours"`  // first start to last end on one date
	MinRestDaysOff     int          `json:"min_rest_days_off"`    // designated rest days off per horizon
	RestWeekday        time.Weekday `json:"rest_weekday"`
}

// DefaultParameters returns the reference-domain caps.
func DefaultParameters() ConstraintParameters {
	return ConstraintParameters{
		MaxWeeklyHours:     44,
		MaxMonthlyHours:    180,
		MaxConsecutiveDays: 6,
		RestGapMin:         120,
		MaxContinuousHours: 5,
		MaxDutySpanHours:   16,
		MinRestDaysOff:     2,
		RestWeekday:        time.Sunday,
	}
}

// Validate checks every cap is usable before any solver invocation.
func (p ConstraintParameters) Validate() error {
	if p.MaxWeeklyHours <= 0 {
		return errors.InvalidParameters("max_weekly_hours", "must be positive")
	}
	if p.MaxMonthlyHours <= 0 {
		return errors.InvalidParameters("max_monthly_hours", "must be positive")
	}
	if p.MaxConsecutiveDays <= 0 {
		return errors.InvalidParameters("max_consecutive_days", "must be positive")
	}
	if p.RestGapMin <= 0 {
		return errors.InvalidParameters("rest_gap_min", "must be positive")
	}
	if p.MaxContinuousHours <= 0 {
		return errors.InvalidParameters("max_continuous_hours", "must be positive")
	}
	if p.MaxDutySpanHours <= 0 {
		return errors.InvalidParameters("max_duty_span_hours", "must be positive")
	}
	if p.MinRestDaysOff < 0 {
		return errors.InvalidParameters("min_rest_days_off", "must not be negative")
	}
	return nil
}
