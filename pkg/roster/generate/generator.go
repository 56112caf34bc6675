// Package generate expands recurring service definitions into dated shift instances.
package generate

import (
	"fmt"
	"time"

	"github.com/arvergara/Hualpen-sub001/pkg/errors"
	"github.com/arvergara/Hualpen-sub001/pkg/model"
)

// Generate emits one ShiftInstance per (date, service, vehicle, shift template)
// for every date whose weekday is in the service's operating set. The result
// ordering follows the input ordering; the composite key is unique.
func Generate(services []model.ServiceDefinition, horizon model.DateRange, restWeekday time.Weekday) ([]model.ShiftInstance, error) {
	if err := horizon.Validate(); err != nil {
		return nil, err
	}
	days := horizon.Days()
	if len(days) == 0 {
		return nil, errors.InvalidHorizon("empty date range")
	}
	if len(services) == 0 {
		return nil, errors.InvalidInput("services", "at least one service is required")
	}
	for i := range services {
		if err := services[i].Validate(); err != nil {
			return nil, err
		}
	}

	var instances []model.ShiftInstance
	seen := make(map[string]struct{})

	for _, date := range days {
		weekday, err := model.Weekday(date)
		if err != nil {
			return nil, err
		}
		for i := range services {
			svc := &services[i]
			if !svc.OperatesOn(weekday) {
				continue
			}
			for vehicle := 0; vehicle < svc.Vehicles; vehicle++ {
				for _, tpl := range svc.Shifts {
					inst, err := instantiate(svc, tpl, date, vehicle, weekday == restWeekday)
					if err != nil {
						return nil, err
					}
					key := inst.Key()
					if _, dup := seen[key]; dup {
						return nil, errors.InvalidService(svc.ID, fmt.Sprintf("duplicate shift key %s", key))
					}
					seen[key] = struct{}{}
					instances = append(instances, inst)
				}
			}
		}
	}

	return instances, nil
}

func instantiate(svc *model.ServiceDefinition, tpl model.ShiftTemplate, date string, vehicle int, restDay bool) (model.ShiftInstance, error) {
	start, err := model.ParseClock(tpl.StartTime)
	if err != nil {
		return model.ShiftInstance{}, errors.InvalidService(svc.ID, fmt.Sprintf("shift %d: bad start_time", tpl.Number))
	}
	end, err := model.ParseClock(tpl.EndTime)
	if err != nil {
		return model.ShiftInstance{}, errors.InvalidService(svc.ID, fmt.Sprintf("shift %d: bad end_time", tpl.Number))
	}
	// Shifts ending at or past midnight keep the start date; the end minute
	// rolls past 1440 so durations and gaps stay monotonic within the date.
	if end <= start {
		end += 24 * 60
	}
	return model.ShiftInstance{
		Date:          date,
		ServiceID:     svc.ID,
		Vehicle:       vehicle,
		Number:        tpl.Number,
		StartMin:      start,
		EndMin:        end,
		DurationHours: tpl.DurationHours,
		RestDay:       restDay,
	}, nil
}

// TotalHours sums the duration of all instances.
func TotalHours(instances []model.ShiftInstance) float64 {
	var total float64
	for i := range instances {
		total += instances[i].DurationHours
	}
	return total
}
