package roster

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvergara/Hualpen-sub001/pkg/errors"
	"github.com/arvergara/Hualpen-sub001/pkg/model"
	"github.com/arvergara/Hualpen-sub001/pkg/roster/search"
)

func testConfig() search.Config {
	cfg := search.DefaultConfig()
	cfg.AttemptBudget = 10 * time.Second
	cfg.Workers = 2
	return cfg
}

func mondayInput() Input {
	params := model.DefaultParameters()
	params.MinRestDaysOff = 0
	return Input{
		Horizon: model.DateRange{StartDate: "2026-03-02", EndDate: "2026-03-02"},
		Services: []model.ServiceDefinition{
			{
				ID:            "troncal-1",
				Name:          "Troncal Centro",
				OperatingDays: []time.Weekday{time.Monday},
				Vehicles:      2,
				Shifts: []model.ShiftTemplate{
					{Number: 1, StartTime: "06:00", EndTime: "14:00", DurationHours: 8},
				},
			},
		},
		Params: params,
	}
}

func TestEngine_Run_Success(t *testing.T) {
	engine := NewEngine(testConfig(), nil)

	// Two vehicles at the same time need two drivers.
	result, err := engine.Run(context.Background(), mondayInput())
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, result.Status)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 1, result.LowerBound)
	assert.Equal(t, 2, result.DriversUsed)
	assert.Len(t, result.Assignments, 2)
	assert.NotEqual(t, result.Assignments[0].Driver, result.Assignments[1].Driver)

	require.NotNil(t, result.Report)
	assert.Equal(t, 2, result.Report.Metrics.DriversUsed)
	assert.InDelta(t, 16.0, result.Report.Metrics.TotalHours, 1e-9)
	assert.Empty(t, result.Reason)
}

func TestEngine_Run_FailsAtCeiling(t *testing.T) {
	engine := NewEngine(testConfig(), nil)

	in := mondayInput()
	in.PoolCeiling = 1 // one driver cannot hold two simultaneous shifts

	result, err := engine.Run(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, result.Status)

	assert.Equal(t, search.ReasonInfeasible, result.Reason)
	assert.Equal(t, "1..1", result.AttemptedRange)
	assert.Empty(t, result.Assignments)
	assert.Nil(t, result.Report)
}

func TestEngine_Run_RaisedFloorHeadcount(t *testing.T) {
	engine := NewEngine(testConfig(), nil)

	// A caller-raised floor makes the search solve with a larger pool than
	// the roster needs; the reported headcount follows the assignments.
	in := mondayInput()
	in.PoolFloor = 4

	result, err := engine.Run(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, result.Status)

	require.NotEmpty(t, result.Attempts)
	assert.Equal(t, 4, result.Attempts[0].Drivers)
	assert.Equal(t, 2, result.DriversUsed)
	assert.Equal(t, result.Report.Metrics.DriversUsed, result.DriversUsed)
}

func TestEngine_Run_CostReport(t *testing.T) {
	engine := NewEngine(testConfig(), nil)

	in := mondayInput()
	in.HourlyRate = 9.5

	result, err := engine.Run(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, result.Status)
	assert.InDelta(t, 16*9.5, result.Report.Metrics.EstimatedCost, 1e-9)
}

func TestEngine_Run_ValidatesInput(t *testing.T) {
	engine := NewEngine(testConfig(), nil)

	tests := []struct {
		name   string
		mutate func(*Input)
		code   errors.Code
	}{
		{
			name:   "inverted horizon",
			mutate: func(in *Input) { in.Horizon = model.DateRange{StartDate: "2026-03-10", EndDate: "2026-03-02"} },
			code:   errors.CodeInvalidHorizon,
		},
		{
			name:   "no services",
			mutate: func(in *Input) { in.Services = nil },
			code:   errors.CodeInvalidInput,
		},
		{
			name:   "broken service",
			mutate: func(in *Input) { in.Services[0].Vehicles = 0 },
			code:   errors.CodeInvalidService,
		},
		{
			name:   "broken parameters",
			mutate: func(in *Input) { in.Params.MaxMonthlyHours = 0 },
			code:   errors.CodeInvalidParameters,
		},
		{
			name:   "negative pool floor",
			mutate: func(in *Input) { in.PoolFloor = -1 },
			code:   errors.CodeInvalidInput,
		},
		{
			name:   "floor above ceiling",
			mutate: func(in *Input) { in.PoolFloor = 5; in.PoolCeiling = 2 },
			code:   errors.CodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := mondayInput()
			tt.mutate(&in)

			result, err := engine.Run(context.Background(), in)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, errors.Is(err, tt.code), "code = %s", errors.GetCode(err))
		})
	}
}

func TestEngine_Run_Cancelled(t *testing.T) {
	engine := NewEngine(testConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Run(ctx, mondayInput())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeTimeout))
}
