// Package repository persists optimization runs and their rosters.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/arvergara/Hualpen-sub001/internal/database"
	"github.com/arvergara/Hualpen-sub001/pkg/errors"
	"github.com/arvergara/Hualpen-sub001/pkg/model"
)

// RunStatus is the persistence-side lifecycle of a run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run is one persisted optimization run.
type Run struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Status       RunStatus  `json:"status" db:"status"`
	HorizonStart string     `json:"horizon_start" db:"horizon_start"`
	HorizonEnd   string     `json:"horizon_end" db:"horizon_end"`
	DriversUsed  int        `json:"drivers_used" db:"drivers_used"`
	Reason       string     `json:"reason,omitempty" db:"reason"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty" db:"finished_at"`
}

// RunRepository stores runs and resulting assignments.
type RunRepository struct {
	db *database.DB
}

// NewRunRepository creates the repository.
func NewRunRepository(db *database.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a pending run.
func (r *RunRepository) Create(ctx context.Context, run *Run) error {
	query := `
		INSERT INTO roster_runs (id, status, horizon_start, horizon_end, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, run.ID, run.Status, run.HorizonStart, run.HorizonEnd, run.CreatedAt)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "insert run")
	}
	return nil
}

// SetStatus moves a run through its lifecycle.
func (r *RunRepository) SetStatus(ctx context.Context, id uuid.UUID, status RunStatus, reason string) error {
	query := `
		UPDATE roster_runs
		SET status = $2, reason = $3, finished_at = CASE WHEN $2 IN ('completed','failed') THEN now() ELSE finished_at END
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, reason)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "update run status")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("run", id.String())
	}
	return nil
}

// Complete marks a run completed and stores its roster atomically.
func (r *RunRepository) Complete(ctx context.Context, id uuid.UUID, driversUsed int, assignments []model.Assignment) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE roster_runs
			SET status = 'completed', drivers_used = $2, finished_at = now()
			WHERE id = $1`, id, driversUsed)
		if err != nil {
			return errors.Wrap(err, errors.CodeDatabaseError, "complete run")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errors.NotFound("run", id.String())
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO roster_assignments
				(run_id, driver, shift_key, date, service_id, vehicle, shift_number, start_min, end_min, duration_hours)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`)
		if err != nil {
			return errors.Wrap(err, errors.CodeDatabaseError, "prepare assignment insert")
		}
		defer stmt.Close()

		for _, a := range assignments {
			if _, err := stmt.ExecContext(ctx, id, a.Driver, a.ShiftKey, a.Date, a.ServiceID,
				a.Vehicle, a.Number, a.StartMin, a.EndMin, a.DurationHours); err != nil {
				return errors.Wrap(err, errors.CodeDatabaseError, "insert assignment")
			}
		}
		return nil
	})
}

// Get fetches one run by id.
func (r *RunRepository) Get(ctx context.Context, id uuid.UUID) (*Run, error) {
	query := `
		SELECT id, status, horizon_start, horizon_end, COALESCE(drivers_used, 0), COALESCE(reason, ''), created_at, finished_at
		FROM roster_runs WHERE id = $1`
	run := &Run{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID, &run.Status, &run.HorizonStart, &run.HorizonEnd,
		&run.DriversUsed, &run.Reason, &run.CreatedAt, &run.FinishedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("run", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "select run")
	}
	return run, nil
}

// Assignments fetches the stored roster of a completed run.
func (r *RunRepository) Assignments(ctx context.Context, id uuid.UUID) ([]model.Assignment, error) {
	query := `
		SELECT driver, shift_key, date, service_id, vehicle, shift_number, start_min, end_min, duration_hours
		FROM roster_assignments WHERE run_id = $1
		ORDER BY driver, date, start_min`
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "select assignments")
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.Driver, &a.ShiftKey, &a.Date, &a.ServiceID,
			&a.Vehicle, &a.Number, &a.StartMin, &a.EndMin, &a.DurationHours); err != nil {
			return nil, errors.Wrap(err, errors.CodeDatabaseError, "scan assignment")
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "iterate assignments")
	}
	return assignments, nil
}
