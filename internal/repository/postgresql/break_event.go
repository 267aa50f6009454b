package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/breaks"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const breakEventColumns = `id, employee_id, attendance_day, category, custom_label, planned_duration,
	start_time, end_time, duration_seconds, location, end_location, start_reason, end_reason,
	needs_review, review_note, created_at, updated_at`

type breakRepositoryImpl struct {
	db *database.DB
}

func NewBreakRepository(db *database.DB) breaks.BreakRepository {
	return &breakRepositoryImpl{db: db}
}

func scanBreakEvent(row pgx.Row) (breaks.BreakEvent, error) {
	var (
		b        breaks.BreakEvent
		category string
		label    *string
		seconds  *int64
	)
	err := row.Scan(
		&b.ID, &b.EmployeeID, &b.AttendanceDay, &category, &label, &b.PlannedDuration,
		&b.StartTime, &b.EndTime, &seconds, &b.Location, &b.EndLocation, &b.StartReason, &b.EndReason,
		&b.NeedsReview, &b.ReviewNote, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return breaks.BreakEvent{}, err
	}

	b.Type, err = breaks.FromStorage(category, label)
	if err != nil {
		return breaks.BreakEvent{}, fmt.Errorf("break %d: %w", b.ID, err)
	}
	if seconds != nil {
		d := time.Duration(*seconds) * time.Second
		b.Duration = &d
	}
	return b, nil
}

func scanBreakEvents(rows pgx.Rows) ([]breaks.BreakEvent, error) {
	defer rows.Close()

	var events []breaks.BreakEvent
	for rows.Next() {
		b, err := scanBreakEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan break event: %w", err)
		}
		events = append(events, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// Create implements breaks.BreakRepository.
func (r *breakRepositoryImpl) Create(ctx context.Context, event breaks.BreakEvent) (breaks.BreakEvent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO break_events (
			employee_id, attendance_day, category, custom_label, planned_duration,
			start_time, location, start_reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + breakEventColumns

	created, err := scanBreakEvent(q.QueryRow(ctx, query,
		event.EmployeeID, event.AttendanceDay, string(event.Type.Category()), event.Type.LabelPtr(),
		event.PlannedDuration, event.StartTime, event.Location, event.StartReason,
	))
	if err != nil {
		if uniqueViolation(err, constraintOneActiveBreak) {
			return breaks.BreakEvent{}, breaks.ErrBreakAlreadyActive
		}
		return breaks.BreakEvent{}, fmt.Errorf("failed to create break event: %w", err)
	}
	return created, nil
}

// GetActive implements breaks.BreakRepository.
func (r *breakRepositoryImpl) GetActive(ctx context.Context, employeeID string) (breaks.BreakEvent, error) {
	return r.active(ctx, employeeID, "FOR UPDATE")
}

// FindActive implements breaks.BreakRepository.
func (r *breakRepositoryImpl) FindActive(ctx context.Context, employeeID string) (breaks.BreakEvent, error) {
	return r.active(ctx, employeeID, "")
}

func (r *breakRepositoryImpl) active(ctx context.Context, employeeID, lock string) (breaks.BreakEvent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + breakEventColumns + `
		FROM break_events
		WHERE employee_id = $1 AND end_time IS NULL
		` + lock

	b, err := scanBreakEvent(q.QueryRow(ctx, query, employeeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return breaks.BreakEvent{}, breaks.ErrNoActiveBreak
		}
		return breaks.BreakEvent{}, fmt.Errorf("failed to get active break: %w", err)
	}
	return b, nil
}

// HasActive implements breaks.BreakRepository.
func (r *breakRepositoryImpl) HasActive(ctx context.Context, employeeID string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT EXISTS (SELECT 1 FROM break_events WHERE employee_id = $1 AND end_time IS NULL)`

	var exists bool
	if err := q.QueryRow(ctx, query, employeeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check active break: %w", err)
	}
	return exists, nil
}

// Close implements breaks.BreakRepository.
func (r *breakRepositoryImpl) Close(ctx context.Context, event breaks.BreakEvent) (breaks.BreakEvent, error) {
	q := GetQuerier(ctx, r.db)

	var seconds *int64
	if event.Duration != nil {
		s := int64(*event.Duration / time.Second)
		seconds = &s
	}

	query := `
		UPDATE break_events
		SET end_time = $2, duration_seconds = $3, end_location = $4, end_reason = $5,
			needs_review = $6, review_note = $7, updated_at = NOW()
		WHERE id = $1 AND end_time IS NULL
		RETURNING ` + breakEventColumns

	closed, err := scanBreakEvent(q.QueryRow(ctx, query,
		event.ID, event.EndTime, seconds, event.EndLocation, event.EndReason,
		event.NeedsReview, event.ReviewNote,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return breaks.BreakEvent{}, breaks.ErrNoActiveBreak
		}
		return breaks.BreakEvent{}, fmt.Errorf("failed to close break event: %w", err)
	}
	return closed, nil
}

// ListByDay implements breaks.BreakRepository.
func (r *breakRepositoryImpl) ListByDay(ctx context.Context, employeeID string, day time.Time) ([]breaks.BreakEvent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + breakEventColumns + `
		FROM break_events
		WHERE employee_id = $1 AND attendance_day = $2
		ORDER BY start_time, id
	`

	rows, err := q.Query(ctx, query, employeeID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to list break events: %w", err)
	}
	return scanBreakEvents(rows)
}

// FlagStale implements breaks.BreakRepository.
func (r *breakRepositoryImpl) FlagStale(ctx context.Context, cutoff time.Time, note string) ([]breaks.BreakEvent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE break_events
		SET needs_review = TRUE, review_note = $2, updated_at = NOW()
		WHERE end_time IS NULL AND start_time < $1 AND needs_review = FALSE
		RETURNING ` + breakEventColumns

	rows, err := q.Query(ctx, query, cutoff, note)
	if err != nil {
		return nil, fmt.Errorf("failed to flag stale breaks: %w", err)
	}
	return scanBreakEvents(rows)
}
