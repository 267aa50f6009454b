package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const clockEventColumns = `id, employee_id, kind, attendance_day, occurred_at, check_time, time_zone, location, reason, created_at`

type clockRepositoryImpl struct {
	db *database.DB
}

func NewClockRepository(db *database.DB) attendance.ClockRepository {
	return &clockRepositoryImpl{db: db}
}

func scanClockEvent(row pgx.Row) (attendance.ClockEvent, error) {
	var (
		ev   attendance.ClockEvent
		kind string
	)
	err := row.Scan(
		&ev.ID, &ev.EmployeeID, &kind, &ev.AttendanceDay, &ev.OccurredAt,
		&ev.CheckTime, &ev.TimeZone, &ev.Location, &ev.Reason, &ev.CreatedAt,
	)
	ev.Kind = attendance.ClockKind(kind)
	return ev, err
}

// Create implements attendance.ClockRepository.
func (r *clockRepositoryImpl) Create(ctx context.Context, event attendance.ClockEvent) (attendance.ClockEvent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO clock_events (employee_id, kind, attendance_day, occurred_at, check_time, time_zone, location, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + clockEventColumns

	created, err := scanClockEvent(q.QueryRow(ctx, query,
		event.EmployeeID, string(event.Kind), event.AttendanceDay, event.OccurredAt,
		event.CheckTime, event.TimeZone, event.Location, event.Reason,
	))
	if err != nil {
		if uniqueViolation(err, constraintClockEventPerDay) {
			if event.Kind == attendance.ClockOut {
				return attendance.ClockEvent{}, attendance.ErrAlreadyCheckedOut
			}
			return attendance.ClockEvent{}, attendance.ErrAlreadyCheckedIn
		}
		return attendance.ClockEvent{}, fmt.Errorf("failed to create clock event: %w", err)
	}
	return created, nil
}

// Exists implements attendance.ClockRepository.
func (r *clockRepositoryImpl) Exists(ctx context.Context, employeeID string, day time.Time, kind attendance.ClockKind) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM clock_events
			WHERE employee_id = $1 AND attendance_day = $2 AND kind = $3
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, employeeID, day, string(kind)).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check clock event: %w", err)
	}
	return exists, nil
}

// GetByDayAndKind implements attendance.ClockRepository.
func (r *clockRepositoryImpl) GetByDayAndKind(ctx context.Context, employeeID string, day time.Time, kind attendance.ClockKind) (attendance.ClockEvent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + clockEventColumns + `
		FROM clock_events
		WHERE employee_id = $1 AND attendance_day = $2 AND kind = $3
	`

	ev, err := scanClockEvent(q.QueryRow(ctx, query, employeeID, day, string(kind)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.ClockEvent{}, attendance.ErrClockEventNotFound
		}
		return attendance.ClockEvent{}, fmt.Errorf("failed to get clock event: %w", err)
	}
	return ev, nil
}

// ListByDay implements attendance.ClockRepository.
func (r *clockRepositoryImpl) ListByDay(ctx context.Context, employeeID string, day time.Time) ([]attendance.ClockEvent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + clockEventColumns + `
		FROM clock_events
		WHERE employee_id = $1 AND attendance_day = $2
		ORDER BY occurred_at, id
	`

	rows, err := q.Query(ctx, query, employeeID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to list clock events: %w", err)
	}
	defer rows.Close()

	var events []attendance.ClockEvent
	for rows.Next() {
		ev, err := scanClockEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clock event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
