package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/breakhistory"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const breakHistoryColumns = `employee_id, history_date, total_seconds, qualifying_count, break_count, updated_at`

type historyRepositoryImpl struct {
	db *database.DB
}

func NewHistoryRepository(db *database.DB) breakhistory.HistoryRepository {
	return &historyRepositoryImpl{db: db}
}

func scanHistory(row pgx.Row) (breakhistory.History, error) {
	var (
		h       breakhistory.History
		seconds int64
	)
	err := row.Scan(&h.EmployeeID, &h.Date, &seconds, &h.QualifyingCount, &h.BreakCount, &h.UpdatedAt)
	h.TotalDuration = time.Duration(seconds) * time.Second
	return h, err
}

// Accumulate implements breakhistory.HistoryRepository.
func (r *historyRepositoryImpl) Accumulate(ctx context.Context, employeeID string, date time.Time, duration time.Duration, qualifying bool) (breakhistory.History, error) {
	q := GetQuerier(ctx, r.db)

	qualifyingIncrement := 0
	if qualifying {
		qualifyingIncrement = 1
	}

	query := `
		INSERT INTO break_histories (employee_id, history_date, total_seconds, qualifying_count, break_count, updated_at)
		VALUES ($1, $2, $3, $4, 1, NOW())
		ON CONFLICT (employee_id, history_date) DO UPDATE SET
			total_seconds = break_histories.total_seconds + EXCLUDED.total_seconds,
			qualifying_count = break_histories.qualifying_count + EXCLUDED.qualifying_count,
			break_count = break_histories.break_count + 1,
			updated_at = NOW()
		RETURNING ` + breakHistoryColumns

	h, err := scanHistory(q.QueryRow(ctx, query, employeeID, date, int64(duration/time.Second), qualifyingIncrement))
	if err != nil {
		return breakhistory.History{}, fmt.Errorf("failed to accumulate break history: %w", err)
	}
	return h, nil
}

// Get implements breakhistory.HistoryRepository.
func (r *historyRepositoryImpl) Get(ctx context.Context, employeeID string, date time.Time) (breakhistory.History, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + breakHistoryColumns + ` FROM break_histories WHERE employee_id = $1 AND history_date = $2`

	h, err := scanHistory(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return breakhistory.History{}, breakhistory.ErrHistoryNotFound
		}
		return breakhistory.History{}, fmt.Errorf("failed to get break history: %w", err)
	}
	return h, nil
}

// ListRange implements breakhistory.HistoryRepository. Both bounds are inclusive.
func (r *historyRepositoryImpl) ListRange(ctx context.Context, employeeID string, from, to time.Time) ([]breakhistory.History, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + breakHistoryColumns + `
		FROM break_histories
		WHERE employee_id = $1 AND history_date BETWEEN $2 AND $3
		ORDER BY history_date DESC
	`

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list break history: %w", err)
	}
	defer rows.Close()

	var histories []breakhistory.History
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan break history: %w", err)
		}
		histories = append(histories, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return histories, nil
}
