package breakhistory

import (
	"context"
	"time"
)

// HistoryRepository - interface for break_histories table
type HistoryRepository interface {
	// Accumulate atomically adds duration to the (employee, date) row,
	// creating it when absent, and increments the counters.
	Accumulate(ctx context.Context, employeeID string, date time.Time, duration time.Duration, qualifying bool) (History, error)
	Get(ctx context.Context, employeeID string, date time.Time) (History, error)
	ListRange(ctx context.Context, employeeID string, from, to time.Time) ([]History, error)
}
