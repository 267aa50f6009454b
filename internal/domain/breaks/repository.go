package breaks

import (
	"context"
	"time"
)

// BreakRepository - interface for break_events table
type BreakRepository interface {
	// Create inserts an active break; a second active break for the same
	// employee fails with ErrBreakAlreadyActive.
	Create(ctx context.Context, event BreakEvent) (BreakEvent, error)
	// GetActive returns the employee's open break on any day, locking it
	// for the current transaction.
	GetActive(ctx context.Context, employeeID string) (BreakEvent, error)
	// FindActive is GetActive without the lock, for read models.
	FindActive(ctx context.Context, employeeID string) (BreakEvent, error)
	HasActive(ctx context.Context, employeeID string) (bool, error)
	// Close records end time, duration and end details on an open break.
	Close(ctx context.Context, event BreakEvent) (BreakEvent, error)
	ListByDay(ctx context.Context, employeeID string, day time.Time) ([]BreakEvent, error)
	// FlagStale marks open breaks started before cutoff for review and
	// returns the newly flagged ones.
	FlagStale(ctx context.Context, cutoff time.Time, note string) ([]BreakEvent, error)
}
