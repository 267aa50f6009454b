package attendance

import (
	"context"
	"time"
)

// ClockRepository - interface for clock_events table
type ClockRepository interface {
	// Create inserts the event. A second event of the same kind for the
	// same day fails with ErrAlreadyCheckedIn or ErrAlreadyCheckedOut.
	Create(ctx context.Context, event ClockEvent) (ClockEvent, error)
	Exists(ctx context.Context, employeeID string, day time.Time, kind ClockKind) (bool, error)
	GetByDayAndKind(ctx context.Context, employeeID string, day time.Time, kind ClockKind) (ClockEvent, error)
	ListByDay(ctx context.Context, employeeID string, day time.Time) ([]ClockEvent, error)
}
