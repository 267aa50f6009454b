package attendance

import (
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

type ClockKind string

const (
	ClockIn  ClockKind = "in"
	ClockOut ClockKind = "out"
)

// ClockEvent is one check-in or check-out. At most one event of each kind
// exists per (employee, attendance day); events are never mutated.
type ClockEvent struct {
	ID            int64
	EmployeeID    string
	Kind          ClockKind
	AttendanceDay time.Time
	OccurredAt    time.Time
	CheckTime     string
	TimeZone      string
	Location      string
	Reason        *string
	CreatedAt     time.Time
}

// DayStatus is the clock state of one attendance day.
type DayStatus string

const (
	StatusNotCheckedIn DayStatus = "not_checked_in"
	StatusCheckedIn    DayStatus = "checked_in"
	StatusCheckedOut   DayStatus = "checked_out"
)

// StatusOf derives the day state from the events recorded for it.
func StatusOf(events []ClockEvent) DayStatus {
	status := StatusNotCheckedIn
	for _, e := range events {
		switch e.Kind {
		case ClockOut:
			return StatusCheckedOut
		case ClockIn:
			status = StatusCheckedIn
		}
	}
	return status
}

// Zone returns the zone the event was recorded in, or UTC when the
// stored label no longer resolves.
func (e ClockEvent) Zone() *time.Location {
	if loc, ok := validator.ParseTimeZone(e.TimeZone); ok {
		return loc
	}
	return time.UTC
}
