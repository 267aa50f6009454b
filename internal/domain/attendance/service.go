package attendance

import (
	"context"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/employee"
)

// ClockService runs the daily check-in/check-out state machine:
// NoClock -> CheckedIn -> CheckedOut.
type ClockService interface {
	CheckIn(ctx context.Context, actor employee.Actor, req CheckInRequest) (ClockEventResponse, error)
	CheckOut(ctx context.Context, actor employee.Actor, req CheckOutRequest) (ClockEventResponse, error)
}
