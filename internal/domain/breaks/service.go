package breaks

import (
	"context"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/breakhistory"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/employee"
)

// BreakService runs the per-employee break state machine:
// NoActiveBreak -> BreakActive -> NoActiveBreak.
type BreakService interface {
	Start(ctx context.Context, actor employee.Actor, req StartBreakRequest) (BreakEventResponse, error)
	End(ctx context.Context, actor employee.Actor, req EndBreakRequest) (EndBreakResponse, error)
	History(ctx context.Context, actor employee.Actor, req HistoryRequest) ([]breakhistory.HistoryResponse, error)
	// FlagStaleBreaks marks long-open breaks for manual review.
	FlagStaleBreaks(ctx context.Context) (int64, error)
}
