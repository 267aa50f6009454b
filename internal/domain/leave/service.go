package leave

import (
	"context"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/employee"
)

// LeaveService runs the application lifecycle: pending is initial and
// approved, rejected and cancelled are terminal.
type LeaveService interface {
	Apply(ctx context.Context, actor employee.Actor, req ApplyRequest, files ApplyFiles) (LeaveResponse, error)
	Approve(ctx context.Context, actor employee.Actor, id int64) (LeaveResponse, error)
	Reject(ctx context.Context, actor employee.Actor, id int64, req RejectRequest) (LeaveResponse, error)
	Cancel(ctx context.Context, actor employee.Actor, id int64) (LeaveResponse, error)

	Get(ctx context.Context, actor employee.Actor, id int64) (LeaveResponse, error)
	List(ctx context.Context, actor employee.Actor, req ListFilterRequest) (ListResponse, error)
	Dashboard(ctx context.Context, actor employee.Actor) (DashboardResponse, error)

	// ComputeBalance reconciles an allowance against approved annual leave.
	ComputeBalance(ctx context.Context, employeeID string, allowance float64) (Balance, error)
	// Balance is ComputeBalance for the actor with the configured allowance.
	Balance(ctx context.Context, actor employee.Actor) (Balance, error)
}
