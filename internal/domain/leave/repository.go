package leave

import (
	"context"
	"time"
)

// LeaveRepository - interface for leave_applications table
type LeaveRepository interface {
	Create(ctx context.Context, application LeaveApplication) (LeaveApplication, error)
	GetByID(ctx context.Context, id int64) (LeaveApplication, error)
	// GetByIDForUpdate locks the row for the rest of the transaction.
	GetByIDForUpdate(ctx context.Context, id int64) (LeaveApplication, error)
	// UpdateStatus persists a transition out of pending. It fails with a
	// *TransitionError when the stored row is no longer pending.
	UpdateStatus(ctx context.Context, application LeaveApplication) (LeaveApplication, error)
	List(ctx context.Context, filter ListFilter) ([]LeaveApplication, error)
	// SumApprovedDays totals total_days of the employee's approved leaves in category.
	SumApprovedDays(ctx context.Context, employeeID string, category Category) (float64, error)
	CountApproved(ctx context.Context, employeeID string, category Category) (int64, error)
	// CountApprovedStartingBetween counts approved leaves starting in
	// [from, to) per employee; employeeID nil means every employee.
	CountApprovedStartingBetween(ctx context.Context, employeeID *string, from, to time.Time) (map[string]int64, error)
}
