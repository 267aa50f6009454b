package employee

import "context"

// EmployeeRepository is the read side of the employee directory.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	// LockForUpdate takes a row lock on the employee for the rest of the
	// current transaction, serializing ledger writes per employee.
	LockForUpdate(ctx context.Context, id string) (Employee, error)
	ListActiveByRoles(ctx context.Context, roles []Role) ([]Employee, error)
}
