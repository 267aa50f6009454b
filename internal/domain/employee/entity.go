package employee

import "time"

type Role string

const (
	RoleEmployee   Role = "employee"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Employee is the directory record the ledgers reference. It is owned by
// the employee directory and treated as read-only during a request.
type Employee struct {
	ID           string
	EmployeeCode string
	Name         string
	Role         Role
	EmployeeType *string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor is the authenticated caller of a ledger operation.
type Actor struct {
	EmployeeID string
	Role       Role
}
