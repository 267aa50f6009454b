package fixtures

import (
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/employee"
)

func strPtr(s string) *string { return &s }

// DefaultEmployees is the directory seeded into a fresh development
// database: one of each role plus a deactivated account.
func DefaultEmployees() []employee.Employee {
	return []employee.Employee{
		{ID: "emp-0001", EmployeeCode: "SA001", Name: "Super Admin", Role: employee.RoleSuperAdmin, EmployeeType: strPtr("permanent"), IsActive: true},
		{ID: "emp-0002", EmployeeCode: "AD001", Name: "HR Admin", Role: employee.RoleAdmin, EmployeeType: strPtr("permanent"), IsActive: true},
		{ID: "emp-0003", EmployeeCode: "EM001", Name: "Staff Member", Role: employee.RoleEmployee, EmployeeType: strPtr("permanent"), IsActive: true},
		{ID: "emp-0004", EmployeeCode: "EM002", Name: "Contract Staff", Role: employee.RoleEmployee, EmployeeType: strPtr("contract"), IsActive: true},
		{ID: "emp-0005", EmployeeCode: "EM003", Name: "Former Staff", Role: employee.RoleEmployee, EmployeeType: strPtr("permanent"), IsActive: false},
	}
}
