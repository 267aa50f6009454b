package employee_dashboard

import (
	"context"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/employee"
)

// EmployeeDashboardService assembles the home screen read model.
type EmployeeDashboardService interface {
	Home(ctx context.Context, actor employee.Actor, req HomeRequest) (HomeResponse, error)
}
