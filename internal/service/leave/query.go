package leave

import (
	"context"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/leave"
)

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func monthBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// Get implements leave.LeaveService. Employees only see their own leaves.
func (l *LeaveServiceImpl) Get(ctx context.Context, actor employee.Actor, id int64) (leave.LeaveResponse, error) {
	app, err := l.LeaveRepository.GetByID(ctx, id)
	if err != nil {
		return leave.LeaveResponse{}, err
	}
	if app.EmployeeID != actor.EmployeeID {
		viewer, err := l.EmployeeRepository.GetByID(ctx, actor.EmployeeID)
		if err != nil {
			return leave.LeaveResponse{}, err
		}
		if !employee.HasPermission(viewer.Role, employee.PermissionLeaveViewAll) {
			return leave.LeaveResponse{}, leave.ErrLeaveNotVisible
		}
	}
	return l.response(app), nil
}

// List implements leave.LeaveService. Admins list every employee and may
// filter by employee; everyone else is pinned to their own leaves.
func (l *LeaveServiceImpl) List(ctx context.Context, actor employee.Actor, req leave.ListFilterRequest) (leave.ListResponse, error) {
	filter, err := req.Validate()
	if err != nil {
		return leave.ListResponse{}, err
	}

	viewer, err := l.EmployeeRepository.GetByID(ctx, actor.EmployeeID)
	if err != nil {
		return leave.ListResponse{}, err
	}
	isAdmin := employee.HasPermission(viewer.Role, employee.PermissionLeaveViewAll)
	if !isAdmin {
		filter.EmployeeID = &viewer.ID
		filter.EmployeeCode = nil
	}

	applications, err := l.LeaveRepository.List(ctx, filter)
	if err != nil {
		return leave.ListResponse{}, err
	}

	now := l.now()
	from, to := monthBounds(now)
	var scope *string
	if !isAdmin {
		scope = &viewer.ID
	}
	monthly, err := l.LeaveRepository.CountApprovedStartingBetween(ctx, scope, from, to)
	if err != nil {
		return leave.ListResponse{}, err
	}

	resp := leave.ListResponse{
		Leaves:          make([]leave.LeaveResponse, len(applications)),
		Counts:          leave.CountLeaves(applications, startOfDay(now)),
		MonthlyApproved: make(map[string]int64),
		CurrentMonth:    int(now.UTC().Month()),
		CurrentYear:     now.UTC().Year(),
		IsAdmin:         isAdmin,
	}
	for i, app := range applications {
		resp.Leaves[i] = l.response(app)
		resp.MonthlyApproved[app.EmployeeID] = monthly[app.EmployeeID]
	}
	return resp, nil
}

// Dashboard implements leave.LeaveService.
func (l *LeaveServiceImpl) Dashboard(ctx context.Context, actor employee.Actor) (leave.DashboardResponse, error) {
	balance, err := l.Balance(ctx, actor)
	if err != nil {
		return leave.DashboardResponse{}, err
	}

	from, to := monthBounds(l.now())
	monthly, err := l.LeaveRepository.CountApprovedStartingBetween(ctx, &actor.EmployeeID, from, to)
	if err != nil {
		return leave.DashboardResponse{}, err
	}

	annualTaken, err := l.LeaveRepository.CountApproved(ctx, actor.EmployeeID, leave.CategoryAnnual)
	if err != nil {
		return leave.DashboardResponse{}, err
	}

	applications, err := l.LeaveRepository.List(ctx, leave.ListFilter{EmployeeID: &actor.EmployeeID})
	if err != nil {
		return leave.DashboardResponse{}, err
	}

	resp := leave.DashboardResponse{
		DaysLeft:            balance.Remaining,
		TotalVacationDays:   balance.Allowance,
		UsedVacationDays:    balance.Used,
		LeaveTakenThisMonth: monthly[actor.EmployeeID],
		AnnualLeaveTaken:    annualTaken,
		LeaveRequests:       []leave.LeaveHistoryItem{},
		LeaveHistory:        make([]leave.LeaveHistoryItem, 0, len(applications)),
	}
	for _, app := range applications {
		item := leave.NewLeaveHistoryItem(app)
		if app.Status == leave.StatusPending {
			resp.LeaveRequests = append(resp.LeaveRequests, item)
		}
		resp.LeaveHistory = append(resp.LeaveHistory, item)
	}
	return resp, nil
}

// ComputeBalance implements leave.LeaveService.
func (l *LeaveServiceImpl) ComputeBalance(ctx context.Context, employeeID string, allowance float64) (leave.Balance, error) {
	used, err := l.LeaveRepository.SumApprovedDays(ctx, employeeID, leave.CategoryAnnual)
	if err != nil {
		return leave.Balance{}, err
	}
	return leave.NewBalance(allowance, used), nil
}

// Balance implements leave.LeaveService.
func (l *LeaveServiceImpl) Balance(ctx context.Context, actor employee.Actor) (leave.Balance, error) {
	return l.ComputeBalance(ctx, actor.EmployeeID, l.config.AnnualAllowance)
}
