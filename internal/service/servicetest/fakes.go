// Package servicetest provides in-memory repositories shared by the service
// and handler tests. It must only be imported from _test.go files; the
// imports test in this package enforces that.
package servicetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/breakhistory"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/breaks"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/notification"
)

// Tx runs fn directly and serializes calls, standing in for the row lock.
type Tx struct {
	mu    sync.Mutex
	Calls int
}

func (t *Tx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Calls++
	return fn(ctx)
}

func sameDay(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

type Employees struct {
	mu   sync.Mutex
	byID map[string]employee.Employee
}

func NewEmployees(emps ...employee.Employee) *Employees {
	e := &Employees{byID: make(map[string]employee.Employee)}
	for _, emp := range emps {
		e.byID[emp.ID] = emp
	}
	return e
}

func (e *Employees) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	emp, ok := e.byID[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return emp, nil
}

func (e *Employees) LockForUpdate(ctx context.Context, id string) (employee.Employee, error) {
	return e.GetByID(ctx, id)
}

func (e *Employees) ListActiveByRoles(ctx context.Context, roles []employee.Role) ([]employee.Employee, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []employee.Employee
	for _, emp := range e.byID {
		if !emp.IsActive {
			continue
		}
		for _, r := range roles {
			if emp.Role == r {
				out = append(out, emp)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type Clock struct {
	mu     sync.Mutex
	nextID int64
	Events []attendance.ClockEvent
}

func (c *Clock) Create(ctx context.Context, event attendance.ClockEvent) (attendance.ClockEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.Events {
		if e.EmployeeID == event.EmployeeID && e.Kind == event.Kind && sameDay(e.AttendanceDay, event.AttendanceDay) {
			if event.Kind == attendance.ClockIn {
				return attendance.ClockEvent{}, attendance.ErrAlreadyCheckedIn
			}
			return attendance.ClockEvent{}, attendance.ErrAlreadyCheckedOut
		}
	}
	c.nextID++
	event.ID = c.nextID
	event.CreatedAt = time.Now()
	c.Events = append(c.Events, event)
	return event, nil
}

func (c *Clock) Exists(ctx context.Context, employeeID string, day time.Time, kind attendance.ClockKind) (bool, error) {
	_, err := c.GetByDayAndKind(ctx, employeeID, day, kind)
	if err == attendance.ErrClockEventNotFound {
		return false, nil
	}
	return err == nil, err
}

func (c *Clock) GetByDayAndKind(ctx context.Context, employeeID string, day time.Time, kind attendance.ClockKind) (attendance.ClockEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.Events {
		if e.EmployeeID == employeeID && e.Kind == kind && sameDay(e.AttendanceDay, day) {
			return e, nil
		}
	}
	return attendance.ClockEvent{}, attendance.ErrClockEventNotFound
}

func (c *Clock) ListByDay(ctx context.Context, employeeID string, day time.Time) ([]attendance.ClockEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []attendance.ClockEvent
	for _, e := range c.Events {
		if e.EmployeeID == employeeID && sameDay(e.AttendanceDay, day) {
			out = append(out, e)
		}
	}
	return out, nil
}

type Breaks struct {
	mu     sync.Mutex
	nextID int64
	Events []breaks.BreakEvent
}

func (b *Breaks) Create(ctx context.Context, event breaks.BreakEvent) (breaks.BreakEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.Events {
		if e.EmployeeID == event.EmployeeID && e.Active() {
			return breaks.BreakEvent{}, breaks.ErrBreakAlreadyActive
		}
	}
	b.nextID++
	event.ID = b.nextID
	b.Events = append(b.Events, event)
	return event, nil
}

func (b *Breaks) GetActive(ctx context.Context, employeeID string) (breaks.BreakEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.Events {
		if e.EmployeeID == employeeID && e.Active() {
			return e, nil
		}
	}
	return breaks.BreakEvent{}, breaks.ErrNoActiveBreak
}

func (b *Breaks) FindActive(ctx context.Context, employeeID string) (breaks.BreakEvent, error) {
	return b.GetActive(ctx, employeeID)
}

func (b *Breaks) HasActive(ctx context.Context, employeeID string) (bool, error) {
	_, err := b.GetActive(ctx, employeeID)
	if err == breaks.ErrNoActiveBreak {
		return false, nil
	}
	return err == nil, err
}

func (b *Breaks) Close(ctx context.Context, event breaks.BreakEvent) (breaks.BreakEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, e := range b.Events {
		if e.ID == event.ID && e.Active() {
			b.Events[i] = event
			return event, nil
		}
	}
	return breaks.BreakEvent{}, breaks.ErrNoActiveBreak
}

func (b *Breaks) ListByDay(ctx context.Context, employeeID string, day time.Time) ([]breaks.BreakEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []breaks.BreakEvent
	for _, e := range b.Events {
		if e.EmployeeID == employeeID && sameDay(e.AttendanceDay, day) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (b *Breaks) FlagStale(ctx context.Context, cutoff time.Time, note string) ([]breaks.BreakEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []breaks.BreakEvent
	for i, e := range b.Events {
		if e.Active() && !e.NeedsReview && e.StartTime.Before(cutoff) {
			n := note
			e.NeedsReview = true
			e.ReviewNote = &n
			b.Events[i] = e
			out = append(out, e)
		}
	}
	return out, nil
}

type History struct {
	mu   sync.Mutex
	Rows map[string]breakhistory.History
}

func NewHistory() *History {
	return &History{Rows: make(map[string]breakhistory.History)}
}

func historyKey(employeeID string, date time.Time) string {
	return employeeID + "|" + date.Format("2006-01-02")
}

func (h *History) Accumulate(ctx context.Context, employeeID string, date time.Time, d time.Duration, qualifying bool) (breakhistory.History, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := historyKey(employeeID, date)
	row, ok := h.Rows[key]
	if !ok {
		row = breakhistory.History{EmployeeID: employeeID, Date: date}
	}
	row.TotalDuration += d
	row.BreakCount++
	if qualifying {
		row.QualifyingCount++
	}
	row.UpdatedAt = time.Now()
	h.Rows[key] = row
	return row, nil
}

func (h *History) Get(ctx context.Context, employeeID string, date time.Time) (breakhistory.History, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	row, ok := h.Rows[historyKey(employeeID, date)]
	if !ok {
		return breakhistory.History{}, breakhistory.ErrHistoryNotFound
	}
	return row, nil
}

func (h *History) ListRange(ctx context.Context, employeeID string, from, to time.Time) ([]breakhistory.History, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []breakhistory.History
	for _, row := range h.Rows {
		if row.EmployeeID == employeeID && !row.Date.Before(from) && !row.Date.After(to) {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

type Leaves struct {
	mu     sync.Mutex
	nextID int64
	Rows   []leave.LeaveApplication
}

func (l *Leaves) Create(ctx context.Context, app leave.LeaveApplication) (leave.LeaveApplication, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	app.ID = l.nextID
	app.CreatedAt = time.Now()
	app.UpdatedAt = app.CreatedAt
	l.Rows = append(l.Rows, app)
	return app, nil
}

func (l *Leaves) GetByID(ctx context.Context, id int64) (leave.LeaveApplication, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.Rows {
		if r.ID == id {
			return r, nil
		}
	}
	return leave.LeaveApplication{}, leave.ErrLeaveNotFound
}

func (l *Leaves) GetByIDForUpdate(ctx context.Context, id int64) (leave.LeaveApplication, error) {
	return l.GetByID(ctx, id)
}

func (l *Leaves) UpdateStatus(ctx context.Context, app leave.LeaveApplication) (leave.LeaveApplication, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, r := range l.Rows {
		if r.ID != app.ID {
			continue
		}
		if r.Status != leave.StatusPending {
			return leave.LeaveApplication{}, &leave.TransitionError{From: r.Status, To: app.Status}
		}
		app.UpdatedAt = time.Now()
		l.Rows[i] = app
		return app, nil
	}
	return leave.LeaveApplication{}, leave.ErrLeaveNotFound
}

func (l *Leaves) List(ctx context.Context, filter leave.ListFilter) ([]leave.LeaveApplication, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []leave.LeaveApplication
	for i := len(l.Rows) - 1; i >= 0; i-- {
		r := l.Rows[i]
		switch {
		case filter.EmployeeID != nil && r.EmployeeID != *filter.EmployeeID:
		case filter.EmployeeCode != nil && r.EmployeeID != *filter.EmployeeCode &&
			(r.EmployeeCode == nil || *r.EmployeeCode != *filter.EmployeeCode):
		case filter.Status != nil && r.Status != *filter.Status:
		case filter.Category != nil && r.Category != *filter.Category:
		case filter.FromDate != nil && r.StartDate.Before(*filter.FromDate):
		case filter.ToDate != nil && r.EndDate.After(*filter.ToDate):
		default:
			out = append(out, r)
		}
	}
	return out, nil
}

func (l *Leaves) SumApprovedDays(ctx context.Context, employeeID string, category leave.Category) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var sum float64
	for _, r := range l.Rows {
		if r.EmployeeID == employeeID && r.Category == category && r.Status == leave.StatusApproved {
			sum += r.TotalDays
		}
	}
	return sum, nil
}

func (l *Leaves) CountApproved(ctx context.Context, employeeID string, category leave.Category) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int64
	for _, r := range l.Rows {
		if r.EmployeeID == employeeID && r.Category == category && r.Status == leave.StatusApproved {
			n++
		}
	}
	return n, nil
}

func (l *Leaves) CountApprovedStartingBetween(ctx context.Context, employeeID *string, from, to time.Time) (map[string]int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int64)
	for _, r := range l.Rows {
		if r.Status != leave.StatusApproved || r.StartDate.Before(from) || !r.StartDate.Before(to) {
			continue
		}
		if employeeID != nil && r.EmployeeID != *employeeID {
			continue
		}
		out[r.EmployeeID]++
	}
	return out, nil
}

// Notifier records queued notifications.
type Notifier struct {
	mu   sync.Mutex
	Sent []notification.CreateNotificationRequest
}

func (n *Notifier) QueueNotification(ctx context.Context, req notification.CreateNotificationRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, req)
	return nil
}

func (n *Notifier) QueueBulkNotification(ctx context.Context, reqs []notification.CreateNotificationRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, reqs...)
	return nil
}

func (n *Notifier) Requests() []notification.CreateNotificationRequest {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification.CreateNotificationRequest(nil), n.Sent...)
}
