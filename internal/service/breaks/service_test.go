package breaks

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/breakhistory"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/breaks"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
	historysvc "github.com/cmlabs-hris/attendance-backend-go/internal/service/breakhistory"
	"github.com/cmlabs-hris/attendance-backend-go/internal/service/servicetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

type fixture struct {
	service  *BreakServiceImpl
	clock    *servicetest.Clock
	breaks   *servicetest.Breaks
	history  *servicetest.History
	notifier *servicetest.Notifier
	actor    employee.Actor
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	employees := servicetest.NewEmployees(
		employee.Employee{ID: "emp-1", EmployeeCode: "E001", Name: "Dana", Role: employee.RoleEmployee, IsActive: true},
		employee.Employee{ID: "adm-1", EmployeeCode: "A001", Name: "Ari", Role: employee.RoleAdmin, IsActive: true},
		employee.Employee{ID: "adm-2", EmployeeCode: "A002", Name: "Sam", Role: employee.RoleSuperAdmin, IsActive: true},
		employee.Employee{ID: "adm-3", EmployeeCode: "A003", Name: "Former", Role: employee.RoleAdmin, IsActive: false},
	)
	f := fixture{
		clock:    &servicetest.Clock{},
		breaks:   &servicetest.Breaks{},
		history:  servicetest.NewHistory(),
		notifier: &servicetest.Notifier{},
		actor:    employee.Actor{EmployeeID: "emp-1", Role: employee.RoleEmployee},
	}
	aggregator := historysvc.NewAggregator(f.history, breakhistory.NewPolicy([]string{"lunch"}))
	f.service = NewBreakService(&servicetest.Tx{}, f.breaks, f.clock, employees, f.history, aggregator, f.notifier, Config{StaleAfter: 2 * time.Hour})
	return f
}

func (f fixture) clockEvent(t *testing.T, kind attendance.ClockKind, at time.Time) {
	t.Helper()
	_, err := f.clock.Create(context.Background(), attendance.ClockEvent{
		EmployeeID:    f.actor.EmployeeID,
		Kind:          kind,
		AttendanceDay: day,
		OccurredAt:    at,
		CheckTime:     at.Format("15:04"),
		TimeZone:      "UTC+04:00",
		Location:      "Office",
	})
	require.NoError(t, err)
}

func startRequest(category, start string) breaks.StartBreakRequest {
	return breaks.StartBreakRequest{
		BreakType:      category,
		BreakStartTime: start,
		Location:       "Office",
		Date:           "2024-01-15",
	}
}

func endRequest(end string) breaks.EndBreakRequest {
	return breaks.EndBreakRequest{
		BreakEndTime: end,
		Location:     "Office",
		Date:         "2024-01-15",
	}
}

func TestBreakService_Start_RequiresCheckIn(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Start(context.Background(), f.actor, startRequest("lunch", "12:00"))
	assert.ErrorIs(t, err, attendance.ErrNotCheckedIn)
}

func TestBreakService_Start_StateCheckedBeforeLabel(t *testing.T) {
	f := newFixture(t)

	// "other" without a label is invalid, but the missing check-in wins.
	_, err := f.service.Start(context.Background(), f.actor, startRequest("other", "12:00"))
	assert.ErrorIs(t, err, attendance.ErrNotCheckedIn)

	f.clockEvent(t, attendance.ClockIn, time.Date(2024, 1, 15, 5, 0, 0, 0, time.UTC))
	_, err = f.service.Start(context.Background(), f.actor, startRequest("other", "12:00"))
	var errs validator.ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs.ToMap(), "custom_break_type")
}

func TestBreakService_Start_AfterCheckOut(t *testing.T) {
	f := newFixture(t)
	f.clockEvent(t, attendance.ClockIn, time.Date(2024, 1, 15, 5, 0, 0, 0, time.UTC))
	f.clockEvent(t, attendance.ClockOut, time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC))

	_, err := f.service.Start(context.Background(), f.actor, startRequest("coffee", "15:00"))
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)
}

func TestBreakService_Start_BeforeCheckIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// 09:00 at UTC+04:00
	f.clockEvent(t, attendance.ClockIn, time.Date(2024, 1, 15, 5, 0, 0, 0, time.UTC))

	_, err := f.service.Start(ctx, f.actor, startRequest("lunch", "07:00"))
	var errs validator.ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs.ToMap(), "break_start_time")
	assert.Empty(t, f.breaks.Events)

	_, err = f.service.Start(ctx, f.actor, startRequest("lunch", "09:00"))
	require.NoError(t, err)
}

func TestBreakService_Start_SecondActiveBreak(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.clockEvent(t, attendance.ClockIn, time.Date(2024, 1, 15, 5, 0, 0, 0, time.UTC))

	_, err := f.service.Start(ctx, f.actor, startRequest("lunch", "12:00"))
	require.NoError(t, err)

	_, err = f.service.Start(ctx, f.actor, startRequest("coffee", "12:10"))
	assert.ErrorIs(t, err, breaks.ErrBreakAlreadyActive)
	assert.Len(t, f.breaks.Events, 1)
}

func TestBreakService_Start_CustomLabel(t *testing.T) {
	f := newFixture(t)
	f.clockEvent(t, attendance.ClockIn, time.Date(2024, 1, 15, 5, 0, 0, 0, time.UTC))

	req := startRequest("other", "2024-01-15T10:00:00Z")
	req.CustomBreakType = "Prayer"
	resp, err := f.service.Start(context.Background(), f.actor, req)

	require.NoError(t, err)
	assert.Equal(t, "other", resp.BreakType)
	require.NotNil(t, resp.CustomBreakType)
	assert.Equal(t, "Prayer", *resp.CustomBreakType)
	assert.Equal(t, "Prayer", resp.DisplayName)
	assert.True(t, resp.Active)
}

func TestBreakService_End_NoActiveBreak(t *testing.T) {
	f := newFixture(t)
	f.clockEvent(t, attendance.ClockIn, time.Date(2024, 1, 15, 5, 0, 0, 0, time.UTC))

	_, err := f.service.End(context.Background(), f.actor, endRequest("12:45"))
	assert.ErrorIs(t, err, breaks.ErrNoActiveBreak)
}

func TestBreakService_StartEnd_UsesCheckInZone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.clockEvent(t, attendance.ClockIn, time.Date(2024, 1, 15, 5, 0, 0, 0, time.UTC))

	started, err := f.service.Start(ctx, f.actor, startRequest("lunch", "12:00"))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15T12:00:00+04:00", started.BreakStartTime)

	ended, err := f.service.End(ctx, f.actor, endRequest("12:45"))
	require.NoError(t, err)
	require.NotNil(t, ended.Break.DurationSeconds)
	assert.Equal(t, int64(45*60), *ended.Break.DurationSeconds)
	assert.False(t, ended.Break.Active)
	assert.False(t, ended.Break.NeedsReview)

	assert.Equal(t, "2024-01-15", ended.History.Date)
	assert.Equal(t, int64(45*60), ended.History.TotalBreakSeconds)
	assert.Equal(t, 1, ended.History.NumberOfBreaks)
	assert.Equal(t, 1, ended.History.NumberOfQualifying)
}

func TestBreakService_End_NegativeDurationClamped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.clockEvent(t, attendance.ClockIn, time.Date(2024, 1, 15, 5, 0, 0, 0, time.UTC))

	_, err := f.service.Start(ctx, f.actor, startRequest("coffee", "12:00"))
	require.NoError(t, err)

	ended, err := f.service.End(ctx, f.actor, endRequest("11:30"))
	require.NoError(t, err)
	require.NotNil(t, ended.Break.DurationSeconds)
	assert.Equal(t, int64(0), *ended.Break.DurationSeconds)
	assert.True(t, ended.Break.NeedsReview)
	require.NotNil(t, ended.Break.ReviewNote)
	assert.Equal(t, breaks.ReviewNegativeDuration, *ended.Break.ReviewNote)
	assert.Equal(t, int64(0), ended.History.TotalBreakSeconds)
	assert.Equal(t, 0, ended.History.NumberOfQualifying)
}

func TestBreakService_HistoryEqualsSumOfBreaks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.clockEvent(t, attendance.ClockIn, time.Date(2024, 1, 15, 5, 0, 0, 0, time.UTC))

	windows := [][3]string{
		{"lunch", "12:00", "12:30"},
		{"coffee", "14:00", "14:10"},
		{"stretch", "15:00", "15:05"},
	}
	for _, w := range windows {
		_, err := f.service.Start(ctx, f.actor, startRequest(w[0], w[1]))
		require.NoError(t, err)
		_, err = f.service.End(ctx, f.actor, endRequest(w[2]))
		require.NoError(t, err)
	}

	var sum time.Duration
	for _, b := range f.breaks.Events {
		require.NotNil(t, b.Duration)
		sum += *b.Duration
	}

	h, err := f.history.Get(ctx, f.actor.EmployeeID, day)
	require.NoError(t, err)
	assert.Equal(t, sum, h.TotalDuration)
	assert.Equal(t, 45*time.Minute, h.TotalDuration)
	assert.Equal(t, 3, h.BreakCount)
	assert.Equal(t, 1, h.QualifyingCount)
}

func TestBreakService_History(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.service.now = func() time.Time { return time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC) }

	_, err := f.history.Accumulate(ctx, "emp-1", day, 30*time.Minute, true)
	require.NoError(t, err)
	_, err = f.history.Accumulate(ctx, "emp-1", time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC), time.Hour, false)
	require.NoError(t, err)

	got, err := f.service.History(ctx, f.actor, breaks.HistoryRequest{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-01-15", got[0].Date)

	got, err = f.service.History(ctx, f.actor, breaks.HistoryRequest{From: "2023-10-01", To: "2024-01-31"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = f.service.History(ctx, f.actor, breaks.HistoryRequest{From: "2024-02-01", To: "2024-01-01"})
	var errs validator.ValidationErrors
	assert.ErrorAs(t, err, &errs)
}

func TestBreakService_FlagStaleBreaks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.clockEvent(t, attendance.ClockIn, time.Date(2024, 1, 15, 5, 0, 0, 0, time.UTC))

	_, err := f.service.Start(ctx, f.actor, startRequest("lunch", "2024-01-15T08:00:00Z"))
	require.NoError(t, err)

	f.service.now = func() time.Time { return time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC) }
	n, err := f.service.FlagStaleBreaks(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	f.service.now = func() time.Time { return time.Date(2024, 1, 15, 11, 0, 0, 0, time.UTC) }
	n, err = f.service.FlagStaleBreaks(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	active, err := f.breaks.GetActive(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, active.NeedsReview)

	sent := f.notifier.Requests()
	recipients := make([]string, len(sent))
	for i, req := range sent {
		recipients[i] = req.RecipientID
		assert.Equal(t, notification.TypeBreakReview, req.Type)
	}
	assert.ElementsMatch(t, []string{"emp-1", "adm-1", "adm-2"}, recipients)
	for _, req := range sent {
		if req.RecipientID != "emp-1" {
			require.NotNil(t, req.SenderID)
			assert.Equal(t, "emp-1", *req.SenderID)
		}
	}

	n, err = f.service.FlagStaleBreaks(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
