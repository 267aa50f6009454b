package attendance

import (
	"context"
	"log/slog"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/breaks"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
)

type AttendanceServiceImpl struct {
	tx database.Transactor
	attendance.ClockRepository
	breaks.BreakRepository
	employee.EmployeeRepository
}

func NewAttendanceService(
	tx database.Transactor,
	clockRepository attendance.ClockRepository,
	breakRepository breaks.BreakRepository,
	employeeRepository employee.EmployeeRepository,
) attendance.ClockService {
	return &AttendanceServiceImpl{
		tx:                 tx,
		ClockRepository:    clockRepository,
		BreakRepository:    breakRepository,
		EmployeeRepository: employeeRepository,
	}
}

// lockActive serializes writes for the employee and rejects inactive accounts.
func (a *AttendanceServiceImpl) lockActive(ctx context.Context, employeeID string) error {
	emp, err := a.EmployeeRepository.LockForUpdate(ctx, employeeID)
	if err != nil {
		return err
	}
	if !emp.IsActive {
		return employee.ErrInactiveEmployee
	}
	return nil
}

// CheckIn implements attendance.ClockService.
func (a *AttendanceServiceImpl) CheckIn(ctx context.Context, actor employee.Actor, req attendance.CheckInRequest) (attendance.ClockEventResponse, error) {
	input, err := req.Validate()
	if err != nil {
		return attendance.ClockEventResponse{}, err
	}

	var created attendance.ClockEvent
	err = a.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := a.lockActive(ctx, actor.EmployeeID); err != nil {
			return err
		}

		checkedIn, err := a.ClockRepository.Exists(ctx, actor.EmployeeID, input.AttendanceDay, attendance.ClockIn)
		if err != nil {
			return err
		}
		if checkedIn {
			return attendance.ErrAlreadyCheckedIn
		}

		created, err = a.ClockRepository.Create(ctx, newClockEvent(actor.EmployeeID, attendance.ClockIn, input))
		return err
	})
	if err != nil {
		return attendance.ClockEventResponse{}, err
	}

	slog.Info("employee checked in",
		"employee_id", actor.EmployeeID,
		"attendance_day", created.AttendanceDay.Format(attendance.DateLayout),
		"occurred_at", created.OccurredAt,
	)
	return attendance.NewClockEventResponse(created), nil
}

// CheckOut implements attendance.ClockService.
func (a *AttendanceServiceImpl) CheckOut(ctx context.Context, actor employee.Actor, req attendance.CheckOutRequest) (attendance.ClockEventResponse, error) {
	input, err := req.Validate()
	if err != nil {
		return attendance.ClockEventResponse{}, err
	}

	var created attendance.ClockEvent
	err = a.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := a.lockActive(ctx, actor.EmployeeID); err != nil {
			return err
		}

		checkedIn, err := a.ClockRepository.Exists(ctx, actor.EmployeeID, input.AttendanceDay, attendance.ClockIn)
		if err != nil {
			return err
		}
		if !checkedIn {
			return attendance.ErrNotCheckedIn
		}

		checkedOut, err := a.ClockRepository.Exists(ctx, actor.EmployeeID, input.AttendanceDay, attendance.ClockOut)
		if err != nil {
			return err
		}
		if checkedOut {
			return attendance.ErrAlreadyCheckedOut
		}

		// Any open break blocks checkout, whichever day it started on.
		onBreak, err := a.BreakRepository.HasActive(ctx, actor.EmployeeID)
		if err != nil {
			return err
		}
		if onBreak {
			return attendance.ErrActiveBreakExists
		}

		created, err = a.ClockRepository.Create(ctx, newClockEvent(actor.EmployeeID, attendance.ClockOut, input))
		return err
	})
	if err != nil {
		return attendance.ClockEventResponse{}, err
	}

	slog.Info("employee checked out",
		"employee_id", actor.EmployeeID,
		"attendance_day", created.AttendanceDay.Format(attendance.DateLayout),
		"occurred_at", created.OccurredAt,
	)
	return attendance.NewClockEventResponse(created), nil
}

func newClockEvent(employeeID string, kind attendance.ClockKind, input attendance.ClockInput) attendance.ClockEvent {
	return attendance.ClockEvent{
		EmployeeID:    employeeID,
		Kind:          kind,
		AttendanceDay: input.AttendanceDay,
		OccurredAt:    input.OccurredAt,
		CheckTime:     input.CheckTime,
		TimeZone:      input.TimeZone,
		Location:      input.Location,
		Reason:        input.Reason,
	}
}
