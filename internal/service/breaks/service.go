package breaks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/breakhistory"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/breaks"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

// defaultHistoryDays is the range of GET /break/history without a from date.
const defaultHistoryDays = 30

// Notifier receives stale break alerts.
type Notifier interface {
	QueueBulkNotification(ctx context.Context, reqs []notification.CreateNotificationRequest) error
}

type Config struct {
	StaleAfter time.Duration
}

type BreakServiceImpl struct {
	tx database.Transactor
	breaks.BreakRepository
	attendance.ClockRepository
	employee.EmployeeRepository
	breakhistory.HistoryRepository
	aggregator breakhistory.Aggregator
	notifier   Notifier
	config     Config
	now        func() time.Time
}

func NewBreakService(
	tx database.Transactor,
	breakRepository breaks.BreakRepository,
	clockRepository attendance.ClockRepository,
	employeeRepository employee.EmployeeRepository,
	historyRepository breakhistory.HistoryRepository,
	aggregator breakhistory.Aggregator,
	notifier Notifier,
	cfg Config,
) *BreakServiceImpl {
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 12 * time.Hour
	}
	return &BreakServiceImpl{
		tx:                 tx,
		BreakRepository:    breakRepository,
		ClockRepository:    clockRepository,
		EmployeeRepository: employeeRepository,
		HistoryRepository:  historyRepository,
		aggregator:         aggregator,
		notifier:           notifier,
		config:             cfg,
		now:                time.Now,
	}
}

var _ breaks.BreakService = (*BreakServiceImpl)(nil)

func (s *BreakServiceImpl) lockActive(ctx context.Context, employeeID string) error {
	emp, err := s.EmployeeRepository.LockForUpdate(ctx, employeeID)
	if err != nil {
		return err
	}
	if !emp.IsActive {
		return employee.ErrInactiveEmployee
	}
	return nil
}

// Start implements breaks.BreakService. Preconditions are checked in order:
// checked in, not checked out, no active break, valid category label.
func (s *BreakServiceImpl) Start(ctx context.Context, actor employee.Actor, req breaks.StartBreakRequest) (breaks.BreakEventResponse, error) {
	input, err := req.Validate()
	if err != nil {
		return breaks.BreakEventResponse{}, err
	}

	var created breaks.BreakEvent
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.lockActive(ctx, actor.EmployeeID); err != nil {
			return err
		}

		checkIn, err := s.ClockRepository.GetByDayAndKind(ctx, actor.EmployeeID, input.AttendanceDay, attendance.ClockIn)
		if err != nil {
			if errors.Is(err, attendance.ErrClockEventNotFound) {
				return attendance.ErrNotCheckedIn
			}
			return err
		}

		checkedOut, err := s.ClockRepository.Exists(ctx, actor.EmployeeID, input.AttendanceDay, attendance.ClockOut)
		if err != nil {
			return err
		}
		if checkedOut {
			return attendance.ErrAlreadyCheckedOut
		}

		onBreak, err := s.BreakRepository.HasActive(ctx, actor.EmployeeID)
		if err != nil {
			return err
		}
		if onBreak {
			return breaks.ErrBreakAlreadyActive
		}

		breakType, err := breaks.NewBreakType(input.Category, input.CustomLabel)
		if err != nil {
			return err
		}

		start, ok := breaks.ResolveInstant(input.StartTime, input.AttendanceDay, checkIn.Zone())
		if !ok {
			return validator.Single("break_start_time", "Break start time must be an RFC3339 timestamp or HH:MM")
		}
		if start.Before(checkIn.OccurredAt) {
			return validator.Single("break_start_time", "Break cannot start before check-in time")
		}

		created, err = s.BreakRepository.Create(ctx, breaks.BreakEvent{
			EmployeeID:      actor.EmployeeID,
			AttendanceDay:   input.AttendanceDay,
			Type:            breakType,
			PlannedDuration: input.PlannedDuration,
			StartTime:       start,
			Location:        input.Location,
			StartReason:     input.Reason,
		})
		return err
	})
	if err != nil {
		return breaks.BreakEventResponse{}, err
	}

	slog.Info("break started",
		"employee_id", actor.EmployeeID,
		"break_id", created.ID,
		"break_type", created.Type.String(),
	)
	return breaks.NewBreakEventResponse(created), nil
}

// End implements breaks.BreakService. Closing the break and folding it
// into the day's history happen in one transaction.
func (s *BreakServiceImpl) End(ctx context.Context, actor employee.Actor, req breaks.EndBreakRequest) (breaks.EndBreakResponse, error) {
	input, err := req.Validate()
	if err != nil {
		return breaks.EndBreakResponse{}, err
	}

	var (
		closed  breaks.BreakEvent
		history breakhistory.History
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.lockActive(ctx, actor.EmployeeID); err != nil {
			return err
		}

		active, err := s.BreakRepository.GetActive(ctx, actor.EmployeeID)
		if err != nil {
			return err
		}

		checkedOut, err := s.ClockRepository.Exists(ctx, actor.EmployeeID, input.AttendanceDay, attendance.ClockOut)
		if err != nil {
			return err
		}
		if checkedOut {
			return attendance.ErrAlreadyCheckedOut
		}

		zone := time.UTC
		checkIn, err := s.ClockRepository.GetByDayAndKind(ctx, actor.EmployeeID, active.AttendanceDay, attendance.ClockIn)
		switch {
		case err == nil:
			zone = checkIn.Zone()
		case !errors.Is(err, attendance.ErrClockEventNotFound):
			return err
		}

		end, ok := breaks.ResolveInstant(input.EndTime, input.AttendanceDay, zone)
		if !ok {
			return validator.Single("break_end_time", "Break end time must be an RFC3339 timestamp or HH:MM")
		}

		duration, clamped := breaks.ComputeDuration(active.StartTime, end)
		active.EndTime = &end
		active.Duration = &duration
		active.EndLocation = &input.Location
		active.EndReason = input.EndReason
		if clamped {
			note := breaks.ReviewNegativeDuration
			active.NeedsReview = true
			active.ReviewNote = &note
			slog.Warn("break end precedes start, duration clamped for review",
				"employee_id", actor.EmployeeID,
				"break_id", active.ID,
				"start_time", active.StartTime,
				"end_time", end,
			)
		}

		closed, err = s.BreakRepository.Close(ctx, active)
		if err != nil {
			return err
		}

		history, err = s.aggregator.OnBreakCompleted(ctx, actor.EmployeeID, closed.AttendanceDay, duration, string(closed.Type.Category()))
		if err != nil {
			return fmt.Errorf("failed to update break history: %w", err)
		}
		return nil
	})
	if err != nil {
		return breaks.EndBreakResponse{}, err
	}

	slog.Info("break ended",
		"employee_id", actor.EmployeeID,
		"break_id", closed.ID,
		"duration", breakDuration(closed),
	)
	return breaks.EndBreakResponse{
		Break:   breaks.NewBreakEventResponse(closed),
		History: breakhistory.NewHistoryResponse(history),
	}, nil
}

func breakDuration(b breaks.BreakEvent) time.Duration {
	if b.Duration == nil {
		return 0
	}
	return *b.Duration
}

// History implements breaks.BreakService.
func (s *BreakServiceImpl) History(ctx context.Context, actor employee.Actor, req breaks.HistoryRequest) ([]breakhistory.HistoryResponse, error) {
	to, err := attendance.ParseDay(req.To, s.now())
	if err != nil {
		return nil, validator.Single("to", "Date must be in YYYY-MM-DD format")
	}
	from := to.AddDate(0, 0, -(defaultHistoryDays - 1))
	if !validator.IsEmpty(req.From) {
		parsed, ok := validator.IsValidDate(req.From)
		if !ok {
			return nil, validator.Single("from", "Date must be in YYYY-MM-DD format")
		}
		from = parsed
	}
	if to.Before(from) {
		return nil, validator.Single("to", "End date cannot be before start date")
	}

	histories, err := s.HistoryRepository.ListRange(ctx, actor.EmployeeID, from, to)
	if err != nil {
		return nil, err
	}

	responses := make([]breakhistory.HistoryResponse, len(histories))
	for i, h := range histories {
		responses[i] = breakhistory.NewHistoryResponse(h)
	}
	return responses, nil
}

// FlagStaleBreaks implements breaks.BreakService. Stale breaks stay open;
// they are marked for review and the employee and every admin are notified.
func (s *BreakServiceImpl) FlagStaleBreaks(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.config.StaleAfter)

	flagged, err := s.BreakRepository.FlagStale(ctx, cutoff, breaks.ReviewStale)
	if err != nil {
		return 0, err
	}
	if len(flagged) == 0 {
		return 0, nil
	}

	if s.notifier != nil {
		s.notifyStale(ctx, flagged)
	}

	slog.Info("flagged stale breaks for review", "count", len(flagged), "cutoff", cutoff)
	return int64(len(flagged)), nil
}

func (s *BreakServiceImpl) notifyStale(ctx context.Context, flagged []breaks.BreakEvent) {
	admins, err := s.EmployeeRepository.ListActiveByRoles(ctx, employee.AdminRoles())
	if err != nil {
		slog.Warn("failed to load break reviewers", "error", err)
	}

	reqs := make([]notification.CreateNotificationRequest, 0, len(flagged)*(len(admins)+1))
	for _, b := range flagged {
		started := b.StartTime.Format(time.RFC3339)
		data := map[string]interface{}{
			"break_id":    b.ID,
			"employee_id": b.EmployeeID,
			"date":        b.AttendanceDay.Format(attendance.DateLayout),
		}
		reqs = append(reqs, notification.CreateNotificationRequest{
			RecipientID: b.EmployeeID,
			Type:        notification.TypeBreakReview,
			Title:       "Break still open",
			Message:     fmt.Sprintf("Your %s break started at %s is still open. Please end it.", b.Type.String(), started),
			Data:        data,
		})

		owner := b.EmployeeID
		for _, admin := range admins {
			if admin.ID == owner {
				continue
			}
			reqs = append(reqs, notification.CreateNotificationRequest{
				RecipientID: admin.ID,
				SenderID:    &owner,
				Type:        notification.TypeBreakReview,
				Title:       "Break needs review",
				Message:     fmt.Sprintf("Employee %s has a %s break open since %s.", owner, b.Type.String(), started),
				Data:        data,
			})
		}
	}
	if err := s.notifier.QueueBulkNotification(ctx, reqs); err != nil {
		slog.Warn("failed to queue stale break notifications", "error", err)
	}
}
