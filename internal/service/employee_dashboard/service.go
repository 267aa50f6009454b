package employee_dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/breakhistory"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/breaks"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/employee"
	empDashboard "github.com/cmlabs-hris/attendance-backend-go/internal/domain/employee_dashboard"
	"golang.org/x/sync/errgroup"
)

type EmployeeDashboardServiceImpl struct {
	attendance.ClockRepository
	breaks.BreakRepository
	breakhistory.HistoryRepository
	now func() time.Time
}

func NewEmployeeDashboardService(
	clockRepository attendance.ClockRepository,
	breakRepository breaks.BreakRepository,
	historyRepository breakhistory.HistoryRepository,
) empDashboard.EmployeeDashboardService {
	return &EmployeeDashboardServiceImpl{
		ClockRepository:   clockRepository,
		BreakRepository:   breakRepository,
		HistoryRepository: historyRepository,
		now:               time.Now,
	}
}

// Home implements empDashboard.EmployeeDashboardService. The active break
// is reported whichever day it started on.
func (s *EmployeeDashboardServiceImpl) Home(ctx context.Context, actor employee.Actor, req empDashboard.HomeRequest) (empDashboard.HomeResponse, error) {
	day, err := attendance.ParseDay(req.Date, s.now())
	if err != nil {
		return empDashboard.HomeResponse{}, err
	}

	var (
		clockEvents []attendance.ClockEvent
		active      *breaks.BreakEvent
		dayBreaks   []breaks.BreakEvent
		history     breakhistory.History
	)

	g, gCtx := errgroup.WithContext(ctx)

	// 1. Clock events
	g.Go(func() error {
		events, err := s.ClockRepository.ListByDay(gCtx, actor.EmployeeID, day)
		if err != nil {
			return err
		}
		clockEvents = events
		return nil
	})

	// 2. Active break
	g.Go(func() error {
		b, err := s.BreakRepository.FindActive(gCtx, actor.EmployeeID)
		if errors.Is(err, breaks.ErrNoActiveBreak) {
			return nil
		}
		if err != nil {
			return err
		}
		active = &b
		return nil
	})

	// 3. Breaks of the day
	g.Go(func() error {
		list, err := s.BreakRepository.ListByDay(gCtx, actor.EmployeeID, day)
		if err != nil {
			return err
		}
		dayBreaks = list
		return nil
	})

	// 4. Break rollup
	g.Go(func() error {
		h, err := s.HistoryRepository.Get(gCtx, actor.EmployeeID, day)
		if errors.Is(err, breakhistory.ErrHistoryNotFound) {
			history = breakhistory.History{EmployeeID: actor.EmployeeID, Date: day}
			return nil
		}
		if err != nil {
			return err
		}
		history = h
		return nil
	})

	if err := g.Wait(); err != nil {
		return empDashboard.HomeResponse{}, err
	}

	resp := empDashboard.HomeResponse{
		Date:         day.Format(attendance.DateLayout),
		Status:       attendance.StatusOf(clockEvents),
		Breaks:       make([]breaks.BreakEventResponse, len(dayBreaks)),
		BreakHistory: breakhistory.NewHistoryResponse(history),
	}
	for _, e := range clockEvents {
		r := attendance.NewClockEventResponse(e)
		switch e.Kind {
		case attendance.ClockIn:
			resp.CheckIn = &r
		case attendance.ClockOut:
			resp.CheckOut = &r
		}
	}
	if active != nil {
		r := breaks.NewBreakEventResponse(*active)
		resp.ActiveBreak = &r
	}
	for i, b := range dayBreaks {
		resp.Breaks[i] = breaks.NewBreakEventResponse(b)
	}
	return resp, nil
}
