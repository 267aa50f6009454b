package employee_dashboard

import (
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/breakhistory"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/breaks"
)

// HomeRequest selects the attendance day shown on the home screen.
type HomeRequest struct {
	Date string
}

// HomeResponse is the authenticated employee's view of one day.
type HomeResponse struct {
	Date         string                         `json:"date"`
	Status       attendance.DayStatus           `json:"status_of_check"`
	CheckIn      *attendance.ClockEventResponse `json:"check_in"`
	CheckOut     *attendance.ClockEventResponse `json:"check_out"`
	ActiveBreak  *breaks.BreakEventResponse     `json:"active_break"`
	Breaks       []breaks.BreakEventResponse    `json:"breaks"`
	BreakHistory breakhistory.HistoryResponse   `json:"break_history"`
}
