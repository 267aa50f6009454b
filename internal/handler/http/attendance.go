package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	empDashboard "github.com/cmlabs-hris/attendance-backend-go/internal/domain/employee_dashboard"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/response"
)

type AttendanceHandler interface {
	Home(w http.ResponseWriter, r *http.Request)
	CheckIn(w http.ResponseWriter, r *http.Request)
	CheckOut(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	clockService attendance.ClockService
	homeService  empDashboard.EmployeeDashboardService
}

func NewAttendanceHandler(clockService attendance.ClockService, homeService empDashboard.EmployeeDashboardService) AttendanceHandler {
	return &attendanceHandlerImpl{
		clockService: clockService,
		homeService:  homeService,
	}
}

// Home handles GET /home
// Query params:
//   - date: YYYY-MM-DD (default: today, UTC)
func (h *attendanceHandlerImpl) Home(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	result, err := h.homeService.Home(r.Context(), actor, empDashboard.HomeRequest{
		Date: r.URL.Query().Get("date"),
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// CheckIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckIn(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req attendance.CheckInRequest
	if !decodeJSON(w, r, &req, "CheckIn") {
		return
	}

	result, err := h.clockService.CheckIn(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Checked in successfully", result)
}

// CheckOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckOut(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req attendance.CheckOutRequest
	if !decodeJSON(w, r, &req, "CheckOut") {
		return
	}

	result, err := h.clockService.CheckOut(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Checked out successfully", result)
}
