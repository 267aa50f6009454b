package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/breaks"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

var stateErrors = []struct {
	err  error
	code string
}{
	{attendance.ErrAlreadyCheckedIn, "ALREADY_CHECKED_IN"},
	{attendance.ErrAlreadyCheckedOut, "ALREADY_CHECKED_OUT"},
	{attendance.ErrNotCheckedIn, "NOT_CHECKED_IN"},
	{attendance.ErrActiveBreakExists, "ACTIVE_BREAK_EXISTS"},
	{breaks.ErrBreakAlreadyActive, "BREAK_ALREADY_ACTIVE"},
	{breaks.ErrNoActiveBreak, "NO_ACTIVE_BREAK"},
	{employee.ErrInactiveEmployee, "INACTIVE_EMPLOYEE"},
}

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	for _, s := range stateErrors {
		if errors.Is(err, s.err) {
			writeError(w, http.StatusBadRequest, s.code, s.err.Error(), nil)
			return
		}
	}

	switch {
	case errors.Is(err, leave.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "INVALID_TRANSITION", err.Error(), nil)
	case errors.Is(err, leave.ErrPermissionDenied), errors.Is(err, employee.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, "PERMISSION_DENIED", err.Error(), nil)

	case errors.Is(err, leave.ErrLeaveNotFound):
		NotFound(w, "Leave not found")
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, notification.ErrNotificationNotFound):
		NotFound(w, "Notification not found")

	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
