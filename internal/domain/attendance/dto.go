package attendance

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

const DateLayout = "2006-01-02"

// NotProvided is how a missing check-in reason is rendered.
const NotProvided = "not provided"

type CheckInRequest struct {
	Location  string  `json:"location"`
	CheckDate string  `json:"check_date"`
	CheckTime string  `json:"check_time"`
	TimeZone  string  `json:"time_zone"`
	Reason    *string `json:"reason,omitempty"`
}

type CheckOutRequest struct {
	Location  string `json:"location"`
	CheckDate string `json:"check_date"`
	CheckTime string `json:"check_time"`
	TimeZone  string `json:"time_zone"`
	Reason    string `json:"reason"`
}

// ClockInput is a validated check-in or check-out.
type ClockInput struct {
	AttendanceDay time.Time
	OccurredAt    time.Time
	CheckTime     string
	TimeZone      string
	Location      string
	Reason        *string
}

func (r *CheckInRequest) Validate() (ClockInput, error) {
	errs := validateClockFields(r.Location, r.CheckDate, r.CheckTime, r.TimeZone)
	if len(errs) > 0 {
		return ClockInput{}, errs
	}

	input, err := buildClockInput(r.Location, r.CheckDate, r.CheckTime, r.TimeZone)
	if err != nil {
		return ClockInput{}, err
	}
	input.Reason = normalizeReason(r.Reason)
	return input, nil
}

func (r *CheckOutRequest) Validate() (ClockInput, error) {
	errs := validateClockFields(r.Location, r.CheckDate, r.CheckTime, r.TimeZone)
	if validator.IsEmpty(r.Reason) {
		errs.Add("reason", "Reason is required for checkout")
	}
	if len(errs) > 0 {
		return ClockInput{}, errs
	}

	input, err := buildClockInput(r.Location, r.CheckDate, r.CheckTime, r.TimeZone)
	if err != nil {
		return ClockInput{}, err
	}
	reason := strings.TrimSpace(r.Reason)
	input.Reason = &reason
	return input, nil
}

func validateClockFields(location, checkDate, checkTime, timeZone string) validator.ValidationErrors {
	var errs validator.ValidationErrors
	if validator.IsEmpty(location) {
		errs.Add("location", "Location is required")
	} else if len(location) > 255 {
		errs.Add("location", "Location must not exceed 255 characters")
	}
	if validator.IsEmpty(checkDate) {
		errs.Add("check_date", "Check date is required")
	}
	if validator.IsEmpty(checkTime) {
		errs.Add("check_time", "Check time is required")
	}
	if validator.IsEmpty(timeZone) {
		errs.Add("time_zone", "Time zone is required")
	}
	return errs
}

func buildClockInput(location, checkDate, checkTime, timeZone string) (ClockInput, error) {
	var errs validator.ValidationErrors

	day, ok := validator.IsValidDate(checkDate)
	if !ok {
		errs.Add("check_date", "Check date must be in YYYY-MM-DD format")
	}
	loc, ok := validator.ParseTimeZone(timeZone)
	if !ok {
		errs.Add("time_zone", "Time zone is not recognized")
	}
	if len(errs) > 0 {
		return ClockInput{}, errs
	}

	occurredAt, ok := CombineDateTime(day, checkTime, loc)
	if !ok {
		return ClockInput{}, validator.Single("check_time", "Check time must be HH:MM, HH:MM:SS or hh:mm AM/PM")
	}

	return ClockInput{
		AttendanceDay: day,
		OccurredAt:    occurredAt,
		CheckTime:     strings.TrimSpace(checkTime),
		TimeZone:      strings.TrimSpace(timeZone),
		Location:      strings.TrimSpace(location),
	}, nil
}

// CombineDateTime resolves a wall clock time on day in loc.
func CombineDateTime(day time.Time, clock string, loc *time.Location) (time.Time, bool) {
	offset, ok := validator.ParseClockTime(clock)
	if !ok {
		return time.Time{}, false
	}
	h := int(offset / time.Hour)
	m := int(offset % time.Hour / time.Minute)
	s := int(offset % time.Minute / time.Second)
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, s, 0, loc), true
}

// ParseDay parses an attendance day; an empty value means today in UTC.
func ParseDay(value string, now time.Time) (time.Time, error) {
	if validator.IsEmpty(value) {
		n := now.UTC()
		return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	day, ok := validator.IsValidDate(value)
	if !ok {
		return time.Time{}, validator.Single("date", "Date must be in YYYY-MM-DD format")
	}
	return day, nil
}

func normalizeReason(reason *string) *string {
	if reason == nil || validator.IsEmpty(*reason) {
		return nil
	}
	trimmed := strings.TrimSpace(*reason)
	return &trimmed
}

// ClockEventResponse is returned by check-in and check-out.
type ClockEventResponse struct {
	CheckID        int64  `json:"check_id"`
	Kind           string `json:"check_type"`
	CheckDate      string `json:"check_date"`
	CheckTime      string `json:"check_time"`
	TimeZone       string `json:"time_zone"`
	OccurredAt     string `json:"occurred_at"`
	Location       string `json:"location"`
	Reason         string `json:"reason"`
	ReasonProvided bool   `json:"reason_provided"`
	EmployeeID     string `json:"employee_id"`
	Status         string `json:"status_of_check"`
}

func NewClockEventResponse(e ClockEvent) ClockEventResponse {
	resp := ClockEventResponse{
		CheckID:        e.ID,
		Kind:           string(e.Kind),
		CheckDate:      e.AttendanceDay.Format(DateLayout),
		CheckTime:      e.CheckTime,
		TimeZone:       e.TimeZone,
		OccurredAt:     e.OccurredAt.In(e.Zone()).Format(time.RFC3339),
		Location:       e.Location,
		Reason:         NotProvided,
		ReasonProvided: e.Reason != nil,
		EmployeeID:     e.EmployeeID,
	}
	if e.Reason != nil {
		resp.Reason = *e.Reason
	}
	if e.Kind == ClockOut {
		resp.Status = string(StatusCheckedOut)
	} else {
		resp.Status = string(StatusCheckedIn)
	}
	return resp
}
