package breaks

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/breakhistory"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

const dateLayout = "2006-01-02"

type StartBreakRequest struct {
	BreakType       string  `json:"break_type" validate:"required,oneof=lunch coffee stretch other"`
	CustomBreakType string  `json:"custom_break_type"`
	Duration        string  `json:"duration" validate:"max=100"`
	BreakStartTime  string  `json:"break_start_time" validate:"notblank"`
	Location        string  `json:"location" validate:"notblank,max=255"`
	Date            string  `json:"date" validate:"notblank"`
	Reason          *string `json:"reason,omitempty"`
}

// StartInput is a structurally valid break start. The category/label
// combination is checked by the service after the state preconditions.
type StartInput struct {
	Category        Category
	CustomLabel     string
	PlannedDuration *string
	StartTime       string
	Location        string
	AttendanceDay   time.Time
	Reason          *string
}

func (r *StartBreakRequest) Validate() (StartInput, error) {
	if err := validator.Struct(r); err != nil {
		return StartInput{}, err
	}
	day, ok := validator.IsValidDate(r.Date)
	if !ok {
		return StartInput{}, validator.Single("date", "Date must be in YYYY-MM-DD format")
	}
	return StartInput{
		Category:        Category(r.BreakType),
		CustomLabel:     r.CustomBreakType,
		PlannedDuration: optional(r.Duration),
		StartTime:       strings.TrimSpace(r.BreakStartTime),
		Location:        strings.TrimSpace(r.Location),
		AttendanceDay:   day,
		Reason:          optionalPtr(r.Reason),
	}, nil
}

type EndBreakRequest struct {
	BreakEndTime string  `json:"break_end_time" validate:"notblank"`
	Location     string  `json:"location" validate:"notblank,max=255"`
	Date         string  `json:"date" validate:"notblank"`
	EndReason    *string `json:"end_reason,omitempty"`
}

type EndInput struct {
	EndTime       string
	Location      string
	AttendanceDay time.Time
	EndReason     *string
}

func (r *EndBreakRequest) Validate() (EndInput, error) {
	if err := validator.Struct(r); err != nil {
		return EndInput{}, err
	}
	day, ok := validator.IsValidDate(r.Date)
	if !ok {
		return EndInput{}, validator.Single("date", "Date must be in YYYY-MM-DD format")
	}
	return EndInput{
		EndTime:       strings.TrimSpace(r.BreakEndTime),
		Location:      strings.TrimSpace(r.Location),
		AttendanceDay: day,
		EndReason:     optionalPtr(r.EndReason),
	}, nil
}

// ResolveInstant parses an RFC3339 timestamp, or a wall clock time that is
// placed on day in zone.
func ResolveInstant(value string, day time.Time, zone *time.Location) (time.Time, bool) {
	if t, ok := validator.IsValidDateTime(value); ok {
		return t, true
	}
	offset, ok := validator.ParseClockTime(value)
	if !ok {
		return time.Time{}, false
	}
	if zone == nil {
		zone = time.UTC
	}
	h := int(offset / time.Hour)
	m := int(offset % time.Hour / time.Minute)
	s := int(offset % time.Minute / time.Second)
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, s, 0, zone), true
}

type HistoryRequest struct {
	From string
	To   string
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func optionalPtr(s *string) *string {
	if s == nil {
		return nil
	}
	return optional(*s)
}

type BreakEventResponse struct {
	ID              int64   `json:"id"`
	BreakType       string  `json:"break_type"`
	CustomBreakType *string `json:"custom_break_type"`
	DisplayName     string  `json:"display_name"`
	Duration        *string `json:"duration"`
	Date            string  `json:"date"`
	BreakStartTime  string  `json:"break_start_time"`
	BreakEndTime    *string `json:"break_end_time"`
	DurationSeconds *int64  `json:"duration_seconds"`
	Location        string  `json:"location"`
	EndLocation     *string `json:"end_location"`
	Reason          *string `json:"reason"`
	EndReason       *string `json:"end_reason"`
	Active          bool    `json:"active"`
	NeedsReview     bool    `json:"needs_review"`
	ReviewNote      *string `json:"review_note,omitempty"`
}

func NewBreakEventResponse(b BreakEvent) BreakEventResponse {
	resp := BreakEventResponse{
		ID:              b.ID,
		BreakType:       string(b.Type.Category()),
		CustomBreakType: b.Type.LabelPtr(),
		DisplayName:     b.Type.String(),
		Duration:        b.PlannedDuration,
		Date:            b.AttendanceDay.Format(dateLayout),
		BreakStartTime:  b.StartTime.Format(time.RFC3339),
		Location:        b.Location,
		EndLocation:     b.EndLocation,
		Reason:          b.StartReason,
		EndReason:       b.EndReason,
		Active:          b.Active(),
		NeedsReview:     b.NeedsReview,
		ReviewNote:      b.ReviewNote,
	}
	if b.EndTime != nil {
		end := b.EndTime.Format(time.RFC3339)
		resp.BreakEndTime = &end
	}
	if b.Duration != nil {
		secs := int64(*b.Duration / time.Second)
		resp.DurationSeconds = &secs
	}
	return resp
}

// EndBreakResponse carries the closed break and the updated day rollup.
type EndBreakResponse struct {
	Break   BreakEventResponse           `json:"break"`
	History breakhistory.HistoryResponse `json:"break_history"`
}
