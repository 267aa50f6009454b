package leave

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

const DateLayout = "2006-01-02"

type ApplyRequest struct {
	Category             string  `json:"category" validate:"required,oneof=annual sick casual emergency maternity paternity unpaid other"`
	StartDate            string  `json:"start_date" validate:"notblank"`
	EndDate              string  `json:"end_date" validate:"notblank"`
	TotalDays            float64 `json:"total_days"`
	Reason               string  `json:"reason"`
	PassportRequiredFrom *string `json:"passport_required_from,omitempty"`
	PassportRequiredTo   *string `json:"passport_required_to,omitempty"`
	AddressDuringLeave   *string `json:"address_during_leave,omitempty"`
	TicketEligibility    *string `json:"ticket_eligibility,omitempty" validate:"omitempty,oneof=eligible not_eligible"`
}

// ApplyFiles are the optional multipart parts of an application.
type ApplyFiles struct {
	Attachment *Upload
	Signature  *Upload
}

// Validate parses the request into a pending LeaveApplication for employeeID.
// total_days is authoritative but must be a positive multiple of 0.5 and fit
// inside the inclusive date range.
func (r *ApplyRequest) Validate(employeeID string) (LeaveApplication, error) {
	if err := validator.Struct(r); err != nil {
		return LeaveApplication{}, err
	}

	var errs validator.ValidationErrors
	start, startOK := validator.IsValidDate(r.StartDate)
	if !startOK {
		errs.Add("start_date", "Start date must be in YYYY-MM-DD format")
	}
	end, endOK := validator.IsValidDate(r.EndDate)
	if !endOK {
		errs.Add("end_date", "End date must be in YYYY-MM-DD format")
	}
	if startOK && endOK && end.Before(start) {
		errs.Add("end_date", "End date cannot be before start date")
	}

	switch {
	case r.TotalDays <= 0:
		errs.Add("total_days", "Total days must be greater than 0")
	case !validator.IsHalfStep(r.TotalDays):
		errs.Add("total_days", "Total days must be in steps of 0.5")
	case startOK && endOK && !end.Before(start) && r.TotalDays > float64(InclusiveDays(start, end)):
		errs.Add("total_days", "Total days cannot exceed the number of days in the leave period")
	}

	passportFrom, ok := optionalDate(r.PassportRequiredFrom)
	if !ok {
		errs.Add("passport_required_from", "Date must be in YYYY-MM-DD format")
	}
	passportTo, ok := optionalDate(r.PassportRequiredTo)
	if !ok {
		errs.Add("passport_required_to", "Date must be in YYYY-MM-DD format")
	}
	if passportFrom != nil && passportTo != nil && passportTo.Before(*passportFrom) {
		errs.Add("passport_required_to", "Passport end date cannot be before passport start date")
	}

	if len(errs) > 0 {
		return LeaveApplication{}, errs
	}

	app := LeaveApplication{
		EmployeeID:           employeeID,
		Category:             Category(r.Category),
		StartDate:            start,
		EndDate:              end,
		TotalDays:            r.TotalDays,
		Reason:               strings.TrimSpace(r.Reason),
		PassportRequiredFrom: passportFrom,
		PassportRequiredTo:   passportTo,
		AddressDuringLeave:   trimmedOrNil(r.AddressDuringLeave),
		Status:               StatusPending,
	}
	if r.TicketEligibility != nil && *r.TicketEligibility != "" {
		te := TicketEligibility(*r.TicketEligibility)
		app.TicketEligibility = &te
	}
	return app, nil
}

type RejectRequest struct {
	RejectionReason string `json:"rejection_reason"`
}

func (r *RejectRequest) Validate() (string, error) {
	if validator.IsEmpty(r.RejectionReason) {
		return "", validator.Single("rejection_reason", "Rejection reason is required.")
	}
	return strings.TrimSpace(r.RejectionReason), nil
}

// ListFilterRequest carries the raw leave-list query parameters.
type ListFilterRequest struct {
	FromDate string
	ToDate   string
	Employee string
	Status   string
	Category string
}

// ListFilter is a parsed leave-list filter. EmployeeID restricts the
// result to one employee's leaves.
type ListFilter struct {
	FromDate     *time.Time
	ToDate       *time.Time
	EmployeeID   *string
	EmployeeCode *string
	Status       *Status
	Category     *Category
}

func (r *ListFilterRequest) Validate() (ListFilter, error) {
	var (
		filter ListFilter
		errs   validator.ValidationErrors
	)
	if from, ok := optionalDate(&r.FromDate); !ok {
		errs.Add("from_date", "Date must be in YYYY-MM-DD format")
	} else {
		filter.FromDate = from
	}
	if to, ok := optionalDate(&r.ToDate); !ok {
		errs.Add("to_date", "Date must be in YYYY-MM-DD format")
	} else {
		filter.ToDate = to
	}
	if s := strings.TrimSpace(r.Status); s != "" {
		status := Status(s)
		if !status.Valid() {
			errs.Add("status", "Status must be one of: pending, approved, rejected, cancelled")
		}
		filter.Status = &status
	}
	if c := strings.TrimSpace(r.Category); c != "" {
		category := Category(c)
		if !category.Valid() {
			errs.Add("category", "Unknown leave category")
		}
		filter.Category = &category
	}
	if e := strings.TrimSpace(r.Employee); e != "" {
		filter.EmployeeCode = &e
	}
	if len(errs) > 0 {
		return ListFilter{}, errs
	}
	return filter, nil
}

func optionalDate(s *string) (*time.Time, bool) {
	if s == nil || validator.IsEmpty(*s) {
		return nil, true
	}
	t, ok := validator.IsValidDate(*s)
	if !ok {
		return nil, false
	}
	return &t, true
}

func trimmedOrNil(s *string) *string {
	if s == nil || validator.IsEmpty(*s) {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// LeaveResponse is the detailed view of one application.
type LeaveResponse struct {
	ID                   int64   `json:"id"`
	EmployeeID           string  `json:"employee_id"`
	EmployeeCode         *string `json:"employee_code,omitempty"`
	EmployeeName         *string `json:"employee_name,omitempty"`
	Category             string  `json:"category"`
	StartDate            string  `json:"start_date"`
	EndDate              string  `json:"end_date"`
	TotalDays            float64 `json:"total_days"`
	Reason               string  `json:"reason"`
	Status               string  `json:"status"`
	PassportRequiredFrom *string `json:"passport_required_from"`
	PassportRequiredTo   *string `json:"passport_required_to"`
	AddressDuringLeave   *string `json:"address_during_leave"`
	TicketEligibility    *string `json:"ticket_eligibility"`
	AttachmentURL        *string `json:"attachment_url"`
	SignatureURL         *string `json:"signature_url"`
	ApprovedBy           *string `json:"approved_by"`
	ApprovedByName       *string `json:"approved_by_name"`
	ApprovedAt           *string `json:"approved_at"`
	RejectionReason      *string `json:"rejection_reason"`
	CancelledAt          *string `json:"cancelled_at"`
	CreatedAt            string  `json:"created_at"`
	UpdatedAt            string  `json:"updated_at"`
}

// URLResolver turns a stored file path into a client URL.
type URLResolver func(path string) string

func NewLeaveResponse(l LeaveApplication, resolve URLResolver) LeaveResponse {
	resp := LeaveResponse{
		ID:                   l.ID,
		EmployeeID:           l.EmployeeID,
		EmployeeCode:         l.EmployeeCode,
		EmployeeName:         l.EmployeeName,
		Category:             string(l.Category),
		StartDate:            l.StartDate.Format(DateLayout),
		EndDate:              l.EndDate.Format(DateLayout),
		TotalDays:            l.TotalDays,
		Reason:               l.Reason,
		Status:               string(l.Status),
		PassportRequiredFrom: formatDate(l.PassportRequiredFrom),
		PassportRequiredTo:   formatDate(l.PassportRequiredTo),
		AddressDuringLeave:   l.AddressDuringLeave,
		ApprovedBy:           l.ApprovedBy,
		ApprovedByName:       l.ApproverName,
		ApprovedAt:           formatTimestamp(l.ApprovedAt),
		RejectionReason:      l.RejectionReason,
		CancelledAt:          formatTimestamp(l.CancelledAt),
		CreatedAt:            l.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            l.UpdatedAt.Format(time.RFC3339),
	}
	if l.TicketEligibility != nil {
		te := string(*l.TicketEligibility)
		resp.TicketEligibility = &te
	}
	if resolve != nil {
		resp.AttachmentURL = resolvePath(l.AttachmentPath, resolve)
		resp.SignatureURL = resolvePath(l.SignaturePath, resolve)
	}
	return resp
}

func resolvePath(path *string, resolve URLResolver) *string {
	if path == nil {
		return nil
	}
	url := resolve(*path)
	return &url
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}

func formatTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

// LeaveHistoryItem is the compact row used on the employee dashboard.
type LeaveHistoryItem struct {
	ID        int64   `json:"id"`
	Category  string  `json:"category"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	TotalDays float64 `json:"total_days"`
	Status    string  `json:"status"`
	Reason    string  `json:"reason"`
}

func NewLeaveHistoryItem(l LeaveApplication) LeaveHistoryItem {
	return LeaveHistoryItem{
		ID:        l.ID,
		Category:  string(l.Category),
		StartDate: l.StartDate.Format(DateLayout),
		EndDate:   l.EndDate.Format(DateLayout),
		TotalDays: l.TotalDays,
		Status:    string(l.Status),
		Reason:    l.Reason,
	}
}

// Counts summarises a filtered leave list.
type Counts struct {
	Total     int64 `json:"total_leaves"`
	Pending   int64 `json:"pending_count"`
	Approved  int64 `json:"approved_count"`
	Rejected  int64 `json:"rejected_count"`
	Cancelled int64 `json:"cancelled_count"`
	Active    int64 `json:"active_count"`
	Upcoming  int64 `json:"upcoming_count"`
}

// CountLeaves tallies applications as of today.
func CountLeaves(applications []LeaveApplication, today time.Time) Counts {
	var c Counts
	for _, a := range applications {
		c.Total++
		switch a.Status {
		case StatusPending:
			c.Pending++
		case StatusApproved:
			c.Approved++
		case StatusRejected:
			c.Rejected++
		case StatusCancelled:
			c.Cancelled++
		}
		if a.Active(today) {
			c.Active++
		}
		if a.Upcoming(today) {
			c.Upcoming++
		}
	}
	return c
}

type ListResponse struct {
	Leaves          []LeaveResponse  `json:"leaves"`
	Counts          Counts           `json:"counts"`
	MonthlyApproved map[string]int64 `json:"employees_monthly_leaves"`
	CurrentMonth    int              `json:"current_month"`
	CurrentYear     int              `json:"current_year"`
	IsAdmin         bool             `json:"is_admin"`
}

type DashboardResponse struct {
	DaysLeft            float64            `json:"days_left"`
	TotalVacationDays   float64            `json:"total_vacation_days"`
	UsedVacationDays    float64            `json:"used_vacation_days"`
	LeaveTakenThisMonth int64              `json:"leave_taken_this_month"`
	AnnualLeaveTaken    int64              `json:"annual_leave_taken"`
	LeaveRequests       []LeaveHistoryItem `json:"leave_requests"`
	LeaveHistory        []LeaveHistoryItem `json:"leave_history"`
}
