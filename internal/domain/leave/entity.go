package leave

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further status change is allowed.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

// CanTransitionTo reports whether next is reachable from s. Only pending
// applications move, and only into a terminal state.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusPending && next.Terminal()
}

type Category string

const (
	CategoryAnnual    Category = "annual"
	CategorySick      Category = "sick"
	CategoryCasual    Category = "casual"
	CategoryEmergency Category = "emergency"
	CategoryMaternity Category = "maternity"
	CategoryPaternity Category = "paternity"
	CategoryUnpaid    Category = "unpaid"
	CategoryOther     Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryAnnual, CategorySick, CategoryCasual, CategoryEmergency,
		CategoryMaternity, CategoryPaternity, CategoryUnpaid, CategoryOther:
		return true
	}
	return false
}

type TicketEligibility string

const (
	TicketEligible    TicketEligibility = "eligible"
	TicketNotEligible TicketEligibility = "not_eligible"
)

// LeaveApplication is one leave request and its approval outcome.
type LeaveApplication struct {
	ID                   int64
	EmployeeID           string
	Category             Category
	StartDate            time.Time
	EndDate              time.Time
	TotalDays            float64
	Reason               string
	AttachmentPath       *string
	SignaturePath        *string
	PassportRequiredFrom *time.Time
	PassportRequiredTo   *time.Time
	AddressDuringLeave   *string
	TicketEligibility    *TicketEligibility
	Status               Status
	ApprovedBy           *string
	ApprovedAt           *time.Time
	RejectionReason      *string
	CancelledAt          *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time

	// Joined for responses
	EmployeeCode *string
	EmployeeName *string
	ApproverName *string
}

// Active reports whether an approved leave covers day.
func (l LeaveApplication) Active(day time.Time) bool {
	return l.Status == StatusApproved && !l.StartDate.After(day) && !l.EndDate.Before(day)
}

// Upcoming reports whether an approved leave starts after day.
func (l LeaveApplication) Upcoming(day time.Time) bool {
	return l.Status == StatusApproved && l.StartDate.After(day)
}

// Balance is the annual allowance reconciled against approved annual leave.
type Balance struct {
	Allowance float64 `json:"total_allowance"`
	Used      float64 `json:"used"`
	Remaining float64 `json:"remaining"`
}

// NewBalance derives the balance from the approved annual days. Remaining
// may go negative; the allowance does not block applications.
func NewBalance(allowance, used float64) Balance {
	return Balance{Allowance: allowance, Used: used, Remaining: allowance - used}
}

// InclusiveDays counts calendar days from start to end, both included.
func InclusiveDays(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	if e.Before(s) {
		return 0
	}
	return int(e.Sub(s).Hours()/24) + 1
}
