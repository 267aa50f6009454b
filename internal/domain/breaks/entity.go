package breaks

import (
	"errors"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

type Category string

const (
	CategoryLunch   Category = "lunch"
	CategoryCoffee  Category = "coffee"
	CategoryStretch Category = "stretch"
	CategoryOther   Category = "other"
)

// Categories lists the fixed break vocabulary.
func Categories() []Category {
	return []Category{CategoryLunch, CategoryCoffee, CategoryStretch, CategoryOther}
}

func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

var errUnknownCategory = errors.New("unknown break category")

// BreakType is a break category plus, for CategoryOther only, the
// employee's own label. The zero value is invalid.
type BreakType struct {
	category Category
	label    string
}

// NewBreakType validates the category/label combination. Labels passed with
// a fixed category are ignored.
func NewBreakType(category Category, label string) (BreakType, error) {
	if !category.Valid() {
		return BreakType{}, validator.Single("break_type", "Break type must be one of: lunch, coffee, stretch, other")
	}
	if category != CategoryOther {
		return BreakType{category: category}, nil
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return BreakType{}, validator.Single("custom_break_type", "Custom break type is required when selecting 'Other'")
	}
	return BreakType{category: CategoryOther, label: label}, nil
}

// FromStorage converts persisted columns back into a BreakType.
func FromStorage(category string, label *string) (BreakType, error) {
	c := Category(category)
	if !c.Valid() {
		return BreakType{}, errUnknownCategory
	}
	if c != CategoryOther || label == nil {
		return BreakType{category: c}, nil
	}
	return BreakType{category: c, label: *label}, nil
}

func (t BreakType) Category() Category { return t.category }

// Label returns the custom label; ok is false for fixed categories.
func (t BreakType) Label() (string, bool) {
	if t.category != CategoryOther {
		return "", false
	}
	return t.label, true
}

// LabelPtr is the nullable column value for the custom label.
func (t BreakType) LabelPtr() *string {
	if label, ok := t.Label(); ok && label != "" {
		return &label
	}
	return nil
}

// String is the display name: the label for "other", otherwise the category.
func (t BreakType) String() string {
	if label, ok := t.Label(); ok && label != "" {
		return label
	}
	return string(t.category)
}

// BreakEvent is one break. EndTime is nil while the break is active; at most
// one active break exists per employee across all days.
type BreakEvent struct {
	ID              int64
	EmployeeID      string
	AttendanceDay   time.Time
	Type            BreakType
	PlannedDuration *string
	StartTime       time.Time
	EndTime         *time.Time
	Duration        *time.Duration
	Location        string
	EndLocation     *string
	StartReason     *string
	EndReason       *string
	NeedsReview     bool
	ReviewNote      *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (b BreakEvent) Active() bool {
	return b.EndTime == nil
}

// ReviewNegativeDuration is recorded when an end time precedes the start.
const ReviewNegativeDuration = "end time before start time; duration clamped to zero"

// ReviewStale is recorded by the stale break scan.
const ReviewStale = "break left open past the stale threshold"

// ComputeDuration returns end-start, clamped at zero. clamped reports
// whether the raw difference was negative.
func ComputeDuration(start, end time.Time) (d time.Duration, clamped bool) {
	d = end.Sub(start)
	if d < 0 {
		return 0, true
	}
	return d, false
}
