package validator

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	playground "github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string
	Message string
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, err := range v {
		msgs = append(msgs, err.Field+": "+err.Message)
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string)
	for _, err := range v {
		if _, exists := result[err.Field]; exists {
			continue
		}
		result[err.Field] = err.Message
	}
	return result
}

// Add appends a field error.
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, ValidationError{Field: field, Message: message})
}

// Err returns nil when no errors were collected.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// Single builds a one-field validation error.
func Single(field, message string) error {
	return ValidationErrors{{Field: field, Message: message}}
}

var (
	structOnce     sync.Once
	structValidate *playground.Validate
)

func engine() *playground.Validate {
	structOnce.Do(func() {
		v := playground.New(playground.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("notblank", func(fl playground.FieldLevel) bool {
			return !IsEmpty(fl.Field().String())
		})
		structValidate = v
	})
	return structValidate
}

// Struct runs the `validate` struct tags of v and converts failures into
// ValidationErrors keyed by json field name.
func Struct(v interface{}) error {
	err := engine().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	var errs ValidationErrors
	for _, fe := range fieldErrs {
		errs.Add(fe.Field(), tagMessage(fe))
	}
	return errs
}

func tagMessage(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "This field is required."
	case "oneof":
		return fmt.Sprintf("Must be one of: %s.", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "max":
		return fmt.Sprintf("Must not exceed %s characters.", fe.Param())
	case "gt":
		return fmt.Sprintf("Must be greater than %s.", fe.Param())
	default:
		return fmt.Sprintf("Failed '%s' validation.", fe.Tag())
	}
}

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Date validation
func IsValidDate(dateStr string) (time.Time, bool) {
	date, err := time.Parse("2006-01-02", strings.TrimSpace(dateStr))
	return date, err == nil
}

// Slice contains check
func IsInSlice(value string, slice []string) bool {
	for _, item := range slice {
		if item == value {
			return true
		}
	}
	return false
}

// IsValidDateTime checks if a string is a valid ISO8601 timestamp.
// Accepts formats like: "2024-01-15T10:30:00Z" or "2024-01-15T10:30:00+07:00"
func IsValidDateTime(dateTimeStr string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, dateTimeStr)
	if err == nil {
		return t, true
	}

	t, err = time.Parse(time.RFC3339Nano, dateTimeStr)
	if err == nil {
		return t, true
	}

	return time.Time{}, false
}

var clockLayouts = []string{"15:04:05", "15:04", "3:04 PM", "03:04 PM", "3:04:05 PM", "3:04PM"}

// ParseClockTime parses a wall clock time of day and returns the offset from midnight.
func ParseClockTime(s string) (time.Duration, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, true
		}
	}
	return 0, false
}

// ParseTimeZone accepts an IANA zone name or a fixed offset
// label such as "UTC+04:00", "+0530" or "GMT-3".
func ParseTimeZone(label string) (*time.Location, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, false
	}
	if strings.EqualFold(label, "UTC") || strings.EqualFold(label, "GMT") || label == "Z" {
		return time.UTC, true
	}

	offset := label
	for _, prefix := range []string{"UTC", "GMT", "utc", "gmt"} {
		offset = strings.TrimPrefix(offset, prefix)
	}
	if offset != label || strings.HasPrefix(label, "+") || strings.HasPrefix(label, "-") {
		if secs, ok := parseOffset(offset); ok {
			return time.FixedZone(label, secs), true
		}
		return nil, false
	}

	loc, err := time.LoadLocation(label)
	if err != nil {
		return nil, false
	}
	return loc, true
}

func parseOffset(s string) (int, bool) {
	if len(s) < 2 || (s[0] != '+' && s[0] != '-') {
		return 0, false
	}
	sign := 1
	if s[0] == '-' {
		sign = -1
	}
	body := strings.ReplaceAll(s[1:], ":", "")

	var hours, minutes int
	var err error
	switch len(body) {
	case 1, 2:
		hours, err = strconv.Atoi(body)
	case 3, 4:
		hours, err = strconv.Atoi(body[:len(body)-2])
		if err == nil {
			minutes, err = strconv.Atoi(body[len(body)-2:])
		}
	default:
		return 0, false
	}
	if err != nil || hours < 0 || minutes < 0 {
		return 0, false
	}
	if hours > 14 || minutes > 59 {
		return 0, false
	}
	return sign * (hours*3600 + minutes*60), true
}

// IsHalfStep reports whether f is a positive multiple of 0.5.
func IsHalfStep(f float64) bool {
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	doubled := f * 2
	return math.Abs(doubled-math.Round(doubled)) < 1e-9
}
