package attendance

import "errors"

var (
	ErrAlreadyCheckedIn   = errors.New("Already checked in today")
	ErrAlreadyCheckedOut  = errors.New("Already checked out today")
	ErrNotCheckedIn       = errors.New("You need to check in first")
	ErrActiveBreakExists  = errors.New("Please end your break before checking out")
	ErrClockEventNotFound = errors.New("clock event not found")
)
