package breaks

import "errors"

var (
	ErrBreakAlreadyActive = errors.New("You already have an active break")
	ErrNoActiveBreak      = errors.New("No active break found")
)
