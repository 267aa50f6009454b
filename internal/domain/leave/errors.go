package leave

import "errors"

var (
	ErrLeaveNotFound = errors.New("Leave not found.")

	ErrInvalidTransition = errors.New("invalid leave status transition")
	ErrPermissionDenied  = errors.New("permission denied")

	ErrApproverNotAdmin = permissionError("Only admins can approve or reject leaves.")
	ErrNotLeaveOwner    = permissionError("You can only cancel your own leaves.")
	ErrLeaveNotVisible  = permissionError("You can only view your own leaves.")
)

type permissionError string

func (e permissionError) Error() string { return string(e) }

func (e permissionError) Is(target error) bool { return target == ErrPermissionDenied }

// TransitionError is returned when a status change is attempted from a
// state that does not allow it.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	if e.To == StatusCancelled {
		return "Only pending leaves can be cancelled."
	}
	return "Leave is not in pending status."
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// CheckTransition returns a *TransitionError when from cannot move to to.
func CheckTransition(from, to Status) error {
	if !from.CanTransitionTo(to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}

