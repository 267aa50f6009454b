package employee

import "errors"

var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrInactiveEmployee = errors.New("employee account is inactive")
	ErrPermissionDenied = errors.New("you do not have permission to perform this action")
)
