package postgresql

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

const (
	constraintClockEventPerDay = "uq_clock_events_employee_day_kind"
	constraintOneActiveBreak   = "uq_break_events_one_active"
)

// uniqueViolation reports whether err is a unique violation on constraint.
func uniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolationCode && pgErr.ConstraintName == constraint
}
