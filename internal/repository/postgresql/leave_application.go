package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const leaveSelect = `
	SELECT la.id, la.employee_id, la.category, la.start_date, la.end_date, la.total_days, la.reason,
		la.attachment_path, la.signature_path, la.passport_required_from, la.passport_required_to,
		la.address_during_leave, la.ticket_eligibility, la.status, la.approved_by, la.approved_at,
		la.rejection_reason, la.cancelled_at, la.created_at, la.updated_at,
		e.employee_code, e.employee_name, ap.employee_name
	FROM leave_applications la
	JOIN employees e ON e.id = la.employee_id
	LEFT JOIN employees ap ON ap.id = la.approved_by
`

type leaveRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRepository(db *database.DB) leave.LeaveRepository {
	return &leaveRepositoryImpl{db: db}
}

func scanLeave(row pgx.Row) (leave.LeaveApplication, error) {
	var (
		l                 leave.LeaveApplication
		category, status  string
		ticketEligibility *string
	)
	err := row.Scan(
		&l.ID, &l.EmployeeID, &category, &l.StartDate, &l.EndDate, &l.TotalDays, &l.Reason,
		&l.AttachmentPath, &l.SignaturePath, &l.PassportRequiredFrom, &l.PassportRequiredTo,
		&l.AddressDuringLeave, &ticketEligibility, &status, &l.ApprovedBy, &l.ApprovedAt,
		&l.RejectionReason, &l.CancelledAt, &l.CreatedAt, &l.UpdatedAt,
		&l.EmployeeCode, &l.EmployeeName, &l.ApproverName,
	)
	if err != nil {
		return leave.LeaveApplication{}, err
	}
	l.Category = leave.Category(category)
	l.Status = leave.Status(status)
	if ticketEligibility != nil {
		te := leave.TicketEligibility(*ticketEligibility)
		l.TicketEligibility = &te
	}
	return l, nil
}

func (r *leaveRepositoryImpl) getOne(ctx context.Context, query string, id int64) (leave.LeaveApplication, error) {
	q := GetQuerier(ctx, r.db)

	l, err := scanLeave(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveApplication{}, leave.ErrLeaveNotFound
		}
		return leave.LeaveApplication{}, fmt.Errorf("failed to get leave application %d: %w", id, err)
	}
	return l, nil
}

// Create implements leave.LeaveRepository.
func (r *leaveRepositoryImpl) Create(ctx context.Context, application leave.LeaveApplication) (leave.LeaveApplication, error) {
	q := GetQuerier(ctx, r.db)

	var ticketEligibility *string
	if application.TicketEligibility != nil {
		te := string(*application.TicketEligibility)
		ticketEligibility = &te
	}

	query := `
		INSERT INTO leave_applications (
			employee_id, category, start_date, end_date, total_days, reason,
			attachment_path, signature_path, passport_required_from, passport_required_to,
			address_during_leave, ticket_eligibility, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`

	var id int64
	err := q.QueryRow(ctx, query,
		application.EmployeeID, string(application.Category), application.StartDate, application.EndDate,
		application.TotalDays, application.Reason, application.AttachmentPath, application.SignaturePath,
		application.PassportRequiredFrom, application.PassportRequiredTo, application.AddressDuringLeave,
		ticketEligibility, string(application.Status),
	).Scan(&id)
	if err != nil {
		return leave.LeaveApplication{}, fmt.Errorf("failed to create leave application: %w", err)
	}

	return r.GetByID(ctx, id)
}

// GetByID implements leave.LeaveRepository.
func (r *leaveRepositoryImpl) GetByID(ctx context.Context, id int64) (leave.LeaveApplication, error) {
	return r.getOne(ctx, leaveSelect+` WHERE la.id = $1`, id)
}

// GetByIDForUpdate implements leave.LeaveRepository.
func (r *leaveRepositoryImpl) GetByIDForUpdate(ctx context.Context, id int64) (leave.LeaveApplication, error) {
	return r.getOne(ctx, leaveSelect+` WHERE la.id = $1 FOR UPDATE OF la`, id)
}

// UpdateStatus implements leave.LeaveRepository.
func (r *leaveRepositoryImpl) UpdateStatus(ctx context.Context, application leave.LeaveApplication) (leave.LeaveApplication, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_applications
		SET status = $2, approved_by = $3, approved_at = $4, rejection_reason = $5,
			cancelled_at = $6, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := q.Exec(ctx, query,
		application.ID, string(application.Status), application.ApprovedBy, application.ApprovedAt,
		application.RejectionReason, application.CancelledAt,
	)
	if err != nil {
		return leave.LeaveApplication{}, fmt.Errorf("failed to update leave status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		var current string
		err := q.QueryRow(ctx, `SELECT status FROM leave_applications WHERE id = $1`, application.ID).Scan(&current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return leave.LeaveApplication{}, leave.ErrLeaveNotFound
			}
			return leave.LeaveApplication{}, fmt.Errorf("failed to read leave status: %w", err)
		}
		return leave.LeaveApplication{}, &leave.TransitionError{From: leave.Status(current), To: application.Status}
	}

	return r.GetByID(ctx, application.ID)
}

// List implements leave.LeaveRepository.
func (r *leaveRepositoryImpl) List(ctx context.Context, filter leave.ListFilter) ([]leave.LeaveApplication, error) {
	q := GetQuerier(ctx, r.db)

	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argIndex := 1

	if filter.EmployeeID != nil {
		whereClause += fmt.Sprintf(" AND la.employee_id = $%d", argIndex)
		args = append(args, *filter.EmployeeID)
		argIndex++
	}
	if filter.EmployeeCode != nil {
		whereClause += fmt.Sprintf(" AND (e.employee_code = $%d OR e.id = $%d)", argIndex, argIndex)
		args = append(args, *filter.EmployeeCode)
		argIndex++
	}
	if filter.Status != nil {
		whereClause += fmt.Sprintf(" AND la.status = $%d", argIndex)
		args = append(args, string(*filter.Status))
		argIndex++
	}
	if filter.Category != nil {
		whereClause += fmt.Sprintf(" AND la.category = $%d", argIndex)
		args = append(args, string(*filter.Category))
		argIndex++
	}
	if filter.FromDate != nil {
		whereClause += fmt.Sprintf(" AND la.start_date >= $%d", argIndex)
		args = append(args, *filter.FromDate)
		argIndex++
	}
	if filter.ToDate != nil {
		whereClause += fmt.Sprintf(" AND la.end_date <= $%d", argIndex)
		args = append(args, *filter.ToDate)
	}

	query := leaveSelect + whereClause + ` ORDER BY la.created_at DESC, la.id DESC`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave applications: %w", err)
	}
	defer rows.Close()

	var applications []leave.LeaveApplication
	for rows.Next() {
		l, err := scanLeave(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave application: %w", err)
		}
		applications = append(applications, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return applications, nil
}

// SumApprovedDays implements leave.LeaveRepository.
func (r *leaveRepositoryImpl) SumApprovedDays(ctx context.Context, employeeID string, category leave.Category) (float64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COALESCE(SUM(total_days), 0)::float8
		FROM leave_applications
		WHERE employee_id = $1 AND category = $2 AND status = 'approved'
	`

	var total float64
	if err := q.QueryRow(ctx, query, employeeID, string(category)).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum approved leave days: %w", err)
	}
	return total, nil
}

// CountApproved implements leave.LeaveRepository.
func (r *leaveRepositoryImpl) CountApproved(ctx context.Context, employeeID string, category leave.Category) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COUNT(*)
		FROM leave_applications
		WHERE employee_id = $1 AND category = $2 AND status = 'approved'
	`

	var count int64
	if err := q.QueryRow(ctx, query, employeeID, string(category)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count approved leaves: %w", err)
	}
	return count, nil
}

// CountApprovedStartingBetween implements leave.LeaveRepository.
func (r *leaveRepositoryImpl) CountApprovedStartingBetween(ctx context.Context, employeeID *string, from, to time.Time) (map[string]int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT employee_id, COUNT(*)
		FROM leave_applications
		WHERE status = 'approved' AND start_date >= $1 AND start_date < $2
			AND ($3::text IS NULL OR employee_id = $3)
		GROUP BY employee_id
	`

	rows, err := q.Query(ctx, query, from, to, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to count monthly leaves: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			id    string
			count int64
		)
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("failed to scan monthly leave count: %w", err)
		}
		counts[id] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}
