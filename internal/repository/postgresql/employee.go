package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const employeeColumns = `id, employee_code, employee_name, role, employee_type, is_active, created_at, updated_at`

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var (
		emp  employee.Employee
		role string
	)
	err := row.Scan(
		&emp.ID, &emp.EmployeeCode, &emp.Name, &role, &emp.EmployeeType,
		&emp.IsActive, &emp.CreatedAt, &emp.UpdatedAt,
	)
	emp.Role = employee.Role(role)
	return emp, err
}

func (e *employeeRepositoryImpl) getOne(ctx context.Context, query string, arg string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	emp, err := scanEmployee(q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee %s: %w", arg, err)
	}
	return emp, nil
}

// GetByID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	return e.getOne(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id)
}

// LockForUpdate implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) LockForUpdate(ctx context.Context, id string) (employee.Employee, error) {
	return e.getOne(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1 FOR UPDATE`, id)
}

// ListActiveByRoles implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ListActiveByRoles(ctx context.Context, roles []employee.Role) ([]employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	roleNames := make([]string, len(roles))
	for i, r := range roles {
		roleNames[i] = string(r)
	}

	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE is_active = TRUE AND role = ANY($1)
		ORDER BY employee_name
	`

	rows, err := q.Query(ctx, query, roleNames)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees by role: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return employees, nil
}
