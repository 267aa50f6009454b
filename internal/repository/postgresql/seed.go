package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

// SeedEmployees inserts directory rows that do not exist yet. Existing
// rows are left untouched.
func SeedEmployees(ctx context.Context, db *database.DB, emps []employee.Employee) (int64, error) {
	var inserted int64
	err := WithTransaction(ctx, db, func(tx pgx.Tx) error {
		for _, e := range emps {
			tag, err := tx.Exec(ctx, `
				INSERT INTO employees (id, employee_code, employee_name, role, employee_type, is_active)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT DO NOTHING
			`, e.ID, e.EmployeeCode, e.Name, string(e.Role), e.EmployeeType, e.IsActive)
			if err != nil {
				return fmt.Errorf("failed to seed employee %s: %w", e.ID, err)
			}
			inserted += tag.RowsAffected()
		}
		return nil
	})
	return inserted, err
}
