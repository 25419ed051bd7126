package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sumithjaya/biometric-auth-backend/internal/employee/models"
	"github.com/sumithjaya/biometric-auth-backend/pkg/platform/sentinel"
)

// Postgres is the production Store backed by the employees table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) GetByEmployeeID(ctx context.Context, employeeID string) (*models.Employee, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, employee_id, name, pin_hash
		FROM employees
		WHERE employee_id = $1`,
		employeeID,
	)

	var emp models.Employee
	if err := row.Scan(&emp.ID, &emp.EmployeeID, &emp.Name, &emp.PinHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return &emp, nil
}

func (s *Postgres) Upsert(ctx context.Context, employee models.Employee) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (employee_id, name, pin_hash)
		VALUES ($1, $2, $3)
		ON CONFLICT (employee_id)
		DO UPDATE SET name = EXCLUDED.name, pin_hash = EXCLUDED.pin_hash`,
		employee.EmployeeID, employee.Name, employee.PinHash,
	)
	if err != nil {
		return fmt.Errorf("upsert employee: %w", err)
	}
	return nil
}
