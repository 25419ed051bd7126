// Package store persists employee records.
package store

import (
	"context"

	"github.com/sumithjaya/biometric-auth-backend/internal/employee/models"
)

// Store looks up and provisions employees. Upsert exists for seeding and
// admin provisioning; PIN hashes are written, never read back out over HTTP.
type Store interface {
	GetByEmployeeID(ctx context.Context, employeeID string) (*models.Employee, error)
	Upsert(ctx context.Context, employee models.Employee) error
}
