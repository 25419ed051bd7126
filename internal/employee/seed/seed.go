// Package seed provisions the default demo employees on startup when the
// employees table is empty of them.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/sumithjaya/biometric-auth-backend/internal/employee/models"
	"github.com/sumithjaya/biometric-auth-backend/internal/employee/service"
	"github.com/sumithjaya/biometric-auth-backend/internal/employee/store"
	"github.com/sumithjaya/biometric-auth-backend/pkg/platform/sentinel"
)

type entry struct {
	employeeID string
	name       string
	pin        string
}

// Demo PINs for local development. Production deployments provision
// employees out of band and skip seeding.
var defaults = []entry{
	{"EMP001", "Alice Johnson", "1234"},
	{"EMP002", "Bob Smith", "5678"},
	{"EMP003", "Carol Williams", "4321"},
}

// Defaults writes the demo employees that do not exist yet, hashing each
// PIN. An employee already in the store keeps its name and PIN hash, so a
// restart never reverts changes made since the first seeding.
func Defaults(ctx context.Context, employees store.Store) error {
	for _, e := range defaults {
		_, err := employees.GetByEmployeeID(ctx, e.employeeID)
		if err == nil {
			continue
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return fmt.Errorf("check employee %s: %w", e.employeeID, err)
		}

		hash, err := service.HashPin(e.pin)
		if err != nil {
			return fmt.Errorf("hash pin for %s: %w", e.employeeID, err)
		}
		err = employees.Upsert(ctx, models.Employee{
			EmployeeID: e.employeeID,
			Name:       e.name,
			PinHash:    hash,
		})
		if err != nil {
			return fmt.Errorf("seed employee %s: %w", e.employeeID, err)
		}
	}
	return nil
}
