// Package enrollment persists encrypted descriptor enrollments keyed by two
// alternate unique identities: user ID and email.
package enrollment

import (
	"context"

	"github.com/sumithjaya/biometric-auth-backend/internal/biometric/models"
)

// Store is interface-driven so the service stays testable and persistence can
// be swapped without rewiring business code.
//
// Upsert follows the lookup order userID first, then email, then insert.
// Whichever record is found by either key is overwritten wholesale, including
// its userID and email. Enrolling a new userID against an existing email
// therefore migrates that record to the new userID rather than creating a
// second record or rejecting the request. This identity migration is
// deliberate, observable behavior and covered by tests; see the service docs
// before "fixing" it.
type Store interface {
	// Upsert writes one enrollment and reports whether an existing record
	// was overwritten and whether its identity keys changed. Implementations
	// must keep the two uniqueness invariants (one record per userID, one
	// per email) under concurrent enrollments: a race on first-time insert
	// is resolved by retrying as an update, never surfaced as a hard
	// failure. A write whose userID and email match two different existing
	// records cannot satisfy both invariants and fails with
	// sentinel.ErrConflict.
	Upsert(ctx context.Context, p models.UpsertParams) (*models.EnrollmentRecord, models.UpsertOutcome, error)

	// GetByUserID returns the record for the user ID, or
	// sentinel.ErrNotFound.
	GetByUserID(ctx context.Context, userID string) (*models.EnrollmentRecord, error)

	// GetByEmail returns the record for the email, or sentinel.ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*models.EnrollmentRecord, error)
}
