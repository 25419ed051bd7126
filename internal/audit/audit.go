// Package audit records the security-relevant actions of the biometric
// pipeline. Events never contain descriptor plaintext, ciphertext, or key
// material; they describe what happened, not what was stored.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action identifies what an event describes.
type Action string

const (
	ActionEnrollmentCreated Action = "enrollment_created"
	ActionEnrollmentUpdated Action = "enrollment_updated"
	ActionIdentityMigrated  Action = "identity_migrated"
	ActionVerifyMatched     Action = "verify_matched"
	ActionVerifyRejected    Action = "verify_rejected"
	ActionVerifyFailed      Action = "verify_failed"
	ActionPinAuthSucceeded  Action = "pin_auth_succeeded"
	ActionPinAuthFailed     Action = "pin_auth_failed"
	ActionPinAuthLocked     Action = "pin_auth_locked"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID
	Action    Action
	UserID    string
	Email     string
	RequestID string
	Reason    string
	CreatedAt time.Time
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID string) ([]Event, error)
}
