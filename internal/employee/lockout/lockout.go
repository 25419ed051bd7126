// Package lockout tracks failed PIN attempts and hard-locks an employee ID
// after too many failures inside the window.
package lockout

import (
	"context"
	"time"
)

// Store counts failures per employee ID. RecordFailure returns the running
// count inside the current window so the service can decide when to lock.
type Store interface {
	RecordFailure(ctx context.Context, employeeID string, window time.Duration) (int64, error)
	Lock(ctx context.Context, employeeID string, duration time.Duration) error
	IsLocked(ctx context.Context, employeeID string) (bool, time.Duration, error)
	Clear(ctx context.Context, employeeID string) error
}
