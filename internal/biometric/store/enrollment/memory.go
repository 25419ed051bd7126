package enrollment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sumithjaya/biometric-auth-backend/internal/biometric/models"
	"github.com/sumithjaya/biometric-auth-backend/pkg/platform/sentinel"
)

// InMemory keeps enrollments in process memory. It favors clarity over
// performance: one mutex serializes the whole lookup-mutate-commit sequence,
// which is exactly the critical section the upsert invariant needs.
type InMemory struct {
	mu      sync.RWMutex
	nextID  int64
	byUser  map[string]*models.EnrollmentRecord
	byEmail map[string]*models.EnrollmentRecord
	clock   func() time.Time
}

// InMemoryOption configures an InMemory store.
type InMemoryOption func(*InMemory)

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) InMemoryOption {
	return func(s *InMemory) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewInMemory(opts ...InMemoryOption) *InMemory {
	s := &InMemory{
		nextID:  1,
		byUser:  make(map[string]*models.EnrollmentRecord),
		byEmail: make(map[string]*models.EnrollmentRecord),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemory) Upsert(_ context.Context, p models.UpsertParams) (*models.EnrollmentRecord, models.UpsertOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, found := s.byUser[p.UserID]
	if !found {
		rec, found = s.byEmail[p.Email]
	}

	// Rewriting the matched record must not strand a second record: if the
	// incoming userID or email already belongs to a different record, the
	// write cannot satisfy both uniqueness invariants.
	if other, ok := s.byUser[p.UserID]; ok && other != rec {
		return nil, models.UpsertOutcome{}, fmt.Errorf("upsert enrollment: %w", sentinel.ErrConflict)
	}
	if other, ok := s.byEmail[p.Email]; ok && other != rec {
		return nil, models.UpsertOutcome{}, fmt.Errorf("upsert enrollment: %w", sentinel.ErrConflict)
	}

	outcome := models.UpsertOutcome{}
	if found {
		outcome.Updated = true
		outcome.Migrated = rec.UserID != p.UserID || rec.Email != p.Email

		// The record may be migrating to a new userID or email; both index
		// entries are rebuilt below.
		delete(s.byUser, rec.UserID)
		delete(s.byEmail, rec.Email)

		rec.UserID = p.UserID
		rec.Name = p.Name
		rec.Email = p.Email
		rec.EmbeddingCiphertext = p.EmbeddingCiphertext
		rec.NonceB64 = p.NonceB64
		if p.SnapshotPath != "" {
			rec.SnapshotPath = p.SnapshotPath
		}
		rec.UpdatedAt = s.clock()
	} else {
		rec = &models.EnrollmentRecord{
			ID:                  s.nextID,
			UserID:              p.UserID,
			Name:                p.Name,
			Email:               p.Email,
			EmbeddingCiphertext: p.EmbeddingCiphertext,
			NonceB64:            p.NonceB64,
			SnapshotPath:        p.SnapshotPath,
			UpdatedAt:           s.clock(),
		}
		s.nextID++
	}

	s.byUser[rec.UserID] = rec
	s.byEmail[rec.Email] = rec

	out := *rec
	return &out, outcome, nil
}

func (s *InMemory) GetByUserID(_ context.Context, userID string) (*models.EnrollmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.byUser[userID]; ok {
		out := *rec
		return &out, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) GetByEmail(_ context.Context, email string) (*models.EnrollmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.byEmail[email]; ok {
		out := *rec
		return &out, nil
	}
	return nil, sentinel.ErrNotFound
}
