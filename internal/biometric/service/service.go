// Package service orchestrates the enrollment/verification pipeline: codec,
// key derivation, authenticated encryption, storage, and match decision.
package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sumithjaya/biometric-auth-backend/internal/audit"
	"github.com/sumithjaya/biometric-auth-backend/internal/biometric/codec"
	bcrypto "github.com/sumithjaya/biometric-auth-backend/internal/biometric/crypto"
	"github.com/sumithjaya/biometric-auth-backend/internal/biometric/match"
	"github.com/sumithjaya/biometric-auth-backend/internal/biometric/models"
	"github.com/sumithjaya/biometric-auth-backend/internal/biometric/snapshot"
	"github.com/sumithjaya/biometric-auth-backend/internal/biometric/store/enrollment"
	"github.com/sumithjaya/biometric-auth-backend/internal/platform/metrics"
	"github.com/sumithjaya/biometric-auth-backend/internal/platform/middleware"
	dErrors "github.com/sumithjaya/biometric-auth-backend/pkg/domain-errors"
	"github.com/sumithjaya/biometric-auth-backend/pkg/platform/sentinel"
)

// MinDescriptorLength is the smallest descriptor any supported extractor
// produces. Typical face models emit 128 or 512 components.
const MinDescriptorLength = 64

// Service runs the biometric pipeline. The decrypted descriptor exists only
// inside a single Verify call; it is never persisted, logged, or embedded in
// errors.
type Service struct {
	store     enrollment.Store
	keyring   *bcrypto.Keyring
	snapshots snapshot.Saver
	auditor   *audit.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	threshold float64
}

// Option configures a Service.
type Option func(*Service)

// WithSnapshots enables snapshot persistence.
func WithSnapshots(saver snapshot.Saver) Option {
	return func(s *Service) { s.snapshots = saver }
}

// WithAuditor enables audit event emission.
func WithAuditor(pub *audit.Publisher) Option {
	return func(s *Service) { s.auditor = pub }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New wires a biometric service. The threshold is deployment configuration,
// never a per-call argument from untrusted input.
func New(store enrollment.Store, keyring *bcrypto.Keyring, threshold float64, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("enrollment store is required")
	}
	if keyring == nil {
		return nil, errors.New("keyring is required")
	}
	svc := &Service{
		store:     store,
		keyring:   keyring,
		logger:    slog.Default(),
		threshold: threshold,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Threshold returns the configured match threshold.
func (s *Service) Threshold() float64 { return s.threshold }

// Enroll encrypts and stores a descriptor under the two alternate identity
// keys. Re-enrolling either key overwrites the existing record wholesale; see
// the store docs for the identity migration semantics this implies.
func (s *Service) Enroll(ctx context.Context, req models.EnrollRequest) (models.EnrollResult, error) {
	if req.UserID == "" {
		return models.EnrollResult{}, dErrors.New(dErrors.CodeValidation, "userId is required")
	}
	if req.Email == "" {
		return models.EnrollResult{}, dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if len(req.Descriptor) < MinDescriptorLength {
		return models.EnrollResult{}, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("descriptor must have at least %d elements", MinDescriptorLength))
	}

	key, err := s.keyring.Key()
	if err != nil {
		return models.EnrollResult{}, err
	}

	ciphertext, nonce, err := bcrypto.Encrypt(key, codec.Encode(req.Descriptor))
	if err != nil {
		return models.EnrollResult{}, err
	}

	snapshotPath := s.saveSnapshot(ctx, req)

	rec, outcome, err := s.store.Upsert(ctx, models.UpsertParams{
		UserID:              req.UserID,
		Name:                req.Name,
		Email:               req.Email,
		EmbeddingCiphertext: base64.StdEncoding.EncodeToString(ciphertext),
		NonceB64:            base64.StdEncoding.EncodeToString(nonce),
		SnapshotPath:        snapshotPath,
	})
	if err != nil {
		return models.EnrollResult{}, s.storeError(err, "upsert enrollment failed")
	}

	s.recordEnrollment(ctx, rec.UserID, rec.Email, outcome)

	return models.EnrollResult{
		OK:      true,
		Updated: outcome.Updated,
		UserID:  rec.UserID,
		Email:   rec.Email,
	}, nil
}

// Verify compares a probe descriptor against the enrolled one for the given
// identity. A record whose ciphertext fails authentication is reported
// exactly like a missing record so callers cannot discriminate
// valid-ciphertext-wrong-key from corrupted-record; the real cause goes to
// the audit trail.
func (s *Service) Verify(ctx context.Context, req models.VerifyRequest) (match.Result, error) {
	if req.UserID == "" && req.Email == "" {
		return match.Result{}, dErrors.New(dErrors.CodeValidation, "userId or email is required")
	}
	if len(req.Descriptor) < MinDescriptorLength {
		return match.Result{}, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("descriptor must have at least %d elements", MinDescriptorLength))
	}

	rec, err := s.lookup(ctx, req.UserID, req.Email)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			s.incVerification(metrics.OutcomeNotFound)
		}
		return match.Result{}, err
	}

	key, err := s.keyring.Key()
	if err != nil {
		return match.Result{}, err
	}

	ciphertext, err := base64.StdEncoding.DecodeString(rec.EmbeddingCiphertext)
	if err != nil {
		return match.Result{}, s.opaqueRecordFailure(ctx, rec, "stored ciphertext is not valid base64")
	}
	nonce, err := base64.StdEncoding.DecodeString(rec.NonceB64)
	if err != nil {
		return match.Result{}, s.opaqueRecordFailure(ctx, rec, "stored nonce is not valid base64")
	}

	plaintext, err := bcrypto.Decrypt(key, ciphertext, nonce)
	if err != nil {
		return match.Result{}, s.opaqueRecordFailure(ctx, rec, "ciphertext authentication failed")
	}

	stored, err := codec.Decode(plaintext)
	if err != nil {
		return match.Result{}, s.opaqueRecordFailure(ctx, rec, "stored descriptor buffer is malformed")
	}

	result, err := match.Verify(stored, req.Descriptor, s.threshold)
	if err != nil {
		return match.Result{}, err
	}

	s.recordVerification(ctx, rec, result)
	return result, nil
}

// LookupByUserID returns the enrollment for a user ID, or a not-found error.
func (s *Service) LookupByUserID(ctx context.Context, userID string) (*models.EnrollmentRecord, error) {
	rec, err := s.store.GetByUserID(ctx, userID)
	if err != nil {
		return nil, s.storeError(err, "lookup by user id failed")
	}
	return rec, nil
}

// LookupByEmail returns the enrollment for an email, or a not-found error.
func (s *Service) LookupByEmail(ctx context.Context, email string) (*models.EnrollmentRecord, error) {
	rec, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, s.storeError(err, "lookup by email failed")
	}
	return rec, nil
}

func (s *Service) lookup(ctx context.Context, userID, email string) (*models.EnrollmentRecord, error) {
	if userID != "" {
		rec, err := s.store.GetByUserID(ctx, userID)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, s.storeError(err, "lookup by user id failed")
		}
	}
	if email != "" {
		rec, err := s.store.GetByEmail(ctx, email)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, s.storeError(err, "lookup by email failed")
		}
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "enrollment not found")
}

func (s *Service) saveSnapshot(ctx context.Context, req models.EnrollRequest) string {
	if s.snapshots == nil || req.Snapshot == nil {
		return ""
	}
	image, ext, ok := snapshot.ParseDataURL(req.Snapshot.ImageDataURL)
	if !ok {
		return ""
	}
	path, err := s.snapshots.Save(ctx, req.UserID, ext, image)
	if err != nil {
		// Snapshot persistence is best-effort; the enrollment itself must
		// not fail because an upload directory or bucket is unavailable.
		s.logger.WarnContext(ctx, "snapshot save failed",
			"user_id", req.UserID,
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		return ""
	}
	return path
}

// storeError translates store sentinels into domain errors.
func (s *Service) storeError(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "enrollment not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, msg)
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, msg)
	}
}

// opaqueRecordFailure audits the real cause of an undecryptable record and
// returns the same not-found error a missing record produces.
func (s *Service) opaqueRecordFailure(ctx context.Context, rec *models.EnrollmentRecord, reason string) error {
	s.incVerification(metrics.OutcomeAuthFailed)
	s.emit(ctx, audit.Event{
		Action:    audit.ActionVerifyFailed,
		UserID:    rec.UserID,
		Email:     rec.Email,
		RequestID: middleware.GetRequestID(ctx),
		Reason:    reason,
	})
	s.logger.WarnContext(ctx, "verification failed on stored record",
		"user_id", rec.UserID,
		"reason", reason,
		"request_id", middleware.GetRequestID(ctx),
	)
	return dErrors.New(dErrors.CodeNotFound, "enrollment not found")
}

func (s *Service) recordEnrollment(ctx context.Context, userID, email string, outcome models.UpsertOutcome) {
	action := audit.ActionEnrollmentCreated
	if outcome.Updated {
		action = audit.ActionEnrollmentUpdated
	}
	s.emit(ctx, audit.Event{
		Action:    action,
		UserID:    userID,
		Email:     email,
		RequestID: middleware.GetRequestID(ctx),
	})
	if outcome.Migrated {
		// The write re-bound the record to a new userID or email; the event
		// carries the keys the record holds after the migration.
		s.emit(ctx, audit.Event{
			Action:    audit.ActionIdentityMigrated,
			UserID:    userID,
			Email:     email,
			RequestID: middleware.GetRequestID(ctx),
		})
	}
	if s.metrics != nil {
		if outcome.Updated {
			s.metrics.EnrollmentsUpdated.Inc()
		} else {
			s.metrics.EnrollmentsCreated.Inc()
		}
	}
}

func (s *Service) recordVerification(ctx context.Context, rec *models.EnrollmentRecord, result match.Result) {
	action := audit.ActionVerifyRejected
	outcome := metrics.OutcomeRejected
	if result.Matched {
		action = audit.ActionVerifyMatched
		outcome = metrics.OutcomeMatched
	}
	s.emit(ctx, audit.Event{
		Action:    action,
		UserID:    rec.UserID,
		Email:     rec.Email,
		RequestID: middleware.GetRequestID(ctx),
	})
	s.incVerification(outcome)
	if s.metrics != nil {
		s.metrics.ObserveDistance(result.Distance)
	}
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "error", err.Error())
	}
}

func (s *Service) incVerification(outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementVerification(outcome)
	}
}
