package service

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/sumithjaya/biometric-auth-backend/internal/audit"
	bcrypto "github.com/sumithjaya/biometric-auth-backend/internal/biometric/crypto"
	"github.com/sumithjaya/biometric-auth-backend/internal/biometric/models"
	"github.com/sumithjaya/biometric-auth-backend/internal/biometric/store/enrollment"
	dErrors "github.com/sumithjaya/biometric-auth-backend/pkg/domain-errors"
)

const testSaltB64 = "c2FsdC1mb3ItdW5pdC10ZXN0cw=="

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *enrollment.InMemory
	auditor *audit.Publisher
	svc     *Service
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = enrollment.NewInMemory()
	s.auditor = audit.NewPublisher(audit.NewInMemoryStore())

	svc, err := New(s.store, bcrypto.NewKeyring("test-passphrase", testSaltB64), 0.60,
		WithAuditor(s.auditor))
	s.Require().NoError(err)
	s.svc = svc
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func descriptor(fill float32) []float32 {
	d := make([]float32, MinDescriptorLength)
	for i := range d {
		d[i] = fill
	}
	return d
}

func (s *ServiceSuite) enroll(userID, email string, d []float32) models.EnrollResult {
	res, err := s.svc.Enroll(s.ctx, models.EnrollRequest{
		UserID:     userID,
		Name:       "Test User",
		Email:      email,
		Descriptor: d,
	})
	s.Require().NoError(err)
	return res
}

func (s *ServiceSuite) TestEnrollStoresEncryptedDescriptor() {
	res := s.enroll("emp-001", "one@example.com", descriptor(0.25))

	s.True(res.OK)
	s.False(res.Updated)
	s.Equal("emp-001", res.UserID)

	rec, err := s.store.GetByUserID(s.ctx, "emp-001")
	s.Require().NoError(err)

	ciphertext, err := base64.StdEncoding.DecodeString(rec.EmbeddingCiphertext)
	s.Require().NoError(err)
	// 64 floats plus a 16 byte GCM tag; plaintext is never stored as-is.
	s.Len(ciphertext, MinDescriptorLength*4+16)

	nonce, err := base64.StdEncoding.DecodeString(rec.NonceB64)
	s.Require().NoError(err)
	s.Len(nonce, bcrypto.NonceSize)
}

func (s *ServiceSuite) TestEnrollValidatesInput() {
	cases := []struct {
		name string
		req  models.EnrollRequest
	}{
		{"missing user id", models.EnrollRequest{Email: "a@b.com", Descriptor: descriptor(1)}},
		{"missing email", models.EnrollRequest{UserID: "u1", Descriptor: descriptor(1)}},
		{"short descriptor", models.EnrollRequest{UserID: "u1", Email: "a@b.com", Descriptor: make([]float32, 12)}},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.svc.Enroll(s.ctx, tc.req)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func (s *ServiceSuite) TestReEnrollReportsUpdate() {
	s.enroll("emp-001", "one@example.com", descriptor(0.1))
	res := s.enroll("emp-001", "one@example.com", descriptor(0.9))
	s.True(res.Updated)
}

func (s *ServiceSuite) TestVerifyMatchesEnrolledDescriptor() {
	d := descriptor(0.5)
	s.enroll("emp-001", "one@example.com", d)

	result, err := s.svc.Verify(s.ctx, models.VerifyRequest{UserID: "emp-001", Descriptor: d})
	s.Require().NoError(err)
	s.True(result.Matched)
	s.InDelta(0.0, result.Distance, 1e-6)
	s.Equal(0.60, result.Threshold)
}

func (s *ServiceSuite) TestVerifyRejectsDistantDescriptor() {
	s.enroll("emp-001", "one@example.com", descriptor(0.0))

	// Each of the 64 components differs by 1.0, so the distance is 8.0.
	result, err := s.svc.Verify(s.ctx, models.VerifyRequest{UserID: "emp-001", Descriptor: descriptor(1.0)})
	s.Require().NoError(err)
	s.False(result.Matched)
	s.InDelta(8.0, result.Distance, 1e-6)
}

func (s *ServiceSuite) TestVerifyByEmailFallback() {
	d := descriptor(0.5)
	s.enroll("emp-001", "one@example.com", d)

	result, err := s.svc.Verify(s.ctx, models.VerifyRequest{Email: "one@example.com", Descriptor: d})
	s.Require().NoError(err)
	s.True(result.Matched)
}

func (s *ServiceSuite) TestVerifyUnknownIdentity() {
	_, err := s.svc.Verify(s.ctx, models.VerifyRequest{UserID: "ghost", Descriptor: descriptor(0.5)})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestVerifyValidatesInput() {
	_, err := s.svc.Verify(s.ctx, models.VerifyRequest{Descriptor: descriptor(0.5)})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.svc.Verify(s.ctx, models.VerifyRequest{UserID: "u1", Descriptor: make([]float32, 3)})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestTamperedRecordLooksLikeNotFound() {
	d := descriptor(0.5)
	s.enroll("emp-001", "one@example.com", d)

	rec, err := s.store.GetByUserID(s.ctx, "emp-001")
	s.Require().NoError(err)

	ciphertext, err := base64.StdEncoding.DecodeString(rec.EmbeddingCiphertext)
	s.Require().NoError(err)
	ciphertext[0] ^= 0x01

	_, _, err = s.store.Upsert(s.ctx, models.UpsertParams{
		UserID:              rec.UserID,
		Name:                rec.Name,
		Email:               rec.Email,
		EmbeddingCiphertext: base64.StdEncoding.EncodeToString(ciphertext),
		NonceB64:            rec.NonceB64,
	})
	s.Require().NoError(err)

	_, err = s.svc.Verify(s.ctx, models.VerifyRequest{UserID: "emp-001", Descriptor: d})
	s.Require().Error(err)
	// The caller sees the same error a missing record produces.
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	events, err := s.auditor.List(s.ctx, "emp-001")
	s.Require().NoError(err)
	var failed bool
	for _, ev := range events {
		if ev.Action == audit.ActionVerifyFailed {
			failed = true
			s.Equal("ciphertext authentication failed", ev.Reason)
		}
	}
	s.True(failed, "expected a verify_failed audit event")
}

func (s *ServiceSuite) TestWrongKeyLooksLikeNotFound() {
	d := descriptor(0.5)
	s.enroll("emp-001", "one@example.com", d)

	other, err := New(s.store, bcrypto.NewKeyring("different-passphrase", testSaltB64), 0.60)
	s.Require().NoError(err)

	_, err = other.Verify(s.ctx, models.VerifyRequest{UserID: "emp-001", Descriptor: d})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestIdentityMigrationThroughEnroll() {
	s.enroll("emp-001", "shared@example.com", descriptor(0.1))
	s.enroll("emp-002", "shared@example.com", descriptor(0.2))

	_, err := s.svc.LookupByUserID(s.ctx, "emp-001")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	rec, err := s.svc.LookupByEmail(s.ctx, "shared@example.com")
	s.Require().NoError(err)
	s.Equal("emp-002", rec.UserID)

	// The migration leaves its own trail entry alongside the update.
	events, err := s.auditor.List(s.ctx, "emp-002")
	s.Require().NoError(err)
	actions := make([]audit.Action, len(events))
	for i, ev := range events {
		actions[i] = ev.Action
	}
	s.Contains(actions, audit.ActionEnrollmentUpdated)
	s.Contains(actions, audit.ActionIdentityMigrated)
}

// TestEnrollAcrossTwoRecordsConflicts enrolls with one record's user ID and
// another record's email. Neither record can absorb the write without
// orphaning the other, so the service reports a conflict.
func (s *ServiceSuite) TestEnrollAcrossTwoRecordsConflicts() {
	s.enroll("emp-001", "one@example.com", descriptor(0.1))
	s.enroll("emp-002", "two@example.com", descriptor(0.2))

	_, err := s.svc.Enroll(s.ctx, models.EnrollRequest{
		UserID:     "emp-001",
		Name:       "Test User",
		Email:      "two@example.com",
		Descriptor: descriptor(0.3),
	})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	rec, err := s.svc.LookupByUserID(s.ctx, "emp-002")
	s.Require().NoError(err)
	s.Equal("two@example.com", rec.Email)
}

func (s *ServiceSuite) TestEnrollVerifyAuditTrail() {
	d := descriptor(0.5)
	s.enroll("emp-001", "one@example.com", d)

	_, err := s.svc.Verify(s.ctx, models.VerifyRequest{UserID: "emp-001", Descriptor: d})
	s.Require().NoError(err)

	events, err := s.auditor.List(s.ctx, "emp-001")
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(audit.ActionEnrollmentCreated, events[0].Action)
	s.Equal(audit.ActionVerifyMatched, events[1].Action)
}
