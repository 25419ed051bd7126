// Package service implements PIN authentication with lockout.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sumithjaya/biometric-auth-backend/internal/audit"
	"github.com/sumithjaya/biometric-auth-backend/internal/employee/lockout"
	"github.com/sumithjaya/biometric-auth-backend/internal/employee/models"
	"github.com/sumithjaya/biometric-auth-backend/internal/employee/store"
	jwttoken "github.com/sumithjaya/biometric-auth-backend/internal/jwt_token"
	"github.com/sumithjaya/biometric-auth-backend/internal/platform/metrics"
	"github.com/sumithjaya/biometric-auth-backend/internal/platform/middleware"
	dErrors "github.com/sumithjaya/biometric-auth-backend/pkg/domain-errors"
	"github.com/sumithjaya/biometric-auth-backend/pkg/platform/sentinel"
)

// dummyHash is compared against when the employee does not exist, so a
// missing ID costs the same bcrypt work as a wrong PIN.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// Config bounds the failure window.
type Config struct {
	MaxFailures   int
	FailureWindow time.Duration
	LockDuration  time.Duration
	SessionTTL    time.Duration
}

// Service authenticates employees by PIN and issues session tokens.
type Service struct {
	employees store.Store
	lockouts  lockout.Store
	tokens    *jwttoken.JWTService
	auditor   *audit.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	cfg       Config
}

type Option func(*Service)

func WithAuditor(pub *audit.Publisher) Option {
	return func(s *Service) { s.auditor = pub }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(employees store.Store, lockouts lockout.Store, tokens *jwttoken.JWTService, cfg Config, opts ...Option) (*Service, error) {
	if employees == nil {
		return nil, errors.New("employee store is required")
	}
	if lockouts == nil {
		return nil, errors.New("lockout store is required")
	}
	if tokens == nil {
		return nil, errors.New("jwt service is required")
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.FailureWindow <= 0 {
		cfg.FailureWindow = 15 * time.Minute
	}
	if cfg.LockDuration <= 0 {
		cfg.LockDuration = cfg.FailureWindow
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 8 * time.Hour
	}

	svc := &Service{
		employees: employees,
		lockouts:  lockouts,
		tokens:    tokens,
		logger:    slog.Default(),
		cfg:       cfg,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Authenticate checks the PIN and returns a session token. Unknown employee
// and wrong PIN produce the identical error so the endpoint cannot be used
// to enumerate IDs.
func (s *Service) Authenticate(ctx context.Context, req models.AuthRequest) (models.AuthResult, error) {
	if req.EmployeeID == "" || req.Pin == "" {
		return models.AuthResult{}, dErrors.New(dErrors.CodeValidation, "employeeId and pin are required")
	}

	locked, remaining, err := s.lockouts.IsLocked(ctx, req.EmployeeID)
	if err != nil {
		return models.AuthResult{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "lockout check failed")
	}
	if locked {
		return models.AuthResult{}, dErrors.New(dErrors.CodeLocked,
			fmt.Sprintf("too many failed attempts, retry in %d seconds", int(remaining.Seconds())))
	}

	emp, err := s.employees.GetByEmployeeID(ctx, req.EmployeeID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return models.AuthResult{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "employee lookup failed")
	}

	hash := dummyHash
	if emp != nil {
		hash = []byte(emp.PinHash)
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(req.Pin)) != nil || emp == nil {
		return models.AuthResult{}, s.recordFailure(ctx, req.EmployeeID)
	}

	if err := s.lockouts.Clear(ctx, req.EmployeeID); err != nil {
		s.logger.WarnContext(ctx, "failed to clear pin failures",
			"employee_id", req.EmployeeID,
			"error", err.Error(),
		)
	}

	token, err := s.tokens.GenerateSessionToken(emp.EmployeeID, emp.Name, s.cfg.SessionTTL)
	if err != nil {
		return models.AuthResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "token generation failed")
	}

	s.emit(ctx, audit.ActionPinAuthSucceeded, req.EmployeeID, "")

	return models.AuthResult{
		Token:      token,
		EmployeeID: emp.EmployeeID,
		Name:       emp.Name,
		ExpiresIn:  int64(s.cfg.SessionTTL.Seconds()),
	}, nil
}

func (s *Service) recordFailure(ctx context.Context, employeeID string) error {
	if s.metrics != nil {
		s.metrics.PinAuthFailures.Inc()
	}

	count, err := s.lockouts.RecordFailure(ctx, employeeID, s.cfg.FailureWindow)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to record pin failure",
			"employee_id", employeeID,
			"error", err.Error(),
		)
		// Fall through: the attempt is still rejected.
	}

	if err == nil && count >= int64(s.cfg.MaxFailures) {
		if lockErr := s.lockouts.Lock(ctx, employeeID, s.cfg.LockDuration); lockErr != nil {
			s.logger.ErrorContext(ctx, "failed to apply pin lockout",
				"employee_id", employeeID,
				"error", lockErr.Error(),
			)
		} else {
			if s.metrics != nil {
				s.metrics.PinLockouts.Inc()
			}
			s.emit(ctx, audit.ActionPinAuthLocked, employeeID,
				fmt.Sprintf("%d failures within window", count))
			return dErrors.New(dErrors.CodeLocked,
				fmt.Sprintf("too many failed attempts, retry in %d seconds", int(s.cfg.LockDuration.Seconds())))
		}
	}

	s.emit(ctx, audit.ActionPinAuthFailed, employeeID, "")
	return dErrors.New(dErrors.CodeUnauthorized, "invalid employee id or pin")
}

func (s *Service) emit(ctx context.Context, action audit.Action, employeeID, reason string) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.Emit(ctx, audit.Event{
		Action:    action,
		UserID:    employeeID,
		RequestID: middleware.GetRequestID(ctx),
		Reason:    reason,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "error", err.Error())
	}
}

// HashPin derives the bcrypt hash stored for an employee PIN.
func HashPin(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
