package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"github.com/sumithjaya/biometric-auth-backend/internal/employee/lockout"
	"github.com/sumithjaya/biometric-auth-backend/internal/employee/models"
	"github.com/sumithjaya/biometric-auth-backend/internal/employee/service"
	"github.com/sumithjaya/biometric-auth-backend/internal/employee/store"
	jwttoken "github.com/sumithjaya/biometric-auth-backend/internal/jwt_token"
	dErrors "github.com/sumithjaya/biometric-auth-backend/pkg/domain-errors"
)

type AuthHandlerSuite struct {
	suite.Suite
	router *chi.Mux
}

func (s *AuthHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	employees := store.NewInMemory()
	hash, err := service.HashPin("1234")
	s.Require().NoError(err)
	s.Require().NoError(employees.Upsert(context.Background(), models.Employee{
		EmployeeID: "EMP001",
		Name:       "Alice Johnson",
		PinHash:    hash,
	}))

	svc, err := service.New(
		employees,
		lockout.NewInMemory(),
		jwttoken.NewJWTService("test-signing-key", "biometric-auth", "kiosk"),
		service.Config{MaxFailures: 2, FailureWindow: time.Minute, LockDuration: time.Minute, SessionTTL: time.Hour},
	)
	s.Require().NoError(err)

	s.router = chi.NewRouter()
	New(svc, logger, nil).Register(s.router)
}

func TestAuthHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerSuite))
}

func (s *AuthHandlerSuite) post(body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, "/auth/pin", &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *AuthHandlerSuite) TestSuccessfulLogin() {
	w := s.post(map[string]string{"employeeId": "EMP001", "pin": "1234"})
	s.Require().Equal(http.StatusOK, w.Code)

	var body map[string]any
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&body))
	s.NotEmpty(body["token"])
	s.Equal("Alice Johnson", body["name"])
	s.EqualValues(3600, body["expiresIn"])
}

func (s *AuthHandlerSuite) TestWrongPin() {
	w := s.post(map[string]string{"employeeId": "EMP001", "pin": "0000"})
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *AuthHandlerSuite) TestLockoutReturns423() {
	s.post(map[string]string{"employeeId": "EMP001", "pin": "0000"})
	w := s.post(map[string]string{"employeeId": "EMP001", "pin": "0000"})
	s.Equal(http.StatusLocked, w.Code)
}

func (s *AuthHandlerSuite) TestMissingFields() {
	w := s.post(map[string]string{"employeeId": "EMP001"})
	s.Equal(http.StatusBadRequest, w.Code)
}

// unavailableService fails authentication the way the service reports a
// backend outage.
type unavailableService struct{}

func (unavailableService) Authenticate(context.Context, models.AuthRequest) (models.AuthResult, error) {
	return models.AuthResult{}, dErrors.New(dErrors.CodeUnavailable, "employee store unavailable")
}

// TestStoreOutageSurfacesAsUnavailable pins the status mapping when the
// backing store is down: a 503 without internal detail, not a 500.
func (s *AuthHandlerSuite) TestStoreOutageSurfacesAsUnavailable() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := chi.NewRouter()
	New(unavailableService{}, logger, nil).Register(router)

	var buf bytes.Buffer
	s.Require().NoError(json.NewEncoder(&buf).Encode(map[string]string{"employeeId": "EMP001", "pin": "1234"}))
	req := httptest.NewRequest(http.MethodPost, "/auth/pin", &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	s.Equal(http.StatusServiceUnavailable, w.Code)
	var body map[string]any
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&body))
	s.Equal("unavailable", body["error"])
	s.NotContains(body, "error_description")
}
