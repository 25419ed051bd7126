package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/sumithjaya/biometric-auth-backend/internal/employee/models"
	"github.com/sumithjaya/biometric-auth-backend/internal/employee/service"
	"github.com/sumithjaya/biometric-auth-backend/internal/employee/store"
)

type SeedSuite struct {
	suite.Suite
	ctx       context.Context
	employees *store.InMemory
}

func (s *SeedSuite) SetupTest() {
	s.ctx = context.Background()
	s.employees = store.NewInMemory()
}

func TestSeedSuite(t *testing.T) {
	suite.Run(t, new(SeedSuite))
}

func (s *SeedSuite) TestSeedsAllDefaultsIntoEmptyStore() {
	s.Require().NoError(Defaults(s.ctx, s.employees))

	for _, e := range defaults {
		emp, err := s.employees.GetByEmployeeID(s.ctx, e.employeeID)
		s.Require().NoError(err)
		s.Equal(e.name, emp.Name)
		s.NoError(bcrypt.CompareHashAndPassword([]byte(emp.PinHash), []byte(e.pin)))
	}
}

// TestReseedingKeepsExistingEmployees changes EMP001's PIN after the first
// seeding and runs the seed again, as a restart would. The changed credential
// must survive.
func (s *SeedSuite) TestReseedingKeepsExistingEmployees() {
	s.Require().NoError(Defaults(s.ctx, s.employees))

	hash, err := service.HashPin("9999")
	s.Require().NoError(err)
	s.Require().NoError(s.employees.Upsert(s.ctx, models.Employee{
		EmployeeID: "EMP001",
		Name:       "Alice Renamed",
		PinHash:    hash,
	}))

	s.Require().NoError(Defaults(s.ctx, s.employees))

	emp, err := s.employees.GetByEmployeeID(s.ctx, "EMP001")
	s.Require().NoError(err)
	s.Equal("Alice Renamed", emp.Name)
	s.Equal(hash, emp.PinHash)
}

func (s *SeedSuite) TestSeedFillsOnlyMissingEmployees() {
	hash, err := service.HashPin("0000")
	s.Require().NoError(err)
	s.Require().NoError(s.employees.Upsert(s.ctx, models.Employee{
		EmployeeID: "EMP002",
		Name:       "Existing Bob",
		PinHash:    hash,
	}))

	s.Require().NoError(Defaults(s.ctx, s.employees))

	existing, err := s.employees.GetByEmployeeID(s.ctx, "EMP002")
	s.Require().NoError(err)
	s.Equal("Existing Bob", existing.Name)
	s.Equal(hash, existing.PinHash)

	seeded, err := s.employees.GetByEmployeeID(s.ctx, "EMP001")
	s.Require().NoError(err)
	s.Equal("Alice Johnson", seeded.Name)
}
