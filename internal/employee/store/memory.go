package store

import (
	"context"
	"sync"

	"github.com/sumithjaya/biometric-auth-backend/internal/employee/models"
	"github.com/sumithjaya/biometric-auth-backend/pkg/platform/sentinel"
)

// InMemory is the in-memory Store used by tests and local development.
type InMemory struct {
	mu     sync.RWMutex
	byID   map[string]*models.Employee
	nextID int64
}

func NewInMemory() *InMemory {
	return &InMemory{byID: make(map[string]*models.Employee)}
}

func (s *InMemory) GetByEmployeeID(_ context.Context, employeeID string) (*models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	emp, ok := s.byID[employeeID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *emp
	return &copied, nil
}

func (s *InMemory) Upsert(_ context.Context, employee models.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byID[employee.EmployeeID]; ok {
		employee.ID = existing.ID
	} else {
		s.nextID++
		employee.ID = s.nextID
	}
	s.byID[employee.EmployeeID] = &employee
	return nil
}
