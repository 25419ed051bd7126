package jwttoken

import (
	"github.com/sumithjaya/biometric-auth-backend/internal/platform/middleware"
)

// JWTServiceAdapter exposes JWTService through the middleware.JWTValidator
// interface so the HTTP layer never depends on this package's claim type.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{
		EmployeeID: claims.EmployeeID,
		Name:       claims.Name,
	}, nil
}
