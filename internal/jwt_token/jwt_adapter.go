package jwttoken

import (
	"driveflow/internal/platform/middleware"
)

// ToMiddlewareClaims maps token claims onto the middleware's claim shape.
func ToMiddlewareClaims(claims *Claims) *middleware.JWTClaims {
	return &middleware.JWTClaims{
		PartyID: claims.PartyID,
		Role:    claims.Role,
	}
}

// JWTServiceAdapter adapts JWTService to the middleware.JWTValidator
// interface.
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
	return ToMiddlewareClaims(claims), nil
}
