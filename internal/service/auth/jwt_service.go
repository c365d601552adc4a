// Package auth issues and verifies the bearer tokens that protect the API.
package auth

import (
	"context"
	"time"
)

// JWTService defines operations for managing API bearer tokens.
type JWTService interface {
	// GenerateToken creates a signed token for subject, typically the name
	// of the client or operator calling the API.
	GenerateToken(ctx context.Context, subject string) (string, error)

	// ValidateToken validates the provided token string and extracts the claims.
	// Returns the claims if the token is valid, or an error if validation
	// fails (expired, invalid signature, etc.).
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims are the validated contents of a token.
type Claims struct {
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
