package services

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/server/auth"
)

// AuthService exchanges the provisioning secret for a session token.
type AuthService struct {
	sharedSecret  string
	jwtSecret     []byte
	tokenValidity time.Duration
}

func NewAuthService(sharedSecret, jwtSecret string, tokenValidity time.Duration) *AuthService {
	return &AuthService{
		sharedSecret:  sharedSecret,
		jwtSecret:     []byte(jwtSecret),
		tokenValidity: tokenValidity,
	}
}

// Login validates the provisioning secret and issues a token carrying the
// terminal name. The comparison is constant time.
func (s *AuthService) Login(ctx context.Context, terminal, secret string) (string, error) {
	if terminal == "" {
		return "", common.ErrorUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(s.sharedSecret)) != 1 {
		return "", common.ErrorUnauthorized
	}
	return auth.GenerateToken(terminal, s.jwtSecret, s.tokenValidity)
}

// Verify parses a bearer token and returns the terminal it was issued to.
func (s *AuthService) Verify(ctx context.Context, token string) (string, error) {
	terminalID, err := auth.GetTerminalIDFromToken(token, s.jwtSecret)
	if err != nil {
		return "", common.ErrorUnauthorized
	}
	return terminalID, nil
}
