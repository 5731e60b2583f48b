// Package auth issues and validates the HS256 session tokens terminals
// receive in exchange for the provisioning secret.
package auth

import (
	"time"

	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims extends the registered claims with the terminal identifier the
// token was issued to.
type Claims struct {
	jwt.RegisteredClaims
	TerminalID string
}

func GenerateToken(terminalID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		TerminalID: terminalID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func GetTerminalIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return "", err
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	return claims.TerminalID, nil
}
