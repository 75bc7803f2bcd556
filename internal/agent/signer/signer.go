// Package signer holds the operator session used to authorize transaction
// submission. The session token is a JWT carrying the signing account
// address and gardener id; it is validated locally before any job is
// processed, so an expired session fails fast instead of burning a
// submission attempt.
package signer

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/verdantlabs/gardensync/internal/common"
)

// Claims extends the registered JWT claims with the fields the relayer
// issues at login.
type Claims struct {
	jwt.RegisteredClaims
	Account    string `json:"acct"`
	GardenerID string `json:"gid"`
}

// Session is a validated operator session.
type Session struct {
	Token      string
	Account    string
	GardenerID string
	ExpiresAt  time.Time
}

// Valid reports whether the session can still sign at the given instant.
func (s *Session) Valid(now time.Time) bool {
	return s != nil && now.Before(s.ExpiresAt)
}

// ParseSession validates a session token against the shared secret and
// extracts the signing identity.
func ParseSession(tokenString string, secretKey []byte) (*Session, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}
	if claims.Account == "" {
		return nil, common.ErrInvalidToken
	}

	s := &Session{
		Token:      tokenString,
		Account:    claims.Account,
		GardenerID: claims.GardenerID,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// GenerateToken mints a session token; used by tests and local development
// against a stub relayer.
func GenerateToken(account, gardenerID string, secretKey []byte, validity time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validity)),
		},
		Account:    account,
		GardenerID: gardenerID,
	})
	return token.SignedString(secretKey)
}
