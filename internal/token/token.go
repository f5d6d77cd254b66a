// Package token reads the claims of the bearer token the backend issues.
// The client never holds the signing key, so claims are informational only.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var ErrMalformed = errors.New("token is not a JWT")

type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

func GetClaims(tokenString string) (Claims, error) {
	registered := &jwt.RegisteredClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(tokenString, registered)
	if err != nil {
		return Claims{}, errors.Join(ErrMalformed, err)
	}

	claims := Claims{Subject: registered.Subject}
	if registered.ExpiresAt != nil {
		claims.ExpiresAt = registered.ExpiresAt.Time
	}
	return claims, nil
}

// Expired reports whether the token carries an expiry that has already passed.
// Tokens without an expiry never expire from the client's point of view.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}
