// Package token inspects bearer tokens issued by the platform API.
// The console never verifies signatures (it is not the issuer); it only
// needs the expiry claim to decide when to refresh. A malformed token
// is reported as a decode error, never as an empty claim set.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrMalformed = errors.New("token: malformed bearer token")

// Claims is the subset of JWT claims the console cares about.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

func Decode(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := jwt.MapClaims{}
	_, _, err := parser.ParseUnverified(tokenString, claims)
	if err != nil {
		return nil, ErrMalformed
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrMalformed
	}
	sub, _ := claims.GetSubject()

	return &Claims{Subject: sub, ExpiresAt: exp.Time}, nil
}

// ExpiresWithin reports whether the token expires inside the given
// window (or already has). Decode failures count as expired so a
// corrupt stored token forces a refresh instead of being sent upstream.
func ExpiresWithin(tokenString string, window time.Duration) bool {
	claims, err := Decode(tokenString)
	if err != nil {
		return true
	}
	return time.Until(claims.ExpiresAt) <= window
}
