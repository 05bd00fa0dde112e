package session

import (
	"errors"
	"time"

	"github.com/dgrijalva/jwt-go"
)

var (
	nowFunc = time.Now // mockable

	errInvalidToken = errors.New("invalid token")
)

// Claims is the subset of the backend's JWT claims the client cares about.
// The client never verifies signatures; that is the server's job. We only
// peek at the payload for display and proactive-refresh decisions.
type Claims struct {
	jwt.StandardClaims
	Username string   `json:"username,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// PeekClaims decodes a JWT payload without verifying its signature.
func PeekClaims(token string) (*Claims, error) {
	claims := new(Claims)
	parser := jwt.Parser{SkipClaimsValidation: true}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, errInvalidToken
	}
	return claims, nil
}

// Expired reports whether the access token's expiry has passed.
// An unparseable or empty token counts as expired.
func Expired(token string) bool {
	claims, err := PeekClaims(token)
	if err != nil {
		return true
	}
	if claims.ExpiresAt == 0 {
		return false
	}
	return nowFunc().After(time.Unix(claims.ExpiresAt, 0))
}
