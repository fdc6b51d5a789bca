package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ExpiryFromJWT reads the exp claim of a JWT without verifying its signature.
// The client only needs to know when to refresh; the server validates the token.
func ExpiryFromJWT(token string) (time.Time, bool) {
	if strings.Count(token, ".") != 2 {
		return time.Time{}, false
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

func withJWTExpiry(c Credential) Credential {
	if !c.Expiry.IsZero() || c.AccessToken == "" {
		return c
	}
	if exp, ok := ExpiryFromJWT(c.AccessToken); ok {
		c.Expiry = exp
	}
	return c
}
