// Package auth provides the authentication providers the DataAPI client consults
// before every attempt: bearer tokens with proactive refresh, API keys, HTTP basic
// credentials and arbitrary static headers.
package auth

import (
	"fmt"
	"time"
)

// LookaheadWindow is how long before expiry a token is treated as invalid.
// Refreshing early keeps a token from expiring while the request is in transit.
const LookaheadWindow = 5 * time.Minute

// Credential is the token material held by a bearer provider.
// A zero Expiry means the token never expires.
type Credential struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// NeedsRefresh reports whether now falls inside the lookahead window of the expiry.
func (c Credential) NeedsRefresh(now time.Time, window time.Duration) bool {
	if c.Expiry.IsZero() {
		return false
	}
	return !now.Add(window).Before(c.Expiry)
}

// Valid reports whether a token is present and not inside the lookahead window.
func (c Credential) Valid(now time.Time, window time.Duration) bool {
	return c.AccessToken != "" && !c.NeedsRefresh(now, window)
}

// String returns a redacted description safe for logs.
func (c Credential) String() string {
	expiry := "never"
	if !c.Expiry.IsZero() {
		expiry = c.Expiry.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("credential(access=%s, refresh=%s, expiry=%s)",
		redact(c.AccessToken), redact(c.RefreshToken), expiry)
}

// GoString keeps %#v from printing the token.
func (c Credential) GoString() string {
	return c.String()
}

func redact(s string) string {
	if s == "" {
		return "none"
	}
	return "***"
}

// TokenResponse is the body returned by the DataAPI token endpoint.
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	TokenType    string `json:"tokenType,omitempty"`
	// ExpiresIn is the token lifetime in seconds; 0 means no expiry was given.
	ExpiresIn int64 `json:"expiresIn,omitempty"`
}

// Credential converts the response into a Credential anchored at now.
func (r TokenResponse) Credential(now time.Time) Credential {
	c := Credential{AccessToken: r.AccessToken, RefreshToken: r.RefreshToken}
	if r.ExpiresIn > 0 {
		c.Expiry = now.Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	return c
}
