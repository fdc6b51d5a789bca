package auth

import (
	"context"
	"time"
)

// Type names an authentication scheme.
type Type string

const (
	TypeBearer Type = "bearer"
	TypeAPIKey Type = "apikey"
	TypeBasic  Type = "basic"
	TypeCustom Type = "custom"
)

const (
	// HeaderAuthorization is the standard authorization header
	HeaderAuthorization = "Authorization"
	// DefaultAPIKeyHeader is the header used for API keys when none is configured
	DefaultAPIKeyHeader = "X-API-Key"
)

// Provider supplies authentication headers for outgoing requests.
// Implementations are safe for concurrent use.
type Provider interface {
	// Type returns the scheme implemented by the provider.
	Type() Type
	// Headers returns the headers to merge into every outgoing request.
	// It fails with an authentication error once the provider has been cleared.
	Headers() (map[string]string, error)
	// EnsureValid refreshes the held credential when it is inside the lookahead
	// window and a refresh mechanism is configured. Concurrent callers share a
	// single refresh.
	EnsureValid(ctx context.Context) error
	// IsValid reports whether usable credentials are held.
	IsValid() bool
	// Clear discards credential material.
	Clear()
}

// Refresher obtains a new credential from the current one.
type Refresher interface {
	Refresh(ctx context.Context, current Credential) (Credential, error)
}

// RefreshFunc adapts a function to the Refresher interface.
type RefreshFunc func(ctx context.Context, current Credential) (Credential, error)

// Refresh calls f(ctx, current).
func (f RefreshFunc) Refresh(ctx context.Context, current Credential) (Credential, error) {
	return f(ctx, current)
}

// Clock returns the current time.
type Clock func() time.Time
