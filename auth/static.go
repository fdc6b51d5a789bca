package auth

import (
	"context"
	"encoding/base64"
	"maps"
	"sync"

	"github.com/gaborage/dataapi-go/apierror"
)

// StaticProvider supplies fixed headers. It backs the API key, basic and custom
// schemes, none of which expire.
type StaticProvider struct {
	mu      sync.RWMutex
	kind    Type
	headers map[string]string
}

// NewAPIKey authenticates with key sent in header. An empty header selects
// DefaultAPIKeyHeader.
func NewAPIKey(key, header string) *StaticProvider {
	if header == "" {
		header = DefaultAPIKeyHeader
	}
	return newStatic(TypeAPIKey, map[string]string{header: key})
}

// NewBasic authenticates with HTTP basic credentials.
func NewBasic(username, password string) *StaticProvider {
	encoded := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return newStatic(TypeBasic, map[string]string{HeaderAuthorization: "Basic " + encoded})
}

// NewCustom sends the given headers verbatim.
func NewCustom(headers map[string]string) *StaticProvider {
	return newStatic(TypeCustom, headers)
}

func newStatic(kind Type, headers map[string]string) *StaticProvider {
	h := make(map[string]string, len(headers))
	for k, v := range headers {
		if k != "" && v != "" {
			h[k] = v
		}
	}
	return &StaticProvider{kind: kind, headers: h}
}

// Type returns the scheme the provider was created for.
func (p *StaticProvider) Type() Type { return p.kind }

// Headers returns a copy of the configured headers.
func (p *StaticProvider) Headers() (map[string]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.headers == nil {
		return nil, errCleared()
	}
	if len(p.headers) == 0 {
		return nil, apierror.NewAuthenticationError("no "+string(p.kind)+" credentials configured", nil)
	}
	return maps.Clone(p.headers), nil
}

// EnsureValid is a no-op; static credentials never need refreshing.
func (p *StaticProvider) EnsureValid(context.Context) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.headers == nil {
		return errCleared()
	}
	return nil
}

// IsValid reports whether any header is configured.
func (p *StaticProvider) IsValid() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.headers) > 0
}

// Clear discards the headers.
func (p *StaticProvider) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.headers = nil
}
