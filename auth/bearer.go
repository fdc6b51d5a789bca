package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gaborage/dataapi-go/apierror"
	"github.com/gaborage/dataapi-go/logger"
)

const refreshKey = "refresh"

// BearerProvider authenticates with "Authorization: Bearer <token>" and refreshes
// the token before it enters the lookahead window.
type BearerProvider struct {
	mu        sync.RWMutex
	cred      Credential
	cleared   bool
	refresher Refresher
	sfg       singleflight.Group
	now       Clock
	window    time.Duration
	log       logger.Logger
}

// BearerOption customizes a BearerProvider.
type BearerOption func(*BearerProvider)

// WithRefresher configures the refresh mechanism.
func WithRefresher(r Refresher) BearerOption {
	return func(p *BearerProvider) { p.refresher = r }
}

// WithClock overrides the time source.
func WithClock(now Clock) BearerOption {
	return func(p *BearerProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLookahead overrides the lookahead window.
func WithLookahead(window time.Duration) BearerOption {
	return func(p *BearerProvider) {
		if window >= 0 {
			p.window = window
		}
	}
}

// WithLogger sets the logger used to report refreshes.
func WithLogger(l logger.Logger) BearerOption {
	return func(p *BearerProvider) {
		if l != nil {
			p.log = l
		}
	}
}

// NewBearer creates a bearer provider. When the credential names no expiry and
// the access token is a JWT, the expiry is taken from its exp claim.
func NewBearer(cred Credential, opts ...BearerOption) *BearerProvider {
	p := &BearerProvider{
		now:    time.Now,
		window: LookaheadWindow,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.cred = withJWTExpiry(cred)
	return p
}

// Type returns TypeBearer.
func (p *BearerProvider) Type() Type { return TypeBearer }

// Headers returns the Authorization header for the held token.
func (p *BearerProvider) Headers() (map[string]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.cleared {
		return nil, errCleared()
	}
	if p.cred.AccessToken == "" {
		return nil, apierror.NewAuthenticationError("no access token configured", nil)
	}
	return map[string]string{HeaderAuthorization: "Bearer " + p.cred.AccessToken}, nil
}

// EnsureValid refreshes the token when it is inside the lookahead window and a
// refresher is configured. Callers arriving while a refresh is in flight wait for
// it and observe its result; each caller stops waiting when its own ctx ends.
func (p *BearerProvider) EnsureValid(ctx context.Context) error {
	p.mu.RLock()
	cred, cleared := p.cred, p.cleared
	p.mu.RUnlock()

	if cleared {
		return errCleared()
	}
	if p.refresher == nil || !cred.NeedsRefresh(p.now(), p.window) {
		return nil
	}

	// The refresh outlives a single caller's cancellation; other callers may be waiting on it.
	refreshCtx := context.WithoutCancel(ctx)
	ch := p.sfg.DoChan(refreshKey, func() (any, error) {
		return p.refresh(refreshCtx)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return apierror.NewAuthenticationError("waiting for token refresh", ctx.Err())
	}
}

func (p *BearerProvider) refresh(ctx context.Context) (Credential, error) {
	// Double-check after winning the flight; a previous flight may have refreshed already
	p.mu.RLock()
	current, cleared := p.cred, p.cleared
	p.mu.RUnlock()

	if cleared {
		return Credential{}, errCleared()
	}
	if !current.NeedsRefresh(p.now(), p.window) {
		return current, nil
	}

	start := p.now()
	next, err := p.refresher.Refresh(ctx, current)
	if err != nil {
		p.log.Warn().Err(err).Msg("Token refresh failed")
		if apierror.IsKind(err, apierror.KindAuthentication) {
			return Credential{}, err
		}
		return Credential{}, apierror.NewAuthenticationError("token refresh failed", err)
	}
	if next.AccessToken == "" {
		return Credential{}, apierror.NewAuthenticationError("token refresh returned an empty access token", nil)
	}
	if next.RefreshToken == "" {
		next.RefreshToken = current.RefreshToken
	}
	next = withJWTExpiry(next)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cleared {
		return Credential{}, errCleared()
	}
	p.cred = next

	event := p.log.Info().Dur("elapsed", p.now().Sub(start))
	if !next.Expiry.IsZero() {
		event = event.Str("expiry", next.Expiry.UTC().Format(time.RFC3339))
	}
	event.Msg("Token refreshed")
	return next, nil
}

// IsValid reports whether a token is held and is not inside the lookahead window.
func (p *BearerProvider) IsValid() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return !p.cleared && p.cred.Valid(p.now(), p.window)
}

// Clear discards the token. An in-flight refresh completes but its result is dropped.
func (p *BearerProvider) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cred = Credential{}
	p.cleared = true
}

// Credential returns a copy of the held credential.
func (p *BearerProvider) Credential() Credential {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cred
}

// String describes the provider without revealing the token.
func (p *BearerProvider) String() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return fmt.Sprintf("bearer(%s, refreshable=%t, cleared=%t)", p.cred, p.refresher != nil, p.cleared)
}

func errCleared() error {
	return apierror.NewAuthenticationError("credentials have been cleared", nil)
}
