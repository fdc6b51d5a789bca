package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/dataapi-go/apierror"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func TestBearerHeaders(t *testing.T) {
	p := NewBearer(Credential{AccessToken: "tok"})

	h, err := p.Headers()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Authorization": "Bearer tok"}, h)
	assert.Equal(t, TypeBearer, p.Type())
}

func TestBearerHeadersWithoutToken(t *testing.T) {
	_, err := NewBearer(Credential{}).Headers()
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindAuthentication))
}

func TestBearerValidityLookahead(t *testing.T) {
	tests := []struct {
		name   string
		expiry time.Duration
		valid  bool
	}{
		{name: "expires in 6 minutes", expiry: 6 * time.Minute, valid: true},
		{name: "expires in 4 minutes", expiry: 4 * time.Minute, valid: false},
		{name: "expires exactly at window", expiry: 5 * time.Minute, valid: false},
		{name: "already expired", expiry: -time.Minute, valid: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewBearer(Credential{AccessToken: "tok", Expiry: fixedNow.Add(tt.expiry)}, WithClock(fixedClock))
			assert.Equal(t, tt.valid, p.IsValid())
		})
	}
}

func TestBearerWithoutExpiryIsValid(t *testing.T) {
	p := NewBearer(Credential{AccessToken: "tok"}, WithClock(fixedClock))
	assert.True(t, p.IsValid())
	require.NoError(t, p.EnsureValid(context.Background()))
}

func TestBearerEnsureValidWithoutRefresherIsNoop(t *testing.T) {
	p := NewBearer(Credential{AccessToken: "tok", Expiry: fixedNow.Add(time.Minute)}, WithClock(fixedClock))

	require.NoError(t, p.EnsureValid(context.Background()))
	assert.Equal(t, "tok", p.Credential().AccessToken)
}

func TestBearerEnsureValidRefreshes(t *testing.T) {
	var calls atomic.Int32
	refresher := RefreshFunc(func(_ context.Context, current Credential) (Credential, error) {
		calls.Add(1)
		assert.Equal(t, "refresh-1", current.RefreshToken)
		return Credential{AccessToken: "new", Expiry: fixedNow.Add(time.Hour)}, nil
	})
	p := NewBearer(
		Credential{AccessToken: "old", RefreshToken: "refresh-1", Expiry: fixedNow.Add(4 * time.Minute)},
		WithClock(fixedClock), WithRefresher(refresher),
	)

	require.NoError(t, p.EnsureValid(context.Background()))
	assert.Equal(t, int32(1), calls.Load())

	cred := p.Credential()
	assert.Equal(t, "new", cred.AccessToken)
	assert.Equal(t, "refresh-1", cred.RefreshToken, "refresh token kept when none is returned")
	assert.True(t, p.IsValid())

	// Fresh token: no further refresh
	require.NoError(t, p.EnsureValid(context.Background()))
	assert.Equal(t, int32(1), calls.Load())
}

func TestBearerEnsureValidSkipsFreshToken(t *testing.T) {
	var calls atomic.Int32
	refresher := RefreshFunc(func(context.Context, Credential) (Credential, error) {
		calls.Add(1)
		return Credential{AccessToken: "new"}, nil
	})
	p := NewBearer(Credential{AccessToken: "tok", Expiry: fixedNow.Add(6 * time.Minute)},
		WithClock(fixedClock), WithRefresher(refresher))

	require.NoError(t, p.EnsureValid(context.Background()))
	assert.Zero(t, calls.Load())
}

func TestBearerConcurrentCallersShareOneRefresh(t *testing.T) {
	const callers = 20

	var calls atomic.Int32
	release := make(chan struct{})
	refresher := RefreshFunc(func(context.Context, Credential) (Credential, error) {
		calls.Add(1)
		<-release
		return Credential{AccessToken: "shared", Expiry: fixedNow.Add(time.Hour)}, nil
	})
	p := NewBearer(Credential{AccessToken: "old", Expiry: fixedNow.Add(time.Minute)},
		WithClock(fixedClock), WithRefresher(refresher))

	var wg sync.WaitGroup
	errs := make(chan error, callers)
	started := make(chan struct{}, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started <- struct{}{}
			errs <- p.EnsureValid(context.Background())
		}()
	}
	for range callers {
		<-started
	}
	// Give every goroutine a chance to join the in-flight refresh
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "shared", p.Credential().AccessToken)
}

func TestBearerRefreshFailureIsAuthenticationError(t *testing.T) {
	cause := errors.New("boom")
	p := NewBearer(Credential{AccessToken: "old", Expiry: fixedNow.Add(time.Minute)},
		WithClock(fixedClock),
		WithRefresher(RefreshFunc(func(context.Context, Credential) (Credential, error) {
			return Credential{}, cause
		})))

	err := p.EnsureValid(context.Background())
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindAuthentication))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "old", p.Credential().AccessToken, "failed refresh keeps the previous token")
}

func TestBearerRefreshEmptyTokenFails(t *testing.T) {
	p := NewBearer(Credential{AccessToken: "old", Expiry: fixedNow.Add(time.Minute)},
		WithClock(fixedClock),
		WithRefresher(RefreshFunc(func(context.Context, Credential) (Credential, error) {
			return Credential{}, nil
		})))

	err := p.EnsureValid(context.Background())
	assert.True(t, apierror.IsKind(err, apierror.KindAuthentication))
}

func TestBearerCallerCancellationDoesNotAbortRefresh(t *testing.T) {
	release := make(chan struct{})
	done := make(chan struct{})
	p := NewBearer(Credential{AccessToken: "old", Expiry: fixedNow.Add(time.Minute)},
		WithClock(fixedClock),
		WithRefresher(RefreshFunc(func(ctx context.Context, _ Credential) (Credential, error) {
			defer close(done)
			<-release
			assert.NoError(t, ctx.Err())
			return Credential{AccessToken: "new", Expiry: fixedNow.Add(time.Hour)}, nil
		})))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- p.EnsureValid(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()
	err := <-errCh
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	<-done
	assert.Eventually(t, func() bool { return p.Credential().AccessToken == "new" }, time.Second, 5*time.Millisecond)
}

func TestBearerClear(t *testing.T) {
	p := NewBearer(Credential{AccessToken: "tok", RefreshToken: "r"})
	p.Clear()

	assert.False(t, p.IsValid())
	assert.Empty(t, p.Credential().AccessToken)
	_, err := p.Headers()
	assert.True(t, apierror.IsKind(err, apierror.KindAuthentication))
	assert.True(t, apierror.IsKind(p.EnsureValid(context.Background()), apierror.KindAuthentication))
}

func TestBearerClearDuringRefreshDropsResult(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	p := NewBearer(Credential{AccessToken: "old", Expiry: fixedNow.Add(time.Minute)},
		WithClock(fixedClock),
		WithRefresher(RefreshFunc(func(context.Context, Credential) (Credential, error) {
			close(entered)
			<-release
			return Credential{AccessToken: "new", Expiry: fixedNow.Add(time.Hour)}, nil
		})))

	errCh := make(chan error, 1)
	go func() { errCh <- p.EnsureValid(context.Background()) }()
	<-entered
	p.Clear()
	close(release)

	err := <-errCh
	assert.True(t, apierror.IsKind(err, apierror.KindAuthentication))
	assert.Empty(t, p.Credential().AccessToken)
}

func TestBearerExpiryFromJWT(t *testing.T) {
	exp := fixedNow.Add(3 * time.Minute).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	p := NewBearer(Credential{AccessToken: token}, WithClock(fixedClock))
	assert.True(t, p.Credential().Expiry.Equal(exp))
	assert.False(t, p.IsValid())
}

func TestCredentialStringRedacts(t *testing.T) {
	c := Credential{AccessToken: "secret-access", RefreshToken: "secret-refresh"}
	assert.NotContains(t, c.String(), "secret")
	assert.NotContains(t, NewBearer(c).String(), "secret")
}

func TestTokenResponseCredential(t *testing.T) {
	c := TokenResponse{AccessToken: "a", RefreshToken: "r", ExpiresIn: 3600}.Credential(fixedNow)
	assert.Equal(t, "a", c.AccessToken)
	assert.Equal(t, "r", c.RefreshToken)
	assert.Equal(t, fixedNow.Add(time.Hour), c.Expiry)

	assert.True(t, TokenResponse{AccessToken: "a"}.Credential(fixedNow).Expiry.IsZero())
}
