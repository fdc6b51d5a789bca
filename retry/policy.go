// Package retry decides whether a failed DataAPI attempt is retried and how long
// to wait before the next one.
package retry

import (
	crand "crypto/rand"
	"math"
	"math/big"
	"time"

	"github.com/gaborage/dataapi-go/apierror"
)

const (
	// DefaultMaxRetries is the default number of retries after the first attempt
	DefaultMaxRetries = 3

	// DefaultBaseDelay is the default delay before the first retry
	DefaultBaseDelay = 1 * time.Second

	// maxShift caps the exponent so the multiplier cannot overflow
	maxShift = 30
)

// Policy is an exponential backoff retry policy.
// The zero value never retries; use NewPolicy for the defaults.
type Policy struct {
	// MaxRetries is the number of retries allowed after the first attempt.
	MaxRetries int
	// BaseDelay is the delay before retry 0; retry n waits BaseDelay * 2^n.
	BaseDelay time.Duration
	// MaxDelay caps the computed backoff when positive. A server supplied
	// Retry-After is never capped.
	MaxDelay time.Duration
	// Jitter draws the delay uniformly from [0, backoff) when enabled.
	Jitter bool
	// DefaultRetryAfter is used for 429 responses that name no delay.
	DefaultRetryAfter time.Duration
}

// NewPolicy returns a policy with the default retry count and base delay.
func NewPolicy() Policy {
	return Policy{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
	}
}

// ShouldRetry reports whether the call that just failed with err at attemptIndex
// (0 for the first try) gets another attempt.
func (p Policy) ShouldRetry(attemptIndex int, err error) bool {
	if attemptIndex < 0 || attemptIndex >= p.MaxRetries {
		return false
	}
	return apierror.IsRetryable(err)
}

// ShouldRetryRequest applies ShouldRetry and additionally refuses non-idempotent
// requests so a transient failure cannot duplicate a side effect.
func (p Policy) ShouldRetryRequest(attemptIndex int, err error, idempotent bool) bool {
	return idempotent && p.ShouldRetry(attemptIndex, err)
}

// DelayBefore returns the wait before the retry that follows attemptIndex.
// A rate limit error carrying a server supplied delay wins over the backoff,
// even when that delay is zero.
func (p Policy) DelayBefore(attemptIndex int, err error) time.Duration {
	if apiErr, ok := apierror.As(err); ok && apiErr.Kind() == apierror.KindRateLimit && apiErr.HasRetryAfter() {
		return apiErr.RetryAfter()
	}
	return p.Backoff(attemptIndex)
}

// Backoff returns BaseDelay * 2^attemptIndex, capped by MaxDelay and jittered when enabled.
func (p Policy) Backoff(attemptIndex int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	if attemptIndex < 0 {
		attemptIndex = 0
	}
	if attemptIndex > maxShift {
		attemptIndex = maxShift
	}

	d := p.BaseDelay * time.Duration(1<<attemptIndex)
	if d/time.Duration(1<<attemptIndex) != p.BaseDelay {
		d = time.Duration(math.MaxInt64)
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if !p.Jitter {
		return d
	}

	n, err := crand.Int(crand.Reader, big.NewInt(int64(d)))
	if err != nil {
		// On RNG failure, fall back to the full delay
		return d
	}
	return time.Duration(n.Int64())
}
