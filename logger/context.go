package logger

import (
	"context"
	"sync/atomic"
)

// contextKey is the type for context keys to avoid collisions
type contextKey string

const (
	// apiCounterKey is the context key for tracking DataAPI attempts per logical operation
	apiCounterKey contextKey = "api_call_counter"
	// apiElapsedKey is the context key for tracking total DataAPI elapsed time per logical operation
	apiElapsedKey contextKey = "api_elapsed_nanos"
)

// WithAPICounter creates a new context with a DataAPI attempt counter and elapsed time tracker.
// Callers composing several client calls use it to report the total cost of an operation.
func WithAPICounter(ctx context.Context) context.Context {
	counter := int64(0)
	elapsed := int64(0)
	ctx = context.WithValue(ctx, apiCounterKey, &counter)
	ctx = context.WithValue(ctx, apiElapsedKey, &elapsed)
	return ctx
}

// IncrementAPICounter increments the attempt counter in the context
func IncrementAPICounter(ctx context.Context) {
	if counter, ok := ctx.Value(apiCounterKey).(*int64); ok && counter != nil {
		atomic.AddInt64(counter, 1)
	}
}

// GetAPICounter returns the current attempt count from the context
func GetAPICounter(ctx context.Context) int64 {
	if counter, ok := ctx.Value(apiCounterKey).(*int64); ok && counter != nil {
		return atomic.LoadInt64(counter)
	}
	return 0
}

// AddAPIElapsed adds elapsed nanoseconds to the elapsed time in the context
func AddAPIElapsed(ctx context.Context, nanos int64) {
	if elapsed, ok := ctx.Value(apiElapsedKey).(*int64); ok && elapsed != nil {
		atomic.AddInt64(elapsed, nanos)
	}
}

// GetAPIElapsed returns the elapsed time in nanoseconds from the context
func GetAPIElapsed(ctx context.Context) int64 {
	if elapsed, ok := ctx.Value(apiElapsedKey).(*int64); ok && elapsed != nil {
		return atomic.LoadInt64(elapsed)
	}
	return 0
}
