// Package trace carries request identifiers and W3C trace context for outbound DataAPI calls.
package trace

import (
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/google/uuid"
)

// contextKey is the type for context keys to avoid collisions
type contextKey string

const (
	traceIDKey     contextKey = "trace_id"
	traceParentKey contextKey = "traceparent"
	traceStateKey  contextKey = "tracestate"

	// HeaderXRequestID is the header carrying the request identifier
	HeaderXRequestID = "X-Request-ID"
	// HeaderTraceParent is the W3C trace context header name
	HeaderTraceParent = "traceparent"
	// HeaderTraceState is the W3C trace context "tracestate" header name
	HeaderTraceState = "tracestate"
)

// WithTraceID adds a request identifier to the context
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// IDFromContext returns the request identifier from context if present
func IDFromContext(ctx context.Context) (string, bool) {
	if traceID, ok := ctx.Value(traceIDKey).(string); ok && traceID != "" {
		return traceID, true
	}
	return "", false
}

// NewID generates a fresh request identifier.
func NewID() string {
	return uuid.NewString()
}

// EnsureTraceID returns the identifier stored in ctx or a fresh one.
func EnsureTraceID(ctx context.Context) string {
	if traceID, ok := IDFromContext(ctx); ok {
		return traceID
	}
	return NewID()
}

// WithTraceParent adds a W3C traceparent value to the context
func WithTraceParent(ctx context.Context, traceParent string) context.Context {
	return context.WithValue(ctx, traceParentKey, traceParent)
}

// ParentFromContext returns a traceparent from context if present
func ParentFromContext(ctx context.Context) (string, bool) {
	if tp, ok := ctx.Value(traceParentKey).(string); ok && tp != "" {
		return tp, true
	}
	return "", false
}

// WithTraceState adds a W3C tracestate value to the context
func WithTraceState(ctx context.Context, traceState string) context.Context {
	return context.WithValue(ctx, traceStateKey, traceState)
}

// StateFromContext returns a tracestate from context if present
func StateFromContext(ctx context.Context) (string, bool) {
	if ts, ok := ctx.Value(traceStateKey).(string); ok && ts != "" {
		return ts, true
	}
	return "", false
}

// Inject writes the W3C trace context held by ctx into h. Headers already
// present are left alone. It reports whether a traceparent was written.
func Inject(ctx context.Context, h http.Header) bool {
	if h.Get(HeaderTraceParent) != "" {
		return false
	}
	tp, ok := ParentFromContext(ctx)
	if !ok {
		return false
	}
	h.Set(HeaderTraceParent, tp)
	if ts, ok := StateFromContext(ctx); ok && h.Get(HeaderTraceState) == "" {
		h.Set(HeaderTraceState, ts)
	}
	return true
}

// GenerateTraceParent creates a minimal W3C traceparent header value.
// Format: version(2)-trace-id(32)-span-id(16)-flags(2), e.g., "00-<32>-<16>-01"
func GenerateTraceParent() string {
	traceID := randomNonZero(16)
	spanID := randomNonZero(8)
	return "00-" + hex.EncodeToString(traceID) + "-" + hex.EncodeToString(spanID) + "-01"
}

// randomNonZero returns n random bytes; an all-zero id is invalid in W3C trace context.
func randomNonZero(n int) []byte {
	b := make([]byte, n)
	if _, err := crand.Read(b); err != nil {
		clear(b)
	}
	for _, v := range b {
		if v != 0 {
			return b
		}
	}
	b[n-1] = 0x01
	return b
}
