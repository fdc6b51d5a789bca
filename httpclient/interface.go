package httpclient

import (
	"context"
	"errors"
	nethttp "net/http"
	"time"

	"github.com/gaborage/dataapi-go/trace"
)

const (
	// HeaderXRequestID is the standard header name for request tracing
	HeaderXRequestID = trace.HeaderXRequestID
	// HeaderTraceParent is the W3C trace context header name
	HeaderTraceParent = trace.HeaderTraceParent
	// HeaderTraceState is the W3C trace context "tracestate" header name
	HeaderTraceState = trace.HeaderTraceState

	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	headerUserAgent   = "User-Agent"
	contentTypeJSON   = "application/json"
)

var errMissingHost = errors.New("URL must be absolute")

// Client executes Request descriptors against the DataAPI.
type Client interface {
	// Do runs req through the auth, attempt and retry cycle. On a non-2xx final
	// status both the response and the typed error are returned.
	Do(ctx context.Context, req *Request) (*Response, error)
	Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error)
	Post(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error)
	Put(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error)
	Patch(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error)
	Delete(ctx context.Context, path string, opts ...RequestOption) (*Response, error)
	Head(ctx context.Context, path string, opts ...RequestOption) (*Response, error)
	// Stream delivers the response body to fn chunk by chunk as it arrives.
	// Retries apply only until the response headers are received.
	Stream(ctx context.Context, req *Request, fn func(chunk []byte) error) error
}

// Response is the raw result of the final attempt.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    nethttp.Header
	Stats      Stats

	// url is the redacted absolute URL the response came from.
	url string
}

// Stats contains request execution statistics
type Stats struct {
	// ElapsedTime covers every attempt and retry sleep of the logical call.
	ElapsedTime time.Duration
	// CallCount is the client-wide sequence number of the logical call.
	CallCount int64
	// Attempts is the number of attempts made, including the first.
	Attempts int
}

// NoContent is the result type for calls whose response body is ignored.
type NoContent struct{}

// RequestInterceptor is called before sending each attempt
type RequestInterceptor func(ctx context.Context, req *nethttp.Request) error

// ResponseInterceptor is called after receiving each attempt's response
type ResponseInterceptor func(ctx context.Context, req *nethttp.Request, resp *nethttp.Response) error

// State is the phase of a logical call.
type State string

const (
	StateBuilding       State = "building"
	StateAuthenticating State = "authenticating"
	StateSending        State = "sending"
	StateRetrying       State = "retrying"
	StateSucceeded      State = "succeeded"
	StateFailed         State = "failed"
)

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Trace ID utility functions

// WithTraceID adds a trace ID to the context for HTTP client propagation
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return trace.WithTraceID(ctx, traceID)
}

// TraceIDFromContext returns a trace ID from context if present
func TraceIDFromContext(ctx context.Context) (string, bool) { return trace.IDFromContext(ctx) }

// EnsureTraceID returns an existing trace ID from context or generates a new one
func EnsureTraceID(ctx context.Context) string { return trace.EnsureTraceID(ctx) }

// NewTraceIDInterceptor creates a request interceptor that adds trace ID headers
func NewTraceIDInterceptor() RequestInterceptor {
	return NewTraceIDInterceptorFor(HeaderXRequestID)
}

// NewTraceIDInterceptorFor creates an interceptor that uses a custom header name
func NewTraceIDInterceptorFor(header string) RequestInterceptor {
	if header == "" {
		header = HeaderXRequestID
	}
	return func(ctx context.Context, req *nethttp.Request) error {
		if req.Header.Get(header) == "" {
			req.Header.Set(header, EnsureTraceID(ctx))
		}
		return nil
	}
}
