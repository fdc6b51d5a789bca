package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// Error is the classified representation of any failed DataAPI call.
// It is immutable once built; accessors return copies of slice and map fields.
type Error struct {
	kind         Kind
	message      string
	status       int
	code         string
	requestID    string
	body         []byte
	cause        error
	details      map[string]any
	field        string
	rules        []string
	resourceType string
	resourceID   string
	retryAfter   time.Duration
	hasRetry     bool
	noRetry      bool
	timeout      time.Duration
	method       string
	url          string
}

// Option customizes an Error at construction time.
type Option func(*Error)

// WithStatus records the HTTP status of the failed exchange.
func WithStatus(status int) Option {
	return func(e *Error) { e.status = status }
}

// WithCode records a machine-readable error code supplied by the server.
func WithCode(code string) Option {
	return func(e *Error) { e.code = code }
}

// WithRequestID records the request identifier echoed by the server.
func WithRequestID(id string) Option {
	return func(e *Error) { e.requestID = id }
}

// WithBody records the raw response body.
func WithBody(body []byte) Option {
	return func(e *Error) { e.body = slices.Clone(body) }
}

// WithCause wraps a lower-level error.
func WithCause(cause error) Option {
	return func(e *Error) { e.cause = cause }
}

// WithDetails records the structured details object of an error body.
func WithDetails(details map[string]any) Option {
	return func(e *Error) { e.details = maps.Clone(details) }
}

// WithField records the offending field of a validation failure.
func WithField(field string) Option {
	return func(e *Error) { e.field = field }
}

// WithRules records the violated validation rule tags.
func WithRules(rules ...string) Option {
	return func(e *Error) { e.rules = slices.Clone(rules) }
}

// WithResource records the resource type and identifier of a not-found failure.
func WithResource(resourceType, resourceID string) Option {
	return func(e *Error) {
		e.resourceType = resourceType
		e.resourceID = resourceID
	}
}

// WithRetryAfter records the server-requested wait before the next attempt.
// Zero is a valid request to retry immediately.
func WithRetryAfter(d time.Duration) Option {
	return func(e *Error) {
		e.retryAfter = d
		e.hasRetry = true
	}
}

// WithoutRetry marks a failure of an otherwise transient kind as final.
func WithoutRetry() Option {
	return func(e *Error) { e.noRetry = true }
}

// WithTimeout records the deadline that expired.
func WithTimeout(d time.Duration) Option {
	return func(e *Error) { e.timeout = d }
}

// WithRequest records the method and URL of the call. The URL must not carry credentials.
func WithRequest(method, url string) Option {
	return func(e *Error) {
		e.method = method
		e.url = url
	}
}

// New builds an Error of the given kind.
func New(kind Kind, message string, opts ...Option) *Error {
	e := &Error{kind: kind, message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewNetworkError creates an error for a call that never obtained a response.
func NewNetworkError(message string, cause error) *Error {
	return New(KindNetwork, message, WithCause(cause))
}

// NewTimeoutError creates an error for a call whose deadline expired.
func NewTimeoutError(message string, timeout time.Duration, cause error) *Error {
	return New(KindTimeout, message, WithTimeout(timeout), WithCause(cause))
}

// NewAuthenticationError creates an error for missing, cleared or unrefreshable credentials.
func NewAuthenticationError(message string, cause error) *Error {
	return New(KindAuthentication, message, WithCause(cause))
}

// NewValidationError creates an error for a request rejected before or by the server.
func NewValidationError(message, field string, rules ...string) *Error {
	return New(KindValidation, message, WithField(field), WithRules(rules...))
}

// NewDecodeError creates an error for a successful response whose body could not be decoded.
func NewDecodeError(message string, status int, body []byte, cause error) *Error {
	return New(KindDecode, message, WithStatus(status), WithBody(body), WithCause(cause))
}

// Error formats the kind, status and message.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.kind))
	b.WriteString(" error: ")
	b.WriteString(e.message)
	if e.status != 0 {
		fmt.Fprintf(&b, " (status: %d)", e.status)
	}
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.cause }

// Kind returns the error discriminant.
func (e *Error) Kind() Kind { return e.kind }

// Message returns the human readable message.
func (e *Error) Message() string { return e.message }

// StatusCode returns the HTTP status, 0 when no response was obtained.
func (e *Error) StatusCode() int { return e.status }

// Code returns the server supplied error code, if any.
func (e *Error) Code() string { return e.code }

// RequestID returns the request identifier echoed by the server, if any.
func (e *Error) RequestID() string { return e.requestID }

// Body returns a copy of the raw response body.
func (e *Error) Body() []byte { return slices.Clone(e.body) }

// Details returns a copy of the structured details object.
func (e *Error) Details() map[string]any { return maps.Clone(e.details) }

// Field returns the offending field of a validation error.
func (e *Error) Field() string { return e.field }

// Rules returns the violated rule tags of a validation error.
func (e *Error) Rules() []string { return slices.Clone(e.rules) }

// ResourceType returns the resource collection of a not-found error.
func (e *Error) ResourceType() string { return e.resourceType }

// ResourceID returns the resource identifier of a not-found error.
func (e *Error) ResourceID() string { return e.resourceID }

// RetryAfter returns the server-requested delay of a rate-limit error.
func (e *Error) RetryAfter() time.Duration { return e.retryAfter }

// HasRetryAfter reports whether a delay was supplied, including an explicit zero.
func (e *Error) HasRetryAfter() bool { return e.hasRetry }

// Timeout returns the expired deadline of a timeout error.
func (e *Error) Timeout() time.Duration { return e.timeout }

// Method returns the HTTP method of the failed call.
func (e *Error) Method() string { return e.method }

// URL returns the URL of the failed call.
func (e *Error) URL() string { return e.url }

// Retryable reports whether the failure is transient.
func (e *Error) Retryable() bool { return e.kind.Retryable() && !e.noRetry }

// ToMap returns a structured diagnostic form suitable for logging or JSON output.
// Empty attributes are omitted.
func (e *Error) ToMap() map[string]any {
	m := map[string]any{
		"kind":      string(e.kind),
		"message":   e.message,
		"retryable": e.Retryable(),
	}
	setIf := func(key string, ok bool, v any) {
		if ok {
			m[key] = v
		}
	}
	setIf("status", e.status != 0, e.status)
	setIf("code", e.code != "", e.code)
	setIf("requestId", e.requestID != "", e.requestID)
	setIf("body", len(e.body) > 0, string(e.body))
	setIf("cause", e.cause != nil, errString(e.cause))
	setIf("details", len(e.details) > 0, maps.Clone(e.details))
	setIf("field", e.field != "", e.field)
	setIf("rules", len(e.rules) > 0, slices.Clone(e.rules))
	setIf("resourceType", e.resourceType != "", e.resourceType)
	setIf("resourceId", e.resourceID != "", e.resourceID)
	setIf("retryAfterSeconds", e.hasRetry, e.retryAfter.Seconds())
	setIf("timeoutMs", e.timeout > 0, e.timeout.Milliseconds())
	setIf("method", e.method != "", e.method)
	setIf("url", e.url != "", e.url)
	return m
}

// MarshalJSON encodes the diagnostic form.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ToMap())
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// As extracts the *Error from an error chain.
func As(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// KindOf returns the kind of the first *Error in the chain, or "" when there is none.
func KindOf(err error) Kind {
	if apiErr, ok := As(err); ok {
		return apiErr.kind
	}
	return ""
}

// IsKind checks if an error is a DataAPI error of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsRetryable reports whether err is a DataAPI error of a transient kind.
func IsRetryable(err error) bool {
	apiErr, ok := As(err)
	return ok && apiErr.Retryable()
}

// IsStatus checks if an error is a DataAPI error carrying the given HTTP status.
func IsStatus(err error, status int) bool {
	apiErr, ok := As(err)
	return ok && apiErr.status == status
}
