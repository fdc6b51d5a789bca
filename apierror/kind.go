// Package apierror defines the typed error taxonomy returned by every DataAPI call.
// A single *Error type carries a Kind discriminant plus the diagnostic payload
// captured from the failed exchange.
package apierror

// Kind is the discriminant of an Error.
type Kind string

const (
	KindNetwork        Kind = "network"
	KindTimeout        Kind = "timeout"
	KindAuthentication Kind = "authentication"
	KindAuthorization  Kind = "authorization"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindValidation     Kind = "validation"
	KindRateLimit      Kind = "rate_limit"
	KindServer         Kind = "server"
	KindDecode         Kind = "decode"
	// KindUnexpected covers statuses outside every other bucket (400 without a
	// structured body, 1xx, 3xx).
	KindUnexpected Kind = "unexpected"
)

// Retryable reports whether failures of this kind are transient.
func (k Kind) Retryable() bool {
	switch k {
	case KindNetwork, KindTimeout, KindRateLimit, KindServer:
		return true
	default:
		return false
	}
}

// String returns the stable wire name of k.
func (k Kind) String() string {
	return string(k)
}
