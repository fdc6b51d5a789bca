package apierror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// HeaderRequestID is the header the server uses to echo the request identifier.
const HeaderRequestID = "X-Request-ID"

// MaxRetryAfter caps server supplied delays.
const MaxRetryAfter = 24 * time.Hour

// Input is everything Classify needs to know about one failed attempt.
type Input struct {
	// Status is the HTTP status, 0 when no response was obtained.
	Status int
	Header http.Header
	Body   []byte
	// Cause is the transport or decode error, if any.
	Cause  error
	Method string
	// URL is the absolute request URL, used for diagnostics only.
	URL string
	// Path is the request path relative to the base URL, used to derive resource type and id.
	Path string
	// Timeout is the per-call deadline in effect.
	Timeout time.Duration
	// DefaultRetryAfter is used for 429 responses that name no delay.
	DefaultRetryAfter time.Duration
	// Now anchors HTTP-date Retry-After values; zero means time.Now.
	Now time.Time
}

// errorBody is the structured error object returned by the server.
type errorBody struct {
	Message         string          `json:"message"`
	Error           string          `json:"error"`
	Code            json.RawMessage `json:"code"`
	ErrorCode       string          `json:"error_code"`
	Field           string          `json:"field"`
	RequestID       string          `json:"requestId"`
	RequestIDSnake  string          `json:"request_id"`
	Details         map[string]any  `json:"details"`
	Errors          []fieldError    `json:"errors"`
	RetryAfter      *float64        `json:"retryAfter"`
	RetryAfterSnake *float64        `json:"retry_after"`
}

type fieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Classify maps the outcome of one attempt to a typed Error. The mapping is
// evaluated in a fixed order: no response, timeout, 401, 403, 404, 409,
// validation, 429, 5xx, then decode or unexpected.
func Classify(in Input) *Error {
	base := []Option{WithRequest(in.Method, in.URL)}

	if in.Status == 0 {
		if IsTimeout(in.Cause) {
			return New(KindTimeout, "request timed out", append(base, WithTimeout(in.Timeout), WithCause(in.Cause))...)
		}
		return New(KindNetwork, "no response received", append(base, WithCause(in.Cause))...)
	}

	parsed, structured := parseBody(in.Body)
	message := parsed.message(in.Status)
	requestID := in.Header.Get(HeaderRequestID)
	if requestID == "" {
		requestID = parsed.requestID()
	}
	base = append(base,
		WithStatus(in.Status),
		WithBody(in.Body),
		WithRequestID(requestID),
		WithCode(parsed.code()),
		WithDetails(parsed.Details),
	)
	if in.Cause != nil {
		base = append(base, WithCause(in.Cause))
	}

	switch {
	case in.Status == http.StatusUnauthorized:
		return New(KindAuthentication, message, base...)
	case in.Status == http.StatusForbidden:
		return New(KindAuthorization, message, base...)
	case in.Status == http.StatusNotFound:
		resourceType, resourceID := ResourceFromPath(in.Path)
		return New(KindNotFound, message, append(base, WithResource(resourceType, resourceID))...)
	case in.Status == http.StatusConflict:
		return New(KindConflict, message, base...)
	case in.Status == http.StatusUnprocessableEntity,
		in.Status >= 400 && in.Status < 500 && in.Status != http.StatusTooManyRequests && structured && parsed.hasValidation():
		field, rules := parsed.validation()
		return New(KindValidation, message, append(base, WithField(field), WithRules(rules...))...)
	case in.Status == http.StatusTooManyRequests:
		if d, ok := retryAfter(in, parsed); ok {
			base = append(base, WithRetryAfter(d))
		}
		return New(KindRateLimit, message, base...)
	case in.Status >= 500 && in.Status < 600:
		return New(KindServer, message, base...)
	case in.Status >= 200 && in.Status < 300:
		return New(KindDecode, "failed to decode response body", base...)
	default:
		return New(KindUnexpected, message, base...)
	}
}

// IsTimeout reports whether err is a transport-level timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// ResourceFromPath derives the resource collection and identifier from the last
// two segments of a request path, e.g. "/api/workflows/42" yields ("workflows", "42").
func ResourceFromPath(path string) (resourceType, resourceID string) {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	segments := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	if len(segments) < 2 {
		return "", ""
	}
	id, err := url.PathUnescape(segments[len(segments)-1])
	if err != nil {
		id = segments[len(segments)-1]
	}
	return segments[len(segments)-2], id
}

// ParseRetryAfter parses a Retry-After header value given in seconds or as an
// HTTP-date. Values beyond MaxRetryAfter are capped.
func ParseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		if secs < 0 {
			return 0, false
		}
		if secs > int64(MaxRetryAfter/time.Second) {
			return MaxRetryAfter, true
		}
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(value); err == nil {
		if now.IsZero() {
			now = time.Now()
		}
		d := min(max(t.Sub(now), 0), MaxRetryAfter)
		return d, true
	}
	return 0, false
}

// retryAfter prefers the header, then the body, then the configured default.
// It reports false when none of them names a delay.
func retryAfter(in Input, body errorBody) (time.Duration, bool) {
	if d, ok := ParseRetryAfter(in.Header.Get("Retry-After"), in.Now); ok {
		return d, true
	}
	for _, secs := range []*float64{body.RetryAfter, body.RetryAfterSnake} {
		if secs != nil && *secs >= 0 {
			if *secs >= MaxRetryAfter.Seconds() {
				return MaxRetryAfter, true
			}
			return time.Duration(*secs * float64(time.Second)), true
		}
	}
	if in.DefaultRetryAfter > 0 {
		return in.DefaultRetryAfter, true
	}
	return 0, false
}

func parseBody(body []byte) (errorBody, bool) {
	var parsed errorBody
	if len(body) == 0 {
		return parsed, false
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return errorBody{}, false
	}
	return parsed, true
}

func (b errorBody) message(status int) string {
	switch {
	case b.Message != "":
		return b.Message
	case b.Error != "":
		return b.Error
	}
	if text := http.StatusText(status); text != "" {
		return fmt.Sprintf("HTTP %d %s", status, strings.ToLower(text))
	}
	return fmt.Sprintf("HTTP %d error", status)
}

// code accepts both string and numeric codes.
func (b errorBody) code() string {
	if len(b.Code) > 0 {
		var s string
		if err := json.Unmarshal(b.Code, &s); err == nil {
			return s
		}
		var n json.Number
		if err := json.Unmarshal(b.Code, &n); err == nil {
			return n.String()
		}
	}
	return b.ErrorCode
}

func (b errorBody) requestID() string {
	if b.RequestID != "" {
		return b.RequestID
	}
	return b.RequestIDSnake
}

func (b errorBody) hasValidation() bool {
	return b.Field != "" || len(b.Errors) > 0
}

func (b errorBody) validation() (string, []string) {
	field := b.Field
	var rules []string
	for _, fe := range b.Errors {
		if field == "" {
			field = fe.Field
		}
		switch {
		case fe.Rule != "":
			rules = append(rules, fe.Rule)
		case fe.Code != "":
			rules = append(rules, fe.Code)
		}
	}
	return field, rules
}
