package httpclient

import (
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

// QueryParam is one query string entry. Order is preserved on the wire.
type QueryParam struct {
	Key   string
	Value string
}

// Request describes one logical call. It is immutable once built; accessors
// return copies.
type Request struct {
	method     string
	path       string
	query      []QueryParam
	headers    map[string]string
	body       any
	hasBody    bool
	timeout    time.Duration
	idempotent *bool
}

// RequestOption configures a Request under construction.
type RequestOption func(*Request)

// NewRequest builds a descriptor for method and path. The path is relative to
// the client's base URL.
func NewRequest(method, path string, opts ...RequestOption) *Request {
	r := &Request{
		method:  strings.ToUpper(method),
		path:    path,
		headers: make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithQuery appends a query parameter.
func WithQuery(key, value string) RequestOption {
	return func(r *Request) {
		r.query = append(r.query, QueryParam{Key: key, Value: value})
	}
}

// WithQueryInt appends an integer query parameter.
func WithQueryInt(key string, value int) RequestOption {
	return WithQuery(key, strconv.Itoa(value))
}

// WithQueryParams appends several query parameters in order.
func WithQueryParams(params ...QueryParam) RequestOption {
	return func(r *Request) {
		r.query = append(r.query, params...)
	}
}

// WithPage appends the zero-based page and size parameters used by collection endpoints.
func WithPage(page, size int) RequestOption {
	return func(r *Request) {
		r.query = append(r.query,
			QueryParam{Key: "page", Value: strconv.Itoa(page)},
			QueryParam{Key: "size", Value: strconv.Itoa(size)},
		)
	}
}

// WithHeader sets a header override for this request only.
func WithHeader(key, value string) RequestOption {
	return func(r *Request) {
		r.headers[http.CanonicalHeaderKey(key)] = value
	}
}

// WithBody sets the value serialized as the JSON request body.
func WithBody(body any) RequestOption {
	return func(r *Request) {
		r.body = body
		r.hasBody = body != nil
	}
}

// WithTimeout overrides the client timeout for each attempt of this request.
func WithTimeout(d time.Duration) RequestOption {
	return func(r *Request) {
		r.timeout = d
	}
}

// AllowRetry marks the request as safe to retry regardless of its method.
func AllowRetry() RequestOption {
	return func(r *Request) {
		v := true
		r.idempotent = &v
	}
}

// NoRetry marks the request as unsafe to retry regardless of its method.
func NoRetry() RequestOption {
	return func(r *Request) {
		v := false
		r.idempotent = &v
	}
}

// Method returns the HTTP method.
func (r *Request) Method() string { return r.method }

// Path returns the path relative to the base URL.
func (r *Request) Path() string { return r.path }

// Query returns a copy of the query parameters.
func (r *Request) Query() []QueryParam { return slices.Clone(r.query) }

// Headers returns a copy of the header overrides.
func (r *Request) Headers() map[string]string { return maps.Clone(r.headers) }

// Body returns the value to serialize and whether one was set.
func (r *Request) Body() (any, bool) { return r.body, r.hasBody }

// Timeout returns the per-call timeout override, 0 when unset.
func (r *Request) Timeout() time.Duration { return r.timeout }

// Idempotent reports whether the request may be retried. GET, HEAD, PUT,
// DELETE and OPTIONS are idempotent by default; AllowRetry and NoRetry override.
func (r *Request) Idempotent() bool {
	if r.idempotent != nil {
		return *r.idempotent
	}
	switch r.method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete, http.MethodOptions:
		return true
	default:
		return false
	}
}

// resolveURL joins the base URL, path and encoded query string.
func (r *Request) resolveURL(baseURL string) (string, error) {
	raw := r.path
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(r.path, "/")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", &url.Error{Op: "parse", URL: raw, Err: errMissingHost}
	}
	if len(r.query) == 0 {
		return u.String(), nil
	}

	var sb strings.Builder
	sb.WriteString(u.RawQuery)
	for _, p := range r.query {
		if sb.Len() > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.Value))
	}
	u.RawQuery = sb.String()
	return u.String(), nil
}
