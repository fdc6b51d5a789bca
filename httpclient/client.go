package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"golang.org/x/time/rate"

	"github.com/gaborage/dataapi-go/apierror"
	"github.com/gaborage/dataapi-go/logger"
	"github.com/gaborage/dataapi-go/retry"
	"github.com/gaborage/dataapi-go/trace"
)

// errAttemptTimeout is the cancellation cause of an attempt that ran out of time.
var errAttemptTimeout = fmt.Errorf("attempt timed out: %w", context.DeadlineExceeded)

// client implements the Client interface
type client struct {
	httpClient           *nethttp.Client
	logger               logger.Logger
	config               *Config
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
	sleep                retry.Sleeper
	now                  func() time.Time
	limiter              *rate.Limiter
	telemetry            *telemetry
	callCount            int64
}

// call is the state of one logical call across its attempts.
type call struct {
	req       *Request
	url       string
	safeURL   string
	body      []byte
	requestID string
	callCount int64
	start     time.Time
	attempts  int
	state     State
	stream    func([]byte) error
	// delivered is set once a stream chunk reached the consumer; no retry follows.
	delivered bool
}

// NewClient creates a client with default configuration against baseURL
func NewClient(log logger.Logger, baseURL string) Client {
	return NewBuilder(log).WithBaseURL(baseURL).Build()
}

// Get performs a GET request
func (c *client) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, NewRequest(nethttp.MethodGet, path, opts...))
}

// Post performs a POST request
func (c *client) Post(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, NewRequest(nethttp.MethodPost, path, withBodyFirst(body, opts)...))
}

// Put performs a PUT request
func (c *client) Put(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, NewRequest(nethttp.MethodPut, path, withBodyFirst(body, opts)...))
}

// Patch performs a PATCH request
func (c *client) Patch(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, NewRequest(nethttp.MethodPatch, path, withBodyFirst(body, opts)...))
}

// Delete performs a DELETE request
func (c *client) Delete(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, NewRequest(nethttp.MethodDelete, path, opts...))
}

// Head performs a HEAD request
func (c *client) Head(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, NewRequest(nethttp.MethodHead, path, opts...))
}

func withBodyFirst(body any, opts []RequestOption) []RequestOption {
	return append([]RequestOption{WithBody(body)}, opts...)
}

// Do performs the request described by req
func (c *client) Do(ctx context.Context, req *Request) (*Response, error) {
	return c.execute(ctx, req, nil)
}

// Stream performs req and hands the body to fn as it arrives
func (c *client) Stream(ctx context.Context, req *Request, fn func(chunk []byte) error) error {
	if fn == nil {
		return apierror.NewValidationError("stream consumer cannot be nil", "fn")
	}
	_, err := c.execute(ctx, req, fn)
	return err
}

func (c *client) execute(ctx context.Context, req *Request, stream func([]byte) error) (*Response, error) {
	cl, err := c.newCall(ctx, req, stream)
	if err != nil {
		return nil, err
	}

	ctx, span := c.telemetry.start(ctx, req.Method(), cl.url)
	defer span.End()

	var resp *Response
	for attempt := 0; ; attempt++ {
		cl.attempts = attempt + 1
		resp, err = c.attempt(ctx, cl)
		if err == nil {
			cl.state = StateSucceeded
			break
		}
		if ctx.Err() != nil || cl.delivered || !c.config.Retry.ShouldRetryRequest(attempt, err, req.Idempotent()) {
			cl.state = StateFailed
			break
		}

		delay := c.config.Retry.DelayBefore(attempt, err)
		cl.state = StateRetrying
		c.logRetry(cl, attempt, delay, err)
		c.telemetry.retry(ctx, span, req.Method(), attempt, delay, err)

		if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
			cl.state = StateFailed
			err = apierror.Classify(apierror.Input{
				Cause:  fmt.Errorf("retry wait interrupted: %w", sleepErr),
				Method: req.Method(),
				URL:    cl.safeURL,
				Path:   req.Path(),
			})
			resp = nil
			break
		}
	}

	elapsed := c.now().Sub(cl.start)
	status := 0
	if resp != nil {
		resp.Stats = Stats{ElapsedTime: elapsed, CallCount: cl.callCount, Attempts: cl.attempts}
		status = resp.StatusCode
	}
	logger.AddAPIElapsed(ctx, elapsed.Nanoseconds())
	c.telemetry.finish(ctx, span, req.Method(), status, cl.attempts, elapsed, err)

	if err != nil {
		c.logFailure(cl, err)
		return resp, err
	}
	return resp, nil
}

// newCall validates req and prepares everything that stays fixed across attempts.
func (c *client) newCall(ctx context.Context, req *Request, stream func([]byte) error) (*call, error) {
	if req == nil {
		return nil, apierror.NewValidationError("request cannot be nil", "request")
	}
	if req.Method() == "" {
		return nil, apierror.NewValidationError("request method cannot be empty", "method")
	}

	fullURL, err := req.resolveURL(c.config.BaseURL)
	if err != nil {
		return nil, apierror.New(apierror.KindValidation, "invalid request URL",
			apierror.WithField("url"), apierror.WithCause(err), apierror.WithRequest(req.Method(), req.Path()))
	}

	body, err := encodeBody(req)
	if err != nil {
		return nil, apierror.New(apierror.KindValidation, "failed to encode request body",
			apierror.WithField("body"), apierror.WithCause(err), apierror.WithRequest(req.Method(), redactURL(fullURL)))
	}

	return &call{
		req:       req,
		url:       fullURL,
		safeURL:   redactURL(fullURL),
		body:      body,
		requestID: trace.EnsureTraceID(ctx),
		callCount: atomic.AddInt64(&c.callCount, 1),
		start:     c.now(),
		state:     StateBuilding,
		stream:    stream,
	}, nil
}

// encodeBody serializes the request body once; raw bytes are sent verbatim.
func encodeBody(req *Request) ([]byte, error) {
	body, ok := req.Body()
	if !ok {
		return nil, nil
	}
	switch b := body.(type) {
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	default:
		return json.Marshal(body)
	}
}

// attempt performs one authenticated exchange.
func (c *client) attempt(ctx context.Context, cl *call) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, c.limiterError(ctx, cl, err)
		}
	}

	cl.state = StateAuthenticating
	authHeaders, err := c.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	timeout := cl.req.Timeout()
	if timeout <= 0 {
		timeout = c.config.Timeout
	}
	attemptCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	var timer *time.Timer
	if timeout > 0 {
		timer = time.AfterFunc(timeout, func() { cancel(errAttemptTimeout) })
		defer timer.Stop()
	}

	httpReq, err := c.buildRequest(attemptCtx, cl, authHeaders)
	if err != nil {
		return nil, err
	}

	cl.state = StateSending
	c.logRequest(httpReq, cl.body, cl.requestID)
	logger.IncrementAPICounter(ctx)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.transportError(attemptCtx, cl, timeout, err)
	}
	defer httpResp.Body.Close()

	if err := c.runResponseInterceptors(attemptCtx, httpReq, httpResp); err != nil {
		return nil, apierror.New(apierror.KindUnexpected, "response interceptor failed",
			apierror.WithCause(err), apierror.WithStatus(httpResp.StatusCode), apierror.WithRequest(cl.req.Method(), cl.safeURL))
	}

	if cl.stream != nil && IsSuccessStatus(httpResp.StatusCode) {
		// A stream may legitimately outlive the attempt timeout once headers arrived
		if timer != nil {
			timer.Stop()
		}
		return c.consumeStream(attemptCtx, cl, httpResp, timeout)
	}

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, c.transportError(attemptCtx, cl, timeout, err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Body:       respBody,
		Headers:    httpResp.Header,
		Stats: Stats{
			ElapsedTime: c.now().Sub(cl.start),
			CallCount:   cl.callCount,
			Attempts:    cl.attempts,
		},
		url: cl.safeURL,
	}
	c.logResponse(resp, cl.requestID)

	if IsSuccessStatus(resp.StatusCode) {
		return resp, nil
	}
	return resp, apierror.Classify(apierror.Input{
		Status:            resp.StatusCode,
		Header:            resp.Headers,
		Body:              resp.Body,
		Method:            cl.req.Method(),
		URL:               cl.safeURL,
		Path:              cl.req.Path(),
		Timeout:           timeout,
		DefaultRetryAfter: c.config.Retry.DefaultRetryAfter,
		Now:               c.now(),
	})
}

// limiterError reports a rate limiter wait that ended without sending anything.
// Caller cancellation is classified from the context; a wait that would outlive
// the deadline is a final timeout.
func (c *client) limiterError(ctx context.Context, cl *call, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return apierror.Classify(apierror.Input{
			Cause:  fmt.Errorf("rate limiter: %w", ctxErr),
			Method: cl.req.Method(),
			URL:    cl.safeURL,
			Path:   cl.req.Path(),
		})
	}
	return apierror.New(apierror.KindTimeout, "rate limit wait would exceed the context deadline",
		apierror.WithCause(err), apierror.WithRequest(cl.req.Method(), cl.safeURL), apierror.WithoutRetry())
}

// authenticate refreshes the credential if needed and returns its headers.
func (c *client) authenticate(ctx context.Context) (map[string]string, error) {
	if c.config.Auth == nil {
		return nil, nil
	}
	if err := c.config.Auth.EnsureValid(ctx); err != nil {
		return nil, err
	}
	return c.config.Auth.Headers()
}

// transportError classifies a failure that left no usable response.
func (c *client) transportError(attemptCtx context.Context, cl *call, timeout time.Duration, err error) error {
	cause := err
	if errors.Is(context.Cause(attemptCtx), errAttemptTimeout) {
		cause = fmt.Errorf("%w: %w", errAttemptTimeout, err)
	}
	return apierror.Classify(apierror.Input{
		Cause:   cause,
		Method:  cl.req.Method(),
		URL:     cl.safeURL,
		Path:    cl.req.Path(),
		Timeout: timeout,
	})
}

const streamChunkSize = 4096

// consumeStream hands the body to the stream consumer as it arrives.
func (c *client) consumeStream(ctx context.Context, cl *call, httpResp *nethttp.Response, timeout time.Duration) (*Response, error) {
	buf := make([]byte, streamChunkSize)
	for {
		n, err := httpResp.Body.Read(buf)
		if n > 0 {
			cl.delivered = true
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if cbErr := cl.stream(chunk); cbErr != nil {
				return nil, apierror.New(apierror.KindUnexpected, "stream consumer failed",
					apierror.WithCause(cbErr), apierror.WithStatus(httpResp.StatusCode), apierror.WithRequest(cl.req.Method(), cl.safeURL))
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, c.transportError(ctx, cl, timeout, err)
		}
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Stats: Stats{
			ElapsedTime: c.now().Sub(cl.start),
			CallCount:   cl.callCount,
			Attempts:    cl.attempts,
		},
		url: cl.safeURL,
	}
	c.logResponse(resp, cl.requestID)
	return resp, nil
}

// buildRequest constructs an *http.Request, applies headers, and runs request interceptors.
func (c *client) buildRequest(ctx context.Context, cl *call, authHeaders map[string]string) (*nethttp.Request, error) {
	var body io.Reader
	if cl.body != nil {
		body = bytes.NewReader(cl.body)
	}

	httpReq, err := nethttp.NewRequestWithContext(ctx, cl.req.Method(), cl.url, body)
	if err != nil {
		return nil, apierror.New(apierror.KindValidation, "failed to create HTTP request",
			apierror.WithCause(err), apierror.WithRequest(cl.req.Method(), cl.safeURL))
	}

	c.applyHeaders(ctx, httpReq, cl, authHeaders)

	if err := c.runRequestInterceptors(ctx, httpReq); err != nil {
		return nil, apierror.New(apierror.KindUnexpected, "request interceptor failed",
			apierror.WithCause(err), apierror.WithRequest(cl.req.Method(), cl.safeURL))
	}
	return httpReq, nil
}

// applyHeaders merges defaults < auth < request overrides, then fills Content-Type,
// the request id and trace context when nothing above set them.
func (c *client) applyHeaders(ctx context.Context, httpReq *nethttp.Request, cl *call, authHeaders map[string]string) {
	h := httpReq.Header
	h.Set(headerAccept, contentTypeJSON)
	if c.config.UserAgent != "" {
		h.Set(headerUserAgent, c.config.UserAgent)
	}
	for key, value := range c.config.DefaultHeaders {
		h.Set(key, value)
	}
	for key, value := range authHeaders {
		h.Set(key, value)
	}
	for key, value := range cl.req.headers {
		h.Set(key, value)
	}

	if cl.body != nil && h.Get(headerContentType) == "" {
		h.Set(headerContentType, contentTypeJSON)
	}

	idHeader := c.config.TraceIDHeader
	if idHeader == "" {
		idHeader = HeaderXRequestID
	}
	if h.Get(idHeader) == "" {
		h.Set(idHeader, cl.requestID)
	}

	c.injectTraceContext(ctx, h)
}

// injectTraceContext propagates the active span, then context values, then a generated parent.
func (c *client) injectTraceContext(ctx context.Context, h nethttp.Header) {
	if h.Get(HeaderTraceParent) != "" {
		return
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(h))
	if h.Get(HeaderTraceParent) != "" {
		return
	}
	if trace.Inject(ctx, h) {
		return
	}
	if c.config.EnableW3CTrace {
		h.Set(HeaderTraceParent, trace.GenerateTraceParent())
	}
}

// runRequestInterceptors executes all request interceptors
func (c *client) runRequestInterceptors(ctx context.Context, req *nethttp.Request) error {
	for _, interceptor := range c.requestInterceptors {
		if err := interceptor(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// runResponseInterceptors executes all response interceptors
func (c *client) runResponseInterceptors(ctx context.Context, req *nethttp.Request, resp *nethttp.Response) error {
	for _, interceptor := range c.responseInterceptors {
		if err := interceptor(ctx, req, resp); err != nil {
			return err
		}
	}
	return nil
}

// IsSuccessStatus checks if an HTTP status code indicates success
func IsSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
