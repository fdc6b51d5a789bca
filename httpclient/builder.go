package httpclient

import (
	nethttp "net/http"
	"time"

	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/gaborage/dataapi-go/auth"
	"github.com/gaborage/dataapi-go/logger"
	"github.com/gaborage/dataapi-go/retry"
)

const (
	// DefaultTimeout is the default per-attempt timeout
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies the client to the server
	DefaultUserAgent = "DataAPI-Go-SDK/1.0.0"

	// DefaultMaxPayloadLogBytes caps logged body previews
	DefaultMaxPayloadLogBytes = 1024
)

// Config holds the client configuration
type Config struct {
	BaseURL string
	// Timeout applies to each attempt; a Request timeout overrides it.
	Timeout        time.Duration
	UserAgent      string
	DefaultHeaders map[string]string
	Retry          retry.Policy
	// Auth is consulted before every attempt; nil sends no credentials.
	Auth                 auth.Provider
	RequestInterceptors  []RequestInterceptor
	ResponseInterceptors []ResponseInterceptor
	// LogPayloads enables debug-level logging of headers and body payloads
	LogPayloads bool
	// MaxPayloadLogBytes caps the number of body bytes logged when LogPayloads is enabled
	MaxPayloadLogBytes int
	// TraceIDHeader configures the header name used for request id propagation (default: X-Request-ID)
	TraceIDHeader string
	// EnableW3CTrace generates a traceparent when neither the active span nor the context carries one
	EnableW3CTrace bool
	// RateLimit is the sustained attempts per second; 0 disables client-side limiting.
	RateLimit float64
	// RateBurst is the limiter bucket size; values below 1 become 1.
	RateBurst int
}

// Builder provides a fluent interface for configuring the client
type Builder struct {
	config         *Config
	logger         logger.Logger
	httpClient     *nethttp.Client
	sleeper        retry.Sleeper
	now            func() time.Time
	tracerProvider oteltrace.TracerProvider
	meterProvider  metric.MeterProvider
}

// NewBuilder creates a new client builder
func NewBuilder(log logger.Logger) *Builder {
	if log == nil {
		log = logger.Nop()
	}
	return &Builder{
		config: &Config{
			Timeout:              DefaultTimeout,
			UserAgent:            DefaultUserAgent,
			DefaultHeaders:       make(map[string]string),
			Retry:                retry.NewPolicy(),
			RequestInterceptors:  []RequestInterceptor{},
			ResponseInterceptors: []ResponseInterceptor{},
			MaxPayloadLogBytes:   DefaultMaxPayloadLogBytes,
			TraceIDHeader:        HeaderXRequestID,
		},
		logger: log,
	}
}

// WithBaseURL sets the URL every request path is resolved against
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.BaseURL = baseURL
	return b
}

// WithTimeout sets the per-attempt timeout
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.config.Timeout = timeout
	return b
}

// WithRetries sets the retry count and base delay, keeping the other policy fields
func (b *Builder) WithRetries(maxRetries int, retryDelay time.Duration) *Builder {
	b.config.Retry.MaxRetries = maxRetries
	b.config.Retry.BaseDelay = retryDelay
	return b
}

// WithRetryPolicy replaces the retry policy
func (b *Builder) WithRetryPolicy(policy retry.Policy) *Builder {
	b.config.Retry = policy
	return b
}

// WithAuth sets the authentication provider
func (b *Builder) WithAuth(provider auth.Provider) *Builder {
	b.config.Auth = provider
	return b
}

// WithUserAgent overrides the User-Agent header
func (b *Builder) WithUserAgent(userAgent string) *Builder {
	b.config.UserAgent = userAgent
	return b
}

// WithDefaultHeader adds a default header that will be sent with all requests
func (b *Builder) WithDefaultHeader(key, value string) *Builder {
	b.config.DefaultHeaders[key] = value
	return b
}

// WithRequestInterceptor adds a request interceptor
func (b *Builder) WithRequestInterceptor(interceptor RequestInterceptor) *Builder {
	b.config.RequestInterceptors = append(b.config.RequestInterceptors, interceptor)
	return b
}

// WithResponseInterceptor adds a response interceptor
func (b *Builder) WithResponseInterceptor(interceptor ResponseInterceptor) *Builder {
	b.config.ResponseInterceptors = append(b.config.ResponseInterceptors, interceptor)
	return b
}

// WithPayloadLogging enables debug logging of headers and bodies, truncated to maxBytes
func (b *Builder) WithPayloadLogging(enabled bool, maxBytes int) *Builder {
	b.config.LogPayloads = enabled
	if maxBytes > 0 {
		b.config.MaxPayloadLogBytes = maxBytes
	}
	return b
}

// WithTraceIDHeader sets the header carrying the request id
func (b *Builder) WithTraceIDHeader(header string) *Builder {
	if header != "" {
		b.config.TraceIDHeader = header
	}
	return b
}

// WithW3CTrace enables traceparent generation when none is propagated
func (b *Builder) WithW3CTrace(enabled bool) *Builder {
	b.config.EnableW3CTrace = enabled
	return b
}

// WithRateLimit limits attempts to rps per second with the given burst
func (b *Builder) WithRateLimit(rps float64, burst int) *Builder {
	b.config.RateLimit = rps
	b.config.RateBurst = burst
	return b
}

// WithHTTPClient replaces the underlying transport client
func (b *Builder) WithHTTPClient(c *nethttp.Client) *Builder {
	b.httpClient = c
	return b
}

// WithSleeper replaces the retry sleep, mainly for tests
func (b *Builder) WithSleeper(s retry.Sleeper) *Builder {
	b.sleeper = s
	return b
}

// WithClock replaces the time source used for elapsed time and Retry-After dates
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithTracerProvider sets the tracer provider; the global one is used otherwise
func (b *Builder) WithTracerProvider(tp oteltrace.TracerProvider) *Builder {
	b.tracerProvider = tp
	return b
}

// WithMeterProvider sets the meter provider; the global one is used otherwise
func (b *Builder) WithMeterProvider(mp metric.MeterProvider) *Builder {
	b.meterProvider = mp
	return b
}

// Build creates the client with the configured options
func (b *Builder) Build() Client {
	cfg := *b.config

	httpClient := b.httpClient
	if httpClient == nil {
		// Timeouts are applied per attempt through the request context
		httpClient = &nethttp.Client{}
	}
	sleeper := b.sleeper
	if sleeper == nil {
		sleeper = retry.Sleep
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := max(cfg.RateBurst, 1)
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &client{
		httpClient:           httpClient,
		logger:               b.logger,
		config:               &cfg,
		requestInterceptors:  cfg.RequestInterceptors,
		responseInterceptors: cfg.ResponseInterceptors,
		sleep:                sleeper,
		now:                  now,
		limiter:              limiter,
		telemetry:            newTelemetry(b.tracerProvider, b.meterProvider),
	}
}
