package dataapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gaborage/dataapi-go/auth"
	"github.com/gaborage/dataapi-go/config"
	"github.com/gaborage/dataapi-go/httpclient"
	"github.com/gaborage/dataapi-go/logger"
	"github.com/gaborage/dataapi-go/observability"
	"github.com/gaborage/dataapi-go/resources"
	"github.com/gaborage/dataapi-go/retry"
	"github.com/gaborage/dataapi-go/types"
)

const shutdownTimeout = 5 * time.Second

// Client is a configured DataAPI client. It is safe for concurrent use.
type Client struct {
	*resources.Set

	http      httpclient.Client
	auth      auth.Provider
	telemetry observability.Provider
	log       logger.Logger
}

// Option customizes New.
type Option func(*options)

type options struct {
	log        logger.Logger
	httpClient *http.Client
	sleeper    retry.Sleeper
	telemetry  io.Writer
	now        func() time.Time
}

// WithLogger replaces the logger built from cfg.Log.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithHTTPClient sets the transport used for API and token requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithSleeper replaces the retry wait, mainly for tests.
func WithSleeper(s retry.Sleeper) Option {
	return func(o *options) { o.sleeper = s }
}

// WithTelemetryWriter receives stdout exporter output when the observability
// endpoint is "stdout".
func WithTelemetryWriter(w io.Writer) Option {
	return func(o *options) { o.telemetry = w }
}

// New builds a client from cfg. cfg is expected to come from config.Load and
// is validated again here.
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("dataapi: nil config")
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.New(cfg.Log.Level, cfg.Log.Pretty)
	}

	provider, err := newAuthProvider(cfg.Auth, o)
	if err != nil {
		return nil, err
	}

	telemetry, err := observability.NewProvider(observabilityConfig(cfg.Observability, o.telemetry), o.log)
	if err != nil {
		return nil, fmt.Errorf("dataapi: observability: %w", err)
	}

	b := httpclient.NewBuilder(o.log).
		WithBaseURL(cfg.Client.BaseURL).
		WithTimeout(cfg.Client.Timeout).
		WithRetryPolicy(retryPolicy(cfg.Retry)).
		WithUserAgent(cfg.Client.UserAgent).
		WithTraceIDHeader(cfg.Client.TraceIDHeader).
		WithW3CTrace(cfg.Client.W3CTrace).
		WithPayloadLogging(cfg.Log.Payloads, cfg.Log.MaxPayloadBytes).
		WithTracerProvider(telemetry.TracerProvider()).
		WithMeterProvider(telemetry.MeterProvider())
	for k, v := range cfg.Client.Headers {
		b.WithDefaultHeader(k, v)
	}
	if cfg.RateLimit.RPS > 0 {
		b.WithRateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
	if provider != nil {
		b.WithAuth(provider)
	}
	if o.httpClient != nil {
		b.WithHTTPClient(o.httpClient)
	}
	if o.sleeper != nil {
		b.WithSleeper(o.sleeper)
	}

	c := b.Build()
	o.log.Debug().
		Str("baseURL", cfg.Client.BaseURL).
		Str("auth", cfg.Auth.Type).
		Int("maxRetries", cfg.Retry.Max).
		Bool("telemetry", cfg.Observability.Enabled).
		Msg("DataAPI client configured")

	return &Client{
		Set:       resources.NewSet(c),
		http:      c,
		auth:      provider,
		telemetry: telemetry,
		log:       o.log,
	}, nil
}

func retryPolicy(cfg config.RetryConfig) retry.Policy {
	return retry.Policy{
		MaxRetries:        cfg.Max,
		BaseDelay:         cfg.Delay,
		MaxDelay:          cfg.MaxDelay,
		Jitter:            cfg.Jitter,
		DefaultRetryAfter: cfg.RetryAfter,
	}
}

func observabilityConfig(cfg config.ObservabilityConfig, w io.Writer) observability.Config {
	return observability.Config{
		Enabled:        cfg.Enabled,
		ServiceName:    cfg.Service,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		Endpoint:       cfg.Endpoint,
		Protocol:       cfg.Protocol,
		Insecure:       cfg.Insecure,
		SampleRate:     cfg.SampleRate,
		Interval:       cfg.Interval,
		Writer:         w,
	}
}

// HTTP returns the underlying client for endpoints without a wrapper.
func (c *Client) HTTP() httpclient.Client { return c.http }

// Auth returns the authentication provider, or nil for auth.type none.
func (c *Client) Auth() auth.Provider { return c.auth }

// Close discards credentials and flushes telemetry. The client must not be
// used afterwards.
func (c *Client) Close() error {
	if c.auth != nil {
		c.auth.Clear()
	}
	if err := observability.Close(context.Background(), c.telemetry, shutdownTimeout); err != nil {
		c.log.Warn().Err(err).Msg("Telemetry shutdown failed")
		return err
	}
	return nil
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status     string      `json:"status"`
	Components types.Value `json:"components"`
}

// Up reports whether the server declared itself healthy.
func (h HealthStatus) Up() bool { return h.Status == "UP" || h.Status == "ok" }

// VersionInfo is the body of GET /version.
type VersionInfo struct {
	Version   string          `json:"version"`
	Commit    string          `json:"commit,omitempty"`
	BuildTime types.Timestamp `json:"buildTime"`
}

// Health returns the server health report. Health checks are retried.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	return httpclient.Execute[HealthStatus](ctx, c.http, httpclient.NewRequest(http.MethodGet, "/health"))
}

// Version returns the server build and API version.
func (c *Client) Version(ctx context.Context) (VersionInfo, error) {
	return httpclient.Execute[VersionInfo](ctx, c.http, httpclient.NewRequest(http.MethodGet, "/version"))
}

// Info returns the free-form server info document.
func (c *Client) Info(ctx context.Context) (types.Value, error) {
	return httpclient.Execute[types.Value](ctx, c.http, httpclient.NewRequest(http.MethodGet, "/info"))
}

// Ping reports whether the server answers HEAD /health with a 2xx. Transport
// failures and error statuses both yield false; the error is returned for
// inspection.
func (c *Client) Ping(ctx context.Context) (bool, error) {
	_, err := c.http.Head(ctx, "/health", httpclient.NoRetry())
	return err == nil, err
}
