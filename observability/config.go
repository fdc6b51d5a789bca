// Package observability sets up OpenTelemetry tracing and metrics for the
// DataAPI client. When disabled it hands out no-op providers.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	// EndpointStdout prints spans and metrics instead of exporting them
	EndpointStdout = "stdout"

	ProtocolHTTP = "http"
	ProtocolGRPC = "grpc"

	defaultServiceName    = "dataapi-client"
	defaultMetricInterval = 15 * time.Second
	defaultBatchTimeout   = 5 * time.Second
)

// Config controls the exporters.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Endpoint is the OTLP collector address or EndpointStdout.
	// gRPC endpoints are "host:port"; HTTP endpoints may carry a scheme.
	Endpoint   string
	Protocol   string
	Insecure   bool
	Headers    map[string]string
	SampleRate float64
	Interval   time.Duration

	// Writer receives stdout exporter output. Default: os.Stdout.
	Writer io.Writer
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = defaultServiceName
	}
	if c.Protocol == "" {
		c.Protocol = ProtocolHTTP
	}
	// A zero rate would drop every span
	if c.SampleRate == 0 {
		c.SampleRate = 1
	}
	if c.Interval <= 0 {
		c.Interval = defaultMetricInterval
	}
}

// Validate checks an enabled configuration.
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if !c.Enabled {
		return nil
	}
	if c.Endpoint == "" {
		return ErrMissingEndpoint
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return ErrInvalidSampleRate
	}
	if c.Endpoint == EndpointStdout {
		return nil
	}
	switch c.Protocol {
	case ProtocolHTTP:
	case ProtocolGRPC:
		if strings.Contains(c.Endpoint, "://") {
			return fmt.Errorf("grpc endpoint %q must be host:port: %w", c.Endpoint, ErrInvalidEndpointFormat)
		}
	default:
		return fmt.Errorf("protocol '%s': %w", c.Protocol, ErrInvalidProtocol)
	}
	return nil
}

// endpointHost strips an http(s) scheme, which the OTLP HTTP exporters expect
// as a separate insecure flag.
func endpointHost(endpoint string) (host string, insecure bool) {
	switch {
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimPrefix(endpoint, "http://"), true
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimPrefix(endpoint, "https://"), false
	default:
		return endpoint, false
	}
}
