package observability

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/gaborage/dataapi-go/logger"
)

// restoreGlobals undoes the global registration done by NewProvider.
func restoreGlobals(t *testing.T) {
	t.Helper()
	tp, mp, prop := otel.GetTracerProvider(), otel.GetMeterProvider(), otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetMeterProvider(mp)
		otel.SetTextMapPropagator(prop)
	})
}

func TestNewProviderDisabledIsNoop(t *testing.T) {
	p, err := NewProvider(Config{}, nil)
	require.NoError(t, err)

	_, ok := p.TracerProvider().(noop.TracerProvider)
	assert.True(t, ok)
	assert.NoError(t, p.ForceFlush(context.Background()))
	assert.NoError(t, Close(context.Background(), p, time.Second))
}

func TestNewProviderStdoutExportsSpansAndMetrics(t *testing.T) {
	restoreGlobals(t)

	var buf bytes.Buffer
	p, err := NewProvider(Config{
		Enabled:        true,
		Endpoint:       EndpointStdout,
		ServiceName:    "dataapi-test",
		ServiceVersion: "1.2.3",
		Writer:         &buf,
	}, logger.Nop())
	require.NoError(t, err)

	_, span := p.TracerProvider().Tracer("test").Start(context.Background(), "dataapi.request")
	span.End()

	counter, err := p.MeterProvider().Meter("test").Int64Counter("dataapi.client.requests")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	require.NoError(t, p.ForceFlush(context.Background()))
	out := buf.String()
	assert.Contains(t, out, `"Name":"dataapi.request"`)
	assert.Contains(t, out, "dataapi.client.requests")
	assert.Contains(t, out, "dataapi-test")

	// Installed globally with the W3C propagator
	assert.Same(t, p.TracerProvider(), otel.GetTracerProvider())
	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")

	require.NoError(t, Close(context.Background(), p, time.Second))
}

func TestNewProviderOTLPExporters(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"http with scheme", Config{Enabled: true, Endpoint: "http://localhost:4318"}},
		{"http insecure", Config{Enabled: true, Endpoint: "localhost:4318", Insecure: true, Headers: map[string]string{"x-key": "v"}}},
		{"grpc", Config{Enabled: true, Endpoint: "localhost:4317", Protocol: ProtocolGRPC, Insecure: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restoreGlobals(t)

			p, err := NewProvider(tt.cfg, nil)
			require.NoError(t, err)
			assert.NotNil(t, p.MeterProvider())

			// Nothing was recorded; a collector need not be running
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()
			_ = p.Shutdown(ctx)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"disabled", Config{}, nil},
		{"missing endpoint", Config{Enabled: true}, ErrMissingEndpoint},
		{"bad sample rate", Config{Enabled: true, Endpoint: EndpointStdout, SampleRate: 2}, ErrInvalidSampleRate},
		{"bad protocol", Config{Enabled: true, Endpoint: "localhost:4317", Protocol: "udp"}, ErrInvalidProtocol},
		{"grpc with scheme", Config{Enabled: true, Endpoint: "http://localhost:4317", Protocol: ProtocolGRPC}, ErrInvalidEndpointFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.ApplyDefaults()
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	var nilCfg *Config
	assert.ErrorIs(t, nilCfg.Validate(), ErrNilConfig)
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	assert.Equal(t, defaultServiceName, cfg.ServiceName)
	assert.Equal(t, ProtocolHTTP, cfg.Protocol)
	assert.Equal(t, 1.0, cfg.SampleRate)
	assert.Equal(t, defaultMetricInterval, cfg.Interval)
}

func TestEndpointHost(t *testing.T) {
	host, plain := endpointHost("http://collector:4318")
	assert.Equal(t, "collector:4318", host)
	assert.True(t, plain)

	host, plain = endpointHost("https://collector")
	assert.Equal(t, "collector", host)
	assert.False(t, plain)
}
