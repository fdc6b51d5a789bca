package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// recordingProvider notes the order of lifecycle calls.
type recordingProvider struct {
	calls       []string
	deadlines   []bool
	flushErr    error
	shutdownErr error
}

func (r *recordingProvider) TracerProvider() trace.TracerProvider { return noop.NewTracerProvider() }

func (r *recordingProvider) MeterProvider() metric.MeterProvider { return metricnoop.NewMeterProvider() }

func (r *recordingProvider) ForceFlush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, ok := ctx.Deadline()
	r.calls = append(r.calls, "flush")
	r.deadlines = append(r.deadlines, ok)
	return r.flushErr
}

func (r *recordingProvider) Shutdown(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, ok := ctx.Deadline()
	r.calls = append(r.calls, "shutdown")
	r.deadlines = append(r.deadlines, ok)
	return r.shutdownErr
}

func TestCloseFlushesBeforeShutdown(t *testing.T) {
	p := &recordingProvider{}
	require.NoError(t, Close(context.Background(), p, 0))
	assert.Equal(t, []string{"flush", "shutdown"}, p.calls)
	assert.Equal(t, []bool{true, true}, p.deadlines)
}

func TestCloseShutsDownAfterFailedFlush(t *testing.T) {
	flushErr := errors.New("collector unreachable")
	shutdownErr := errors.New("exporter stuck")
	p := &recordingProvider{flushErr: flushErr, shutdownErr: shutdownErr}

	err := Close(context.Background(), p, time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, flushErr)
	assert.ErrorIs(t, err, shutdownErr)
	assert.Equal(t, []string{"flush", "shutdown"}, p.calls)
}

func TestCloseIgnoresCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &recordingProvider{}
	require.NoError(t, Close(ctx, p, time.Second))
	assert.Len(t, p.calls, 2)
}

func TestCloseNilProvider(t *testing.T) {
	assert.NoError(t, Close(context.Background(), nil, time.Second))
}
