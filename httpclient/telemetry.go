package httpclient

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	semconv "go.opentelemetry.io/otel/semconv/v1.32.0"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/gaborage/dataapi-go/apierror"
)

const (
	// Instrumentation scope shared by the tracer and the meter
	instrumentationName = "github.com/gaborage/dataapi-go/httpclient"

	spanName = "dataapi.request"

	metricRequests = "dataapi.client.requests"
	metricRetries  = "dataapi.client.retries"
	metricDuration = "dataapi.client.duration"

	attrErrorKind = "dataapi.error.kind"
	attrAttempts  = "dataapi.attempts"
	attrOutcome   = "dataapi.outcome"
)

// Request duration buckets in seconds
var durationBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1, 2.5, 5, 7.5, 10, 30,
}

type telemetry struct {
	tracer   oteltrace.Tracer
	requests metric.Int64Counter
	retries  metric.Int64Counter
	duration metric.Float64Histogram
}

// logMetricError logs a metric initialization error to stderr.
// Metrics failures must not break the client.
func logMetricError(metricName string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize DataAPI client metric %s: %v\n", metricName, err)
	}
}

func newTelemetry(tp oteltrace.TracerProvider, mp metric.MeterProvider) *telemetry {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)
	fallback := metricnoop.NewMeterProvider().Meter(instrumentationName)

	t := &telemetry{tracer: tp.Tracer(instrumentationName)}

	var err error
	t.requests, err = meter.Int64Counter(metricRequests,
		metric.WithDescription("Number of logical DataAPI calls"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		logMetricError(metricRequests, err)
		t.requests, _ = fallback.Int64Counter(metricRequests)
	}

	t.retries, err = meter.Int64Counter(metricRetries,
		metric.WithDescription("Number of DataAPI attempts that were retried"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		logMetricError(metricRetries, err)
		t.retries, _ = fallback.Int64Counter(metricRetries)
	}

	t.duration, err = meter.Float64Histogram(metricDuration,
		metric.WithDescription("Duration of logical DataAPI calls including retries"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	)
	if err != nil {
		logMetricError(metricDuration, err)
		t.duration, _ = fallback.Float64Histogram(metricDuration)
	}
	return t
}

func (t *telemetry) start(ctx context.Context, method, fullURL string) (context.Context, oteltrace.Span) {
	attrs := []attribute.KeyValue{
		semconv.HTTPRequestMethodKey.String(method),
		semconv.URLFull(stripQuery(fullURL)),
	}
	if u, err := url.Parse(fullURL); err == nil && u.Hostname() != "" {
		attrs = append(attrs, semconv.ServerAddress(u.Hostname()))
	}
	return t.tracer.Start(ctx, spanName,
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(attrs...),
	)
}

func (t *telemetry) retry(ctx context.Context, span oteltrace.Span, method string, attempt int, delay time.Duration, err error) {
	kind := apierror.KindOf(err)
	span.AddEvent("retry", oteltrace.WithAttributes(
		attribute.Int("dataapi.attempt", attempt),
		attribute.Int64("dataapi.delay_ms", delay.Milliseconds()),
		attribute.String(attrErrorKind, kind.String()),
	))
	t.retries.Add(ctx, 1, metric.WithAttributes(
		semconv.HTTPRequestMethodKey.String(method),
		attribute.String(attrErrorKind, kind.String()),
	))
}

func (t *telemetry) finish(ctx context.Context, span oteltrace.Span, method string, status, attempts int, elapsed time.Duration, err error) {
	outcome := string(StateSucceeded)
	attrs := []attribute.KeyValue{semconv.HTTPRequestMethodKey.String(method)}
	if status > 0 {
		attrs = append(attrs, semconv.HTTPResponseStatusCode(status))
	}

	if err != nil {
		outcome = string(StateFailed)
		kind := apierror.KindOf(err).String()
		attrs = append(attrs, attribute.String(attrErrorKind, kind))
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
	}

	span.SetAttributes(append(attrs, attribute.Int(attrAttempts, attempts))...)
	attrs = append(attrs, attribute.String(attrOutcome, outcome))
	t.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
	t.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
}

// redactURL masks the password of any userinfo so the URL is safe to log.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Redacted()
}

func stripQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	u.User = nil
	return u.String()
}
