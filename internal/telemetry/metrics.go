package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// RefreshMetricsMeterName is the name used for the refresh metrics meter
	RefreshMetricsMeterName = "github.com/arkproject/ark-root-resolver/refresh"
)

// RefreshMetrics holds the OpenTelemetry instruments for registry refresh metrics
type RefreshMetrics struct {
	refreshDuration metric.Float64Histogram
	staleFallbacks  metric.Int64Counter
	prefixesTotal   metric.Int64Gauge
}

// NewRefreshMetrics creates a new RefreshMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewRefreshMetrics(provider metric.MeterProvider) (*RefreshMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(RefreshMetricsMeterName)

	refreshDuration, err := meter.Float64Histogram(
		"ark_resolver_refresh_duration_seconds",
		metric.WithDescription("Duration of registry refresh cycles in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, err
	}

	staleFallbacks, err := meter.Int64Counter(
		"ark_resolver_stale_fallbacks_total",
		metric.WithDescription("Number of refresh cycles that fell back to stale cached data"),
		metric.WithUnit("{fallback}"),
	)
	if err != nil {
		return nil, err
	}

	prefixesTotal, err := meter.Int64Gauge(
		"ark_resolver_prefixes_total",
		metric.WithDescription("Number of prefixes in the published resolver map"),
		metric.WithUnit("{prefix}"),
	)
	if err != nil {
		return nil, err
	}

	return &RefreshMetrics{
		refreshDuration: refreshDuration,
		staleFallbacks:  staleFallbacks,
		prefixesTotal:   prefixesTotal,
	}, nil
}

// RecordRefreshDuration records the duration of a refresh cycle
func (m *RefreshMetrics) RecordRefreshDuration(ctx context.Context, duration time.Duration, success bool) {
	if m == nil || m.refreshDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.Bool("success", success),
	}

	m.refreshDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordStaleFallback counts a refresh that served stale cached data
func (m *RefreshMetrics) RecordStaleFallback(ctx context.Context) {
	if m == nil || m.staleFallbacks == nil {
		return
	}

	m.staleFallbacks.Add(ctx, 1)
}

// RecordPrefixesTotal records the size of the published resolver map
func (m *RefreshMetrics) RecordPrefixesTotal(ctx context.Context, count int64) {
	if m == nil || m.prefixesTotal == nil {
		return
	}

	m.prefixesTotal.Record(ctx, count)
}
