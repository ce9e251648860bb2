package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/prohmpiriya/gym-booking"

// MetricOpts describes an instrument
type MetricOpts struct {
	Name        string
	Description string
	Unit        string
}

func meter() metric.Meter {
	return otel.GetMeterProvider().Meter(meterName)
}

// Counter is a monotonic int64 counter
type Counter struct {
	c metric.Int64Counter
}

// NewCounter creates a counter on the global meter provider
func NewCounter(opts MetricOpts) (*Counter, error) {
	c, err := meter().Int64Counter(opts.Name,
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
	)
	if err != nil {
		return nil, err
	}
	return &Counter{c: c}, nil
}

// Inc adds one
func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	c.c.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// Add adds n
func (c *Counter) Add(ctx context.Context, n int64, attrs ...attribute.KeyValue) {
	c.c.Add(ctx, n, metric.WithAttributes(attrs...))
}

// Histogram records float64 distributions
type Histogram struct {
	h metric.Float64Histogram
}

// NewHistogram creates a histogram with the SDK default buckets
func NewHistogram(opts MetricOpts) (*Histogram, error) {
	return NewHistogramWithBuckets(opts, nil)
}

// NewHistogramWithBuckets creates a histogram with explicit bucket boundaries
func NewHistogramWithBuckets(opts MetricOpts, buckets []float64) (*Histogram, error) {
	hopts := []metric.Float64HistogramOption{
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
	}
	if len(buckets) > 0 {
		hopts = append(hopts, metric.WithExplicitBucketBoundaries(buckets...))
	}
	h, err := meter().Float64Histogram(opts.Name, hopts...)
	if err != nil {
		return nil, err
	}
	return &Histogram{h: h}, nil
}

// Record records one observation
func (h *Histogram) Record(ctx context.Context, v float64, attrs ...attribute.KeyValue) {
	h.h.Record(ctx, v, metric.WithAttributes(attrs...))
}

// UpDownCounter is a gauge-like int64 counter
type UpDownCounter struct {
	c metric.Int64UpDownCounter
}

// NewUpDownCounter creates an up-down counter
func NewUpDownCounter(opts MetricOpts) (*UpDownCounter, error) {
	c, err := meter().Int64UpDownCounter(opts.Name,
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
	)
	if err != nil {
		return nil, err
	}
	return &UpDownCounter{c: c}, nil
}

// Inc adds one
func (u *UpDownCounter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	u.c.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// Dec subtracts one
func (u *UpDownCounter) Dec(ctx context.Context, attrs ...attribute.KeyValue) {
	u.c.Add(ctx, -1, metric.WithAttributes(attrs...))
}

// Add adds n, which may be negative
func (u *UpDownCounter) Add(ctx context.Context, n int64, attrs ...attribute.KeyValue) {
	u.c.Add(ctx, n, metric.WithAttributes(attrs...))
}
