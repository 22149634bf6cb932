package observability

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// metricBuilder creates the instruments of one metric set against a meter.
// Only the first creation failure is kept; constructors check it once.
type metricBuilder struct {
	meter metric.Meter
	err   error
}

func newMetricBuilder(mt metric.Meter) *metricBuilder {
	return &metricBuilder{meter: mt}
}

// create runs one instrument constructor and records its failure under name.
func create[T any](b *metricBuilder, name string, construct func() (T, error)) T {
	inst, err := construct()
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("create %s: %w", name, err)
	}

	return inst
}

func (b *metricBuilder) counter(name, desc, unit string) metric.Int64Counter {
	return create(b, name, func() (metric.Int64Counter, error) {
		return b.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	})
}

func (b *metricBuilder) upDownCounter(name, desc, unit string) metric.Int64UpDownCounter {
	return create(b, name, func() (metric.Int64UpDownCounter, error) {
		return b.meter.Int64UpDownCounter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	})
}

// histogram records durations in seconds over the given bucket bounds.
func (b *metricBuilder) histogram(name, desc, unit string, bounds []float64) metric.Float64Histogram {
	return create(b, name, func() (metric.Float64Histogram, error) {
		return b.meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit(unit),
			metric.WithExplicitBucketBoundaries(bounds...))
	})
}

// int64Histogram records sizes such as script bytes over the given bucket bounds.
func (b *metricBuilder) int64Histogram(name, desc, unit string, bounds []float64) metric.Int64Histogram {
	return create(b, name, func() (metric.Int64Histogram, error) {
		return b.meter.Int64Histogram(name, metric.WithDescription(desc), metric.WithUnit(unit),
			metric.WithExplicitBucketBoundaries(bounds...))
	})
}
