package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Instrument names for MCP tool calls.
const (
	metricRequestsTotal    = "pbmerge.requests.total"
	metricRequestDuration  = "pbmerge.request.duration.seconds"
	metricErrorsTotal      = "pbmerge.errors.total"
	metricInflightRequests = "pbmerge.inflight.requests"

	attrOp     = "op"
	attrStatus = "status"

	// StatusOK and StatusError label tool call outcomes.
	StatusOK    = "ok"
	StatusError = "error"
)

// toolCallBoundaries covers a modules listing (well under a millisecond) up
// to a cold build of a solution with dozens of projects.
var toolCallBoundaries = []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// REDMetrics counts MCP tool calls (rate), failed calls (errors) and their
// latency (duration), labelled by tool name.
type REDMetrics struct {
	calls    metric.Int64Counter
	latency  metric.Float64Histogram
	failures metric.Int64Counter
	inflight metric.Int64UpDownCounter
}

// NewREDMetrics creates the tool call instruments from the given meter.
func NewREDMetrics(mt metric.Meter) (*REDMetrics, error) {
	b := newMetricBuilder(mt)

	rm := &REDMetrics{
		calls:    b.counter(metricRequestsTotal, "MCP tool calls by tool and outcome", "{request}"),
		latency:  b.histogram(metricRequestDuration, "MCP tool call latency in seconds", "s", toolCallBoundaries),
		failures: b.counter(metricErrorsTotal, "MCP tool calls that returned an error", "{error}"),
		inflight: b.upDownCounter(metricInflightRequests, "MCP tool calls in progress", "{request}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return rm, nil
}

// RecordRequest records one finished tool call.
func (rm *REDMetrics) RecordRequest(ctx context.Context, op, status string, duration time.Duration) {
	tool := attribute.String(attrOp, op)
	labelled := metric.WithAttributes(tool, attribute.String(attrStatus, status))

	rm.calls.Add(ctx, 1, labelled)
	rm.latency.Record(ctx, duration.Seconds(), labelled)

	if status == StatusError {
		rm.failures.Add(ctx, 1, metric.WithAttributes(tool))
	}
}

// TrackInflight marks a tool call as running until the returned func is called.
func (rm *REDMetrics) TrackInflight(ctx context.Context, op string) func() {
	tool := metric.WithAttributes(attribute.String(attrOp, op))
	rm.inflight.Add(ctx, 1, tool)

	return func() { rm.inflight.Add(ctx, -1, tool) }
}
