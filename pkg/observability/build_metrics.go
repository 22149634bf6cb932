package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricBuildsTotal     = "pbmerge.builds.total"
	metricProjectsTotal   = "pbmerge.projects.total"
	metricProjectDuration = "pbmerge.project.duration.seconds"
	metricScriptBytes     = "pbmerge.script.bytes"
	metricCacheLookups    = "pbmerge.analysis.cache.lookups.total"

	attrResult = "result"
)

// projectDurationBoundaries runs from a cached single-file project to a large
// project parsed cold on a slow disk.
var projectDurationBoundaries = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// scriptSizeBoundaries spans small scripts up to the in-game 100k character limit and beyond.
var scriptSizeBoundaries = []float64{1 << 10, 4 << 10, 16 << 10, 32 << 10, 64 << 10, 100_000, 128 << 10, 256 << 10}

// BuildMetrics holds the instruments recorded by the build orchestrator.
type BuildMetrics struct {
	buildsTotal     metric.Int64Counter
	projectsTotal   metric.Int64Counter
	projectDuration metric.Float64Histogram
	scriptBytes     metric.Int64Histogram
	cacheLookups    metric.Int64Counter
}

// NewBuildMetrics creates the build instruments from the given meter.
func NewBuildMetrics(mt metric.Meter) (*BuildMetrics, error) {
	b := newMetricBuilder(mt)

	bm := &BuildMetrics{
		buildsTotal:   b.counter(metricBuildsTotal, "Build invocations by outcome", "{build}"),
		projectsTotal: b.counter(metricProjectsTotal, "Projects processed by outcome", "{project}"),
		projectDuration: b.histogram(metricProjectDuration, "Per-project pipeline duration in seconds", "s",
			projectDurationBoundaries),
		scriptBytes:  b.int64Histogram(metricScriptBytes, "Size of written scripts", "By", scriptSizeBoundaries),
		cacheLookups: b.counter(metricCacheLookups, "Parse cache lookups by result", "{lookup}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return bm, nil
}

// RecordBuild records one Build invocation. Safe on a nil receiver.
func (bm *BuildMetrics) RecordBuild(ctx context.Context, status string) {
	if bm == nil {
		return
	}

	bm.buildsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStatus, status)))
}

// RecordProject records the outcome of one project pipeline. scriptBytes is
// recorded only for written scripts. Safe on a nil receiver.
func (bm *BuildMetrics) RecordProject(ctx context.Context, status string, duration time.Duration, scriptBytes int) {
	if bm == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrStatus, status))

	bm.projectsTotal.Add(ctx, 1, attrs)
	bm.projectDuration.Record(ctx, duration.Seconds(), attrs)

	if scriptBytes > 0 {
		bm.scriptBytes.Record(ctx, int64(scriptBytes))
	}
}

// RecordCacheLookup records a parse cache hit or miss. Safe on a nil receiver.
func (bm *BuildMetrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if bm == nil {
		return
	}

	result := "miss"
	if hit {
		result = "hit"
	}

	bm.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}
