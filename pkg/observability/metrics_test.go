package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/pbmerge/pkg/observability"
)

func newReaderMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()

	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)), reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	err := reader.Collect(context.Background(), &rm)
	require.NoError(t, err)

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func sumByStatus(t *testing.T, m *metricdata.Metrics) map[string]int64 {
	t.Helper()

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "%s is not an int64 sum", m.Name)

	out := make(map[string]int64)

	for _, dp := range sum.DataPoints {
		status, _ := dp.Attributes.Value("status")
		out[status.AsString()] += dp.Value
	}

	return out
}

func TestREDMetrics_RecordRequest(t *testing.T) {
	t.Parallel()

	mp, reader := newReaderMeter(t)

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	red.RecordRequest(ctx, "pbmerge_build", observability.StatusOK, 100*time.Millisecond)
	red.RecordRequest(ctx, "pbmerge_build", observability.StatusError, time.Second)

	rm := collectMetrics(t, reader)

	reqTotal := findMetric(rm, "pbmerge.requests.total")
	require.NotNil(t, reqTotal)
	assert.Equal(t, map[string]int64{"ok": 1, "error": 1}, sumByStatus(t, reqTotal))

	require.NotNil(t, findMetric(rm, "pbmerge.request.duration.seconds"))
	require.NotNil(t, findMetric(rm, "pbmerge.errors.total"))
}

func TestREDMetrics_TrackInflight(t *testing.T) {
	t.Parallel()

	mp, reader := newReaderMeter(t)

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	done := red.TrackInflight(context.Background(), "pbmerge_build")

	inflight := findMetric(collectMetrics(t, reader), "pbmerge.inflight.requests")
	require.NotNil(t, inflight)

	done()

	sum, ok := findMetric(collectMetrics(t, reader), "pbmerge.inflight.requests").Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(0), sum.DataPoints[0].Value)
}

func TestBuildMetrics_RecordProject(t *testing.T) {
	t.Parallel()

	mp, reader := newReaderMeter(t)

	bm, err := observability.NewBuildMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	bm.RecordProject(ctx, "built", 20*time.Millisecond, 4096)
	bm.RecordProject(ctx, "built", 30*time.Millisecond, 8192)
	bm.RecordProject(ctx, "skipped", time.Millisecond, 0)
	bm.RecordProject(ctx, "failed", time.Millisecond, 0)
	bm.RecordBuild(ctx, "failed")
	bm.RecordCacheLookup(ctx, true)
	bm.RecordCacheLookup(ctx, false)

	rm := collectMetrics(t, reader)

	projects := findMetric(rm, "pbmerge.projects.total")
	require.NotNil(t, projects)
	assert.Equal(t, map[string]int64{"built": 2, "skipped": 1, "failed": 1}, sumByStatus(t, projects))

	bytes := findMetric(rm, "pbmerge.script.bytes")
	require.NotNil(t, bytes)

	hist, ok := bytes.Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
	assert.Equal(t, int64(4096+8192), hist.DataPoints[0].Sum)

	builds := findMetric(rm, "pbmerge.builds.total")
	require.NotNil(t, builds)
	assert.Equal(t, map[string]int64{"failed": 1}, sumByStatus(t, builds))

	require.NotNil(t, findMetric(rm, "pbmerge.analysis.cache.lookups.total"))
}

func TestBuildMetrics_NilReceiver(t *testing.T) {
	t.Parallel()

	var bm *observability.BuildMetrics

	assert.NotPanics(t, func() {
		bm.RecordBuild(context.Background(), "ok")
		bm.RecordProject(context.Background(), "built", time.Second, 10)
		bm.RecordCacheLookup(context.Background(), true)
	})
}
