package observability

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
)

var (
	errFirst  = errors.New("first")
	errSecond = errors.New("second")
)

func TestMetricBuilder_Instruments(t *testing.T) {
	t.Parallel()

	b := newMetricBuilder(noopmetric.NewMeterProvider().Meter("test"))

	assert.NotNil(t, b.counter("test.counter", "counter", "{item}"))
	assert.NotNil(t, b.histogram("test.duration", "duration", "s", toolCallBoundaries))
	assert.NotNil(t, b.int64Histogram("test.bytes", "bytes", "By", scriptSizeBoundaries))
	assert.NotNil(t, b.upDownCounter("test.inflight", "inflight", "{item}"))
	require.NoError(t, b.err)
}

func TestMetricBuilder_KeepsFirstError(t *testing.T) {
	t.Parallel()

	b := newMetricBuilder(noopmetric.NewMeterProvider().Meter("test"))

	failing := func(err error) func() (int, error) {
		return func() (int, error) { return 0, err }
	}

	create(b, "a", failing(errFirst))
	create(b, "b", failing(errSecond))

	require.ErrorIs(t, b.err, errFirst)
	require.NotErrorIs(t, b.err, errSecond)
	assert.Contains(t, b.err.Error(), "create a")
}
