package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/arvinbobis/reverse-dcf/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

// newManualMeter returns a meter whose data can be collected synchronously.
func newManualMeter(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return reader, mp
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	cfg := telemetry.MetricsConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:4317",
		ServiceName:       "reverse-dcf-test",
	}

	mp, err := telemetry.NewMeterProvider(ctx, cfg, logger)
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.Equal(t, "reverse-dcf-test", mp.GetConfig().ServiceName)
	assert.NotNil(t, mp.Meter("test"))
	assert.NotNil(t, mp.MeterProvider())
	assert.NoError(t, mp.ForceFlush(ctx))
	assert.NoError(t, mp.Shutdown(ctx))
}

func TestNewMeterProvider_Enabled(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping collector test in short mode")
	}

	ctx := context.Background()
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           true,
		CollectorEndpoint: "localhost:4317",
		ExportInterval:    time.Second,
		ServiceName:       "reverse-dcf-test",
		Insecure:          true,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.True(t, mp.IsEnabled())

	shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_ = mp.Shutdown(shutdownCtx)
}

func TestCounterAndUpDownCounter(t *testing.T) {
	reader, mp := newManualMeter(t)
	meter := mp.Meter("test")
	ctx := context.Background()

	c, err := telemetry.NewCounter(meter, "test_total", "test counter", "{items}")
	require.NoError(t, err)
	c.Inc(ctx)
	c.Add(ctx, 4)

	u, err := telemetry.NewUpDownCounter(meter, "test_in_flight", "test gauge", "{items}")
	require.NoError(t, err)
	u.Add(ctx, 3)
	u.Add(ctx, -1)

	got := collect(t, reader)

	sum := got["test_total"].Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(5), sum.DataPoints[0].Value)
	assert.True(t, sum.IsMonotonic)

	upDown := got["test_in_flight"].Data.(metricdata.Sum[int64])
	require.Len(t, upDown.DataPoints, 1)
	assert.Equal(t, int64(2), upDown.DataPoints[0].Value)
	assert.False(t, upDown.IsMonotonic)
}

func TestHistogram_CustomBoundaries(t *testing.T) {
	reader, mp := newManualMeter(t)

	h, err := telemetry.NewHistogram(mp.Meter("test"), telemetry.HistogramOpts{
		Name:        "test_duration_seconds",
		Description: "test histogram",
		Unit:        "s",
		Boundaries:  telemetry.SolveDurationBuckets,
	})
	require.NoError(t, err)

	h.RecordDuration(context.Background(), 3*time.Millisecond)
	h.Record(context.Background(), 0.02)

	hist := collect(t, reader)["test_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.Len(t, hist.DataPoints, 1)
	dp := hist.DataPoints[0]
	assert.Equal(t, uint64(2), dp.Count)
	assert.Equal(t, telemetry.SolveDurationBuckets, dp.Bounds)
	assert.InDelta(t, 0.023, dp.Sum, 1e-9)
}

func TestBucketsAreAscending(t *testing.T) {
	for name, buckets := range map[string][]float64{
		"http":      telemetry.HTTPDurationBuckets,
		"solve":     telemetry.SolveDurationBuckets,
		"iteration": telemetry.IterationBuckets,
		"batch":     telemetry.BatchSizeBuckets,
	} {
		for i := 1; i < len(buckets); i++ {
			assert.Less(t, buckets[i-1], buckets[i], name)
		}
	}
}
