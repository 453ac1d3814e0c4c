package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"

	"github.com/arvinbobis/reverse-dcf/internal/infrastructure/telemetry"
)

// setupTestMeter sets up a test meter provider and reader.
func setupTestMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = mp.Shutdown(context.Background())
	})

	return mp, reader
}

// collectMetrics collects metrics from the reader.
func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

// findMetricByName finds a metric by name in the collected metrics.
func findMetricByName(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func newMetricsRouter(t *testing.T) (*gin.Engine, *sdkmetric.ManualReader) {
	t.Helper()
	mp, reader := setupTestMeter(t)

	router := gin.New()
	router.Use(HTTPMetricsWithMeter(mp.Meter("http.server"), true))
	router.POST("/api/v1/valuations/:kind", func(c *gin.Context) {
		if c.Param("kind") == "bad" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"implied_growth_rate": 0.05}})
	})
	return router, reader
}

func TestHTTPMetrics_Disabled(t *testing.T) {
	for name, cfg := range map[string]HTTPMetricsConfig{
		"disabled":      {Enabled: false},
		"nil provider":  {Enabled: true},
		"noop provider": {Enabled: true, MeterProvider: disabledMeterProvider(t)},
	} {
		t.Run(name, func(t *testing.T) {
			router := newTestRouter(HTTPMetrics(cfg))

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func disabledMeterProvider(t *testing.T) *telemetry.MeterProvider {
	t.Helper()
	mp, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{}, zap.NewNop())
	require.NoError(t, err)
	return mp
}

func TestHTTPMetricsWithMeter_Disabled(t *testing.T) {
	mp, reader := setupTestMeter(t)
	router := newTestRouter(HTTPMetricsWithMeter(mp.Meter("http.server"), false))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Nil(t, findMetricByName(collectMetrics(t, reader), "http_server_request_total"))
}

func TestHTTPMetricsWithMeter_RequestCounter(t *testing.T) {
	router, reader := newMetricsRouter(t)

	for _, kind := range []string{"reverse-dcf", "reverse-dcf", "bad"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/valuations/"+kind, strings.NewReader(`{}`)))
	}

	rm := collectMetrics(t, reader)
	total := findMetricByName(rm, "http_server_request_total")
	require.NotNil(t, total)

	sum, ok := total.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 2)

	byClass := map[string]int64{}
	for _, dp := range sum.DataPoints {
		route, _ := dp.Attributes.Value(telemetry.AttrHTTPRoute)
		assert.Equal(t, "/api/v1/valuations/:kind", route.AsString())
		class, _ := dp.Attributes.Value(attrStatusClass)
		byClass[class.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"2xx": 2, "4xx": 1}, byClass)
}

func TestHTTPMetricsWithMeter_Histograms(t *testing.T) {
	router, reader := newMetricsRouter(t)

	body := `{"current_stock_price":"12.50"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/valuations/reverse-dcf", strings.NewReader(body))
	router.ServeHTTP(httptest.NewRecorder(), req)

	rm := collectMetrics(t, reader)

	duration := findMetricByName(rm, "http_server_request_duration_seconds")
	require.NotNil(t, duration)
	hist := duration.Data.(metricdata.Histogram[float64])
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)

	reqSize := findMetricByName(rm, "http_server_request_size_bytes")
	require.NotNil(t, reqSize)
	assert.Equal(t, float64(len(body)), reqSize.Data.(metricdata.Histogram[float64]).DataPoints[0].Sum)

	respSize := findMetricByName(rm, "http_server_response_size_bytes")
	require.NotNil(t, respSize)
	assert.Greater(t, respSize.Data.(metricdata.Histogram[float64]).DataPoints[0].Sum, 0.0)
}

func TestHTTPMetricsWithMeter_ActiveRequests(t *testing.T) {
	router, reader := newMetricsRouter(t)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/valuations/reverse-dcf", nil))

	active := findMetricByName(collectMetrics(t, reader), "http_server_active_requests")
	require.NotNil(t, active)
	sum, ok := active.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(0), sum.DataPoints[0].Value)
}

func TestGetRoutePattern_UnmatchedRoute(t *testing.T) {
	router, reader := newMetricsRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope/123", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	// gin runs global middleware for 404s too
	total := findMetricByName(collectMetrics(t, reader), "http_server_request_total")
	require.NotNil(t, total)
	route, _ := total.Data.(metricdata.Sum[int64]).DataPoints[0].Attributes.Value(telemetry.AttrHTTPRoute)
	assert.Equal(t, "unknown", route.AsString())
}

func TestHTTPMetricsStatusGroup(t *testing.T) {
	tests := map[int]string{
		200: "2xx",
		204: "2xx",
		301: "3xx",
		400: "4xx",
		422: "4xx",
		499: "4xx",
		500: "5xx",
		504: "5xx",
		100: "other",
	}
	for code, want := range tests {
		assert.Equal(t, want, HTTPMetricsStatusGroup(code), "status %d", code)
	}
}

func TestDefaultHTTPMetricsConfig(t *testing.T) {
	cfg := DefaultHTTPMetricsConfig()
	assert.Equal(t, "reverse-dcf", cfg.ServiceName)
	assert.True(t, cfg.Enabled)
	assert.Nil(t, cfg.MeterProvider)
}
