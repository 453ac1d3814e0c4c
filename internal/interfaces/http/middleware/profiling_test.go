package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvinbobis/reverse-dcf/internal/infrastructure/telemetry"
)

func TestDefaultProfilingConfig(t *testing.T) {
	cfg := DefaultProfilingConfig()

	assert.True(t, cfg.Enabled)
	assert.Contains(t, cfg.SkipPaths, "/health")
	assert.Contains(t, cfg.SkipPathPrefixes, "/swagger")
}

func TestProfilingMiddleware_Disabled(t *testing.T) {
	router := newTestRouter(ProfilingWithConfig(ProfilingConfig{Enabled: false}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

// labelsSeen runs one request through the middleware and returns the pprof
// labels visible to the handler.
func labelsSeen(t *testing.T, route, path string) map[string]string {
	t.Helper()

	seen := map[string]string{}
	router := gin.New()
	router.Use(Profiling())
	router.POST(route, func(c *gin.Context) {
		pprof.ForLabels(c.Request.Context(), func(key, value string) bool {
			seen[key] = value
			return true
		})
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
	require.Equal(t, http.StatusOK, w.Code)
	return seen
}

func TestProfilingMiddleware_AddsLabels(t *testing.T) {
	seen := labelsSeen(t, "/api/v1/valuations/reverse-dcf", "/api/v1/valuations/reverse-dcf")

	assert.Equal(t, map[string]string{
		telemetry.ProfilingLabelMethod:   "POST",
		telemetry.ProfilingLabelRoute:    "/api/v1/valuations/reverse-dcf",
		telemetry.ProfilingLabelEndpoint: "reverse-dcf",
	}, seen)
}

func TestProfilingMiddleware_SkipPaths(t *testing.T) {
	for _, path := range []string{"/health", "/swagger/index.html"} {
		t.Run(path, func(t *testing.T) {
			assert.Empty(t, labelsSeen(t, path, path))
		})
	}
}

func TestProfilingMiddleware_ContextPreserved(t *testing.T) {
	type ctxKey struct{}

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), ctxKey{}, "kept"))
		c.Next()
	})
	router.Use(Profiling())
	router.GET("/api/v1/system/info", func(c *gin.Context) {
		c.String(http.StatusOK, c.Request.Context().Value(ctxKey{}).(string))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/system/info", nil))

	assert.Equal(t, "kept", w.Body.String())
}

func TestEndpointFromRoute(t *testing.T) {
	tests := map[string]string{
		"/api/v1/valuations/reverse-dcf":   "reverse-dcf",
		"/api/v1/valuations/custom-growth": "custom-growth",
		"/api/v1/valuations/:id":           "valuations",
		"/api/v1/system/info":              "info",
		"/health":                          "health",
		"/api/v1":                          "",
		"":                                 "",
	}
	for route, want := range tests {
		assert.Equal(t, want, endpointFromRoute(route), "route %q", route)
	}
}

func TestIsVersionSegment(t *testing.T) {
	for segment, want := range map[string]bool{
		"v1":  true,
		"V2":  true,
		"v10": true,
		"v":   false,
		"va":  false,
		"x1":  false,
	} {
		assert.Equal(t, want, isVersionSegment(segment), segment)
	}
}
