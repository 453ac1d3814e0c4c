package middleware

import (
	"context"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arvinbobis/reverse-dcf/internal/infrastructure/telemetry"
)

// ProfilingConfig holds configuration for the profiling middleware.
type ProfilingConfig struct {
	// Enabled controls whether profiling labels are added to requests.
	Enabled bool
	// SkipPaths are paths that don't need profiling labels (e.g., health checks).
	SkipPaths []string
	// SkipPathPrefixes are path prefixes that don't need profiling labels.
	SkipPathPrefixes []string
}

// DefaultProfilingConfig returns default profiling middleware configuration.
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled: true,
		SkipPaths: []string{
			"/health",
			"/api/v1/system/ping",
		},
		SkipPathPrefixes: []string{
			"/swagger",
		},
	}
}

// Profiling returns profiling middleware with default configuration.
func Profiling() gin.HandlerFunc {
	return ProfilingWithConfig(DefaultProfilingConfig())
}

// ProfilingWithConfig attaches Pyroscope labels to the rest of the chain:
//   - method: HTTP method
//   - route: route pattern, e.g. "/api/v1/valuations/reverse-dcf"
//   - endpoint: last static route segment, e.g. "reverse-dcf"
//
// The service layer adds its own operation label underneath, so a CPU
// profile can be split by endpoint and by solver stage.
func ProfilingWithConfig(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return passThrough
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if slices.Contains(cfg.SkipPaths, path) {
			c.Next()
			return
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		telemetry.WithProfilingLabels(c.Request.Context(), extractProfilingLabels(c), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// extractProfilingLabels extracts low-cardinality labels from the request.
func extractProfilingLabels(c *gin.Context) map[string]string {
	labels := make(map[string]string, 3)

	if method := c.Request.Method; method != "" {
		labels[telemetry.ProfilingLabelMethod] = method
	}

	// Unmatched routes have no pattern and would leak raw paths
	route := c.FullPath()
	if route == "" {
		return labels
	}
	labels[telemetry.ProfilingLabelRoute] = route

	if endpoint := endpointFromRoute(route); endpoint != "" {
		labels[telemetry.ProfilingLabelEndpoint] = endpoint
	}
	return labels
}

// endpointFromRoute returns the last static segment of a route pattern.
// "/api/v1/valuations/reverse-dcf" gives "reverse-dcf"; "/api/v1" gives "".
func endpointFromRoute(route string) string {
	parts := strings.Split(route, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		part := parts[i]
		if part == "" || part == "api" || isVersionSegment(part) {
			continue
		}
		if strings.HasPrefix(part, ":") || strings.HasPrefix(part, "*") {
			continue
		}
		return part
	}
	return ""
}

// isVersionSegment checks if a path segment is an API version (v1, v2, etc.)
func isVersionSegment(segment string) bool {
	if len(segment) < 2 || (segment[0] != 'v' && segment[0] != 'V') {
		return false
	}
	for i := 1; i < len(segment); i++ {
		if segment[i] < '0' || segment[i] > '9' {
			return false
		}
	}
	return true
}
