package telemetry_test

import (
	"testing"

	"github.com/arvinbobis/reverse-dcf/internal/infrastructure/telemetry"
	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := telemetry.NewProfiler(telemetry.ProfilerConfig{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_MissingSettings(t *testing.T) {
	logger := zaptest.NewLogger(t)

	_, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         true,
		ApplicationName: "reverse-dcf",
	}, logger)
	assert.ErrorContains(t, err, "server address")

	_, err = telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:       true,
		ServerAddress: "http://localhost:4040",
	}, logger)
	assert.ErrorContains(t, err, "application name")

	_, err = telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         true,
		ServerAddress:   "http://localhost:4040",
		ApplicationName: "reverse-dcf",
		ProfileTypes:    []string{"cpu", "gpu"},
	}, logger)
	assert.ErrorContains(t, err, `unknown profile type "gpu"`)
}

func TestParseProfileTypes(t *testing.T) {
	types, err := telemetry.ParseProfileTypes(nil)
	require.NoError(t, err)
	assert.Equal(t, []pyroscope.ProfileType{pyroscope.ProfileCPU}, types)

	types, err = telemetry.ParseProfileTypes([]string{"CPU", " alloc_space", "cpu", "goroutines"})
	require.NoError(t, err)
	assert.Equal(t, []pyroscope.ProfileType{
		pyroscope.ProfileCPU,
		pyroscope.ProfileAllocSpace,
		pyroscope.ProfileGoroutines,
	}, types)
}
