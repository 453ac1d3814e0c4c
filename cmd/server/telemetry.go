package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/arvinbobis/reverse-dcf/internal/infrastructure/config"
	"github.com/arvinbobis/reverse-dcf/internal/infrastructure/logger"
	"github.com/arvinbobis/reverse-dcf/internal/infrastructure/telemetry"
)

// telemetryStack holds the providers started at boot so they can be
// flushed in reverse order on shutdown.
type telemetryStack struct {
	log      *zap.Logger
	tracer   *telemetry.TracerProvider
	meter    *telemetry.MeterProvider
	logs     *telemetry.LoggerProvider
	profiler *telemetry.Profiler
}

// setupTelemetry starts tracing, metrics, the OTLP log bridge and the
// continuous profiler. The returned logger tees into the log bridge when it
// is enabled; on error the original logger is returned.
func setupTelemetry(ctx context.Context, cfg *config.Config, log *zap.Logger) (*telemetryStack, *zap.Logger, error) {
	t := &telemetryStack{log: log}
	tc := cfg.Telemetry

	var err error
	t.tracer, err = telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           tc.Enabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		SamplingRatio:     tc.SamplingRatio,
		ServiceName:       tc.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		return nil, log, fmt.Errorf("tracer: %w", err)
	}

	t.meter, err = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           tc.MetricsEnabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ExportInterval:    tc.MetricsExportInterval,
		ServiceName:       tc.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		t.shutdown(ctx)
		return nil, log, fmt.Errorf("meter: %w", err)
	}

	t.logs, err = telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           tc.LogsEnabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ServiceName:       tc.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		t.shutdown(ctx)
		return nil, log, fmt.Errorf("logs: %w", err)
	}
	if t.logs.IsEnabled() {
		level, err := logger.ParseLevel(tc.LogsLevel)
		if err != nil {
			t.shutdown(ctx)
			return nil, log, fmt.Errorf("logs level: %w", err)
		}
		log = telemetry.NewBridgedLogger(log.Core(), telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
			ServiceName:    tc.ServiceName,
			LoggerProvider: t.logs,
			Level:          level,
		}), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
		t.log = log
		log.Info("OTEL log bridge enabled", zap.String("level", level.String()))
	}

	pc := cfg.Profiling
	t.profiler, err = telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:              pc.Enabled,
		ServerAddress:        pc.ServerAddress,
		ApplicationName:      pc.ApplicationName,
		BasicAuthUser:        pc.BasicAuthUser,
		BasicAuthPassword:    pc.BasicAuthPassword,
		ProfileTypes:         pc.ProfileTypes,
		UploadRate:           pc.UploadRate,
		Tags:                 map[string]string{"env": cfg.App.Env, "version": cfg.App.Version},
		MutexProfileFraction: pc.MutexProfileFraction,
		BlockProfileRate:     pc.BlockProfileRate,
	}, log)
	if err != nil {
		t.shutdown(ctx)
		return nil, log, fmt.Errorf("profiler: %w", err)
	}
	if pc.Enabled && pc.SpanProfiles {
		if err := t.tracer.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to link spans to profiles", zap.Error(err))
		}
	}

	return t, log, nil
}

// shutdown flushes whatever was started. Errors are logged, not returned.
func (t *telemetryStack) shutdown(ctx context.Context) {
	if t.profiler != nil {
		if err := t.profiler.Stop(); err != nil {
			t.log.Error("Error stopping profiler", zap.Error(err))
		}
	}
	if t.logs != nil {
		if err := t.logs.Shutdown(ctx); err != nil {
			t.log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}
	if t.meter != nil {
		if err := t.meter.Shutdown(ctx); err != nil {
			t.log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}
	if t.tracer != nil {
		if err := t.tracer.Shutdown(ctx); err != nil {
			t.log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}
}
