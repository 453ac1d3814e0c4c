package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/arvinbobis/reverse-dcf/internal/domain/valuation"
	"github.com/arvinbobis/reverse-dcf/internal/infrastructure/logger"
)

// EnvPrefix prefixes every environment override, e.g. RDCF_HTTP_MAX_BODY_SIZE.
const EnvPrefix = "RDCF"

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Telemetry TelemetryConfig
	Profiling ProfilingConfig
	Valuation ValuationConfig
	Batch     BatchConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name    string
	Env     string
	Port    string
	Version string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	Output     string // stdout, stderr, or file path
	TimeFormat string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
	SwaggerEnabled    bool
	SwaggerAllowedIPs []string // IPs or CIDRs; empty allows everyone
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled               bool    // Export traces
	CollectorEndpoint     string  // OTLP gRPC endpoint, e.g. "localhost:4317"
	SamplingRatio         float64 // 0.0-1.0
	ServiceName           string
	Insecure              bool // Plaintext gRPC (development only)
	MetricsEnabled        bool
	MetricsExportInterval time.Duration
	LogsEnabled           bool   // Bridge zap entries to the collector
	LogsLevel             string // Minimum level exported through the bridge
}

// ProfilingConfig holds Pyroscope continuous profiling configuration
type ProfilingConfig struct {
	Enabled              bool
	ServerAddress        string
	ApplicationName      string
	BasicAuthUser        string
	BasicAuthPassword    string
	ProfileTypes         []string
	UploadRate           time.Duration
	MutexProfileFraction int
	BlockProfileRate     int
	SpanProfiles         bool // Link CPU samples to trace spans
}

// ValuationConfig tunes the reverse DCF engine.
type ValuationConfig struct {
	InitialLowGrowth     float64
	InitialHighGrowth    float64
	PriceTolerance       float64
	MaxIterations        int
	MaxBracketExpansions int
	Baseline             string // zero or terminal
	SensitivityStep      float64
	SensitivityPoints    int // points on each side of the implied rate
	Timeout              time.Duration
}

// BatchConfig limits batch valuation requests.
type BatchConfig struct {
	MaxItems    int
	Concurrency int
}

// Load loads configuration from config.toml and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with RDCF_ prefix (e.g., RDCF_VALUATION_TIMEOUT)
// 2. config.toml in ., ./config or /etc/reverse-dcf
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/reverse-dcf")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return load(v)
}

// LoadFile loads configuration from an explicit file. Environment variables
// still take precedence.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Zero is a legal value for these, so they cannot go through applyDefaults.
	defaults := valuation.DefaultSolverConfig()
	sensitivity := valuation.DefaultSensitivityConfig()
	v.SetDefault("valuation.initial_low_growth", defaults.InitialLow)
	v.SetDefault("valuation.initial_high_growth", defaults.InitialHigh)
	v.SetDefault("valuation.sensitivity_points", sensitivity.PointsPerSide)
	v.SetDefault("http.rate_limit_enabled", true)
	v.SetDefault("http.swagger_enabled", true)

	cfg := &Config{
		App: AppConfig{
			Name:    v.GetString("app.name"),
			Env:     v.GetString("app.env"),
			Port:    v.GetString("app.port"),
			Version: v.GetString("app.version"),
		},
		Log: LogConfig{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			Output:     v.GetString("log.output"),
			TimeFormat: v.GetString("log.time_format"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			ShutdownTimeout:   v.GetDuration("http.shutdown_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
			SwaggerEnabled:    v.GetBool("http.swagger_enabled"),
			SwaggerAllowedIPs: v.GetStringSlice("http.swagger_allowed_ips"),
		},
		Telemetry: TelemetryConfig{
			Enabled:               v.GetBool("telemetry.enabled"),
			CollectorEndpoint:     v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:         v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:           v.GetString("telemetry.service_name"),
			Insecure:              v.GetBool("telemetry.insecure"),
			MetricsEnabled:        v.GetBool("telemetry.metrics_enabled"),
			MetricsExportInterval: v.GetDuration("telemetry.metrics_export_interval"),
			LogsEnabled:           v.GetBool("telemetry.logs_enabled"),
			LogsLevel:             v.GetString("telemetry.logs_level"),
		},
		Profiling: ProfilingConfig{
			Enabled:              v.GetBool("profiling.enabled"),
			ServerAddress:        v.GetString("profiling.server_address"),
			ApplicationName:      v.GetString("profiling.application_name"),
			BasicAuthUser:        v.GetString("profiling.basic_auth_user"),
			BasicAuthPassword:    v.GetString("profiling.basic_auth_password"),
			ProfileTypes:         v.GetStringSlice("profiling.profile_types"),
			UploadRate:           v.GetDuration("profiling.upload_rate"),
			MutexProfileFraction: v.GetInt("profiling.mutex_profile_fraction"),
			BlockProfileRate:     v.GetInt("profiling.block_profile_rate"),
			SpanProfiles:         v.GetBool("profiling.span_profiles"),
		},
		Valuation: ValuationConfig{
			InitialLowGrowth:     v.GetFloat64("valuation.initial_low_growth"),
			InitialHighGrowth:    v.GetFloat64("valuation.initial_high_growth"),
			PriceTolerance:       v.GetFloat64("valuation.price_tolerance"),
			MaxIterations:        v.GetInt("valuation.max_iterations"),
			MaxBracketExpansions: v.GetInt("valuation.max_bracket_expansions"),
			Baseline:             v.GetString("valuation.baseline"),
			SensitivityStep:      v.GetFloat64("valuation.sensitivity_step"),
			SensitivityPoints:    v.GetInt("valuation.sensitivity_points"),
			Timeout:              v.GetDuration("valuation.timeout"),
		},
		Batch: BatchConfig{
			MaxItems:    v.GetInt("batch.max_items"),
			Concurrency: v.GetInt("batch.concurrency"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "reverse-dcf"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.App.Version == "" {
		cfg.App.Version = "1.0.0"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		if cfg.App.Env == "production" {
			cfg.Log.Format = "json"
		} else {
			cfg.Log.Format = "console"
		}
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Log.TimeFormat == "" {
		cfg.Log.TimeFormat = "2006-01-02T15:04:05.000Z07:00"
	}

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 30 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 120
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	// No default origins: cross-origin requests stay blocked until configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID"}
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsExportInterval == 0 {
		cfg.Telemetry.MetricsExportInterval = 60 * time.Second
	}
	if cfg.Telemetry.LogsLevel == "" {
		cfg.Telemetry.LogsLevel = "info"
	}

	if cfg.Profiling.ApplicationName == "" {
		cfg.Profiling.ApplicationName = cfg.App.Name
	}
	if cfg.Profiling.UploadRate == 0 {
		cfg.Profiling.UploadRate = 15 * time.Second
	}

	defaults := valuation.DefaultSolverConfig()
	if cfg.Valuation.PriceTolerance == 0 {
		cfg.Valuation.PriceTolerance = defaults.PriceTolerance
	}
	if cfg.Valuation.MaxIterations == 0 {
		cfg.Valuation.MaxIterations = defaults.MaxIterations
	}
	if cfg.Valuation.MaxBracketExpansions == 0 {
		cfg.Valuation.MaxBracketExpansions = defaults.MaxBracketExpansions
	}
	if cfg.Valuation.Baseline == "" {
		cfg.Valuation.Baseline = string(defaults.Baseline)
	}
	if cfg.Valuation.SensitivityStep == 0 {
		cfg.Valuation.SensitivityStep = valuation.DefaultSensitivityConfig().Step
	}
	if cfg.Valuation.Timeout == 0 {
		cfg.Valuation.Timeout = 2 * time.Second
	}

	if cfg.Batch.MaxItems == 0 {
		cfg.Batch.MaxItems = 100
	}
	if cfg.Batch.Concurrency == 0 {
		cfg.Batch.Concurrency = 8
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if _, err := logger.ParseLevel(c.Telemetry.LogsLevel); err != nil {
		return fmt.Errorf("telemetry.logs_level: %w", err)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}

	if c.HTTP.MaxBodySize < 0 {
		return fmt.Errorf("http.max_body_size cannot be negative")
	}
	if c.HTTP.RateLimitEnabled && c.HTTP.RateLimitRequests < 1 {
		return fmt.Errorf("http.rate_limit_requests must be positive")
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	if c.Profiling.Enabled && c.Profiling.ServerAddress == "" {
		return fmt.Errorf("profiling.server_address is required when profiling is enabled")
	}

	if err := c.Valuation.SolverConfig().Validate(); err != nil {
		return fmt.Errorf("valuation: %w", err)
	}
	if err := c.Valuation.SensitivityConfig().Validate(); err != nil {
		return fmt.Errorf("valuation: %w", err)
	}
	if c.Valuation.Timeout < 0 {
		return fmt.Errorf("valuation.timeout cannot be negative")
	}

	if c.Batch.MaxItems < 1 {
		return fmt.Errorf("batch.max_items must be positive")
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch.concurrency must be positive")
	}

	if c.App.Env == "production" {
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Telemetry.Insecure && (c.Telemetry.Enabled || c.Telemetry.MetricsEnabled || c.Telemetry.LogsEnabled) {
			return fmt.Errorf("telemetry.insecure must be false in production")
		}
	}

	return nil
}

// SolverConfig converts the settings into the engine's solver configuration.
func (c ValuationConfig) SolverConfig() valuation.SolverConfig {
	return valuation.SolverConfig{
		InitialLow:           c.InitialLowGrowth,
		InitialHigh:          c.InitialHighGrowth,
		PriceTolerance:       c.PriceTolerance,
		MaxIterations:        c.MaxIterations,
		MaxBracketExpansions: c.MaxBracketExpansions,
		Baseline:             valuation.Baseline(strings.ToLower(c.Baseline)),
	}
}

// SensitivityConfig converts the settings into the sensitivity grid configuration.
func (c ValuationConfig) SensitivityConfig() valuation.SensitivityConfig {
	return valuation.SensitivityConfig{
		Step:          c.SensitivityStep,
		PointsPerSide: c.SensitivityPoints,
	}
}

// LoggerConfig converts the log section for logger.New.
func (c LogConfig) LoggerConfig() *logger.Config {
	return &logger.Config{
		Level:      c.Level,
		Format:     c.Format,
		Output:     c.Output,
		TimeFormat: c.TimeFormat,
	}
}
