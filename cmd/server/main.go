package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	appvaluation "github.com/arvinbobis/reverse-dcf/internal/application/valuation"
	"github.com/arvinbobis/reverse-dcf/internal/domain/valuation"
	"github.com/arvinbobis/reverse-dcf/internal/infrastructure/config"
	"github.com/arvinbobis/reverse-dcf/internal/infrastructure/logger"
	"github.com/arvinbobis/reverse-dcf/internal/infrastructure/telemetry"
	"github.com/arvinbobis/reverse-dcf/internal/interfaces/http/handler"
	"github.com/arvinbobis/reverse-dcf/internal/interfaces/http/middleware"
	"github.com/arvinbobis/reverse-dcf/internal/interfaces/http/router"

	_ "github.com/arvinbobis/reverse-dcf/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Reverse DCF API
//	@version		1.0
//	@description	Solves for the growth rate a stock price implies under a discounted cash flow model.

//	@contact.name	API Support

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	configPath := pflag.StringP("config", "c", "", "Path to a config file (default: config.toml in ., ./config or /etc/reverse-dcf)")
	pflag.Parse()

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(cfg.Log.LoggerConfig())
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting reverse DCF service",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()
	tel, log, err := setupTelemetry(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	// Valuation engine
	solver, err := valuation.NewSolver(cfg.Valuation.SolverConfig())
	if err != nil {
		log.Fatal("Invalid solver configuration", zap.Error(err))
	}
	metrics, err := telemetry.NewValuationMetrics(tel.meter.Meter("reverse-dcf/valuation"))
	if err != nil {
		log.Fatal("Failed to create valuation metrics", zap.Error(err))
	}
	valuationService, err := appvaluation.NewService(solver, appvaluation.Config{
		Sensitivity:      cfg.Valuation.SensitivityConfig(),
		Timeout:          cfg.Valuation.Timeout,
		MaxBatchItems:    cfg.Batch.MaxItems,
		BatchConcurrency: cfg.Batch.Concurrency,
	}, metrics)
	if err != nil {
		log.Fatal("Failed to create valuation service", zap.Error(err))
	}
	log.Info("Valuation engine ready",
		zap.String("baseline", string(solver.Config().Baseline)),
		zap.Float64("price_tolerance", solver.Config().PriceTolerance),
		zap.Duration("timeout", cfg.Valuation.Timeout),
	)

	// Initialize HTTP handlers
	valuationHandler := handler.NewValuationHandler(valuationService)
	systemHandler := handler.NewSystemHandler(cfg.App.Name, cfg.App.Version, cfg.App.Env, valuationService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order:
	// 1. RequestID - generate/propagate request ID
	// 2. Logger - request log line and request-scoped logger
	// 3. Recovery - catch panics, after the logger so they are logged with the request ID
	// 4. Security headers and CORS
	// 5. BodyLimit and RateLimit
	// 6. Tracing, HTTP metrics and profiling labels
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	tracingConfig := middleware.DefaultTracingConfig()
	tracingConfig.ServiceName = cfg.Telemetry.ServiceName
	tracingConfig.Enabled = cfg.Telemetry.Enabled
	engine.Use(middleware.TracingWithConfig(tracingConfig))
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: tel.meter,
		ServiceName:   cfg.Telemetry.ServiceName,
		Enabled:       cfg.Telemetry.MetricsEnabled,
	}))
	profilingConfig := middleware.DefaultProfilingConfig()
	profilingConfig.Enabled = cfg.Profiling.Enabled
	engine.Use(middleware.ProfilingWithConfig(profilingConfig))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", systemHandler.Health)

	// Swagger documentation endpoint
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:    cfg.HTTP.SwaggerEnabled,
			AllowedIPs: cfg.HTTP.SwaggerAllowedIPs,
		}),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	valuationRoutes := router.NewDomainGroup("valuations", "/valuations")
	valuationRoutes.POST("/reverse-dcf", valuationHandler.ReverseDCF)
	valuationRoutes.POST("/custom-growth", valuationHandler.CustomGrowth)
	valuationRoutes.POST("/batch", valuationHandler.Batch)

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(valuationRoutes).
		Register(systemRoutes).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	tel.shutdown(shutdownCtx)

	log.Info("Server exited gracefully")
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
