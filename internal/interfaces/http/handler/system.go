package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arvinbobis/reverse-dcf/internal/infrastructure/logger"
	"github.com/arvinbobis/reverse-dcf/internal/interfaces/http/dto"
	"github.com/arvinbobis/reverse-dcf/internal/interfaces/http/middleware"
)

// HealthChecker reports whether the valuation engine can serve requests.
type HealthChecker interface {
	SelfCheck(ctx context.Context) error
}

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	env       string
	health    HealthChecker
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler. health may be nil, in which
// case the health endpoint only reports liveness.
func NewSystemHandler(name, version, env string, health HealthChecker) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		env:       env,
		health:    health,
		startTime: time.Now(),
	}
}

// SystemInfoResponse represents the system information response
// @name HandlerSystemInfoResponse
type SystemInfoResponse struct {
	Name        string `json:"name" example:"reverse-dcf"`
	Version     string `json:"version" example:"1.0.0"`
	Environment string `json:"environment" example:"production"`
	GoVersion   string `json:"go_version" example:"go1.25.5"`
	Uptime      string `json:"uptime" example:"1h30m45s"`
}

// GetSystemInfo godoc
// @ID           getSystemSystemInfo
// @Summary      Get system information
// @Description  Returns the service name, version and uptime
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[SystemInfoResponse]
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:        h.name,
		Version:     h.version,
		Environment: h.env,
		GoVersion:   runtime.Version(),
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
	})
}

// PingResponse represents the ping response
// @name HandlerPingResponse
type PingResponse struct {
	Message   string `json:"message" example:"pong"`
	Timestamp string `json:"timestamp" example:"2026-01-23T12:00:00Z"`
}

// Ping godoc
// @ID           pingSystem
// @Summary      Ping the API
// @Description  Simple ping endpoint to check if the API is responsive
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[PingResponse]
// @Router       /system/ping [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{
		Message:   "pong",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthResponse is the body of the health endpoint.
// @name HandlerHealthResponse
type HealthResponse struct {
	Status string `json:"status" example:"healthy"`
	Time   string `json:"time" example:"2026-01-23T12:00:00Z"`
	Engine string `json:"engine" example:"ok"`
}

// Health godoc
// @ID           getHealth
// @Summary      Health check
// @Description  Solves a reference valuation; 503 when the engine cannot answer
// @Tags         system
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	now := time.Now().UTC().Format(time.RFC3339)
	if h.health == nil {
		c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Time: now, Engine: "unchecked"})
		return
	}

	if err := h.health.SelfCheck(c.Request.Context()); err != nil {
		logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
		c.Set(middleware.ErrorCodeKey, dto.ErrCodeInternal)
		c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", Time: now, Engine: "error"})
		return
	}
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Time: now, Engine: "ok"})
}
