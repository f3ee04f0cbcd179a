package controller

import (
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// HealthController reports service liveness and dependency status
type HealthController struct {
	db    *sqlx.DB
	redis *redis.Client
}

// NewHealthController creates a new health controller. The redis client
// is nil unless the redis rate limiter is active.
func NewHealthController(db *sqlx.DB, redisClient *redis.Client) *HealthController {
	return &HealthController{
		db:    db,
		redis: redisClient,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string            `json:"status" example:"healthy"`
	Service string            `json:"service" example:"mentorhub-api"`
	Version string            `json:"version" example:"1.0.0"`
	Checks  map[string]string `json:"checks"`
}

// HealthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the service and its dependencies
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthController) HealthCheck(c echo.Context) error {
	status := "healthy"
	httpStatus := http.StatusOK
	checks := map[string]string{}

	if err := h.db.Ping(); err != nil {
		checks["database"] = "down"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["database"] = "up"
	}

	if h.redis != nil {
		if err := h.redis.Ping(c.Request().Context()).Err(); err != nil {
			checks["redis"] = "down"
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["redis"] = "up"
		}
	}

	return c.JSON(httpStatus, HealthResponse{
		Status:  status,
		Service: "mentorhub-api",
		Version: "1.0.0",
		Checks:  checks,
	})
}

// ServiceInfoResponse represents the service info response
type ServiceInfoResponse struct {
	Message string `json:"message" example:"MentorHub API"`
	Version string `json:"version" example:"1.0.0"`
	Docs    string `json:"docs" example:"/swagger/index.html"`
}

// ServiceInfo godoc
// @Summary Service information
// @Description Returns basic service information and documentation links
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} ServiceInfoResponse
// @Router / [get]
func (h *HealthController) ServiceInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, ServiceInfoResponse{
		Message: "MentorHub API",
		Version: "1.0.0",
		Docs:    "/swagger/index.html",
	})
}
