package handler

import (
	"mentorhub/config"
	"mentorhub/controller"
	_ "mentorhub/docs" // Import for swagger docs
	"mentorhub/entity"
	"mentorhub/pkg/logger"
	"mentorhub/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Controllers bundles everything RegisterRoutes mounts.
type Controllers struct {
	Health     *controller.HealthController
	Auth       *controller.AuthController
	User       *controller.UserController
	Profile    *controller.ProfileController
	Progress   *controller.ProgressController
	Assessment *controller.AssessmentController
	Match      *controller.MatchController
}

// RegisterRoutes registers all HTTP routes and middleware
func RegisterRoutes(
	e *echo.Echo,
	c Controllers,
	jwtService service.JWTService,
	cfg *config.Config,
	logger *logger.Logger,
) {
	// Add common middleware
	e.Use(middleware.Recover())
	e.Use(RequestIDMiddleware())
	e.Use(CORSMiddleware())
	e.Use(RequestLoggerMiddleware(logger))
	e.Use(JWTMiddleware(jwtService, logger))

	// System endpoints
	e.GET("/health", c.Health.HealthCheck)
	e.GET("/", c.Health.ServiceInfo)

	// Swagger documentation
	if cfg.Swagger.Enabled {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
		e.GET("/docs/*", echoSwagger.WrapHandler)
	}

	// API v1 group
	v1 := e.Group("/api/v1")

	// Auth routes (public)
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", c.Auth.Register)
	authGroup.POST("/verify-email", c.Auth.VerifyEmail)
	authGroup.POST("/resend-code", c.Auth.ResendCode)
	authGroup.POST("/login", c.Auth.Login)
	authGroup.POST("/forgot-password", c.Auth.ForgotPassword)
	authGroup.POST("/reset-password", c.Auth.ResetPassword)

	// Profile routes (protected)
	v1.GET("/profile", c.Profile.GetProfile)
	v1.PUT("/profile", c.Profile.UpdateProfile)

	// Mentor directory and matching (protected)
	mentorGroup := v1.Group("/mentors")
	mentorGroup.GET("", c.Profile.ListMentors)
	mentorGroup.GET("/matches", c.Match.Matches)

	// Progress routes (protected)
	progressGroup := v1.Group("/progress")
	progressGroup.POST("", c.Progress.CreateEntry)
	progressGroup.GET("", c.Progress.ListEntries)
	progressGroup.PUT("/:id", c.Progress.UpdateEntry)

	// Assessment routes (protected)
	assessmentGroup := v1.Group("/assessments")
	assessmentGroup.POST("", c.Assessment.Submit)
	assessmentGroup.GET("/latest", c.Assessment.GetLatest)

	// User routes (protected; list and management are admin only)
	userGroup := v1.Group("/users")
	userGroup.GET("/me", c.User.Me)

	adminOnly := RequireRole(entity.UserRoleAdmin, logger)
	userGroup.GET("", c.User.ListUsers, adminOnly)
	userGroup.GET("/:id", c.User.GetUser, adminOnly)
	userGroup.PUT("/:id/status", c.User.UpdateStatus, adminOnly)
}
