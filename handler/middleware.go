package handler

import (
	"net/http"
	"strings"
	"time"

	"mentorhub/controller"
	"mentorhub/entity"
	"mentorhub/pkg/logger"
	"mentorhub/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// requestIDContextKey is where RequestIDMiddleware stores the id.
const requestIDContextKey = "request_id"

// publicPathPrefixes are served without a token.
var publicPathPrefixes = []string{
	"/api/v1/auth/",
	"/swagger",
	"/docs",
}

func isPublicPath(path string) bool {
	if path == "/" || path == "/health" {
		return true
	}
	for _, prefix := range publicPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// JWTMiddleware creates a JWT authentication middleware
func JWTMiddleware(jwtService service.JWTService, logger *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Skip authentication for public endpoints
			path := c.Request().URL.Path
			if isPublicPath(path) {
				return next(c)
			}

			// Get Authorization header
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				logger.Warnw("Missing Authorization header", "path", path)
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"error":   "Unauthorized",
					"details": "Missing Authorization header",
				})
			}

			// Check Bearer token format
			if !strings.HasPrefix(authHeader, "Bearer ") {
				logger.Warnw("Invalid Authorization header format", "path", path)
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"error":   "Unauthorized",
					"details": "Invalid Authorization header format",
				})
			}

			// Extract token
			tokenString := authHeader[7:] // Remove "Bearer " prefix

			// Validate token
			token, err := jwtService.ValidateToken(tokenString)
			if err != nil {
				logger.Warnw("Invalid JWT token", "path", path, "error", err)
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"error":   "Unauthorized",
					"details": "Invalid or expired token",
				})
			}

			// Extract claims from token
			claims, err := jwtService.GetClaimsFromToken(token)
			if err != nil {
				logger.Errorw("Failed to extract claims from token", "path", path, "error", err)
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"error":   "Unauthorized",
					"details": "Invalid token claims",
				})
			}

			// Store claims in context
			c.Set(controller.ClaimsContextKey, claims)

			logger.Debugw("JWT authentication successful", "user_id", claims.UserID, "path", path)
			return next(c)
		}
	}
}

// RequireRole gates a route group to one role. Runs after JWTMiddleware.
func RequireRole(role entity.UserRole, logger *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(controller.ClaimsContextKey).(*service.JWTClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"error":   "Unauthorized",
					"details": "Missing authentication",
				})
			}

			if claims.Role != role {
				logger.Warnw("Insufficient role", "path", c.Request().URL.Path, "user_id", claims.UserID, "role", claims.Role)
				return c.JSON(http.StatusForbidden, map[string]interface{}{
					"error":   "Forbidden",
					"details": "Insufficient permissions",
				})
			}

			return next(c)
		}
	}
}

// CORSMiddleware creates a CORS middleware
func CORSMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("Access-Control-Allow-Origin", "*")
			c.Response().Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Response().Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, X-Request-Id")

			if c.Request().Method == "OPTIONS" {
				return c.NoContent(http.StatusNoContent)
			}

			return next(c)
		}
	}
}

// RequestIDMiddleware tags every request with an id, keeping the
// client's X-Request-Id when one is sent.
func RequestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
			}

			c.Set(requestIDContextKey, requestID)
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			return next(c)
		}
	}
}

// RequestLoggerMiddleware creates a request logging middleware
func RequestLoggerMiddleware(logger *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			requestID, _ := c.Get(requestIDContextKey).(string)

			logger.Infow("HTTP Request",
				"request_id", requestID,
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"remote_addr", c.RealIP(),
				"user_agent", c.Request().UserAgent(),
			)

			err := next(c)

			logger.Infow("HTTP Response",
				"request_id", requestID,
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"duration_ms", time.Since(start).Milliseconds(),
			)

			return err
		}
	}
}
