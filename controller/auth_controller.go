package controller

import (
	"errors"
	"net/http"
	"strconv"

	"mentorhub/entity"
	"mentorhub/pkg/logger"
	"mentorhub/service"
	"mentorhub/validator"

	"github.com/labstack/echo/v4"
)

// AuthController handles registration, verification and login
type AuthController struct {
	authService service.AuthService
	validator   *validator.Validator
	logger      *logger.Logger
}

// NewAuthController creates a new auth controller instance
func NewAuthController(authService service.AuthService, validator *validator.Validator, logger *logger.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		validator:   validator,
		logger:      logger,
	}
}

// Register handles account creation
// @Summary Register
// @Description Create an account and send an e-mail verification code
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body entity.RegisterRequest true "Registration details"
// @Success 200 {object} entity.RegisterResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /auth/register [post]
func (c *AuthController) Register(ctx echo.Context) error {
	var req entity.RegisterRequest

	// Bind request body
	if err := ctx.Bind(&req); err != nil {
		c.logger.Errorw("Failed to bind request", "error", err)
		return ctx.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
	}

	// Validate request
	if err := c.validator.ValidateStruct(&req); err != nil {
		c.logger.Warnw("Validation failed", "error", err)
		return ctx.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "Validation failed",
			"details": err.Error(),
		})
	}

	response, err := c.authService.Register(&req, ctx.RealIP(), ctx.Request().UserAgent())
	if err != nil {
		var rateLimitErr *service.RateLimitError
		if errors.As(err, &rateLimitErr) {
			return c.tooManyRequests(ctx, rateLimitErr)
		}
		if errors.Is(err, service.ErrEmailAlreadyRegistered) {
			return ctx.JSON(http.StatusConflict, map[string]interface{}{
				"error":   "Email already registered",
				"details": "Log in instead, or use the password reset flow",
			})
		}

		c.logger.Errorw("Failed to register user", "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error":   "Failed to register",
			"details": "Internal server error",
		})
	}

	c.logger.Infow("Registration accepted", "email", response.Email)
	return ctx.JSON(http.StatusOK, response)
}

// VerifyEmail handles e-mail verification codes
// @Summary Verify e-mail
// @Description Confirm the e-mailed code and sign the user in
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body entity.VerifyEmailRequest true "E-mail and code"
// @Success 200 {object} entity.AuthResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /auth/verify-email [post]
func (c *AuthController) VerifyEmail(ctx echo.Context) error {
	var req entity.VerifyEmailRequest

	// Bind request body
	if err := ctx.Bind(&req); err != nil {
		c.logger.Errorw("Failed to bind request", "error", err)
		return ctx.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
	}

	// Validate request
	if err := c.validator.ValidateStruct(&req); err != nil {
		c.logger.Warnw("Validation failed", "error", err)
		return ctx.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "Validation failed",
			"details": err.Error(),
		})
	}

	response, err := c.authService.VerifyEmail(&req)
	if err != nil {
		var verificationErr *service.VerificationError
		if errors.As(err, &verificationErr) {
			c.logger.Warnw("E-mail verification failed", "reason", verificationErr.Reason)
			return c.verificationFailed(ctx, verificationErr)
		}
		if errors.Is(err, service.ErrUserNotFound) {
			return ctx.JSON(http.StatusNotFound, map[string]interface{}{
				"error":   "User not found",
				"details": "No account exists for that address",
			})
		}
		if errors.Is(err, service.ErrAccountDisabled) {
			return ctx.JSON(http.StatusForbidden, map[string]interface{}{
				"error":   "Account disabled",
				"details": "Contact support to reactivate your account",
			})
		}

		c.logger.Errorw("Failed to verify e-mail", "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error":   "Failed to verify e-mail",
			"details": "Internal server error",
		})
	}

	return ctx.JSON(http.StatusOK, response)
}

// ResendCode handles verification code resends
// @Summary Resend verification code
// @Description Send a fresh verification code for an unverified account
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body entity.ResendCodeRequest true "E-mail address"
// @Success 200 {object} entity.MessageResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /auth/resend-code [post]
func (c *AuthController) ResendCode(ctx echo.Context) error {
	var req entity.ResendCodeRequest

	// Bind request body
	if err := ctx.Bind(&req); err != nil {
		c.logger.Errorw("Failed to bind request", "error", err)
		return ctx.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
	}

	// Validate request
	if err := c.validator.ValidateStruct(&req); err != nil {
		c.logger.Warnw("Validation failed", "error", err)
		return ctx.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "Validation failed",
			"details": err.Error(),
		})
	}

	response, err := c.authService.ResendCode(&req, ctx.RealIP(), ctx.Request().UserAgent())
	if err != nil {
		c.logger.Errorw("Failed to resend code", "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error":   "Failed to resend code",
			"details": "Internal server error",
		})
	}

	return ctx.JSON(http.StatusOK, response)
}

// Login handles credential login
// @Summary Login
// @Description Authenticate with e-mail and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body entity.LoginRequest true "Credentials"
// @Success 200 {object} entity.AuthResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /auth/login [post]
func (c *AuthController) Login(ctx echo.Context) error {
	var req entity.LoginRequest

	// Bind request body
	if err := ctx.Bind(&req); err != nil {
		c.logger.Errorw("Failed to bind request", "error", err)
		return ctx.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
	}

	// Validate request
	if err := c.validator.ValidateStruct(&req); err != nil {
		c.logger.Warnw("Validation failed", "error", err)
		return ctx.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "Validation failed",
			"details": err.Error(),
		})
	}

	response, err := c.authService.Login(&req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return ctx.JSON(http.StatusUnauthorized, map[string]interface{}{
				"error":   "Invalid credentials",
				"details": "E-mail or password is incorrect",
			})
		}
		if errors.Is(err, service.ErrEmailNotVerified) {
			return ctx.JSON(http.StatusForbidden, map[string]interface{}{
				"error":   "Email not verified",
				"details": "Verify your e-mail before logging in",
			})
		}
		if errors.Is(err, service.ErrAccountDisabled) {
			return ctx.JSON(http.StatusForbidden, map[string]interface{}{
				"error":   "Account disabled",
				"details": "Contact support to reactivate your account",
			})
		}

		c.logger.Errorw("Failed to log in", "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error":   "Failed to log in",
			"details": "Internal server error",
		})
	}

	return ctx.JSON(http.StatusOK, response)
}

// ForgotPassword starts the password reset flow
// @Summary Forgot password
// @Description Send a password reset code if the account exists
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body entity.ForgotPasswordRequest true "E-mail address"
// @Success 200 {object} entity.MessageResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /auth/forgot-password [post]
func (c *AuthController) ForgotPassword(ctx echo.Context) error {
	var req entity.ForgotPasswordRequest

	// Bind request body
	if err := ctx.Bind(&req); err != nil {
		c.logger.Errorw("Failed to bind request", "error", err)
		return ctx.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
	}

	// Validate request
	if err := c.validator.ValidateStruct(&req); err != nil {
		c.logger.Warnw("Validation failed", "error", err)
		return ctx.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "Validation failed",
			"details": err.Error(),
		})
	}

	response, err := c.authService.ForgotPassword(&req, ctx.RealIP(), ctx.Request().UserAgent())
	if err != nil {
		c.logger.Errorw("Failed to start password reset", "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error":   "Failed to start password reset",
			"details": "Internal server error",
		})
	}

	return ctx.JSON(http.StatusOK, response)
}

// ResetPassword completes the password reset flow
// @Summary Reset password
// @Description Confirm the reset code and set a new password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body entity.ResetPasswordRequest true "E-mail, code and new password"
// @Success 200 {object} entity.MessageResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /auth/reset-password [post]
func (c *AuthController) ResetPassword(ctx echo.Context) error {
	var req entity.ResetPasswordRequest

	// Bind request body
	if err := ctx.Bind(&req); err != nil {
		c.logger.Errorw("Failed to bind request", "error", err)
		return ctx.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
	}

	// Validate request
	if err := c.validator.ValidateStruct(&req); err != nil {
		c.logger.Warnw("Validation failed", "error", err)
		return ctx.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "Validation failed",
			"details": err.Error(),
		})
	}

	response, err := c.authService.ResetPassword(&req)
	if err != nil {
		var verificationErr *service.VerificationError
		if errors.As(err, &verificationErr) {
			c.logger.Warnw("Password reset verification failed", "reason", verificationErr.Reason)
			return c.verificationFailed(ctx, verificationErr)
		}
		if errors.Is(err, service.ErrUserNotFound) {
			return ctx.JSON(http.StatusNotFound, map[string]interface{}{
				"error":   "User not found",
				"details": "No account exists for that address",
			})
		}

		c.logger.Errorw("Failed to reset password", "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error":   "Failed to reset password",
			"details": "Internal server error",
		})
	}

	return ctx.JSON(http.StatusOK, response)
}

// tooManyRequests renders a denied issuance with its retry hint.
func (c *AuthController) tooManyRequests(ctx echo.Context, err *service.RateLimitError) error {
	ctx.Response().Header().Set("Retry-After", strconv.Itoa(err.RetryAfterSeconds))
	return ctx.JSON(http.StatusTooManyRequests, map[string]interface{}{
		"error":               "Too many requests",
		"details":             err.Error(),
		"retry_after_seconds": err.RetryAfterSeconds,
	})
}

// verificationFailed renders a failed code check. Attempts remaining are
// only meaningful for a mismatch.
func (c *AuthController) verificationFailed(ctx echo.Context, err *service.VerificationError) error {
	payload := map[string]interface{}{
		"error":   "Verification failed",
		"details": err.Error(),
	}
	if err.Reason == service.VerifyReasonCodeMismatch {
		payload["attempts_remaining"] = err.AttemptsRemaining
	}
	return ctx.JSON(http.StatusBadRequest, payload)
}
