package controller

import (
	"errors"
	"net/http"

	"mentorhub/entity"
	"mentorhub/pkg/logger"
	"mentorhub/service"
	"mentorhub/validator"

	"github.com/labstack/echo/v4"
)

// ProfileController handles onboarding profiles and the mentor directory
type ProfileController struct {
	profileService service.ProfileService
	validator      *validator.Validator
	logger         *logger.Logger
}

// NewProfileController creates a new profile controller instance
func NewProfileController(profileService service.ProfileService, validator *validator.Validator, logger *logger.Logger) *ProfileController {
	return &ProfileController{
		profileService: profileService,
		validator:      validator,
		logger:         logger,
	}
}

// GetProfile returns the caller's profile
// @Summary Get own profile
// @Description Get the calling user's onboarding profile
// @Tags Profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} entity.Profile
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /profile [get]
func (c *ProfileController) GetProfile(ctx echo.Context) error {
	claims, ok := claimsFromContext(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, map[string]interface{}{
			"error":   "Unauthorized",
			"details": "Missing authentication",
		})
	}

	profile, err := c.profileService.GetOwn(claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			return ctx.JSON(http.StatusNotFound, map[string]interface{}{
				"error":   "Profile not found",
				"details": "Complete onboarding to create your profile",
			})
		}

		c.logger.Errorw("Failed to get profile", "user_id", claims.UserID, "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error":   "Failed to retrieve profile",
			"details": "Internal server error",
		})
	}

	return ctx.JSON(http.StatusOK, profile)
}

// UpdateProfile creates or replaces the caller's profile
// @Summary Update own profile
// @Description Create or replace the calling user's profile and complete onboarding
// @Tags Profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body entity.UpdateProfileRequest true "Profile details"
// @Success 200 {object} entity.Profile
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /profile [put]
func (c *ProfileController) UpdateProfile(ctx echo.Context) error {
	claims, ok := claimsFromContext(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, map[string]interface{}{
			"error":   "Unauthorized",
			"details": "Missing authentication",
		})
	}

	var req entity.UpdateProfileRequest

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

	profile, err := c.profileService.Upsert(claims.UserID, claims.Role, &req)
	if err != nil {
		c.logger.Errorw("Failed to save profile", "user_id", claims.UserID, "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error":   "Failed to save profile",
			"details": "Internal server error",
		})
	}

	return ctx.JSON(http.StatusOK, profile)
}

// ListMentors returns the mentor directory
// @Summary List mentors
// @Description Get the mentor directory, optionally filtered by subject
// @Tags Mentors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param subject query string false "Filter by taught subject"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} entity.MentorsListResponse
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /mentors [get]
func (c *ProfileController) ListMentors(ctx echo.Context) error {
	page, pageSize := paginationParams(ctx)
	subject := ctx.QueryParam("subject")

	response, err := c.profileService.ListMentors(subject, page, pageSize)
	if err != nil {
		c.logger.Errorw("Failed to list mentors", "subject", subject, "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error":   "Failed to retrieve mentors",
			"details": "Internal server error",
		})
	}

	return ctx.JSON(http.StatusOK, response)
}
