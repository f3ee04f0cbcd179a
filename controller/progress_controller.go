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

// ProgressController handles study progress entries
type ProgressController struct {
	progressService service.ProgressService
	validator       *validator.Validator
	logger          *logger.Logger
}

// NewProgressController creates a new progress controller instance
func NewProgressController(progressService service.ProgressService, validator *validator.Validator, logger *logger.Logger) *ProgressController {
	return &ProgressController{
		progressService: progressService,
		validator:       validator,
		logger:          logger,
	}
}

// CreateEntry records a new progress entry
// @Summary Create progress entry
// @Description Record a new learning goal or milestone
// @Tags Progress
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body entity.CreateProgressRequest true "Entry details"
// @Success 201 {object} entity.ProgressEntry
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /progress [post]
func (c *ProgressController) CreateEntry(ctx echo.Context) error {
	claims, ok := claimsFromContext(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, map[string]interface{}{
			"error":   "Unauthorized",
			"details": "Missing authentication",
		})
	}

	var req entity.CreateProgressRequest

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

	entry, err := c.progressService.Create(claims.UserID, &req)
	if err != nil {
		c.logger.Errorw("Failed to create progress entry", "user_id", claims.UserID, "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error":   "Failed to create progress entry",
			"details": "Internal server error",
		})
	}

	return ctx.JSON(http.StatusCreated, entry)
}

// ListEntries returns the progress entries visible to the caller
// @Summary List progress entries
// @Description Students see their own entries, mentors the ones linked to them
// @Tags Progress
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} entity.ProgressListResponse
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /progress [get]
func (c *ProgressController) ListEntries(ctx echo.Context) error {
	claims, ok := claimsFromContext(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, map[string]interface{}{
			"error":   "Unauthorized",
			"details": "Missing authentication",
		})
	}

	page, pageSize := paginationParams(ctx)

	response, err := c.progressService.List(claims.UserID, claims.Role, page, pageSize)
	if err != nil {
		c.logger.Errorw("Failed to list progress entries", "user_id", claims.UserID, "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error":   "Failed to retrieve progress entries",
			"details": "Internal server error",
		})
	}

	return ctx.JSON(http.StatusOK, response)
}

// UpdateEntry modifies one of the caller's progress entries
// @Summary Update progress entry
// @Description Update title, note or status of an owned entry
// @Tags Progress
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Entry ID"
// @Param request body entity.UpdateProgressRequest true "Changed fields"
// @Success 200 {object} entity.ProgressEntry
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /progress/{id} [put]
func (c *ProgressController) UpdateEntry(ctx echo.Context) error {
	claims, ok := claimsFromContext(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, map[string]interface{}{
			"error":   "Unauthorized",
			"details": "Missing authentication",
		})
	}

	idParam := ctx.Param("id")
	entryID, err := strconv.Atoi(idParam)
	if err != nil {
		c.logger.Warnw("Invalid entry ID", "id", idParam, "error", err)
		return ctx.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "Invalid entry ID",
			"details": "Entry ID must be a valid integer",
		})
	}

	var req entity.UpdateProgressRequest

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

	entry, err := c.progressService.Update(entryID, claims.UserID, &req)
	if err != nil {
		if errors.Is(err, service.ErrProgressNotFound) {
			return ctx.JSON(http.StatusNotFound, map[string]interface{}{
				"error":   "Entry not found",
				"details": "The requested progress entry does not exist",
			})
		}
		if errors.Is(err, service.ErrNotEntryOwner) {
			return ctx.JSON(http.StatusForbidden, map[string]interface{}{
				"error":   "Forbidden",
				"details": "Only the owning student can update an entry",
			})
		}

		c.logger.Errorw("Failed to update progress entry", "entry_id", entryID, "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error":   "Failed to update progress entry",
			"details": "Internal server error",
		})
	}

	return ctx.JSON(http.StatusOK, entry)
}
