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

// AssessmentController handles trait questionnaires
type AssessmentController struct {
	assessmentService service.AssessmentService
	validator         *validator.Validator
	logger            *logger.Logger
}

// NewAssessmentController creates a new assessment controller instance
func NewAssessmentController(assessmentService service.AssessmentService, validator *validator.Validator, logger *logger.Logger) *AssessmentController {
	return &AssessmentController{
		assessmentService: assessmentService,
		validator:         validator,
		logger:            logger,
	}
}

// Submit scores and stores a questionnaire
// @Summary Submit assessment
// @Description Score the 25-item questionnaire and store the result
// @Tags Assessments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body entity.SubmitAssessmentRequest true "Likert responses, 25 items of 1..5"
// @Success 201 {object} entity.AssessmentResult
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /assessments [post]
func (c *AssessmentController) Submit(ctx echo.Context) error {
	claims, ok := claimsFromContext(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, map[string]interface{}{
			"error":   "Unauthorized",
			"details": "Missing authentication",
		})
	}

	var req entity.SubmitAssessmentRequest

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

	result, err := c.assessmentService.Submit(claims.UserID, &req)
	if err != nil {
		c.logger.Errorw("Failed to submit assessment", "user_id", claims.UserID, "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error":   "Failed to submit assessment",
			"details": "Internal server error",
		})
	}

	return ctx.JSON(http.StatusCreated, result)
}

// GetLatest returns the caller's most recent assessment
// @Summary Latest assessment
// @Description Get the calling user's most recent assessment result
// @Tags Assessments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} entity.AssessmentResult
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /assessments/latest [get]
func (c *AssessmentController) GetLatest(ctx echo.Context) error {
	claims, ok := claimsFromContext(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, map[string]interface{}{
			"error":   "Unauthorized",
			"details": "Missing authentication",
		})
	}

	result, err := c.assessmentService.GetLatest(claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrAssessmentNotFound) {
			return ctx.JSON(http.StatusNotFound, map[string]interface{}{
				"error":   "No assessment found",
				"details": "Submit the questionnaire first",
			})
		}

		c.logger.Errorw("Failed to get latest assessment", "user_id", claims.UserID, "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error":   "Failed to retrieve assessment",
			"details": "Internal server error",
		})
	}

	return ctx.JSON(http.StatusOK, result)
}
