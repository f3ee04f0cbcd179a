package controller

import (
	"errors"
	"net/http"
	"strconv"

	"mentorhub/pkg/logger"
	"mentorhub/service"

	"github.com/labstack/echo/v4"
)

// MatchController handles mentor matching
type MatchController struct {
	matchService service.MatchService
	logger       *logger.Logger
}

// NewMatchController creates a new match controller instance
func NewMatchController(matchService service.MatchService, logger *logger.Logger) *MatchController {
	return &MatchController{
		matchService: matchService,
		logger:       logger,
	}
}

// Matches returns mentors ranked by trait similarity
// @Summary Mentor matches
// @Description Rank mentors by trait similarity to the caller's latest assessment
// @Tags Mentors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param subject query string false "Filter by taught subject"
// @Param limit query int false "Maximum matches to return" default(10)
// @Success 200 {object} entity.MentorMatchesResponse
// @Failure 401 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /mentors/matches [get]
func (c *MatchController) Matches(ctx echo.Context) error {
	claims, ok := claimsFromContext(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, map[string]interface{}{
			"error":   "Unauthorized",
			"details": "Missing authentication",
		})
	}

	subject := ctx.QueryParam("subject")

	limit := 10
	if limitParam := ctx.QueryParam("limit"); limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil && l > 0 {
			limit = l
		}
	}

	response, err := c.matchService.Matches(claims.UserID, subject, limit)
	if err != nil {
		if errors.Is(err, service.ErrAssessmentRequired) {
			return ctx.JSON(http.StatusConflict, map[string]interface{}{
				"error":   "Assessment required",
				"details": "Complete the questionnaire before requesting matches",
			})
		}

		c.logger.Errorw("Failed to compute matches", "user_id", claims.UserID, "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error":   "Failed to compute matches",
			"details": "Internal server error",
		})
	}

	return ctx.JSON(http.StatusOK, response)
}
