package controller

import (
	"errors"
	"net/http"
	"strconv"

	"mentorhub/entity"
	"mentorhub/pkg/logger"
	"mentorhub/service"

	"github.com/labstack/echo/v4"
)

// UserController handles user-related HTTP requests
type UserController struct {
	userService service.UserService
	logger      *logger.Logger
}

// NewUserController creates a new user controller instance
func NewUserController(userService service.UserService, logger *logger.Logger) *UserController {
	return &UserController{
		userService: userService,
		logger:      logger,
	}
}

// Me returns the calling user's account
// @Summary Current user
// @Description Get the account behind the presented token
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} entity.UserResponse
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /users/me [get]
func (c *UserController) Me(ctx echo.Context) error {
	claims, ok := claimsFromContext(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, map[string]interface{}{
			"error":   "Unauthorized",
			"details": "Missing authentication",
		})
	}

	user, err := c.userService.GetByID(claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return ctx.JSON(http.StatusNotFound, map[string]interface{}{
				"error":   "User not found",
				"details": "The account behind this token no longer exists",
			})
		}

		c.logger.Errorw("Failed to get current user", "user_id", claims.UserID, "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error":   "Failed to retrieve user",
			"details": "Internal server error",
		})
	}

	return ctx.JSON(http.StatusOK, user)
}

// GetUser retrieves a single user by ID
// @Summary Get User
// @Description Get user details by ID (admin only)
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} entity.UserResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /users/{id} [get]
func (c *UserController) GetUser(ctx echo.Context) error {
	// Parse user ID from path parameter
	idParam := ctx.Param("id")
	userID, err := strconv.Atoi(idParam)
	if err != nil {
		c.logger.Warnw("Invalid user ID", "id", idParam, "error", err)
		return ctx.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "Invalid user ID",
			"details": "User ID must be a valid integer",
		})
	}

	// Get user from service
	user, err := c.userService.GetByID(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.logger.Infow("User not found", "user_id", userID)
			return ctx.JSON(http.StatusNotFound, map[string]interface{}{
				"error":   "User not found",
				"details": "The requested user does not exist",
			})
		}

		c.logger.Errorw("Failed to get user", "user_id", userID, "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error":   "Failed to retrieve user",
			"details": "Internal server error",
		})
	}

	return ctx.JSON(http.StatusOK, user)
}

// ListUsers retrieves paginated list of users with optional search
// @Summary List Users
// @Description Get paginated list of users with optional search (admin only)
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Param search query string false "Search by e-mail or name"
// @Success 200 {object} entity.UsersListResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /users [get]
func (c *UserController) ListUsers(ctx echo.Context) error {
	page, pageSize := paginationParams(ctx)
	search := ctx.QueryParam("search")

	// Get users list from service
	response, err := c.userService.GetList(page, pageSize, search)
	if err != nil {
		c.logger.Errorw("Failed to get users list", "page", page, "page_size", pageSize, "search", search, "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error":   "Failed to retrieve users list",
			"details": "Internal server error",
		})
	}

	return ctx.JSON(http.StatusOK, response)
}

// UpdateStatus activates or deactivates an account
// @Summary Update user status
// @Description Activate or deactivate an account (admin only)
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body entity.UpdateUserStatusRequest true "New status"
// @Success 200 {object} entity.UserResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /users/{id}/status [put]
func (c *UserController) UpdateStatus(ctx echo.Context) error {
	claims, ok := claimsFromContext(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, map[string]interface{}{
			"error":   "Unauthorized",
			"details": "Missing authentication",
		})
	}

	idParam := ctx.Param("id")
	userID, err := strconv.Atoi(idParam)
	if err != nil {
		c.logger.Warnw("Invalid user ID", "id", idParam, "error", err)
		return ctx.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "Invalid user ID",
			"details": "User ID must be a valid integer",
		})
	}

	var req entity.UpdateUserStatusRequest
	if err := ctx.Bind(&req); err != nil {
		c.logger.Errorw("Failed to bind request", "error", err)
		return ctx.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
	}

	// Locking yourself out is almost certainly a mistake.
	if userID == claims.UserID && !req.IsActive {
		return ctx.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "Invalid request",
			"details": "You cannot deactivate your own account",
		})
	}

	user, err := c.userService.SetActive(userID, req.IsActive)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return ctx.JSON(http.StatusNotFound, map[string]interface{}{
				"error":   "User not found",
				"details": "The requested user does not exist",
			})
		}

		c.logger.Errorw("Failed to update user status", "user_id", userID, "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error":   "Failed to update user status",
			"details": "Internal server error",
		})
	}

	return ctx.JSON(http.StatusOK, user)
}

// paginationParams reads page and page_size query parameters, falling
// back to the defaults on anything unusable.
func paginationParams(ctx echo.Context) (page, pageSize int) {
	page = 1
	if pageParam := ctx.QueryParam("page"); pageParam != "" {
		if p, err := strconv.Atoi(pageParam); err == nil && p > 0 {
			page = p
		}
	}

	pageSize = 20
	if pageSizeParam := ctx.QueryParam("page_size"); pageSizeParam != "" {
		if ps, err := strconv.Atoi(pageSizeParam); err == nil && ps > 0 && ps <= 100 {
			pageSize = ps
		}
	}

	return page, pageSize
}
