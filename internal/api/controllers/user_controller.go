package controllers

import (
	"net/http"
	"time"

	"github.com/aquascan/backend/internal/api/middleware"
	"github.com/aquascan/backend/internal/db/models"
	"github.com/aquascan/backend/internal/services"
	"github.com/aquascan/backend/internal/utils"
	"github.com/gin-gonic/gin"
)

// UserResponse represents a user in responses
type UserResponse struct {
	ID          uint       `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Role        string     `json:"role"`
	DigestOptIn bool       `json:"digest_opt_in"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
}

// PreferencesRequest updates the notification preferences of the current user
type PreferencesRequest struct {
	DigestOptIn *bool `json:"digest_opt_in" binding:"required"`
}

// UserController serves the current user's profile
type UserController struct {
	userService *services.UserService
	logger      *utils.Logger
}

// NewUserController creates a new user controller
func NewUserController(userService *services.UserService, logger *utils.Logger) *UserController {
	return &UserController{
		userService: userService,
		logger:      logger.Named("user_controller"),
	}
}

// RegisterRoutes registers the controller's routes with the router group
func (uc *UserController) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.GET("/me", uc.GetCurrentUser)
		users.PUT("/me/preferences", uc.UpdatePreferences)
	}
}

// GetCurrentUser returns the authenticated user
// @Summary Get current user
// @Tags users
// @Produce json
// @Security Bearer
// @Success 200 {object} UserResponse
// @Failure 401 {object} utils.ErrorResponse "Unauthorized"
// @Router /users/me [get]
func (uc *UserController) GetCurrentUser(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := uc.userService.GetByID(userID)
	if err != nil {
		utils.HandleError(c, err, uc.logger)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

// UpdatePreferences toggles the scheduled digest
// @Summary Update notification preferences
// @Tags users
// @Accept json
// @Produce json
// @Security Bearer
// @Param preferences body PreferencesRequest true "Preferences"
// @Success 200 {object} UserResponse
// @Router /users/me/preferences [put]
func (uc *UserController) UpdatePreferences(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleValidationErrors(c, err)
		return
	}

	user, err := uc.userService.SetDigestOptIn(userID, *req.DigestOptIn)
	if err != nil {
		utils.HandleError(c, err, uc.logger)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

func toUserResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Role:        string(user.Role),
		DigestOptIn: user.DigestOptIn,
		LastLogin:   user.LastLogin,
	}
}

// currentUser reads the authenticated user ID, answering 401 when it is missing
func currentUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{Error: "unauthorized", Message: "User is not authenticated"})
		return 0, false
	}
	return userID, true
}
