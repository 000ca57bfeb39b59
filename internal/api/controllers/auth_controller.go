package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/aquascan/backend/internal/config"
	"github.com/aquascan/backend/internal/db/models"
	"github.com/aquascan/backend/internal/services"
	"github.com/aquascan/backend/internal/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
}

// TokenResponse represents the login/register/token refresh response body
type TokenResponse struct {
	Token        string    `json:"token"`         // Access token
	RefreshToken string    `json:"refresh_token"` // Refresh token for obtaining new access tokens
	ExpiresAt    time.Time `json:"expires_at"`    // When the access token expires
	UserID       uint      `json:"user_id"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
}

// RefreshRequest represents the token refresh request body
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AuthController handles authentication-related endpoints
type AuthController struct {
	userService *services.UserService
	jwtConfig   *config.JWTConfig
	logger      *utils.Logger
}

// NewAuthController creates a new authentication controller
func NewAuthController(userService *services.UserService, jwtConfig *config.JWTConfig, logger *utils.Logger) *AuthController {
	return &AuthController{
		userService: userService,
		jwtConfig:   jwtConfig,
		logger:      logger.Named("auth_controller"),
	}
}

// RegisterRoutes registers the controller's routes with the router group
func (ac *AuthController) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/login", ac.Login)
		auth.POST("/register", ac.Register)
		auth.POST("/refresh", ac.RefreshToken)
	}
}

// Login handles user authentication and returns a JWT token
// @Summary Login user
// @Tags auth
// @Accept json
// @Produce json
// @Param login_request body LoginRequest true "Login credentials"
// @Success 200 {object} TokenResponse "Login successful"
// @Failure 400 {object} utils.ValidationErrorResponse "Invalid request"
// @Failure 401 {object} utils.ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleValidationErrors(c, err)
		return
	}

	user, err := ac.userService.Authenticate(req.Email, req.Password)
	if err != nil {
		ac.logger.Warn("Login failed", zap.String("email", req.Email), zap.Error(err))
		utils.HandleError(c, err, ac.logger)
		return
	}

	if err := ac.userService.UpdateLastLogin(user.ID); err != nil {
		ac.logger.Error("Failed to update last login time", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	ac.respondWithTokens(c, http.StatusOK, user)
}

// Register handles user registration
// @Summary Register new user
// @Tags auth
// @Accept json
// @Produce json
// @Param register_request body RegisterRequest true "Registration information"
// @Success 201 {object} TokenResponse "Registration successful"
// @Failure 400 {object} utils.ValidationErrorResponse "Invalid request"
// @Failure 409 {object} utils.ErrorResponse "Email already exists"
// @Router /auth/register [post]
func (ac *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleValidationErrors(c, err)
		return
	}

	user := &models.User{
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Role:        models.RoleUser,
		DigestOptIn: true,
	}

	if err := ac.userService.Create(user); err != nil {
		ac.logger.Warn("Registration failed", zap.String("email", req.Email), zap.Error(err))
		if errors.Is(err, utils.ErrAlreadyExists) {
			utils.HandleError(c, utils.NewErrorWithCode(err, "email_taken"), ac.logger)
			return
		}
		utils.HandleError(c, err, ac.logger)
		return
	}

	ac.respondWithTokens(c, http.StatusCreated, user)
}

// RefreshToken exchanges a valid refresh token for a new token pair
// @Summary Refresh JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param refresh_request body RefreshRequest true "Refresh token"
// @Success 200 {object} TokenResponse "Token refresh successful"
// @Failure 401 {object} utils.ErrorResponse "Invalid refresh token"
// @Router /auth/refresh [post]
func (ac *AuthController) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleValidationErrors(c, err)
		return
	}

	claims, err := models.ParseToken(req.RefreshToken, ac.jwtConfig.RefreshSecret)
	if err != nil {
		ac.logger.Warn("Invalid refresh token", zap.Error(err))
		c.JSON(http.StatusUnauthorized, utils.ErrorResponse{Error: "unauthorized", Message: "Invalid refresh token"})
		return
	}

	user, err := ac.userService.GetByID(claims.UserID)
	if err != nil || !user.Active {
		ac.logger.Warn("Refresh for unknown or inactive user", zap.Uint("user_id", claims.UserID))
		c.JSON(http.StatusUnauthorized, utils.ErrorResponse{Error: "unauthorized", Message: "Invalid refresh token"})
		return
	}

	ac.respondWithTokens(c, http.StatusOK, user)
}

func (ac *AuthController) respondWithTokens(c *gin.Context, status int, user *models.User) {
	token, expiresAt, err := user.GenerateToken(ac.jwtConfig.Secret, time.Duration(ac.jwtConfig.ExpirationHours)*time.Hour)
	if err != nil {
		ac.logger.Error("Failed to generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse{Error: "internal_server_error", Message: "Failed to generate authentication token"})
		return
	}

	refreshToken, _, err := user.GenerateToken(ac.jwtConfig.RefreshSecret, time.Duration(ac.jwtConfig.RefreshExpirationHours)*time.Hour)
	if err != nil {
		ac.logger.Error("Failed to generate refresh token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse{Error: "internal_server_error", Message: "Failed to generate refresh token"})
		return
	}

	c.JSON(status, TokenResponse{
		Token:        token,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		UserID:       user.ID,
		Email:        user.Email,
		Role:         string(user.Role),
	})
}
