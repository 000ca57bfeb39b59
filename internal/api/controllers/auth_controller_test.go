package controllers_test

import (
	"net/http"
	"testing"

	"github.com/aquascan/backend/internal/api/controllers"
	"github.com/aquascan/backend/internal/db/repository"
	"github.com/aquascan/backend/internal/services"
	"github.com/aquascan/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthController_RegisterAndLogin(t *testing.T) {
	ts := testutil.NewTestSetup(t)

	userService := services.NewUserService(repository.NewUserRepository(ts.DB.DB), ts.Logger)
	authController := controllers.NewAuthController(userService, &ts.Config.JWT, ts.Logger)
	authController.RegisterRoutes(ts.Router.Group("/api"))

	// Test case: Register a new user
	t.Run("Should register a new user successfully", func(t *testing.T) {
		registerRequest := map[string]interface{}{
			"email":      "test@example.com",
			"password":   "securePassword123",
			"first_name": "Test",
			"last_name":  "User",
		}

		resp := ts.ExecuteRequest("POST", "/api/auth/register", registerRequest, nil)

		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

		var response controllers.TokenResponse
		ts.ParseResponse(resp, &response)

		assert.NotEmpty(t, response.Token)
		assert.NotEmpty(t, response.RefreshToken)
		assert.NotZero(t, response.UserID)
		assert.Equal(t, "test@example.com", response.Email)
		assert.Equal(t, "user", response.Role)
		assert.False(t, response.ExpiresAt.IsZero())
	})

	// Test case: Register with duplicate email
	t.Run("Should return conflict when registering with duplicate email", func(t *testing.T) {
		registerRequest := map[string]interface{}{
			"email":      "test@example.com",
			"password":   "anotherPassword456",
			"first_name": "Another",
			"last_name":  "User",
		}

		resp := ts.ExecuteRequest("POST", "/api/auth/register", registerRequest, nil)

		assert.Equal(t, http.StatusConflict, resp.Code)

		var response map[string]string
		ts.ParseResponse(resp, &response)
		assert.Equal(t, "email_taken", response["code"])
	})

	// Test case: Register with invalid body
	t.Run("Should reject a short password", func(t *testing.T) {
		registerRequest := map[string]interface{}{
			"email":      "short@example.com",
			"password":   "short",
			"first_name": "Short",
			"last_name":  "Password",
		}

		resp := ts.ExecuteRequest("POST", "/api/auth/register", registerRequest, nil)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Contains(t, resp.Body.String(), "password")
	})

	// Test case: Login with valid credentials
	t.Run("Should login successfully with valid credentials", func(t *testing.T) {
		loginRequest := map[string]interface{}{
			"email":    "test@example.com",
			"password": "securePassword123",
		}

		resp := ts.ExecuteRequest("POST", "/api/auth/login", loginRequest, nil)

		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

		var response controllers.TokenResponse
		ts.ParseResponse(resp, &response)
		assert.NotEmpty(t, response.Token)
		assert.Equal(t, "test@example.com", response.Email)
	})

	// Test case: Login with invalid credentials
	t.Run("Should fail login with invalid credentials", func(t *testing.T) {
		loginRequest := map[string]interface{}{
			"email":    "test@example.com",
			"password": "wrongPassword",
		}

		resp := ts.ExecuteRequest("POST", "/api/auth/login", loginRequest, nil)

		assert.Equal(t, http.StatusUnauthorized, resp.Code)

		var response map[string]string
		ts.ParseResponse(resp, &response)
		assert.Contains(t, response["message"], "invalid credentials")
	})

	// Test case: Refresh token
	t.Run("Should refresh access token with valid refresh token", func(t *testing.T) {
		loginResp := ts.ExecuteRequest("POST", "/api/auth/login", map[string]interface{}{
			"email":    "test@example.com",
			"password": "securePassword123",
		}, nil)
		require.Equal(t, http.StatusOK, loginResp.Code)

		var login controllers.TokenResponse
		ts.ParseResponse(loginResp, &login)

		resp := ts.ExecuteRequest("POST", "/api/auth/refresh", map[string]interface{}{
			"refresh_token": login.RefreshToken,
		}, nil)

		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

		var refreshed controllers.TokenResponse
		ts.ParseResponse(resp, &refreshed)
		assert.NotEmpty(t, refreshed.Token)
		assert.Equal(t, login.UserID, refreshed.UserID)
	})

	// Test case: Access token used as refresh token
	t.Run("Should reject an access token on refresh", func(t *testing.T) {
		loginResp := ts.ExecuteRequest("POST", "/api/auth/login", map[string]interface{}{
			"email":    "test@example.com",
			"password": "securePassword123",
		}, nil)
		require.Equal(t, http.StatusOK, loginResp.Code)

		var login controllers.TokenResponse
		ts.ParseResponse(loginResp, &login)

		resp := ts.ExecuteRequest("POST", "/api/auth/refresh", map[string]interface{}{
			"refresh_token": login.Token,
		}, nil)

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}
