package middleware_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aquascan/backend/internal/api/middleware"
	"github.com/aquascan/backend/internal/db/models"
	"github.com/aquascan/backend/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware_RequireAuth(t *testing.T) {
	ts := testutil.NewTestSetup(t)

	authMiddleware := middleware.NewAuthMiddleware(&ts.Config.JWT)

	ts.Router.GET("/protected", authMiddleware.RequireAuth(), func(c *gin.Context) {
		userID, exists := middleware.UserID(c)
		if !exists {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "user_id not set in context"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})

	ts.Router.GET("/admin", authMiddleware.RequireAuth(), authMiddleware.RequireAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "admin access granted"})
	})

	t.Run("Should return 401 when no token provided", func(t *testing.T) {
		resp := ts.ExecuteRequest("GET", "/protected", nil, nil)

		assert.Equal(t, http.StatusUnauthorized, resp.Code)

		var response map[string]string
		ts.ParseResponse(resp, &response)
		assert.Contains(t, response["error"], "Authorization header is required")
	})

	t.Run("Should return 401 when invalid token format provided", func(t *testing.T) {
		resp := ts.ExecuteRequest("GET", "/protected", nil, map[string]string{
			"Authorization": "InvalidFormat token123",
		})

		assert.Equal(t, http.StatusUnauthorized, resp.Code)

		var response map[string]string
		ts.ParseResponse(resp, &response)
		assert.Contains(t, response["error"], "Authorization header format must be Bearer")
	})

	t.Run("Should return 401 when token is signed with another secret", func(t *testing.T) {
		user := &models.User{ID: 1, Email: "user@example.com", Role: models.RoleUser}
		token, _, err := user.GenerateToken("some-other-secret", time.Hour)
		require.NoError(t, err)

		resp := ts.ExecuteRequest("GET", "/protected", nil, map[string]string{"Authorization": "Bearer " + token})

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("Should return 401 when token has expired", func(t *testing.T) {
		user := &models.User{ID: 1, Email: "user@example.com", Role: models.RoleUser}
		token, _, err := user.GenerateToken(ts.Config.JWT.Secret, -time.Minute)
		require.NoError(t, err)

		resp := ts.ExecuteRequest("GET", "/protected", nil, map[string]string{"Authorization": "Bearer " + token})

		assert.Equal(t, http.StatusUnauthorized, resp.Code)

		var response map[string]string
		ts.ParseResponse(resp, &response)
		assert.Contains(t, response["error"], "expired")
	})

	t.Run("Should set user ID for a valid token", func(t *testing.T) {
		resp := ts.ExecuteRequest("GET", "/protected", nil, ts.AuthHeader(7))

		assert.Equal(t, http.StatusOK, resp.Code)

		var response map[string]float64
		ts.ParseResponse(resp, &response)
		assert.Equal(t, float64(7), response["user_id"])
	})

	t.Run("Should accept the query token only on websocket upgrades", func(t *testing.T) {
		token := strings.TrimPrefix(ts.AuthHeader(7)["Authorization"], "Bearer ")

		// Test case: plain request with a query token is rejected
		resp := ts.ExecuteRequest("GET", "/protected?token="+token, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.Code)

		// Test case: upgrade request with a query token is accepted
		resp = ts.ExecuteRequest("GET", "/protected?token="+token, nil, map[string]string{
			"Connection": "Upgrade",
			"Upgrade":    "websocket",
		})
		assert.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("Should return 403 when a regular user accesses admin route", func(t *testing.T) {
		resp := ts.ExecuteRequest("GET", "/admin", nil, ts.AuthHeader(7))

		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("Should allow admin route for admins", func(t *testing.T) {
		admin := &models.User{ID: 2, Email: "admin@example.com", Role: models.RoleAdmin}
		token, _, err := admin.GenerateToken(ts.Config.JWT.Secret, time.Hour)
		require.NoError(t, err)

		resp := ts.ExecuteRequest("GET", "/admin", nil, map[string]string{"Authorization": "Bearer " + token})

		assert.Equal(t, http.StatusOK, resp.Code)
	})
}

func TestBodyLimit(t *testing.T) {
	ts := testutil.NewTestSetup(t)

	ts.Router.POST("/upload", middleware.BodyLimit(32), func(c *gin.Context) {
		var body map[string]string
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, body)
	})

	t.Run("Should pass small bodies through", func(t *testing.T) {
		resp := ts.ExecuteRequest("POST", "/upload", map[string]string{"a": "b"}, nil)

		assert.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("Should reject bodies over the limit with 413", func(t *testing.T) {
		resp := ts.ExecuteRequest("POST", "/upload", map[string]string{"image": strings.Repeat("A", 64)}, nil)

		assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)

		var response map[string]string
		ts.ParseResponse(resp, &response)
		assert.Equal(t, "payload_too_large", response["error"])
	})
}
