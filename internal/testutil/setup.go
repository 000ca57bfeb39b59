// Package testutil provides shared fixtures for package tests: an in-memory
// database, a gin engine in test mode and helpers for authenticated requests.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aquascan/backend/internal/analysis"
	"github.com/aquascan/backend/internal/config"
	"github.com/aquascan/backend/internal/db"
	"github.com/aquascan/backend/internal/db/models"
	"github.com/aquascan/backend/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// TestSetup contains utilities for testing
type TestSetup struct {
	T        *testing.T
	Router   *gin.Engine
	DB       *db.Database
	Logger   *utils.Logger
	Config   *config.Config
	Requires *require.Assertions
}

// NewTestSetup creates a migrated in-memory sqlite database private to the test
func NewTestSetup(t *testing.T) *TestSetup {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := utils.NewNopLogger()

	cfg := &config.Config{
		Server: config.ServerConfig{Environment: "test"},
		JWT: config.JWTConfig{
			Secret:                 "test-secret-key-for-testing-only",
			ExpirationHours:        1,
			RefreshSecret:          "test-refresh-secret-key-for-testing-only",
			RefreshExpirationHours: 168,
		},
		Database: config.DatabaseConfig{
			Driver: "sqlite",
			Path:   fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		},
		Log: config.LogConfig{Level: "debug", Format: "console"},
		Analysis: config.AnalysisConfig{
			DelayMS:         0,
			RandomSeed:      42,
			MaxPayloadBytes: 1 << 20,
			TrendWindowDays: 30,
		},
		Digest: config.DigestConfig{Schedule: "0 8 * * *", LookbackDays: 30},
	}

	gormDB, err := gorm.Open(sqlite.Open(cfg.Database.GetDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "Failed to create in-memory database")

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	database := db.Wrap(gormDB, &cfg.Database, logger)
	require.NoError(t, database.AutoMigrate(), "Failed to migrate database")

	t.Cleanup(func() {
		_ = database.Close()
	})

	router := gin.New()
	router.Use(gin.Recovery())

	return &TestSetup{
		T:        t,
		Router:   router,
		DB:       database,
		Logger:   logger,
		Config:   cfg,
		Requires: require.New(t),
	}
}

// ExecuteRequest executes a test request and returns the response
func (ts *TestSetup) ExecuteRequest(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		var err error
		reqBody, err = json.Marshal(body)
		ts.Requires.NoError(err, "Failed to marshal request body")
	}

	req, err := http.NewRequest(method, path, bytes.NewBuffer(reqBody))
	ts.Requires.NoError(err, "Failed to create request")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp := httptest.NewRecorder()
	ts.Router.ServeHTTP(resp, req)

	return resp
}

// ParseResponse parses the JSON response into the provided struct
func (ts *TestSetup) ParseResponse(response *httptest.ResponseRecorder, target interface{}) {
	err := json.Unmarshal(response.Body.Bytes(), target)
	ts.Requires.NoError(err, "Failed to parse response body: %s", response.Body.String())
}

// AuthHeader returns an Authorization header carrying a token for the user
func (ts *TestSetup) AuthHeader(userID uint) map[string]string {
	user := &models.User{ID: userID, Email: fmt.Sprintf("user%d@example.com", userID), Role: models.RoleUser}
	token, _, err := user.GenerateToken(ts.Config.JWT.Secret, time.Hour)
	ts.Requires.NoError(err, "Failed to sign JWT token")

	return map[string]string{"Authorization": "Bearer " + token}
}

// SeedTestUser creates an active user and returns its ID
func (ts *TestSetup) SeedTestUser(email, password string) uint {
	user := &models.User{
		Email:       email,
		Password:    password,
		FirstName:   "Test",
		LastName:    "User",
		Role:        models.RoleUser,
		Active:      true,
		DigestOptIn: true,
	}

	ts.Requires.NoError(ts.DB.Create(user).Error, "Failed to create test user")
	return user.ID
}

// SeedSample stores a sample for the user with the given metrics and creation time
func (ts *TestSetup) SeedSample(userID uint, createdAt time.Time, m analysis.WaterMetrics) *models.Sample {
	assessment := analysis.Classify(m)
	sample := &models.Sample{
		UserID:     userID,
		CreatedAt:  createdAt,
		Source:     "api",
		Metrics:    m,
		Overall:    assessment.Overall,
		Confidence: analysis.Confidence(m),
		Grade:      analysis.GradeOf(m).Letter,
	}

	ts.Requires.NoError(ts.DB.Create(sample).Error, "Failed to create test sample")
	return sample
}

// Metrics builds core metrics
func Metrics(pH, chlorine, heavyMetal, turbidity float64) analysis.WaterMetrics {
	return analysis.WaterMetrics{PH: pH, Chlorine: chlorine, HeavyMetalScore: heavyMetal, Turbidity: turbidity}
}
