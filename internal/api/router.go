package api

import (
	"encoding/base64"
	"net/http"

	"github.com/aquascan/backend/internal/api/controllers"
	"github.com/aquascan/backend/internal/api/middleware"
	"github.com/aquascan/backend/internal/config"
	"github.com/aquascan/backend/internal/db"
	"github.com/aquascan/backend/internal/services"
	"github.com/aquascan/backend/internal/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// bodySlack covers JSON framing and coordinates around the image payload
const bodySlack = 64 << 10

// Router manages the API routes and controllers
type Router struct {
	engine                 *gin.Engine
	logger                 *utils.Logger
	config                 *config.Config
	authMiddleware         *middleware.AuthMiddleware
	serviceProvider        *services.ServiceProvider
	db                     *db.Database
	apiV1                  *gin.RouterGroup
	userController         *controllers.UserController
	sampleController       *controllers.SampleController
	historyController      *controllers.HistoryController
	notificationController *controllers.NotificationController
}

// NewRouter creates a new Router instance
func NewRouter(
	config *config.Config,
	logger *utils.Logger,
	db *db.Database,
	serviceProvider *services.ServiceProvider,
) *Router {
	// Set Gin mode based on environment
	if config.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Use the logger and recovery middleware
	engine.Use(gin.Recovery())
	engine.Use(middleware.LoggingMiddleware(logger))

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Authorization", "Content-Type", "Origin"}
	engine.Use(cors.New(corsConfig))

	// Create JWT auth middleware
	authMiddleware := middleware.NewAuthMiddleware(&config.JWT)

	return &Router{
		engine:          engine,
		logger:          logger.Named("router"),
		config:          config,
		authMiddleware:  authMiddleware,
		serviceProvider: serviceProvider,
		db:              db,
	}
}

// SetupRoutes configures all API routes
func (r *Router) SetupRoutes() {
	// Health check endpoint (no auth required)
	r.engine.GET("/health", r.health)

	// API version group - all main API routes are under /api/v1
	r.apiV1 = r.engine.Group("/api/v1")

	userService := r.serviceProvider.GetUserService()

	// Setup controllers
	authController := controllers.NewAuthController(userService, &r.config.JWT, r.logger)
	r.userController = controllers.NewUserController(userService, r.logger)
	r.sampleController = controllers.NewSampleController(r.serviceProvider.GetAnalysisService(), r.logger)
	r.historyController = controllers.NewHistoryController(r.serviceProvider.GetHistoryService(), r.logger)
	r.notificationController = controllers.NewNotificationController(r.serviceProvider.GetNotificationService(), r.logger)

	// Register auth routes (no auth required)
	authController.RegisterRoutes(r.engine.Group("/api"))

	// Routes that require authentication
	authorizedRoutes := r.apiV1.Group("")
	authorizedRoutes.Use(r.authMiddleware.RequireAuth())
	// JSON bodies carry the image as base64 text
	maxBody := base64.StdEncoding.EncodedLen(r.config.Analysis.MaxPayloadBytes) + bodySlack
	authorizedRoutes.Use(middleware.BodyLimit(int64(maxBody)))

	r.userController.RegisterRoutes(authorizedRoutes)
	r.sampleController.RegisterRoutes(authorizedRoutes)
	r.historyController.RegisterRoutes(authorizedRoutes)
	r.notificationController.RegisterRoutes(authorizedRoutes)

	r.logger.Info("API routes setup completed", zap.Int("max_payload_bytes", r.config.Analysis.MaxPayloadBytes))
}

func (r *Router) health(c *gin.Context) {
	if err := r.db.Ping(); err != nil {
		r.logger.Error("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": "unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "ok"})
}

// GetEngine returns the Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
