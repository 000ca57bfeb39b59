package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/aquascan/backend/internal/services"
	"github.com/aquascan/backend/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// NotificationListRequest defines the query parameters for listing notifications
type NotificationListRequest struct {
	UnreadOnly bool `form:"unread"`
}

// NotificationListResponse is a page of notifications with the unread count
type NotificationListResponse struct {
	utils.PaginatedResponse
	Unread int64 `json:"unread"`
}

// MarkAllReadResponse reports how many notifications were marked read
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// NotificationController serves stored notifications and the live feed
type NotificationController struct {
	notificationService *services.NotificationService
	upgrader            websocket.Upgrader
	logger              *utils.Logger
}

// NewNotificationController creates a new notification controller
func NewNotificationController(notificationService *services.NotificationService, logger *utils.Logger) *NotificationController {
	return &NotificationController{
		notificationService: notificationService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origins are already governed by the CORS policy
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.Named("notification_controller"),
	}
}

// RegisterRoutes registers the notification routes
func (nc *NotificationController) RegisterRoutes(router *gin.RouterGroup) {
	notifications := router.Group("/notifications")
	{
		notifications.GET("", nc.List)
		notifications.POST("/:id/read", nc.MarkRead)
		notifications.POST("/read-all", nc.MarkAllRead)
		notifications.GET("/ws", nc.Subscribe)
	}
}

// List returns the user's notifications, newest first
// @Summary List notifications
// @Tags notifications
// @Produce json
// @Security Bearer
// @Param unread query bool false "Only unread notifications"
// @Param page query int false "Page number (1-based)" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} NotificationListResponse
// @Router /notifications [get]
func (nc *NotificationController) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req NotificationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.HandleValidationErrors(c, err)
		return
	}

	page := utils.GetPaginationFromContext(c)
	notifications, total, err := nc.notificationService.List(userID, req.UnreadOnly, page)
	if err != nil {
		utils.HandleError(c, err, nc.logger)
		return
	}

	unread, err := nc.notificationService.UnreadCount(userID)
	if err != nil {
		utils.HandleError(c, err, nc.logger)
		return
	}

	c.JSON(http.StatusOK, NotificationListResponse{
		PaginatedResponse: utils.NewPaginatedResponse(notifications, page, int(total)),
		Unread:            unread,
	})
}

// MarkRead marks one notification read
// @Summary Mark notification read
// @Tags notifications
// @Security Bearer
// @Param id path int true "Notification ID"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse "Not found"
// @Router /notifications/{id}/read [post]
func (nc *NotificationController) MarkRead(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.HandleError(c, fmt.Errorf("%w: invalid notification id", utils.ErrBadRequest), nc.logger)
		return
	}

	if err := nc.notificationService.MarkRead(userID, uint(id)); err != nil {
		utils.HandleError(c, err, nc.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// MarkAllRead marks all of the user's notifications read
// @Summary Mark all notifications read
// @Tags notifications
// @Produce json
// @Security Bearer
// @Success 200 {object} MarkAllReadResponse
// @Router /notifications/read-all [post]
func (nc *NotificationController) MarkAllRead(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	updated, err := nc.notificationService.MarkAllRead(userID)
	if err != nil {
		utils.HandleError(c, err, nc.logger)
		return
	}

	c.JSON(http.StatusOK, MarkAllReadResponse{Updated: updated})
}

// Subscribe upgrades the request to a websocket carrying live notifications
// @Summary Live notification feed
// @Description Websocket stream. Browsers may pass the access token as ?token=
// @Tags notifications
// @Security Bearer
// @Param token query string false "Access token for clients that cannot set headers"
// @Success 101
// @Router /notifications/ws [get]
func (nc *NotificationController) Subscribe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	conn, err := nc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		nc.logger.Warn("Websocket upgrade failed", zap.Uint("user_id", userID), zap.Error(err))
		return
	}

	nc.notificationService.RegisterClient(conn, userID)
	nc.logger.Debug("Websocket client connected", zap.Uint("user_id", userID))
}
