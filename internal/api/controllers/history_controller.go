package controllers

import (
	"net/http"

	"github.com/aquascan/backend/internal/services"
	"github.com/aquascan/backend/internal/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WindowRequest defines the query parameters of windowed history queries
type WindowRequest struct {
	Days int `form:"days" binding:"omitempty,min=1,max=365"`
}

// CompareRequest defines the query parameters for comparing two samples
type CompareRequest struct {
	Before string `form:"before" binding:"required"`
	After  string `form:"after" binding:"required,nefield=Before"`
}

// HistoryController handles history analysis requests
type HistoryController struct {
	historyService *services.HistoryService
	logger         *utils.Logger
}

// NewHistoryController creates a new history controller
func NewHistoryController(historyService *services.HistoryService, logger *utils.Logger) *HistoryController {
	return &HistoryController{
		historyService: historyService,
		logger:         logger.Named("history_controller"),
	}
}

// RegisterRoutes registers the history routes
func (hc *HistoryController) RegisterRoutes(router *gin.RouterGroup) {
	history := router.Group("/history")
	{
		history.GET("/trend", hc.GetTrend)
		history.GET("/summary", hc.GetSummary)
		history.GET("/compare", hc.Compare)
	}
}

// GetTrend returns the trend of the user's recent samples
// @Summary Get quality trend
// @Description Analyses the samples of the last days and reports the overall trend
// @Tags history
// @Produce json
// @Security Bearer
// @Param days query int false "Lookback window in days"
// @Success 200 {object} services.TrendResult
// @Failure 422 {object} utils.ErrorResponse "Not enough samples"
// @Router /history/trend [get]
func (hc *HistoryController) GetTrend(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req WindowRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.HandleValidationErrors(c, err)
		return
	}

	result, err := hc.historyService.Trend(userID, req.Days)
	if err != nil {
		hc.logger.Debug("Trend unavailable", zap.Uint("user_id", userID), zap.Error(err))
		utils.HandleError(c, err, hc.logger)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSummary returns per-metric statistics of the user's recent samples
// @Summary Get quality summary
// @Tags history
// @Produce json
// @Security Bearer
// @Param days query int false "Lookback window in days"
// @Success 200 {object} services.SummaryResult
// @Router /history/summary [get]
func (hc *HistoryController) GetSummary(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req WindowRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.HandleValidationErrors(c, err)
		return
	}

	result, err := hc.historyService.Summary(userID, req.Days)
	if err != nil {
		utils.HandleError(c, err, hc.logger)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Compare compares two of the user's samples
// @Summary Compare two samples
// @Tags history
// @Produce json
// @Security Bearer
// @Param before query string true "Earlier sample ID"
// @Param after query string true "Later sample ID"
// @Success 200 {object} services.ComparisonResult
// @Failure 404 {object} utils.ErrorResponse "Sample not found"
// @Router /history/compare [get]
func (hc *HistoryController) Compare(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req CompareRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.HandleValidationErrors(c, err)
		return
	}

	result, err := hc.historyService.Compare(userID, req.Before, req.After)
	if err != nil {
		utils.HandleError(c, err, hc.logger)
		return
	}

	c.JSON(http.StatusOK, result)
}
