package controllers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/aquascan/backend/internal/analysis"
	"github.com/aquascan/backend/internal/services"
	"github.com/aquascan/backend/internal/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AnalyzeSampleRequest is the JSON body of an analysis request
type AnalyzeSampleRequest struct {
	// Image is base64 text, optionally with a data URL header
	Image string   `json:"image" binding:"required"`
	Lat   *float64 `json:"lat" binding:"omitempty,latitude"`
	Lng   *float64 `json:"lng" binding:"omitempty,longitude"`
}

// ClassifyRequest carries caller supplied readings
type ClassifyRequest struct {
	PH              *float64 `json:"pH" binding:"required,gte=0,lte=14"`
	Chlorine        *float64 `json:"chlorine" binding:"required,gte=0"`
	HeavyMetalScore *float64 `json:"heavyMetalScore" binding:"required,gte=0,lte=10"`
	Turbidity       *float64 `json:"turbidity" binding:"required,gte=0"`
}

// SampleController handles sample analysis endpoints
type SampleController struct {
	analysisService *services.AnalysisService
	logger          *utils.Logger
}

// NewSampleController creates a new sample controller
func NewSampleController(analysisService *services.AnalysisService, logger *utils.Logger) *SampleController {
	return &SampleController{
		analysisService: analysisService,
		logger:          logger.Named("sample_controller"),
	}
}

// RegisterRoutes registers the sample routes
func (sc *SampleController) RegisterRoutes(router *gin.RouterGroup) {
	samples := router.Group("/samples")
	{
		samples.POST("/analyze", sc.Analyze)
		samples.GET("", sc.List)
		samples.GET("/:id", sc.Get)
		samples.DELETE("/:id", sc.Delete)
	}
	router.POST("/classify", sc.Classify)
}

// Analyze analyses an uploaded image and stores the sample
// @Summary Analyse a water sample image
// @Description Accepts JSON with base64 image text or a multipart upload with an "image" file
// @Tags samples
// @Accept json,mpfd
// @Produce json
// @Security Bearer
// @Param request body AnalyzeSampleRequest false "Base64 image"
// @Success 201 {object} services.AnalysisResult
// @Failure 400 {object} utils.ErrorResponse "Invalid or too short image"
// @Failure 408 {object} utils.ErrorResponse "Client went away"
// @Failure 413 {object} utils.ErrorResponse "Image too large"
// @Router /samples/analyze [post]
func (sc *SampleController) Analyze(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	req, err := sc.bindAnalyzeRequest(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.HandleError(c, fmt.Errorf("%w: body exceeds %d bytes", utils.ErrPayloadTooLarge, tooLarge.Limit), sc.logger)
			return
		}
		utils.HandleValidationErrors(c, err)
		return
	}

	result, err := sc.analysisService.AnalyzeSample(c.Request.Context(), userID, req)
	if err != nil {
		if utils.StatusFor(err) < http.StatusInternalServerError {
			sc.logger.Debug("Analysis rejected", zap.Uint("user_id", userID), zap.Error(err))
		}
		utils.HandleError(c, err, sc.logger)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (sc *SampleController) bindAnalyzeRequest(c *gin.Context) (services.AnalyzeRequest, error) {
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		var body AnalyzeSampleRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			return services.AnalyzeRequest{}, err
		}
		return services.AnalyzeRequest{ImageBase64: body.Image, Latitude: body.Lat, Longitude: body.Lng}, nil
	}

	file, err := c.FormFile("image")
	if err != nil {
		return services.AnalyzeRequest{}, fmt.Errorf("image file is required: %w", err)
	}
	f, err := file.Open()
	if err != nil {
		return services.AnalyzeRequest{}, err
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return services.AnalyzeRequest{}, err
	}

	req := services.AnalyzeRequest{ImageBase64: base64.StdEncoding.EncodeToString(raw)}
	if req.Latitude, err = optionalFloat(c.PostForm("lat")); err != nil {
		return services.AnalyzeRequest{}, fmt.Errorf("lat: %w", err)
	}
	if req.Longitude, err = optionalFloat(c.PostForm("lng")); err != nil {
		return services.AnalyzeRequest{}, fmt.Errorf("lng: %w", err)
	}
	return req, nil
}

func optionalFloat(value string) (*float64, error) {
	if value == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// List returns the user's samples, newest first
// @Summary List samples
// @Tags samples
// @Produce json
// @Security Bearer
// @Param page query int false "Page number (1-based)" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} utils.PaginatedResponse
// @Router /samples [get]
func (sc *SampleController) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	page := utils.GetPaginationFromContext(c)
	samples, total, err := sc.analysisService.ListSamples(userID, page)
	if err != nil {
		utils.HandleError(c, err, sc.logger)
		return
	}

	c.JSON(http.StatusOK, utils.NewPaginatedResponse(samples, page, int(total)))
}

// Get returns one sample with its report
// @Summary Get sample
// @Tags samples
// @Produce json
// @Security Bearer
// @Param id path string true "Sample ID"
// @Success 200 {object} services.AnalysisResult
// @Failure 404 {object} utils.ErrorResponse "Not found"
// @Router /samples/{id} [get]
func (sc *SampleController) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := sc.analysisService.GetSample(userID, c.Param("id"))
	if err != nil {
		utils.HandleError(c, err, sc.logger)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Delete removes a sample
// @Summary Delete sample
// @Tags samples
// @Security Bearer
// @Param id path string true "Sample ID"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse "Not found"
// @Router /samples/{id} [delete]
func (sc *SampleController) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := sc.analysisService.DeleteSample(userID, c.Param("id")); err != nil {
		utils.HandleError(c, err, sc.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// Classify assesses supplied readings without storing them
// @Summary Classify readings
// @Tags samples
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body ClassifyRequest true "Readings"
// @Success 200 {object} analysis.Report
// @Router /classify [post]
func (sc *SampleController) Classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleValidationErrors(c, err)
		return
	}

	report := sc.analysisService.Classify(analysis.WaterMetrics{
		PH:              *req.PH,
		Chlorine:        *req.Chlorine,
		HeavyMetalScore: *req.HeavyMetalScore,
		Turbidity:       *req.Turbidity,
	})

	c.JSON(http.StatusOK, report)
}
