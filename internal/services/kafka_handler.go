package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aquascan/backend/internal/analysis"
	"github.com/aquascan/backend/internal/db/repository"
	"github.com/aquascan/backend/internal/kafka"
	"github.com/aquascan/backend/internal/utils"
	"go.uber.org/zap"
)

const ingestSchema = "sample_ingest"

// IngestMessage is the payload of the sample ingest topic
type IngestMessage struct {
	UserID      uint     `json:"user_id"`
	ImageBase64 string   `json:"image_base64"`
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`
}

// KafkaHandler analyses samples submitted through the ingest topic.
// Returned errors send the message to the dead letter topic.
type KafkaHandler struct {
	logger          *utils.Logger
	kafkaManager    *kafka.Manager
	analysisService *AnalysisService
	users           repository.UserRepository
	validator       *utils.JSONSchemaValidator
	timeout         time.Duration
	baseCtx         context.Context
}

// NewKafkaHandler creates a new Kafka message handler service.
// timeout bounds a single analysis.
func NewKafkaHandler(
	logger *utils.Logger,
	kafkaManager *kafka.Manager,
	analysisService *AnalysisService,
	users repository.UserRepository,
	timeout time.Duration,
) (*KafkaHandler, error) {
	schema, err := utils.NewJSONSchemaBuilder().
		SetTitle("Water sample ingest message").
		AddIntegerProperty("user_id", true).
		AddStringProperty("image_base64", true, analysis.MinPayloadLength).
		AddNumberProperty("lat", false, -90, 90).
		AddNumberProperty("lng", false, -180, 180).
		Build()
	if err != nil {
		return nil, err
	}

	validator := utils.NewJSONSchemaValidator()
	if err := validator.LoadSchema(ingestSchema, schema); err != nil {
		return nil, err
	}

	return &KafkaHandler{
		logger:          logger.Named("kafka_handler"),
		kafkaManager:    kafkaManager,
		analysisService: analysisService,
		users:           users,
		validator:       validator,
		timeout:         timeout,
		baseCtx:         context.Background(),
	}, nil
}

// Initialize registers the ingest consumer. Analyses in flight are
// cancelled when the manager stops.
func (h *KafkaHandler) Initialize() error {
	h.baseCtx = h.kafkaManager.Context()

	if err := h.kafkaManager.RegisterIngestHandler("analysis", h.HandleIngest); err != nil {
		return fmt.Errorf("failed to register ingest handler: %w", err)
	}
	return nil
}

// HandleIngest validates one ingest message and analyses the sample
func (h *KafkaHandler) HandleIngest(key, value []byte) error {
	if err := h.validator.ValidateJSON(ingestSchema, value); err != nil {
		h.logger.Warn("Rejected ingest message", zap.String("key", string(key)), zap.Error(err))
		return err
	}

	var msg IngestMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		return fmt.Errorf("%w: %v", utils.ErrValidation, err)
	}

	if _, err := h.users.GetByID(msg.UserID); err != nil {
		return fmt.Errorf("user %d: %w", msg.UserID, err)
	}

	ctx, cancel := context.WithTimeout(h.baseCtx, h.timeout)
	defer cancel()

	result, err := h.analysisService.AnalyzeSample(ctx, msg.UserID, AnalyzeRequest{
		ImageBase64: msg.ImageBase64,
		Latitude:    msg.Lat,
		Longitude:   msg.Lng,
		Source:      SourceKafka,
	})
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	h.logger.Debug("Ingested sample",
		zap.String("key", string(key)),
		zap.String("sample_id", result.Sample.ID),
		zap.String("overall", string(result.Sample.Overall)),
	)
	return nil
}
