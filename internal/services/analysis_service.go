package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aquascan/backend/internal/analysis"
	"github.com/aquascan/backend/internal/config"
	"github.com/aquascan/backend/internal/db/models"
	"github.com/aquascan/backend/internal/db/repository"
	"github.com/aquascan/backend/internal/utils"
	"go.uber.org/zap"
)

// Sample sources
const (
	SourceAPI   = "api"
	SourceKafka = "kafka"
)

// EventPublisher publishes JSON events. *kafka.Manager implements it.
type EventPublisher interface {
	ProduceMessage(topic string, key string, value interface{}, headers map[string]string) error
}

// AnalyzeRequest is one image submitted for analysis
type AnalyzeRequest struct {
	ImageBase64 string
	Latitude    *float64
	Longitude   *float64
	Source      string
}

// AnalysisResult is a stored sample with its report
type AnalysisResult struct {
	Sample *models.Sample   `json:"sample"`
	Report *analysis.Report `json:"report"`
}

// SampleEvent is published to Kafka for every analysed sample
type SampleEvent struct {
	Event      string                `json:"event"`
	SampleID   string                `json:"sample_id"`
	UserID     uint                  `json:"user_id"`
	CreatedAt  time.Time             `json:"created_at"`
	Source     string                `json:"source"`
	Overall    analysis.SafetyLevel  `json:"overall"`
	Metrics    analysis.WaterMetrics `json:"metrics"`
	Confidence int                   `json:"confidence"`
	Grade      string                `json:"grade"`
	Location   *analysis.Location    `json:"location,omitempty"`
}

// AnalysisService runs the analysis pipeline and owns stored samples
type AnalysisService struct {
	samples   repository.SampleRepository
	analyzer  *analysis.Analyzer
	notifier  *NotificationService
	publisher EventPublisher
	kafkaCfg  config.KafkaConfig
	maxBytes  int
	logger    *utils.Logger
}

// NewAnalysisService creates an analysis service. publisher may be nil.
func NewAnalysisService(
	samples repository.SampleRepository,
	analyzer *analysis.Analyzer,
	notifier *NotificationService,
	publisher EventPublisher,
	cfg *config.Config,
	logger *utils.Logger,
) *AnalysisService {
	return &AnalysisService{
		samples:   samples,
		analyzer:  analyzer,
		notifier:  notifier,
		publisher: publisher,
		kafkaCfg:  cfg.Kafka,
		maxBytes:  cfg.Analysis.MaxPayloadBytes,
		logger:    logger.Named("analysis_service"),
	}
}

// AnalyzeSample analyses an image, stores the sample and fans out events.
// Nothing is stored when ctx ends before the analysis completes.
func (s *AnalysisService) AnalyzeSample(ctx context.Context, userID uint, req AnalyzeRequest) (*AnalysisResult, error) {
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return nil, fmt.Errorf("%w: lat and lng must be given together", utils.ErrValidation)
	}

	payload, err := analysis.PayloadFromBase64(req.ImageBase64)
	if err != nil {
		return nil, err
	}
	// the limit applies to image bytes, not to their base64 text
	if s.maxBytes > 0 && payload.Size() > s.maxBytes {
		return nil, fmt.Errorf("%w: image of %d bytes exceeds the %d byte limit", utils.ErrPayloadTooLarge, payload.Size(), s.maxBytes)
	}

	started := time.Now()
	result, err := s.analyzer.Analyze(ctx, payload)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			s.logger.Info("Analysis abandoned", zap.Uint("user_id", userID), zap.Error(err))
		}
		return nil, err
	}

	report := analysis.BuildReport(result.Metrics)

	source := req.Source
	if source == "" {
		source = SourceAPI
	}

	sample := &models.Sample{
		UserID:     userID,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Source:     source,
		Metrics:    result.Metrics,
		Features:   result.Features,
		Overall:    report.Safety.Overall,
		Confidence: report.Confidence,
		Grade:      report.Grade.Letter,
	}
	if err := s.samples.Create(sample); err != nil {
		s.logger.Error("Failed to store sample", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Sample analysed",
		zap.String("sample_id", sample.ID),
		zap.Uint("user_id", userID),
		zap.String("overall", string(sample.Overall)),
		zap.Int("confidence", sample.Confidence),
		zap.Duration("took", time.Since(started)),
	)

	s.publish(sample)
	s.notify(sample, report)

	return &AnalysisResult{Sample: sample, Report: report}, nil
}

// GetSample returns a stored sample with its report
func (s *AnalysisService) GetSample(userID uint, id string) (*AnalysisResult, error) {
	sample, err := s.samples.GetByID(userID, id)
	if err != nil {
		return nil, err
	}
	return &AnalysisResult{Sample: sample, Report: analysis.BuildReport(sample.Metrics)}, nil
}

// ListSamples returns a page of the user's samples, newest first
func (s *AnalysisService) ListSamples(userID uint, page utils.PaginationRequest) ([]models.Sample, int64, error) {
	return s.samples.ListByUser(userID, page.Offset(), page.Limit)
}

// DeleteSample removes a stored sample
func (s *AnalysisService) DeleteSample(userID uint, id string) error {
	if err := s.samples.Delete(userID, id); err != nil {
		return err
	}
	s.logger.Info("Sample deleted", zap.String("sample_id", id), zap.Uint("user_id", userID))
	return nil
}

// Classify builds a report for caller supplied metrics without storing anything
func (s *AnalysisService) Classify(metrics analysis.WaterMetrics) *analysis.Report {
	return analysis.BuildReport(metrics)
}

func (s *AnalysisService) publish(sample *models.Sample) {
	if s.publisher == nil || !s.kafkaCfg.Enabled {
		return
	}

	event := SampleEvent{
		Event:      "sample.analyzed",
		SampleID:   sample.ID,
		UserID:     sample.UserID,
		CreatedAt:  sample.CreatedAt,
		Source:     sample.Source,
		Overall:    sample.Overall,
		Metrics:    sample.Metrics,
		Confidence: sample.Confidence,
		Grade:      sample.Grade,
		Location:   sample.Location(),
	}

	if err := s.publisher.ProduceMessage(s.kafkaCfg.AnalyzedTopic, sample.ID, event, nil); err != nil {
		s.logger.Warn("Failed to publish analyzed event", zap.String("sample_id", sample.ID), zap.Error(err))
	}

	if sample.Overall == analysis.SafetySafe {
		return
	}

	event.Event = "sample.alert"
	headers := map[string]string{"severity": string(sample.Overall)}
	if err := s.publisher.ProduceMessage(s.kafkaCfg.AlertsTopic, sample.ID, event, headers); err != nil {
		s.logger.Warn("Failed to publish alert event", zap.String("sample_id", sample.ID), zap.Error(err))
	}
}

func (s *AnalysisService) notify(sample *models.Sample, report *analysis.Report) {
	if s.notifier == nil || sample.Overall == analysis.SafetySafe {
		return
	}

	typ := models.NotificationWarning
	title := "Water quality needs attention"
	if sample.Overall == analysis.SafetyUnsafe {
		typ = models.NotificationAlert
		title = "Unsafe water detected"
	}

	sampleID := sample.ID
	if _, err := s.notifier.Notify(sample.UserID, typ, title, alertMessage(report), &sampleID); err != nil {
		s.logger.Warn("Failed to notify user", zap.String("sample_id", sample.ID), zap.Error(err))
	}
}

// alertMessage lists the parameters outside the safe range, worst first
func alertMessage(report *analysis.Report) string {
	var unsafe, caution []analysis.Finding
	for _, f := range report.Findings {
		switch f.Status {
		case analysis.SafetyUnsafe:
			unsafe = append(unsafe, f)
		case analysis.SafetyCaution:
			caution = append(caution, f)
		}
	}

	flagged := append(unsafe, caution...)
	if len(flagged) == 0 {
		return "All parameters are within safe ranges."
	}

	parts := make([]string, len(flagged))
	for i, f := range flagged {
		parts[i] = fmt.Sprintf("%s %s (%s)", f.Parameter, f.Value, f.Status)
	}
	return fmt.Sprintf("%s. %s.", strings.Join(parts, ", "), strings.TrimSuffix(flagged[0].Recommendation, "."))
}
