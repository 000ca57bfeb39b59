package services

import (
	"fmt"
	"math"
	"time"

	"github.com/aquascan/backend/internal/analysis"
	"github.com/aquascan/backend/internal/db/models"
	"github.com/aquascan/backend/internal/db/repository"
	"github.com/aquascan/backend/internal/utils"
	"go.uber.org/zap"
)

// MaxHistoryDays bounds the lookback window of history queries
const MaxHistoryDays = 365

// TrendResult is a trend report over a lookback window
type TrendResult struct {
	Days   int                   `json:"days"`
	Since  time.Time             `json:"since"`
	Report *analysis.TrendReport `json:"report"`
}

// SummaryResult is a summary over a lookback window
type SummaryResult struct {
	Days    int              `json:"days"`
	Since   time.Time        `json:"since"`
	Summary analysis.Summary `json:"summary"`
}

// ComparisonResult compares two stored samples
type ComparisonResult struct {
	Before      *models.Sample              `json:"before"`
	After       *models.Sample              `json:"after"`
	DaysBetween float64                     `json:"daysBetween"`
	Rows        []analysis.MetricComparison `json:"comparison"`
}

// HistoryService analyses a user's stored samples over time
type HistoryService struct {
	samples     repository.SampleRepository
	defaultDays int
	now         func() time.Time
	logger      *utils.Logger
}

// NewHistoryService creates a new history service
func NewHistoryService(samples repository.SampleRepository, defaultDays int, logger *utils.Logger) *HistoryService {
	return &HistoryService{
		samples:     samples,
		defaultDays: defaultDays,
		now:         time.Now,
		logger:      logger.Named("history_service"),
	}
}

// Trend analyses the user's samples of the last days days. Zero selects the
// configured window.
func (s *HistoryService) Trend(userID uint, days int) (*TrendResult, error) {
	days, since, series, err := s.window(userID, days)
	if err != nil {
		return nil, err
	}

	report, err := analysis.AnalyzeTrend(series)
	if err != nil {
		return nil, err
	}

	return &TrendResult{Days: days, Since: since, Report: report}, nil
}

// Summary aggregates the user's samples of the last days days
func (s *HistoryService) Summary(userID uint, days int) (*SummaryResult, error) {
	days, since, series, err := s.window(userID, days)
	if err != nil {
		return nil, err
	}

	return &SummaryResult{Days: days, Since: since, Summary: analysis.Summarize(series)}, nil
}

// Compare compares two samples of the user
func (s *HistoryService) Compare(userID uint, beforeID, afterID string) (*ComparisonResult, error) {
	if beforeID == "" || afterID == "" {
		return nil, fmt.Errorf("%w: both sample IDs are required", utils.ErrBadRequest)
	}
	if beforeID == afterID {
		return nil, fmt.Errorf("%w: cannot compare a sample with itself", utils.ErrBadRequest)
	}

	before, err := s.samples.GetByID(userID, beforeID)
	if err != nil {
		return nil, fmt.Errorf("before sample: %w", err)
	}
	after, err := s.samples.GetByID(userID, afterID)
	if err != nil {
		return nil, fmt.Errorf("after sample: %w", err)
	}

	hours := after.CreatedAt.Sub(before.CreatedAt).Hours()
	return &ComparisonResult{
		Before:      before,
		After:       after,
		DaysBetween: math.Round(hours/24*10) / 10,
		Rows:        analysis.Compare(before.Metrics, after.Metrics),
	}, nil
}

func (s *HistoryService) window(userID uint, days int) (int, time.Time, []analysis.TimedMetrics, error) {
	if days == 0 {
		days = s.defaultDays
	}
	if days < 1 || days > MaxHistoryDays {
		return 0, time.Time{}, nil, fmt.Errorf("%w: days must be between 1 and %d", utils.ErrBadRequest, MaxHistoryDays)
	}

	since := s.now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
	samples, err := s.samples.ListSince(userID, since)
	if err != nil {
		s.logger.Error("Failed to load sample history", zap.Uint("user_id", userID), zap.Int("days", days), zap.Error(err))
		return 0, time.Time{}, nil, err
	}

	return days, since, models.TimedSeries(samples), nil
}
