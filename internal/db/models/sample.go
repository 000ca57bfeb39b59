package models

import (
	"time"

	"github.com/aquascan/backend/internal/analysis"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sample is one analysed water capture
type Sample struct {
	ID         string                 `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID     uint                   `gorm:"index:idx_samples_user_created;not null" json:"user_id"`
	CreatedAt  time.Time              `gorm:"index:idx_samples_user_created" json:"created_at"`
	Latitude   *float64               `json:"lat,omitempty"`
	Longitude  *float64               `json:"lng,omitempty"`
	Source     string                 `gorm:"type:varchar(20);default:'api'" json:"source"` // "api", "kafka" or "cli"
	Metrics    analysis.WaterMetrics  `gorm:"serializer:json;not null" json:"metrics"`
	Features   analysis.ImageFeatures `gorm:"serializer:json" json:"features"`
	Overall    analysis.SafetyLevel   `gorm:"type:varchar(10);index;not null" json:"overall"`
	Confidence int                    `json:"confidence"`
	Grade      string                 `gorm:"type:varchar(1)" json:"grade"`
}

// BeforeCreate assigns the sample identifier
func (s *Sample) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Location returns the capture position when one was recorded
func (s *Sample) Location() *analysis.Location {
	if s.Latitude == nil || s.Longitude == nil {
		return nil
	}
	return &analysis.Location{Lat: *s.Latitude, Lng: *s.Longitude}
}

// Timed returns the sample as input for the history analyses
func (s *Sample) Timed() analysis.TimedMetrics {
	return analysis.TimedMetrics{CreatedAt: s.CreatedAt, Metrics: s.Metrics}
}

// TimedSeries converts a list of samples for the history analyses
func TimedSeries(samples []Sample) []analysis.TimedMetrics {
	out := make([]analysis.TimedMetrics, len(samples))
	for i := range samples {
		out[i] = samples[i].Timed()
	}
	return out
}
