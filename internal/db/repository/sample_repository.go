package repository

import (
	"time"

	"github.com/aquascan/backend/internal/db/models"
	"gorm.io/gorm"
)

// SampleRepository defines operations for stored water samples.
// Every read is scoped to the owning user.
type SampleRepository interface {
	Repository
	Create(sample *models.Sample) error
	GetByID(userID uint, id string) (*models.Sample, error)
	ListByUser(userID uint, offset, limit int) ([]models.Sample, int64, error)
	// ListSince returns the user's samples created at or after since, oldest first
	ListSince(userID uint, since time.Time) ([]models.Sample, error)
	Delete(userID uint, id string) error
	// ListUserIDsWithSamplesSince returns the owners of samples created at or after since
	ListUserIDsWithSamplesSince(since time.Time) ([]uint, error)
}

// sampleRepository implements SampleRepository
type sampleRepository struct {
	BaseRepository
}

// NewSampleRepository creates a new sample repository
func NewSampleRepository(db *gorm.DB) SampleRepository {
	return &sampleRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create stores a sample
func (r *sampleRepository) Create(sample *models.Sample) error {
	if sample.UserID == 0 {
		return ErrInvalidInput
	}
	return r.handleError(r.GetDB().Create(sample).Error)
}

// GetByID retrieves one of the user's samples
func (r *sampleRepository) GetByID(userID uint, id string) (*models.Sample, error) {
	var sample models.Sample
	err := r.GetDB().Where("id = ? AND user_id = ?", id, userID).First(&sample).Error
	if err != nil {
		return nil, r.handleError(err)
	}
	return &sample, nil
}

// ListByUser returns a page of the user's samples, newest first
func (r *sampleRepository) ListByUser(userID uint, offset, limit int) ([]models.Sample, int64, error) {
	var samples []models.Sample
	var total int64

	query := r.GetDB().Model(&models.Sample{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, r.handleError(err)
	}

	err := r.GetDB().Where("user_id = ?", userID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&samples).Error
	if err != nil {
		return nil, 0, r.handleError(err)
	}

	return samples, total, nil
}

// ListSince returns the user's samples created at or after since, oldest first
func (r *sampleRepository) ListSince(userID uint, since time.Time) ([]models.Sample, error) {
	var samples []models.Sample
	err := r.GetDB().
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at asc").
		Find(&samples).Error
	if err != nil {
		return nil, r.handleError(err)
	}
	return samples, nil
}

// Delete removes one of the user's samples
func (r *sampleRepository) Delete(userID uint, id string) error {
	result := r.GetDB().Where("id = ? AND user_id = ?", id, userID).Delete(&models.Sample{})
	if result.Error != nil {
		return r.handleError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUserIDsWithSamplesSince returns the owners of samples created at or after since
func (r *sampleRepository) ListUserIDsWithSamplesSince(since time.Time) ([]uint, error) {
	var ids []uint
	err := r.GetDB().Model(&models.Sample{}).
		Where("created_at >= ?", since).
		Distinct("user_id").
		Order("user_id asc").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, r.handleError(err)
	}
	return ids, nil
}
