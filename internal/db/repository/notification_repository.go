package repository

import (
	"time"

	"github.com/aquascan/backend/internal/db/models"
	"gorm.io/gorm"
)

// NotificationRepository defines operations for user notifications
type NotificationRepository interface {
	Repository
	Create(notification *models.Notification) error
	ListByUser(userID uint, unreadOnly bool, offset, limit int) ([]models.Notification, int64, error)
	MarkRead(userID, id uint, at time.Time) error
	MarkAllRead(userID uint, at time.Time) (int64, error)
	CountUnread(userID uint) (int64, error)
}

// notificationRepository implements NotificationRepository
type notificationRepository struct {
	BaseRepository
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create stores a notification
func (r *notificationRepository) Create(notification *models.Notification) error {
	return r.handleError(r.GetDB().Create(notification).Error)
}

// ListByUser returns a page of the user's notifications, newest first
func (r *notificationRepository) ListByUser(userID uint, unreadOnly bool, offset, limit int) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var total int64

	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Where("user_id = ?", userID)
		if unreadOnly {
			db = db.Where("read = ?", false)
		}
		return db
	}

	if err := r.GetDB().Model(&models.Notification{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, r.handleError(err)
	}

	err := r.GetDB().Scopes(scope).
		Order("created_at desc, id desc").
		Offset(offset).
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, r.handleError(err)
	}

	return notifications, total, nil
}

// MarkRead marks one of the user's notifications as read
func (r *notificationRepository) MarkRead(userID, id uint, at time.Time) error {
	result := r.GetDB().Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{"read": true, "read_at": at})
	if result.Error != nil {
		return r.handleError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead marks every unread notification of the user as read
func (r *notificationRepository) MarkAllRead(userID uint, at time.Time) (int64, error) {
	result := r.GetDB().Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Updates(map[string]interface{}{"read": true, "read_at": at})
	if result.Error != nil {
		return 0, r.handleError(result.Error)
	}
	return result.RowsAffected, nil
}

// CountUnread returns the number of unread notifications of the user
func (r *notificationRepository) CountUnread(userID uint) (int64, error) {
	var count int64
	err := r.GetDB().Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	return count, r.handleError(err)
}
