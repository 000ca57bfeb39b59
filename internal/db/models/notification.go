package models

import (
	"time"
)

// NotificationType categorizes a notification for the client
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationAlert   NotificationType = "alert"
)

// Notification is a message stored for a user and pushed over websocket
type Notification struct {
	ID        uint             `gorm:"primarykey" json:"id"`
	UserID    uint             `gorm:"index;not null" json:"user_id"`
	Type      NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	Title     string           `gorm:"not null" json:"title"`
	Message   string           `json:"message"`
	SampleID  *string          `gorm:"type:varchar(36)" json:"sample_id,omitempty"`
	Read      bool             `gorm:"default:false;index" json:"read"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
