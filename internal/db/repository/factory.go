package repository

import "gorm.io/gorm"

// RepositoryFactory creates and manages all repositories
type RepositoryFactory struct {
	db               *gorm.DB
	userRepo         UserRepository
	sampleRepo       SampleRepository
	notificationRepo NotificationRepository
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(db *gorm.DB) *RepositoryFactory {
	return &RepositoryFactory{
		db: db,
	}
}

// User returns the user repository
func (f *RepositoryFactory) User() UserRepository {
	if f.userRepo == nil {
		f.userRepo = NewUserRepository(f.db)
	}
	return f.userRepo
}

// Sample returns the sample repository
func (f *RepositoryFactory) Sample() SampleRepository {
	if f.sampleRepo == nil {
		f.sampleRepo = NewSampleRepository(f.db)
	}
	return f.sampleRepo
}

// Notification returns the notification repository
func (f *RepositoryFactory) Notification() NotificationRepository {
	if f.notificationRepo == nil {
		f.notificationRepo = NewNotificationRepository(f.db)
	}
	return f.notificationRepo
}
