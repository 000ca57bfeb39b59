package repository

import (
	"time"

	"github.com/aquascan/backend/internal/db/models"
	"gorm.io/gorm"
)

// UserRepository defines operations for managing users
type UserRepository interface {
	Repository
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	UpdateLastLogin(id uint, at time.Time) error
	// ListDigestRecipients returns the active, opted-in users among ids
	ListDigestRecipients(ids []uint) ([]models.User, error)
}

// userRepository implements UserRepository
type userRepository struct {
	BaseRepository
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create adds a new user, rejecting duplicate emails
func (r *userRepository) Create(user *models.User) error {
	var count int64
	if err := r.GetDB().Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return r.handleError(err)
	}

	if count > 0 {
		return ErrConflict
	}

	return r.handleError(r.GetDB().Create(user).Error)
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.GetDB().Where("id = ?", id).First(&user).Error; err != nil {
		return nil, r.handleError(err)
	}
	return &user, nil
}

// GetByEmail retrieves a user by email
func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.GetDB().Where("email = ?", email).First(&user).Error; err != nil {
		return nil, r.handleError(err)
	}
	return &user, nil
}

// Update updates a user's profile, leaving the password untouched
func (r *userRepository) Update(user *models.User) error {
	var existing models.User
	if err := r.GetDB().Where("id = ?", user.ID).First(&existing).Error; err != nil {
		return r.handleError(err)
	}

	err := r.GetDB().Model(user).Omit("password").Updates(map[string]interface{}{
		"first_name":    user.FirstName,
		"last_name":     user.LastName,
		"active":        user.Active,
		"digest_opt_in": user.DigestOptIn,
	}).Error

	return r.handleError(err)
}

// Delete soft-deletes a user
func (r *userRepository) Delete(id uint) error {
	result := r.GetDB().Delete(&models.User{}, id)
	if result.Error != nil {
		return r.handleError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateLastLogin records the login timestamp for a user
func (r *userRepository) UpdateLastLogin(id uint, at time.Time) error {
	err := r.GetDB().Model(&models.User{}).Where("id = ?", id).
		UpdateColumn("last_login", at).Error
	return r.handleError(err)
}

// ListDigestRecipients returns the active, opted-in users among ids
func (r *userRepository) ListDigestRecipients(ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}

	var users []models.User
	err := r.GetDB().
		Where("id IN ? AND active = ? AND digest_opt_in = ?", ids, true, true).
		Order("id asc").
		Find(&users).Error
	if err != nil {
		return nil, r.handleError(err)
	}
	return users, nil
}
