package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/aquascan/backend/internal/db/models"
	"github.com/aquascan/backend/internal/db/repository"
	"github.com/aquascan/backend/internal/utils"
	"go.uber.org/zap"
)

// ErrInvalidCredentials is returned for unknown emails, wrong passwords and inactive accounts
var ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", utils.ErrUnauthorized)

// UserService handles user-related business logic
type UserService struct {
	repo   repository.UserRepository
	logger *utils.Logger
}

// NewUserService creates a new user service
func NewUserService(repo repository.UserRepository, logger *utils.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: logger.Named("user_service"),
	}
}

// Authenticate verifies user credentials and returns the user
func (s *UserService) Authenticate(email, password string) (*models.User, error) {
	user, err := s.repo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("Database error during authentication", zap.Error(err))
		return nil, err
	}

	if !user.Active || !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// Create adds a new user
func (s *UserService) Create(user *models.User) error {
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.Active = true

	if err := s.repo.Create(user); err != nil {
		if !errors.Is(err, repository.ErrConflict) {
			s.logger.Error("Database error creating user", zap.String("email", user.Email), zap.Error(err))
		}
		return err
	}

	s.logger.Info("User registered", zap.Uint("user_id", user.ID))
	return nil
}

// GetByID retrieves a user by ID
func (s *UserService) GetByID(id uint) (*models.User, error) {
	user, err := s.repo.GetByID(id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Error("Database error getting user by ID", zap.Uint("id", id), zap.Error(err))
	}
	return user, err
}

// UpdateLastLogin updates the last login time for a user
func (s *UserService) UpdateLastLogin(id uint) error {
	if err := s.repo.UpdateLastLogin(id, time.Now().UTC()); err != nil {
		s.logger.Error("Database error updating last login", zap.Uint("id", id), zap.Error(err))
		return err
	}
	return nil
}

// SetDigestOptIn toggles the scheduled digest for the user
func (s *UserService) SetDigestOptIn(id uint, optIn bool) (*models.User, error) {
	user, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	user.DigestOptIn = optIn
	if err := s.repo.Update(user); err != nil {
		s.logger.Error("Database error updating digest preference", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return user, nil
}
