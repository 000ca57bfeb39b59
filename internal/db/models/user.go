package models

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Role represents user roles in the system
type Role string

const (
	// RoleAdmin admin role with full access
	RoleAdmin Role = "admin"
	// RoleUser standard user role
	RoleUser Role = "user"
)

// User owns water samples and receives notifications
type User struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	Email       string         `gorm:"uniqueIndex;not null" json:"email"`
	Password    string         `gorm:"not null" json:"-"`
	FirstName   string         `json:"first_name"`
	LastName    string         `json:"last_name"`
	Role        Role           `gorm:"type:varchar(20);default:'user'" json:"role"`
	Active      bool           `gorm:"default:true" json:"active"`
	DigestOptIn bool           `gorm:"default:true" json:"digest_opt_in"`
	LastLogin   *time.Time     `json:"last_login,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hashes the plain text password
func (u *User) BeforeCreate(tx *gorm.DB) error {
	return u.UpdatePassword(u.Password)
}

// UpdatePassword hashes and updates the password
func (u *User) UpdatePassword(password string) error {
	hashedPass, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPass)
	return nil
}

// CheckPassword compares the provided password with the hashed one
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// Claims represents the JWT claims for authentication
type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken signs a JWT for the user valid for the given duration
func (u *User) GenerateToken(secretKey string, ttl time.Duration) (string, time.Time, error) {
	if secretKey == "" {
		return "", time.Time{}, errors.New("empty JWT secret key")
	}

	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "aquascan",
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ParseToken validates a token signed with secretKey and returns its claims
func ParseToken(tokenString, secretKey string) (*Claims, error) {
	if secretKey == "" {
		return nil, errors.New("JWT secret key is not configured")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.New("token has expired")
		}
		return nil, errors.New("invalid token")
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
