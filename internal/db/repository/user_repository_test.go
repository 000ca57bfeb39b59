package repository_test

import (
	"testing"
	"time"

	"github.com/aquascan/backend/internal/db/models"
	"github.com/aquascan/backend/internal/db/repository"
	"github.com/aquascan/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	ts := testutil.NewTestSetup(t)
	repo := repository.NewUserRepository(ts.DB.DB)

	user := &models.User{
		Email:     "analyst@example.com",
		Password:  "password123",
		FirstName: "Water",
		LastName:  "Analyst",
		Role:      models.RoleUser,
		Active:    true,
	}

	// Test case: Create
	t.Run("Should create user with hashed password", func(t *testing.T) {
		require.NoError(t, repo.Create(user))
		assert.NotZero(t, user.ID)

		stored, err := repo.GetByEmail("analyst@example.com")
		require.NoError(t, err)
		assert.NotEqual(t, "password123", stored.Password)
		assert.True(t, stored.CheckPassword("password123"))
	})

	// Test case: Duplicate email
	t.Run("Should reject duplicate email", func(t *testing.T) {
		err := repo.Create(&models.User{Email: "analyst@example.com", Password: "x"})
		assert.ErrorIs(t, err, repository.ErrConflict)
	})

	// Test case: Last login
	t.Run("Should record last login", func(t *testing.T) {
		at := time.Now().UTC().Truncate(time.Second)
		require.NoError(t, repo.UpdateLastLogin(user.ID, at))

		stored, err := repo.GetByID(user.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.LastLogin)
		assert.True(t, at.Equal(*stored.LastLogin))
	})

	// Test case: Digest recipients
	t.Run("Should only return opted-in active users", func(t *testing.T) {
		optedOut := ts.SeedTestUser("quiet@example.com", "password123")
		require.NoError(t, ts.DB.Model(&models.User{}).Where("id = ?", optedOut).Update("digest_opt_in", false).Error)

		users, err := repo.ListDigestRecipients([]uint{user.ID, optedOut, 999})
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, user.ID, users[0].ID)

		users, err = repo.ListDigestRecipients(nil)
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	// Test case: Missing user
	t.Run("Should return not found for unknown ID", func(t *testing.T) {
		_, err := repo.GetByID(999)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}
