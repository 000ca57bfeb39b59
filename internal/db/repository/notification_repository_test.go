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

func TestNotificationRepository(t *testing.T) {
	ts := testutil.NewTestSetup(t)
	repo := repository.NewNotificationRepository(ts.DB.DB)

	userID := ts.SeedTestUser("user@example.com", "password123")
	otherID := ts.SeedTestUser("other@example.com", "password123")

	for i, typ := range []models.NotificationType{models.NotificationInfo, models.NotificationWarning, models.NotificationAlert} {
		require.NoError(t, repo.Create(&models.Notification{
			UserID:    userID,
			Type:      typ,
			Title:     "Sample analysed",
			CreatedAt: time.Now().Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.Create(&models.Notification{UserID: otherID, Type: models.NotificationInfo, Title: "Other"}))

	// Test case: Listing
	t.Run("Should list the user's notifications newest first", func(t *testing.T) {
		list, total, err := repo.ListByUser(userID, false, 0, 10)

		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, list, 3)
		assert.Equal(t, models.NotificationAlert, list[0].Type)
	})

	// Test case: Mark read
	t.Run("Should mark a single notification read", func(t *testing.T) {
		list, _, err := repo.ListByUser(userID, false, 0, 1)
		require.NoError(t, err)

		require.NoError(t, repo.MarkRead(userID, list[0].ID, time.Now()))

		count, err := repo.CountUnread(userID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		unread, total, err := repo.ListByUser(userID, true, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, unread, 2)
	})

	// Test case: Ownership
	t.Run("Should not mark another user's notification", func(t *testing.T) {
		list, _, err := repo.ListByUser(otherID, false, 0, 1)
		require.NoError(t, err)

		err = repo.MarkRead(userID, list[0].ID, time.Now())
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	// Test case: Mark all read
	t.Run("Should mark all notifications read", func(t *testing.T) {
		updated, err := repo.MarkAllRead(userID, time.Now())

		require.NoError(t, err)
		assert.Equal(t, int64(2), updated)

		count, err := repo.CountUnread(userID)
		require.NoError(t, err)
		assert.Zero(t, count)

		count, err = repo.CountUnread(otherID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}
