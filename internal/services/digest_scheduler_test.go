package services_test

import (
	"testing"

	"github.com/aquascan/backend/internal/db/models"
	"github.com/aquascan/backend/internal/db/repository"
	"github.com/aquascan/backend/internal/services"
	"github.com/aquascan/backend/internal/testutil"
	"github.com/aquascan/backend/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDigestScheduler(t *testing.T, ts *testutil.TestSetup) (*services.DigestScheduler, *services.NotificationService) {
	repos := repository.NewRepositoryFactory(ts.DB.DB)
	notifier := services.NewNotificationService(repos.Notification(), ts.Logger)
	t.Cleanup(notifier.Close)

	history := services.NewHistoryService(repos.Sample(), ts.Config.Analysis.TrendWindowDays, ts.Logger)
	scheduler := services.NewDigestScheduler(repos.Sample(), repos.User(), history, notifier, ts.Config.Digest, ts.Logger)
	return scheduler, notifier
}

func TestDigestScheduler_RunOnce(t *testing.T) {
	ts := testutil.NewTestSetup(t)
	scheduler, notifier := newDigestScheduler(t, ts)
	page := utils.PaginationRequest{Page: 1, Limit: 10}

	declining := ts.SeedTestUser("declining@example.com", "password123")
	seedDeclining(ts, declining)

	improving := ts.SeedTestUser("improving@example.com", "password123")
	seedImproving(ts, improving)

	sparse := ts.SeedTestUser("sparse@example.com", "password123")
	ts.SeedSample(sparse, daysAgo(1), testutil.Metrics(7.2, 0.6, 2.0, 0.5))

	optedOut := ts.SeedTestUser("quiet@example.com", "password123")
	seedDeclining(ts, optedOut)
	require.NoError(t, ts.DB.Model(&models.User{}).Where("id = ?", optedOut).Update("digest_opt_in", false).Error)

	sent, err := scheduler.RunOnce()
	require.NoError(t, err)

	// Test case: Run result
	t.Run("Should notify users whose water quality moved", func(t *testing.T) {
		assert.Equal(t, 2, sent)
	})

	// Test case: Declining
	t.Run("Should warn about a declining trend", func(t *testing.T) {
		list, total, err := notifier.List(declining, false, page)

		require.NoError(t, err)
		require.Equal(t, int64(1), total)
		assert.Equal(t, models.NotificationWarning, list[0].Type)
		assert.Equal(t, "Water quality is declining", list[0].Title)
		assert.Contains(t, list[0].Message, "5 samples over the last 30 days.")
		assert.Nil(t, list[0].SampleID)
	})

	// Test case: Improving
	t.Run("Should congratulate on an improving trend", func(t *testing.T) {
		list, _, err := notifier.List(improving, false, page)

		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, models.NotificationSuccess, list[0].Type)
		assert.Contains(t, list[0].Message, "Continue current water treatment practices.")
	})

	// Test case: Skipped users
	t.Run("Should skip sparse histories and opted-out users", func(t *testing.T) {
		for _, id := range []uint{sparse, optedOut} {
			count, err := notifier.UnreadCount(id)
			require.NoError(t, err)
			assert.Zero(t, count)
		}
	})
}

func TestDigestScheduler_MessageListsMovedMetricsOnly(t *testing.T) {
	ts := testutil.NewTestSetup(t)
	scheduler, notifier := newDigestScheduler(t, ts)

	// turbidity drops 0.15 NTU: enough to lift the overall level but below the reporting threshold
	userID := ts.SeedTestUser("clearing@example.com", "password123")
	for _, days := range []int{12, 10, 8} {
		ts.SeedSample(userID, daysAgo(days), testutil.Metrics(7.2, 0.5, 2.0, 1.05))
	}
	for _, days := range []int{6, 4, 2} {
		ts.SeedSample(userID, daysAgo(days), testutil.Metrics(7.2, 0.5, 2.0, 0.9))
	}

	sent, err := scheduler.RunOnce()
	require.NoError(t, err)
	require.Equal(t, 1, sent)

	list, _, err := notifier.List(userID, false, utils.PaginationRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 1)

	assert.Equal(t, models.NotificationSuccess, list[0].Type)
	assert.Equal(t, "6 samples over the last 30 days. Continue current water treatment practices.", list[0].Message)
	assert.NotContains(t, list[0].Message, "Water clarity is consistent")
}

func TestDigestScheduler_Start(t *testing.T) {
	ts := testutil.NewTestSetup(t)

	// Test case: Valid schedule
	t.Run("Should start with a standard cron spec", func(t *testing.T) {
		scheduler, _ := newDigestScheduler(t, ts)

		require.NoError(t, scheduler.Start())
		scheduler.Stop()
	})

	// Test case: Invalid schedule
	t.Run("Should reject an invalid cron spec", func(t *testing.T) {
		ts.Config.Digest.Schedule = "every morning"
		scheduler, _ := newDigestScheduler(t, ts)

		assert.Error(t, scheduler.Start())
	})
}
