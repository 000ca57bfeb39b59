package services_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aquascan/backend/internal/db/models"
	"github.com/aquascan/backend/internal/db/repository"
	"github.com/aquascan/backend/internal/services"
	"github.com/aquascan/backend/internal/testutil"
	"github.com/aquascan/backend/internal/utils"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNotificationService(t *testing.T) (*testutil.TestSetup, *services.NotificationService) {
	ts := testutil.NewTestSetup(t)
	service := services.NewNotificationService(repository.NewNotificationRepository(ts.DB.DB), ts.Logger)
	t.Cleanup(service.Close)
	return ts, service
}

// dialHub serves the hub for userID over a test server and returns a client connection
func dialHub(t *testing.T, service *services.NotificationService, userID uint) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		service.RegisterClient(conn, userID)
	}))
	t.Cleanup(server.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) services.NotificationMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg services.NotificationMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestNotificationService_Store(t *testing.T) {
	ts, service := newNotificationService(t)
	userID := ts.SeedTestUser("user@example.com", "password123")
	page := utils.PaginationRequest{Page: 1, Limit: 10}

	// Test case: Notify
	t.Run("Should store notifications without connected clients", func(t *testing.T) {
		sampleID := "3f1c2a9e-0000-4000-8000-000000000001"
		n, err := service.Notify(userID, models.NotificationAlert, "Unsafe water detected", "Turbidity 4.5 NTU (unsafe).", &sampleID)

		require.NoError(t, err)
		assert.NotZero(t, n.ID)
		assert.False(t, n.Read)

		_, err = service.Notify(userID, models.NotificationInfo, "Digest", "", nil)
		require.NoError(t, err)

		list, total, err := service.List(userID, false, page)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, list, 2)
	})

	// Test case: Mark read
	t.Run("Should mark notifications read", func(t *testing.T) {
		list, _, err := service.List(userID, true, page)
		require.NoError(t, err)
		require.NotEmpty(t, list)

		require.NoError(t, service.MarkRead(userID, list[0].ID))

		count, err := service.UnreadCount(userID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		updated, err := service.MarkAllRead(userID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), updated)

		count, err = service.UnreadCount(userID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	// Test case: Unknown notification
	t.Run("Should return not found for a missing notification", func(t *testing.T) {
		err := service.MarkRead(userID, 9999)
		assert.ErrorIs(t, err, utils.ErrNotFound)
	})
}

func TestNotificationService_Push(t *testing.T) {
	ts, service := newNotificationService(t)
	userID := ts.SeedTestUser("user@example.com", "password123")
	otherID := ts.SeedTestUser("other@example.com", "password123")

	conn := dialHub(t, service, userID)

	// Test case: Connect
	t.Run("Should send the unread count on connect", func(t *testing.T) {
		msg := readMessage(t, conn)

		assert.Equal(t, "unread_count", msg.Event)
		require.NotNil(t, msg.Unread)
		assert.Zero(t, *msg.Unread)
		assert.Eventually(t, func() bool { return service.ClientCount(userID) == 1 }, time.Second, 10*time.Millisecond)
	})

	// Test case: Targeted push
	t.Run("Should push only the user's own notifications", func(t *testing.T) {
		_, err := service.Notify(otherID, models.NotificationInfo, "Not for you", "", nil)
		require.NoError(t, err)
		_, err = service.Notify(userID, models.NotificationWarning, "Water quality needs attention", "pH 6.8 (caution).", nil)
		require.NoError(t, err)

		msg := readMessage(t, conn)

		assert.Equal(t, "notification", msg.Event)
		require.NotNil(t, msg.Payload)
		assert.Equal(t, userID, msg.Payload.UserID)
		assert.Equal(t, models.NotificationWarning, msg.Payload.Type)
	})

	// Test case: Read state
	t.Run("Should push the new unread count after marking all read", func(t *testing.T) {
		_, err := service.MarkAllRead(userID)
		require.NoError(t, err)

		msg := readMessage(t, conn)

		assert.Equal(t, "unread_count", msg.Event)
		require.NotNil(t, msg.Unread)
		assert.Zero(t, *msg.Unread)
	})

	// Test case: Disconnect
	t.Run("Should unregister a closed connection", func(t *testing.T) {
		require.NoError(t, conn.Close())

		assert.Eventually(t, func() bool { return service.ClientCount(userID) == 0 }, 2*time.Second, 10*time.Millisecond)
	})
}
