package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/aquascan/backend/internal/db/models"
	"github.com/aquascan/backend/internal/db/repository"
	"github.com/aquascan/backend/internal/utils"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	clientSendBuffer = 64
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = 30 * time.Second
	maxClientMessage = 4096
)

// Client is one websocket connection of a user
type Client struct {
	conn   *websocket.Conn
	userID uint
	send   chan []byte
}

// NotificationMessage is the frame pushed to websocket clients
type NotificationMessage struct {
	Event     string               `json:"event"` // "notification" or "unread_count"
	Timestamp time.Time            `json:"timestamp"`
	Payload   *models.Notification `json:"payload,omitempty"`
	Unread    *int64               `json:"unread,omitempty"`
}

type delivery struct {
	userID  uint
	message []byte
}

// NotificationService stores user notifications and pushes them to the
// user's open websocket connections. Each service instance owns its hub.
type NotificationService struct {
	repo       repository.NotificationRepository
	logger     *utils.Logger
	clients    map[uint]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	done       chan struct{}
	closeOnce  sync.Once
	mutex      sync.RWMutex
}

// NewNotificationService creates a notification service and starts its hub
func NewNotificationService(repo repository.NotificationRepository, logger *utils.Logger) *NotificationService {
	service := &NotificationService{
		repo:       repo,
		logger:     logger.Named("notification_service"),
		clients:    make(map[uint]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 256),
		done:       make(chan struct{}),
	}

	go service.run()
	return service
}

// Close stops the hub and disconnects every client
func (s *NotificationService) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Notify stores a notification for the user and pushes it to connected clients
func (s *NotificationService) Notify(userID uint, typ models.NotificationType, title, message string, sampleID *string) (*models.Notification, error) {
	notification := &models.Notification{
		UserID:   userID,
		Type:     typ,
		Title:    title,
		Message:  message,
		SampleID: sampleID,
	}

	if err := s.repo.Create(notification); err != nil {
		s.logger.Error("Failed to store notification", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.push(userID, NotificationMessage{
		Event:     "notification",
		Timestamp: time.Now(),
		Payload:   notification,
	})

	return notification, nil
}

// List returns a page of the user's notifications
func (s *NotificationService) List(userID uint, unreadOnly bool, page utils.PaginationRequest) ([]models.Notification, int64, error) {
	return s.repo.ListByUser(userID, unreadOnly, page.Offset(), page.Limit)
}

// UnreadCount returns the number of unread notifications
func (s *NotificationService) UnreadCount(userID uint) (int64, error) {
	return s.repo.CountUnread(userID)
}

// MarkRead marks one notification read and pushes the new unread count
func (s *NotificationService) MarkRead(userID, id uint) error {
	if err := s.repo.MarkRead(userID, id, time.Now()); err != nil {
		return err
	}
	s.pushUnreadCount(userID)
	return nil
}

// MarkAllRead marks every notification of the user read
func (s *NotificationService) MarkAllRead(userID uint) (int64, error) {
	updated, err := s.repo.MarkAllRead(userID, time.Now())
	if err != nil {
		return 0, err
	}
	s.pushUnreadCount(userID)
	return updated, nil
}

// ClientCount returns the number of open connections of the user
func (s *NotificationService) ClientCount(userID uint) int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.clients[userID])
}

// RegisterClient attaches a websocket connection to the user's hub
func (s *NotificationService) RegisterClient(conn *websocket.Conn, userID uint) *Client {
	client := &Client{
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, clientSendBuffer),
	}

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return client
	}

	go s.readPump(client)
	go s.writePump(client)

	s.pushUnreadCount(userID)

	return client
}

func (s *NotificationService) pushUnreadCount(userID uint) {
	count, err := s.repo.CountUnread(userID)
	if err != nil {
		s.logger.Warn("Failed to count unread notifications", zap.Uint("user_id", userID), zap.Error(err))
		return
	}
	s.push(userID, NotificationMessage{Event: "unread_count", Timestamp: time.Now(), Unread: &count})
}

func (s *NotificationService) push(userID uint, message NotificationMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		s.logger.Error("Failed to marshal notification message", zap.Error(err))
		return
	}

	select {
	case s.deliver <- delivery{userID: userID, message: data}:
	case <-s.done:
	default:
		s.logger.Warn("Notification queue full, dropping push", zap.Uint("user_id", userID))
	}
}

// run owns the client registry
func (s *NotificationService) run() {
	for {
		select {
		case client := <-s.register:
			s.mutex.Lock()
			if s.clients[client.userID] == nil {
				s.clients[client.userID] = make(map[*Client]bool)
			}
			s.clients[client.userID][client] = true
			s.mutex.Unlock()
			s.logger.Debug("Client registered", zap.Uint("user_id", client.userID))

		case client := <-s.unregister:
			s.remove(client)

		case d := <-s.deliver:
			s.mutex.RLock()
			targets := make([]*Client, 0, len(s.clients[d.userID]))
			for client := range s.clients[d.userID] {
				targets = append(targets, client)
			}
			s.mutex.RUnlock()

			for _, client := range targets {
				select {
				case client.send <- d.message:
				default:
					s.logger.Warn("Client buffer full, connection closed", zap.Uint("user_id", client.userID))
					s.remove(client)
				}
			}

		case <-s.done:
			s.mutex.Lock()
			for _, set := range s.clients {
				for client := range set {
					close(client.send)
				}
			}
			s.clients = make(map[uint]map[*Client]bool)
			s.mutex.Unlock()
			return
		}
	}
}

func (s *NotificationService) remove(client *Client) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	set, ok := s.clients[client.userID]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(s.clients, client.userID)
	}
	close(client.send)
	s.logger.Debug("Client unregistered", zap.Uint("user_id", client.userID))
}

// readPump drains client frames; clients only send pongs and close frames
func (s *NotificationService) readPump(client *Client) {
	defer func() {
		select {
		case s.unregister <- client:
		case <-s.done:
		}
		client.conn.Close()
	}()

	client.conn.SetReadLimit(maxClientMessage)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("Unexpected websocket close", zap.Error(err), zap.Uint("user_id", client.userID))
			}
			return
		}
	}
}

// writePump writes queued messages and keeps the connection alive
func (s *NotificationService) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
