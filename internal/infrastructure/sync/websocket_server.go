package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	gosync "sync"
	"time"

	"ourscreen/internal/core/domain"
	"ourscreen/internal/core/ports"
	"ourscreen/internal/core/services"
	"ourscreen/internal/infrastructure/distributed"
	"ourscreen/internal/infrastructure/monitoring"
	"ourscreen/pkg/retry"
	"ourscreen/pkg/utils"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// EventSubscriber is satisfied by both the Redis and the local event bus.
type EventSubscriber interface {
	Subscribe(ctx context.Context, handler func(*distributed.Event) error) error
}

// SyncMessage is the wire envelope in both directions.
type SyncMessage struct {
	Type    string          `json:"type"`
	RoomID  domain.RoomID   `json:"roomId,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ChatSendPayload struct {
	User   string `json:"user"`
	Text   string `json:"text"`
	Avatar string `json:"avatar,omitempty"`
}

type client struct {
	conn     *websocket.Conn
	identity string
	writeMu  gosync.Mutex
}

func (c *client) writeJSON(v interface{}, timeout time.Duration) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(timeout))
	return c.conn.WriteJSON(v)
}

type WebSocketServer struct {
	roomService ports.RoomService
	tokens      services.TokenService
	bus         EventSubscriber

	rooms map[domain.RoomID]map[*client]struct{}
	mu    gosync.RWMutex

	pingInterval time.Duration
	pongTimeout  time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration

	retryConfig retry.Config
	metrics     *monitoring.PrometheusCollector
	logger      *zap.SugaredLogger
}

func NewWebSocketServer(
	roomService ports.RoomService,
	tokens services.TokenService,
	bus EventSubscriber,
	metrics *monitoring.PrometheusCollector,
	logger *zap.SugaredLogger,
) *WebSocketServer {
	return &WebSocketServer{
		roomService:  roomService,
		tokens:       tokens,
		bus:          bus,
		rooms:        make(map[domain.RoomID]map[*client]struct{}),
		pingInterval: 30 * time.Second,
		pongTimeout:  60 * time.Second,
		readTimeout:  60 * time.Second,
		writeTimeout: 10 * time.Second,
		retryConfig:  retry.DefaultConfig(),
		metrics:      metrics,
		logger:       logger,
	}
}

// SetPingInterval sets ping interval for WebSocket connections
func (s *WebSocketServer) SetPingInterval(interval time.Duration) {
	s.pingInterval = interval
}

// SetPongTimeout sets pong timeout for WebSocket connections
func (s *WebSocketServer) SetPongTimeout(timeout time.Duration) {
	s.pongTimeout = timeout
	s.readTimeout = timeout
}

// SetRetryConfig sets the backoff used to re-establish the event bus
// subscription.
func (s *WebSocketServer) SetRetryConfig(cfg retry.Config) {
	s.retryConfig = cfg
}

// Run subscribes to the event bus and fans events out to connections
// until the context is cancelled. Subscription drops are retried with
// exponential backoff, but only for transport-class errors.
func (s *WebSocketServer) Run(ctx context.Context) error {
	cfg := s.retryConfig
	cfg.ShouldRetry = func(err error) bool {
		retryable := isTransportError(err)
		if retryable && s.metrics != nil {
			s.metrics.RecordReconnectAttempt()
		}
		return retryable
	}

	err := retry.Retry(ctx, cfg, func() error {
		subErr := s.bus.Subscribe(ctx, s.handleEvent)
		if subErr != nil && ctx.Err() != nil {
			return nil
		}
		return subErr
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("event bus subscription lost: %w", err)
	}
	return nil
}

// isTransportError classifies an error as a recoverable transport
// failure. Credential problems are final and must not be retried.
func isTransportError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	if utils.ContainsAny(msg, "unauthorized", "invalid token", "token expired", "forbidden") {
		return false
	}
	return utils.ContainsAny(msg,
		"connection refused",
		"connection reset",
		"broken pipe",
		"timeout",
		"eof",
		"data channel",
		"network",
	)
}

func (s *WebSocketServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	roomID := domain.RoomID(r.URL.Query().Get("room"))
	tokenString := r.URL.Query().Get("token")

	if roomID == "" {
		http.Error(w, "missing room", http.StatusBadRequest)
		return
	}
	if tokenString == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := s.tokens.Verify(tokenString)
	if err != nil {
		s.logger.Warnw("rejected sync connection", "room_id", roomID, "error", err)
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	// The credential is scoped to one room; a mismatch is a forgery or
	// a stale token from another room
	if claims.Video.Room != string(roomID) {
		s.logger.Warnw("token room mismatch",
			"room_id", roomID,
			"token_room", claims.Video.Room,
		)
		http.Error(w, "token not valid for room", http.StatusForbidden)
		return
	}

	if _, err := s.roomService.GetRoom(r.Context(), roomID); err != nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	c := &client{conn: conn, identity: claims.Identity()}
	s.register(roomID, c)
	defer s.unregister(roomID, c)

	if s.metrics != nil {
		s.metrics.RecordSyncConnected()
		defer s.metrics.RecordSyncDisconnected()
	}

	s.logger.Infow("sync connection opened", "room_id", roomID, "identity", c.identity)

	conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		return nil
	})

	pingTicker := time.NewTicker(s.pingInterval)
	defer pingTicker.Stop()

	messageChan := make(chan SyncMessage, 10)
	errorChan := make(chan error, 1)

	go func() {
		for {
			var msg SyncMessage
			if err := conn.ReadJSON(&msg); err != nil {
				errorChan <- err
				return
			}
			conn.SetReadDeadline(time.Now().Add(s.readTimeout))
			messageChan <- msg
		}
	}()

	for {
		select {
		case msg := <-messageChan:
			if err := s.handleMessage(context.Background(), roomID, c, msg); err != nil {
				s.logger.Infow("error handling sync message",
					"room_id", roomID,
					"identity", c.identity,
					"error", err,
				)
				s.sendError(c, err.Error())
			}

		case <-pingTicker.C:
			c.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				s.logger.Infow("error sending ping", "room_id", roomID, "error", err)
				return
			}

		case err := <-errorChan:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Infow("error reading sync message", "room_id", roomID, "error", err)
			}
			s.logger.Infow("sync connection closed", "room_id", roomID, "identity", c.identity)
			return
		}
	}
}

func (s *WebSocketServer) handleMessage(ctx context.Context, roomID domain.RoomID, c *client, msg SyncMessage) error {
	if msg.Type == "" {
		return fmt.Errorf("message type is required")
	}
	if msg.RoomID != "" && msg.RoomID != roomID {
		return fmt.Errorf("room mismatch: connected to %s, got %s", roomID, msg.RoomID)
	}

	switch msg.Type {
	case "chat.send":
		return s.handleChatSend(ctx, roomID, c, msg)
	case "media.set":
		return s.handleMediaSet(ctx, roomID, msg)
	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
}

func (s *WebSocketServer) handleChatSend(ctx context.Context, roomID domain.RoomID, c *client, msg SyncMessage) error {
	var payload ChatSendPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("invalid chat.send payload: %w", err)
	}

	user := payload.User
	if user == "" {
		user = c.identity
	}

	if _, err := s.roomService.SendMessage(ctx, roomID, user, payload.Text, payload.Avatar); err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordMessage()
	}
	return nil
}

func (s *WebSocketServer) handleMediaSet(ctx context.Context, roomID domain.RoomID, msg SyncMessage) error {
	var state domain.MediaState
	if err := json.Unmarshal(msg.Payload, &state); err != nil {
		return fmt.Errorf("invalid media.set payload: %w", err)
	}

	if _, err := s.roomService.SetMediaState(ctx, roomID, &state); err != nil {
		return fmt.Errorf("failed to set media state: %w", err)
	}
	return nil
}

// handleEvent fans one bus event out to the room's connections.
func (s *WebSocketServer) handleEvent(event *distributed.Event) error {
	out := SyncMessage{
		Type:    string(event.Type),
		RoomID:  event.RoomID,
		Payload: event.Payload,
	}

	s.broadcast(event.RoomID, out)

	// A deleted room drops its connections
	if event.Type == distributed.EventRoomDeleted {
		s.closeRoom(event.RoomID)
	}
	return nil
}

func (s *WebSocketServer) broadcast(roomID domain.RoomID, msg SyncMessage) {
	s.mu.RLock()
	clients := make([]*client, 0, len(s.rooms[roomID]))
	for c := range s.rooms[roomID] {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	for _, c := range clients {
		if err := c.writeJSON(msg, s.writeTimeout); err != nil {
			s.logger.Infow("failed to deliver event",
				"room_id", roomID,
				"identity", c.identity,
				"type", msg.Type,
				"error", err,
			)
		}
	}
}

func (s *WebSocketServer) closeRoom(roomID domain.RoomID) {
	s.mu.Lock()
	clients := s.rooms[roomID]
	delete(s.rooms, roomID)
	s.mu.Unlock()

	for c := range clients {
		c.conn.Close()
	}
}

func (s *WebSocketServer) register(roomID domain.RoomID, c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, exists := s.rooms[roomID]
	if !exists {
		room = make(map[*client]struct{})
		s.rooms[roomID] = room
	}
	room[c] = struct{}{}
}

func (s *WebSocketServer) unregister(roomID domain.RoomID, c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, exists := s.rooms[roomID]
	if !exists {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(s.rooms, roomID)
	}
}

func (s *WebSocketServer) sendError(c *client, message string) {
	errorMsg := map[string]interface{}{
		"type":    "error",
		"message": message,
	}
	c.writeJSON(errorMsg, s.writeTimeout)
}

func (s *WebSocketServer) HealthCheck(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	connectionCount := 0
	for _, room := range s.rooms {
		connectionCount += len(room)
	}
	roomCount := len(s.rooms)
	s.mu.RUnlock()

	response := map[string]interface{}{
		"status":      "healthy",
		"timestamp":   time.Now().Unix(),
		"connections": connectionCount,
		"rooms":       roomCount,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// ConnectionCount reports the number of open connections for a room.
func (s *WebSocketServer) ConnectionCount(roomID domain.RoomID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms[roomID])
}
