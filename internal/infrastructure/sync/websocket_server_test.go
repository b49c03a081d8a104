package sync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ourscreen/internal/core/domain"
	"ourscreen/internal/core/ports"
	"ourscreen/internal/core/services"
	"ourscreen/internal/infrastructure/distributed"
	"ourscreen/internal/infrastructure/repositories/memory"
	"ourscreen/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testGateway(t *testing.T) (*WebSocketServer, services.TokenService, string) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.LiveKit.APIKey = "test-api-key"
	cfg.LiveKit.APISecret = "test-api-secret-at-least-32-bytes!"
	cfg.LiveKit.URL = "wss://media.example.com"

	log := zap.NewNop().Sugar()
	tokens := services.NewTokenService(cfg, log)
	bus := distributed.NewLocalEventBus()

	roomService := services.NewRoomService(
		memory.NewMemoryRoomRepository(),
		memory.NewMemoryParticipantRepository(),
		memory.NewMemoryMessageRepository(),
		memory.NewMemoryMediaStateRepository(),
		bus,
		services.RoomServiceOptions{},
		log,
	)

	room, err := roomService.CreateRoom(context.Background(), ports.CreateRoomParams{Name: "gateway test"})
	require.NoError(t, err)

	return NewWebSocketServer(roomService, tokens, bus, nil, log), tokens, string(room.ID)
}

func wsRequest(server *WebSocketServer, query string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ws?"+query, nil)
	server.HandleWebSocket(w, req)
	return w
}

func TestHandleWebSocket_MissingRoom(t *testing.T) {
	server, _, _ := testGateway(t)

	w := wsRequest(server, "token=whatever")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleWebSocket_MissingToken(t *testing.T) {
	server, _, roomID := testGateway(t)

	w := wsRequest(server, "room="+roomID)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandleWebSocket_InvalidToken(t *testing.T) {
	server, _, roomID := testGateway(t)

	w := wsRequest(server, "room="+roomID+"&token=not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandleWebSocket_TokenForDifferentRoom(t *testing.T) {
	server, tokens, roomID := testGateway(t)

	token, err := tokens.Mint(context.Background(), "some-other-room", "alice", "Alice")
	require.NoError(t, err)

	w := wsRequest(server, "room="+roomID+"&token="+token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandleWebSocket_UnknownRoom(t *testing.T) {
	server, tokens, _ := testGateway(t)

	token, err := tokens.Mint(context.Background(), "no-such-room", "alice", "Alice")
	require.NoError(t, err)

	w := wsRequest(server, "room=no-such-room&token="+token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIsTransportError(t *testing.T) {
	cases := []struct {
		err       error
		retryable bool
	}{
		{nil, false},
		{errors.New("dial tcp: connection refused"), true},
		{errors.New("read tcp: connection reset by peer"), true},
		{errors.New("write: broken pipe"), true},
		{errors.New("i/o timeout"), true},
		{errors.New("unexpected EOF"), true},
		{errors.New("network is unreachable"), true},
		{errors.New("unauthorized"), false},
		{errors.New("invalid token"), false},
		{errors.New("token expired"), false},
		{errors.New("forbidden"), false},
		{errors.New("some unrelated error"), false},
		// An auth failure wrapped in transport wording is still final
		{fmt.Errorf("reconnect failed: %w", errors.New("unauthorized")), false},
	}

	for _, tc := range cases {
		name := "nil"
		if tc.err != nil {
			name = tc.err.Error()
		}
		assert.Equal(t, tc.retryable, isTransportError(tc.err), name)
	}
}

func TestHandleMessage_Validation(t *testing.T) {
	server, _, roomID := testGateway(t)
	c := &client{identity: "alice"}

	err := server.handleMessage(context.Background(), "r", c, SyncMessage{})
	assert.ErrorContains(t, err, "message type is required")

	err = server.handleMessage(context.Background(), "r", c, SyncMessage{Type: "chat.send", RoomID: "other"})
	assert.ErrorContains(t, err, "room mismatch")

	err = server.handleMessage(context.Background(), "r", c, SyncMessage{Type: "bogus"})
	assert.ErrorContains(t, err, "unknown message type")

	// Valid chat message lands in room history
	msg := SyncMessage{
		Type:    "chat.send",
		Payload: []byte(`{"text":"hello"}`),
	}
	require.NoError(t, server.handleMessage(context.Background(), domain.RoomID(roomID), c, msg))

	messages, err := server.roomService.ListMessages(context.Background(), domain.RoomID(roomID))
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "hello", messages[0].Text)
	// Empty user falls back to the token identity
	assert.Equal(t, "alice", messages[0].User)
}

func TestConnectionCount_EmptyRoom(t *testing.T) {
	server, _, roomID := testGateway(t)
	assert.Equal(t, 0, server.ConnectionCount(domain.RoomID(roomID)))
}
