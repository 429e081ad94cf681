package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cureworks/pandemic-server-go/internal/config"
	"github.com/cureworks/pandemic-server-go/internal/game"
	"github.com/cureworks/pandemic-server-go/internal/repository"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		Address:        "127.0.0.1:0",
		Path:           "/ws",
		SendBufferSize: 16,
		MaxMessageSize: 64 * 1024,
		PongWait:       time.Minute,
		WriteWait:      time.Second,
	}
}

func newTestServer(t *testing.T, cfg config.WebSocketConfig) (*httptest.Server, *game.Engine) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	engine := game.NewEngine(logger, repository.NewMemoryStore(), game.EngineConfig{StandardSetup: true}, nil)
	srv := New(cfg, engine, logger)

	ctx, cancel := context.WithCancel(context.Background())
	srv.Start(ctx)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
	})
	return ts, engine
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

func receive(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func receiveState(t *testing.T, conn *websocket.Conn) game.Response {
	t.Helper()
	msg := receive(t, conn)
	require.Equal(t, MsgGameState, msg.Type, string(msg.Data))
	var resp game.Response
	require.NoError(t, json.Unmarshal(msg.Data, &resp))
	require.NotNil(t, resp.Board)
	return resp
}

func receiveError(t *testing.T, conn *websocket.Conn) ErrorData {
	t.Helper()
	msg := receive(t, conn)
	require.Equal(t, MsgError, msg.Type, string(msg.Data))
	var data ErrorData
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	return data
}

func createGame(t *testing.T, conn *websocket.Conn, gameID string) game.Response {
	t.Helper()
	send(t, conn, map[string]any{
		"type":      MsgCreateGame,
		"game_id":   gameID,
		"player_id": "alice",
		"data":      CreateGameData{Players: []string{"alice", "bob"}},
	})
	return receiveState(t, conn)
}

func TestCreateGame(t *testing.T) {
	ts, _ := newTestServer(t, testConfig())
	conn := dial(t, ts)

	resp := createGame(t, conn, "")
	assert.Len(t, resp.Board.GameID, 36)
	assert.Equal(t, "alice", resp.Board.ActivePlayer)
	assert.Equal(t, "Atlanta", resp.Board.Players[0].City)
}

func TestActionIsBroadcastToRoom(t *testing.T) {
	ts, _ := newTestServer(t, testConfig())
	alice := dial(t, ts)
	bob := dial(t, ts)
	outsider := dial(t, ts)

	createGame(t, alice, "room-1")

	send(t, bob, WSMessage{Type: MsgJoinGame, GameID: "room-1", PlayerID: "bob"})
	joined := receiveState(t, bob)
	assert.Equal(t, "room-1", joined.Board.GameID)

	send(t, alice, map[string]any{
		"type": MsgAction,
		"data": map[string]any{"action": map[string]any{"name": "MOVE_ADJACENT", "args": map[string]string{"to_city": "Chicago"}}},
	})

	for _, conn := range []*websocket.Conn{alice, bob} {
		resp := receiveState(t, conn)
		assert.Equal(t, "Chicago", resp.Board.Players[0].City)
		assert.Equal(t, game.MaxActions-1, resp.Board.Players[0].ActionsLeft)
		assert.NotEmpty(t, resp.Events)
	}

	// The outsider follows no room and hears nothing.
	require.NoError(t, outsider.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := outsider.ReadMessage()
	assert.Error(t, err)
}

func TestRejectedActionOnlyReachesSender(t *testing.T) {
	ts, _ := newTestServer(t, testConfig())
	alice := dial(t, ts)
	bob := dial(t, ts)

	createGame(t, alice, "room-2")
	send(t, bob, WSMessage{Type: MsgJoinGame, GameID: "room-2"})
	receiveState(t, bob)

	send(t, alice, map[string]any{
		"type":    MsgAction,
		"game_id": "room-2",
		"data":    map[string]any{"action": map[string]any{"name": "MOVE_ADJACENT", "args": map[string]string{"to_city": "Atlantis"}}},
	})
	errData := receiveError(t, alice)
	assert.Equal(t, game.CodeUnknownCity, errData.Code)
	require.NotNil(t, errData.Board)
	assert.Equal(t, "Atlanta", errData.Board.Players[0].City)

	// Bob's next message is his own view, not a broadcast of the failure.
	send(t, bob, WSMessage{Type: MsgView})
	view := receiveState(t, bob)
	assert.Equal(t, game.MaxActions, view.Board.Players[0].ActionsLeft)
}

func TestProtocolErrors(t *testing.T) {
	ts, _ := newTestServer(t, testConfig())
	conn := dial(t, ts)

	tests := []struct {
		name string
		raw  string
		want game.ErrorCode
	}{
		{"malformed", `{"type":`, game.CodeInvalidArgument},
		{"unknown type", `{"type":"dance"}`, game.CodeInvalidArgument},
		{"join without id", `{"type":"join_game"}`, game.CodeInvalidArgument},
		{"join unknown game", `{"type":"join_game","game_id":"nope"}`, game.CodeNotFound},
		{"action without game", `{"type":"action","data":{}}`, game.CodeInvalidArgument},
		{"view unknown game", `{"type":"view","game_id":"nope"}`, game.CodeNotFound},
		{"too few players", `{"type":"create_game","data":{"players":["solo"]}}`, game.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tt.raw)))
			assert.Equal(t, tt.want, receiveError(t, conn).Code)
		})
	}
}

func TestEndGameNotifiesRoom(t *testing.T) {
	ts, engine := newTestServer(t, testConfig())
	alice := dial(t, ts)
	bob := dial(t, ts)

	createGame(t, alice, "room-3")
	send(t, bob, WSMessage{Type: MsgJoinGame, GameID: "room-3"})
	receiveState(t, bob)

	send(t, alice, WSMessage{Type: MsgEndGame})
	for _, conn := range []*websocket.Conn{alice, bob} {
		msg := receive(t, conn)
		assert.Equal(t, MsgGameEnded, msg.Type)
		assert.Equal(t, "room-3", msg.GameID)
	}

	_, err := engine.GetGameView(context.Background(), "room-3")
	assert.ErrorIs(t, err, game.ErrGameNotFound)
}

func TestEngineNotificationsReachSubscribers(t *testing.T) {
	ts, engine := newTestServer(t, testConfig())
	conn := dial(t, ts)
	createGame(t, conn, "room-4")

	// Changes made outside the socket still reach the room.
	req, err := game.NewActionRequest(game.EndTurn{})
	require.NoError(t, err)
	_, err = engine.ProcessAction(context.Background(), "room-4", req)
	if err != nil && !game.IsGameEnded(err) {
		t.Fatalf("end turn failed: %v", err)
	}

	msg := receive(t, conn)
	assert.Contains(t, []string{MsgGameState, MsgGameEnded}, msg.Type)
}

func TestCheckOrigin(t *testing.T) {
	cfg := testConfig()
	cfg.AllowedOrigins = []string{"https://play.example.org"}
	ts, _ := newTestServer(t, cfg)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	header := http.Header{"Origin": []string{"https://evil.example.org"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	header.Set("Origin", "https://play.example.org")
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	resp.Body.Close()
	conn.Close()
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t, testConfig())
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestHubDropsClientsOnShutdown(t *testing.T) {
	hub := NewHub(zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(ctx)
	}()

	c := &Client{id: "c1", send: make(chan []byte, 1)}
	hub.Register(c)
	hub.Join(c, "g1")
	hub.Publish("g1", []byte("hello"))
	assert.Equal(t, []byte("hello"), <-c.send)

	cancel()
	wg.Wait()
	_, open := <-c.send
	assert.False(t, open)

	// Calls after shutdown return instead of blocking.
	hub.Publish("g1", []byte("late"))
	hub.Send(c, []byte("late"))
	hub.Unregister(c)
}

func TestHubDropsSlowClients(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	slow := &Client{id: "slow", send: make(chan []byte)}
	hub.Register(slow)
	hub.Join(slow, "g1")
	hub.Publish("g1", []byte("state"))
	// Any later hub call returns only after the broadcast was handled.
	hub.Register(&Client{id: "other", send: make(chan []byte, 1)})

	_, open := <-slow.send
	assert.False(t, open)
}
