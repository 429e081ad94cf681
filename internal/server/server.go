package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/cureworks/pandemic-server-go/internal/config"
	"github.com/cureworks/pandemic-server-go/internal/game"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server exposes an Engine over websockets. Every client follows at most
// one game room and receives the new board after each change to it.
type Server struct {
	cfg      config.WebSocketConfig
	engine   *game.Engine
	hub      *Hub
	logger   *zap.Logger
	upgrader websocket.Upgrader

	ctx        context.Context
	httpServer *http.Server
}

// New creates a server and subscribes it to the engine's notifications.
func New(cfg config.WebSocketConfig, engine *game.Engine, logger *zap.Logger) *Server {
	if cfg.Path == "" {
		cfg.Path = "/ws"
	}
	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = 256
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = 60 * time.Second
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = 10 * time.Second
	}
	s := &Server{
		cfg:    cfg,
		engine: engine,
		hub:    NewHub(logger),
		logger: logger,
		ctx:    context.Background(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     s.checkOrigin,
	}
	engine.SetNotificationHandler(s.onNotification)
	return s
}

// Start runs the hub until ctx is cancelled. It must be called before the
// handler serves any connection.
func (s *Server) Start(ctx context.Context) {
	s.ctx = ctx
	go s.hub.Run(ctx)
}

// Handler returns the HTTP routes: the websocket endpoint and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, s.serveWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// ListenAndServe starts the hub and serves until Shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.Start(ctx)
	s.httpServer = &http.Server{
		Addr:    s.cfg.Address,
		Handler: s.Handler(),
	}
	if s.logger != nil {
		s.logger.Info("starting websocket server",
			zap.String("address", s.cfg.Address),
			zap.String("path", s.cfg.Path),
		)
	}
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("websocket server: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for handlers to return.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	return slices.Contains(s.cfg.AllowedOrigins, origin)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("websocket upgrade failed", zap.Error(err))
		}
		return
	}

	c := newClient(conn, s.cfg.SendBufferSize)
	s.hub.Register(c)

	go c.writePump(s)
	go c.readPump(s)
}

func (s *Server) onNotification(n game.GameNotification) {
	msgType := MsgGameState
	if n.Type == game.NotificationGameEnded {
		msgType = MsgGameEnded
	}
	payload, err := encode(msgType, n.GameID, n.PlayerID, n.Response)
	if err != nil {
		s.logError("failed to encode notification", n.GameID, err)
		return
	}
	s.hub.Publish(n.GameID, payload)
}

func (s *Server) handleMessage(c *Client, raw []byte) {
	var msg WSMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.sendError(c, "", fmt.Errorf("%w: malformed message: %v", game.ErrInvalidArgument, err), nil)
		return
	}
	if s.logger != nil {
		s.logger.Debug("websocket message",
			zap.String("type", msg.Type),
			zap.String("client_id", c.id),
			zap.String("game_id", msg.GameID),
		)
	}

	switch msg.Type {
	case MsgCreateGame:
		s.createGame(c, msg)
	case MsgJoinGame:
		s.joinGame(c, msg)
	case MsgAction:
		s.applyAction(c, msg)
	case MsgView:
		s.sendView(c, s.gameFor(c, msg))
	case MsgEndGame:
		s.endGame(c, s.gameFor(c, msg))
	default:
		s.sendError(c, msg.GameID, fmt.Errorf("%w: unknown message type %q", game.ErrInvalidArgument, msg.Type), nil)
	}
}

func (s *Server) gameFor(c *Client, msg WSMessage) string {
	if msg.GameID != "" {
		return msg.GameID
	}
	return c.gameID
}

func (s *Server) follow(c *Client, gameID, playerID string) {
	if c.gameID != gameID {
		s.hub.Join(c, gameID)
		c.gameID = gameID
	}
	if playerID != "" {
		c.playerID = playerID
	}
}

func (s *Server) createGame(c *Client, msg WSMessage) {
	var data CreateGameData
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			s.sendError(c, msg.GameID, fmt.Errorf("%w: %v", game.ErrInvalidArgument, err), nil)
			return
		}
	}
	gameID := msg.GameID
	if gameID == "" {
		gameID = uuid.NewString()
	}

	// Join first so the creator receives the start broadcast.
	s.follow(c, gameID, msg.PlayerID)
	if _, err := s.engine.StartGame(s.ctx, gameID, data.Players, data.StartingCity); err != nil {
		s.sendError(c, gameID, err, nil)
	}
}

func (s *Server) joinGame(c *Client, msg WSMessage) {
	if msg.GameID == "" {
		s.sendError(c, "", fmt.Errorf("%w: game_id is required", game.ErrInvalidArgument), nil)
		return
	}
	view, err := s.engine.GetGameView(s.ctx, msg.GameID)
	if err != nil {
		s.sendError(c, msg.GameID, err, nil)
		return
	}
	s.follow(c, msg.GameID, msg.PlayerID)
	s.sendState(c, msg.GameID, game.Response{Board: view})
}

func (s *Server) applyAction(c *Client, msg WSMessage) {
	gameID := s.gameFor(c, msg)
	if gameID == "" {
		s.sendError(c, "", fmt.Errorf("%w: game_id is required", game.ErrInvalidArgument), nil)
		return
	}
	var req game.Request
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.sendError(c, gameID, fmt.Errorf("%w: malformed request: %v", game.ErrInvalidArgument, err), nil)
		return
	}

	s.follow(c, gameID, msg.PlayerID)
	resp, err := s.engine.ProcessAction(s.ctx, gameID, req)
	switch {
	case err == nil, game.IsGameEnded(err):
		// The room hears about it through the engine notification.
	default:
		s.sendError(c, gameID, err, resp.Board)
	}
}

func (s *Server) sendView(c *Client, gameID string) {
	view, err := s.engine.GetGameView(s.ctx, gameID)
	if err != nil {
		s.sendError(c, gameID, err, nil)
		return
	}
	s.sendState(c, gameID, game.Response{Board: view})
}

func (s *Server) endGame(c *Client, gameID string) {
	if err := s.engine.EndGame(s.ctx, gameID); err != nil {
		s.sendError(c, gameID, err, nil)
		return
	}
	payload, err := encode(MsgGameEnded, gameID, c.playerID, nil)
	if err != nil {
		s.logError("failed to encode game end", gameID, err)
		return
	}
	s.hub.Publish(gameID, payload)
}

func (s *Server) sendState(c *Client, gameID string, resp game.Response) {
	payload, err := encode(MsgGameState, gameID, c.playerID, resp)
	if err != nil {
		s.logError("failed to encode game state", gameID, err)
		return
	}
	s.hub.Send(c, payload)
}

func (s *Server) sendError(c *Client, gameID string, err error, board *game.Snapshot) {
	payload, encErr := encode(MsgError, gameID, c.playerID, ErrorData{
		Error: err.Error(),
		Code:  game.Code(err),
		Board: board,
	})
	if encErr != nil {
		s.logError("failed to encode error", gameID, encErr)
		return
	}
	s.hub.Send(c, payload)
}

func (s *Server) logError(msg, gameID string, err error) {
	if s.logger != nil {
		s.logger.Error(msg, zap.String("game_id", gameID), zap.Error(err))
	}
}
