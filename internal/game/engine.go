package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store persists board snapshots by game id. Load returns ErrGameNotFound
// for an unknown id.
type Store interface {
	Load(ctx context.Context, gameID string) (*Snapshot, error)
	Save(ctx context.Context, gameID string, s *Snapshot) error
	Delete(ctx context.Context, gameID string) error
}

// Notification types sent to the notification handler.
const (
	NotificationGameStarted = "GAME_STARTED"
	NotificationGameUpdated = "GAME_UPDATED"
	NotificationGameEnded   = "GAME_ENDED"
)

// GameNotification tells listeners that a game changed.
type GameNotification struct {
	Type      string
	GameID    string
	PlayerID  string
	Timestamp time.Time
	Response  Response
}

// NotificationHandler receives engine notifications. It runs on the
// goroutine that caused the change, after the game lock is released.
type NotificationHandler func(GameNotification)

// EngineConfig holds the defaults applied to every new game.
type EngineConfig struct {
	EpidemicCards int
	StartingCity  string
	StandardSetup bool
}

// Engine runs many games against a Store. Requests for one game are
// serialised with a per-game lock around load, apply and save; different
// games proceed in parallel.
type Engine struct {
	logger   *zap.Logger
	store    Store
	cfg      EngineConfig
	recorder *ReplayRecorder

	mu      sync.Mutex
	locks   map[string]*gameLock
	handler NotificationHandler
}

// gameLock is dropped from the lock map once no request holds or waits on it.
type gameLock struct {
	mu   sync.Mutex
	refs int
}

// NewEngine creates an engine. recorder may be nil to disable replays.
func NewEngine(logger *zap.Logger, store Store, cfg EngineConfig, recorder *ReplayRecorder) *Engine {
	if cfg.EpidemicCards == 0 {
		cfg.EpidemicCards = MinNumEpidemicCards
	}
	return &Engine{
		logger:   logger,
		store:    store,
		cfg:      cfg,
		recorder: recorder,
		locks:    make(map[string]*gameLock),
	}
}

// SetNotificationHandler registers the listener for game changes.
func (e *Engine) SetNotificationHandler(handler NotificationHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handler = handler
}

func (e *Engine) notify(n GameNotification) {
	e.mu.Lock()
	handler := e.handler
	e.mu.Unlock()
	if handler != nil {
		handler(n)
	}
}

func (e *Engine) lockGame(gameID string) func() {
	e.mu.Lock()
	l, ok := e.locks[gameID]
	if !ok {
		l = &gameLock{}
		e.locks[gameID] = l
	}
	l.refs++
	e.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		e.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(e.locks, gameID)
		}
		e.mu.Unlock()
	}
}

func (e *Engine) boardOptions(gameID string) []Option {
	return []Option{WithLogger(e.logger), WithGameID(gameID)}
}

// StartGame creates and stores a new game. An empty gameID gets a fresh
// UUID and an empty startingCity uses the configured default.
func (e *Engine) StartGame(ctx context.Context, gameID string, players []string, startingCity string) (Response, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		gameID = uuid.NewString()
	}
	if strings.TrimSpace(startingCity) == "" {
		startingCity = e.cfg.StartingCity
	}

	unlock := e.lockGame(gameID)
	switch _, err := e.store.Load(ctx, gameID); {
	case err == nil:
		unlock()
		return Response{}, fmt.Errorf("%w: game %s already exists", ErrInvalidArgument, gameID)
	case !errors.Is(err, ErrGameNotFound):
		unlock()
		return Response{}, fmt.Errorf("failed to check game %s: %w", gameID, err)
	}

	opts := append(e.boardOptions(gameID), WithEpidemicCards(e.cfg.EpidemicCards))
	if e.cfg.StandardSetup {
		opts = append(opts, WithStandardSetup())
	}
	board, err := Init(players, startingCity, opts...)
	if err != nil {
		unlock()
		return Response{}, fmt.Errorf("failed to create game: %w", err)
	}

	resp := Response{Board: board.Snapshot(), Events: board.DrainEvents()}
	if err := e.store.Save(ctx, gameID, resp.Board); err != nil {
		unlock()
		return Response{}, fmt.Errorf("failed to save game %s: %w", gameID, err)
	}
	if e.recorder != nil {
		e.recorder.StartRecording(gameID)
		e.recorder.RecordState(gameID, resp.Board)
	}
	unlock()

	if e.logger != nil {
		e.logger.Info("game started",
			zap.String("game_id", gameID),
			zap.Strings("players", board.PlayerIDs()),
			zap.String("starting_city", board.StartingCity().Name()),
		)
	}
	e.notify(GameNotification{
		Type:      NotificationGameStarted,
		GameID:    gameID,
		Timestamp: time.Now(),
		Response:  resp,
	})
	return resp, nil
}

// ProcessAction applies one request to a stored game. Rejected requests
// leave the stored game untouched; the response always carries the
// current board.
func (e *Engine) ProcessAction(ctx context.Context, gameID string, req Request) (Response, error) {
	unlock := e.lockGame(gameID)

	snap, err := e.store.Load(ctx, gameID)
	if err != nil {
		unlock()
		return Response{}, fmt.Errorf("failed to load game %s: %w", gameID, err)
	}
	board, err := RestoreBoard(snap, e.boardOptions(gameID)...)
	if err != nil {
		unlock()
		return Response{}, fmt.Errorf("failed to restore game %s: %w", gameID, err)
	}

	player := board.activeID()
	resp, actionErr := HandleAction(board, req)
	if actionErr != nil && IsValidation(actionErr) {
		unlock()
		if e.logger != nil {
			e.logger.Debug("action rejected",
				zap.String("game_id", gameID),
				zap.String("player_id", player),
				zap.Error(actionErr),
			)
		}
		return resp, actionErr
	}

	if err := e.store.Save(ctx, gameID, resp.Board); err != nil {
		unlock()
		return resp, fmt.Errorf("failed to save game %s: %w", gameID, err)
	}
	if e.recorder != nil {
		e.recorder.RecordState(gameID, resp.Board)
	}
	over := board.IsOver()
	if over {
		e.finishRecording(gameID)
	}
	unlock()

	if e.logger != nil && actionErr != nil && !IsGameEnded(actionErr) {
		e.logger.Error("action failed",
			zap.String("game_id", gameID),
			zap.String("player_id", player),
			zap.Error(actionErr),
		)
	}

	n := GameNotification{
		Type:      NotificationGameUpdated,
		GameID:    gameID,
		PlayerID:  player,
		Timestamp: time.Now(),
		Response:  resp,
	}
	if over {
		n.Type = NotificationGameEnded
	}
	e.notify(n)
	return resp, actionErr
}

// GetGameView returns the stored snapshot of a game.
func (e *Engine) GetGameView(ctx context.Context, gameID string) (*Snapshot, error) {
	unlock := e.lockGame(gameID)
	defer unlock()

	snap, err := e.store.Load(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load game %s: %w", gameID, err)
	}
	return snap, nil
}

// EndGame removes a game from the store and flushes its replay.
func (e *Engine) EndGame(ctx context.Context, gameID string) error {
	unlock := e.lockGame(gameID)
	err := e.store.Delete(ctx, gameID)
	e.finishRecording(gameID)
	unlock()

	if err != nil {
		return fmt.Errorf("failed to delete game %s: %w", gameID, err)
	}
	if e.logger != nil {
		e.logger.Info("game ended", zap.String("game_id", gameID))
	}
	return nil
}

// Replay returns the recorded replay of a running game.
func (e *Engine) Replay(gameID string) (*Replay, bool) {
	if e.recorder == nil {
		return nil, false
	}
	return e.recorder.GetReplay(gameID)
}

func (e *Engine) finishRecording(gameID string) {
	if e.recorder == nil || !e.recorder.IsRecording(gameID) {
		return
	}
	e.recorder.StopRecording(gameID)
	if err := e.recorder.SaveReplay(gameID); err != nil && e.logger != nil {
		e.logger.Warn("failed to save replay",
			zap.String("game_id", gameID),
			zap.Error(err),
		)
	}
}
