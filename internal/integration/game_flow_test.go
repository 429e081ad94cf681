package integration

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cureworks/pandemic-server-go/internal/game"
	"github.com/cureworks/pandemic-server-go/internal/repository"
	"go.uber.org/zap/zaptest"
)

type gameEnv struct {
	engine    *game.Engine
	store     *repository.MemoryStore
	replayDir string
	notes     []game.GameNotification
}

func newGameEnv(t testing.TB, epidemics int) *gameEnv {
	logger := zaptest.NewLogger(t)
	env := &gameEnv{
		store:     repository.NewMemoryStore(),
		replayDir: t.TempDir(),
	}
	env.engine = game.NewEngine(logger, env.store, game.EngineConfig{
		EpidemicCards: epidemics,
		StandardSetup: true,
	}, game.NewReplayRecorder(logger, env.replayDir))
	env.engine.SetNotificationHandler(func(n game.GameNotification) {
		env.notes = append(env.notes, n)
	})
	return env
}

func request(t testing.TB, a game.Action) game.Request {
	req, err := game.NewActionRequest(a)
	if err != nil {
		t.Fatalf("Failed to build request for %s: %v", a.Name(), err)
	}
	return req
}

// checkBoard verifies the invariants every in-progress board must hold.
func checkBoard(t testing.TB, s *game.Snapshot) {
	t.Helper()
	if s.Status != game.StatusInProgress {
		return
	}

	onBoard := make(map[game.Color]int)
	for _, c := range s.Cities {
		for color, n := range c.Diseases {
			if n < 0 || n > game.MaxDiseaseCount {
				t.Fatalf("%s has %d %s cubes", c.Name, n, color)
			}
			onBoard[color] += n
		}
	}
	for _, color := range game.Colors {
		if got := onBoard[color] + s.Diseases.Remaining[color]; got != game.DiseaseCubeLimit {
			t.Fatalf("%s cubes on board plus supply = %d, want %d", color, got, game.DiseaseCubeLimit)
		}
		if s.Diseases.Eradicated[color] && onBoard[color] != 0 {
			t.Fatalf("%s is eradicated but has %d cubes on the board", color, onBoard[color])
		}
	}

	if s.Infection.OutbreakCount >= game.MaxOutbreakCount {
		t.Fatalf("outbreak count %d on a running game", s.Infection.OutbreakCount)
	}
	if s.Infection.Level < 1 || s.Infection.Level > game.MaxInfectionLevel {
		t.Fatalf("infection level %d out of range", s.Infection.Level)
	}

	infection := make(map[game.CityKey]bool)
	for _, pile := range [][]game.InfectionCard{s.Cards.InfectionDeck, s.Cards.InfectionDiscard} {
		for _, card := range pile {
			if infection[card.City] {
				t.Fatalf("infection card %s appears twice", card.City)
			}
			infection[card.City] = true
		}
	}
	if len(infection) != len(s.Cities) {
		t.Fatalf("%d infection cards for %d cities", len(infection), len(s.Cities))
	}

	seen := make(map[game.CityKey]string)
	mark := func(city game.CityKey, where string) {
		if prev, ok := seen[city]; ok {
			t.Fatalf("city card %s is in %s and %s", city, prev, where)
		}
		seen[city] = where
	}
	for _, pile := range [][]game.PlayerCard{s.Cards.CityDeck, s.Cards.CityDiscard} {
		for _, card := range pile {
			if card.Kind == game.CardKindCity {
				mark(card.City, "a pile")
			}
		}
	}
	active := 0
	for _, p := range s.Players {
		for _, card := range p.Hand {
			mark(card.City, p.ID)
		}
		if p.Active {
			active++
		}
	}
	if active != 1 {
		t.Fatalf("%d active players", active)
	}
}

// playUntilOver ends turns, discarding down to the hand limit when asked,
// until the game finishes.
func playUntilOver(t testing.TB, env *gameEnv, gameID string) (applied int, final *game.Snapshot) {
	ctx := context.Background()
	for step := 0; step < 500; step++ {
		resp, err := env.engine.ProcessAction(ctx, gameID, request(t, game.EndTurn{}))
		switch {
		case err == nil, game.IsGameEnded(err):
			applied++
		case errors.Is(err, game.ErrHandLimit):
			for _, p := range resp.Board.Players {
				if len(p.Hand) <= game.MaxHandCount {
					continue
				}
				var names []string
				for _, card := range p.Hand[game.MaxHandCount:] {
					names = append(names, string(card.City))
				}
				if _, err := env.engine.ProcessAction(ctx, gameID, request(t, game.Discard{Player: p.ID, CityCards: names})); err != nil {
					t.Fatalf("Failed to discard for %s: %v", p.ID, err)
				}
				applied++
			}
			continue
		default:
			t.Fatalf("Unexpected error at step %d: %v", step, err)
		}

		checkBoard(t, resp.Board)
		if resp.Board.Status != game.StatusInProgress {
			return applied, resp.Board
		}
	}
	t.Fatal("game did not finish")
	return applied, nil
}

func TestFullGameThroughEngine(t *testing.T) {
	for _, players := range [][]string{
		{"alice", "bob"},
		{"alice", "bob", "carol"},
		{"alice", "bob", "carol", "dave"},
	} {
		t.Run(fmt.Sprintf("%d players", len(players)), func(t *testing.T) {
			env := newGameEnv(t, 5)
			ctx := context.Background()

			resp, err := env.engine.StartGame(ctx, "", players, "")
			if err != nil {
				t.Fatalf("Failed to start game: %v", err)
			}
			gameID := resp.Board.GameID
			checkBoard(t, resp.Board)

			applied, final := playUntilOver(t, env, gameID)
			if final.Status != game.StatusLost {
				t.Fatalf("Expected a game with no actions taken to be lost, got %s", final.Status)
			}
			if final.EndReason == "" {
				t.Error("Lost game has no end reason")
			}

			// Every accepted request was stored and announced.
			stored, err := env.engine.GetGameView(ctx, gameID)
			if err != nil {
				t.Fatalf("Failed to load final game: %v", err)
			}
			if stored.Status != game.StatusLost {
				t.Errorf("Stored status %s, want LOST", stored.Status)
			}
			if len(env.notes) != applied+1 {
				t.Errorf("Expected %d notifications, got %d", applied+1, len(env.notes))
			}
			if last := env.notes[len(env.notes)-1]; last.Type != game.NotificationGameEnded {
				t.Errorf("Last notification %s, want %s", last.Type, game.NotificationGameEnded)
			}

			_, err = env.engine.ProcessAction(ctx, gameID, request(t, game.EndTurn{}))
			if !errors.Is(err, game.ErrGameOver) {
				t.Errorf("Expected ErrGameOver after the end, got %v", err)
			}

			// The replay is flushed when the game ends and every state restores.
			replay, err := game.LoadReplayFromFile(env.replayDir, gameID)
			if err != nil {
				t.Fatalf("Failed to load replay: %v", err)
			}
			if replay.Size() != applied+1 {
				t.Errorf("Expected %d replay states, got %d", applied+1, replay.Size())
			}
			for i := 0; i < replay.Size(); i++ {
				if _, err := replay.RestoreAt(i); err != nil {
					t.Fatalf("Failed to restore replay state %d: %v", i, err)
				}
			}
		})
	}
}

func TestGamesDoNotShareState(t *testing.T) {
	env := newGameEnv(t, 4)
	ctx := context.Background()

	for _, id := range []string{"g1", "g2"} {
		if _, err := env.engine.StartGame(ctx, id, []string{"alice", "bob"}, ""); err != nil {
			t.Fatalf("Failed to start %s: %v", id, err)
		}
	}

	if _, err := env.engine.ProcessAction(ctx, "g1", request(t, game.MoveAdjacent{ToCity: "Chicago"})); err != nil {
		t.Fatalf("Failed to move in g1: %v", err)
	}
	if _, final := playUntilOver(t, env, "g2"); final.Status == game.StatusInProgress {
		t.Fatal("g2 did not finish")
	}

	g1, err := env.engine.GetGameView(ctx, "g1")
	if err != nil {
		t.Fatalf("Failed to load g1: %v", err)
	}
	if g1.Status != game.StatusInProgress {
		t.Errorf("g1 status %s after g2 finished", g1.Status)
	}
	if g1.Players[0].City != "Chicago" || g1.Players[0].ActionsLeft != game.MaxActions-1 {
		t.Errorf("g1 player state changed: %+v", g1.Players[0])
	}

	ids, err := env.store.List(ctx)
	if err != nil {
		t.Fatalf("Failed to list games: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("Expected 2 stored games, got %v", ids)
	}
}

func TestRestartResumesStoredGame(t *testing.T) {
	logger := zaptest.NewLogger(t)
	store := repository.NewMemoryStore()
	ctx := context.Background()

	first := game.NewEngine(logger, store, game.EngineConfig{StandardSetup: true}, nil)
	if _, err := first.StartGame(ctx, "resume", []string{"alice", "bob"}, "Paris"); err != nil {
		t.Fatalf("Failed to start game: %v", err)
	}
	if _, err := first.ProcessAction(ctx, "resume", request(t, game.MoveAdjacent{ToCity: "London"})); err != nil {
		t.Fatalf("Failed to move: %v", err)
	}

	// A second engine over the same store picks the game up where it was.
	second := game.NewEngine(logger, store, game.EngineConfig{StandardSetup: true}, nil)
	resp, err := second.ProcessAction(ctx, "resume", request(t, game.MoveAdjacent{ToCity: "Paris"}))
	if err != nil {
		t.Fatalf("Failed to move after restart: %v", err)
	}
	alice := resp.Board.Players[0]
	if alice.City != "Paris" || alice.ActionsLeft != game.MaxActions-2 {
		t.Errorf("Unexpected player state after restart: %+v", alice)
	}
	if resp.Board.StartingCity != "Paris" {
		t.Errorf("Starting city %s, want Paris", resp.Board.StartingCity)
	}
}
