package rules

import (
	"encoding/json"
	"testing"
)

func TestTurnManagerPhaseSequence(t *testing.T) {
	tm := NewTurnManager([]string{"Alice", "Bob"})

	expected := []Phase{PhaseActions, PhaseDraw, PhaseInfect}
	for i, exp := range expected {
		if tm.CurrentPhase() != exp {
			t.Fatalf("step %d: expected phase %s, got %s", i, exp, tm.CurrentPhase())
		}
		if tm.ActivePlayer() != "Alice" {
			t.Fatalf("step %d: expected Alice to stay active, got %s", i, tm.ActivePlayer())
		}
		if i < len(expected)-1 {
			tm.AdvancePhase()
		}
	}

	phase := tm.AdvancePhase()
	if phase != PhaseActions {
		t.Fatalf("expected new turn to start in ACTIONS, got %s", phase)
	}
	if tm.ActivePlayer() != "Bob" {
		t.Fatalf("expected Bob after wrap, got %s", tm.ActivePlayer())
	}
	if tm.TurnNumber() != 2 {
		t.Fatalf("expected turn 2, got %d", tm.TurnNumber())
	}
}

func TestTurnManagerRoundRobin(t *testing.T) {
	tm := NewTurnManager([]string{"a", "b", "c"})

	got := []string{tm.ActivePlayer()}
	for i := 0; i < 4; i++ {
		got = append(got, tm.EndTurn())
	}

	want := []string{"a", "b", "c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rotation %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	if tm.TurnNumber() != 5 {
		t.Fatalf("expected turn 5, got %d", tm.TurnNumber())
	}
	if tm.NextPlayer() != "c" {
		t.Fatalf("expected next player c, got %s", tm.NextPlayer())
	}
}

func TestTurnManagerSetActivePlayer(t *testing.T) {
	tm := NewTurnManager([]string{"a", "b"})
	if err := tm.SetActivePlayer("b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tm.ActivePlayer() != "b" {
		t.Fatalf("expected b, got %s", tm.ActivePlayer())
	}
	if err := tm.SetActivePlayer("z"); err == nil {
		t.Fatal("expected error for unknown player")
	}
}

func TestTurnStateRoundTrip(t *testing.T) {
	tm := NewTurnManager([]string{"a", "b"})
	tm.AdvancePhase()

	data, err := json.Marshal(tm.State())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var state TurnState
	if err := json.Unmarshal(data, &state); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if state.Phase != PhaseDraw {
		t.Fatalf("expected DRAW phase, got %s", state.Phase)
	}

	restored, err := RestoreTurnManager(state)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.ActivePlayer() != "a" || restored.CurrentPhase() != PhaseDraw {
		t.Fatalf("unexpected restored state %+v", restored.State())
	}
}

func TestRestoreTurnManagerRejectsBadState(t *testing.T) {
	if _, err := RestoreTurnManager(TurnState{}); err == nil {
		t.Fatal("expected error for empty order")
	}
	if _, err := RestoreTurnManager(TurnState{Order: []string{"a"}, ActiveIndex: 3, TurnNumber: 1}); err == nil {
		t.Fatal("expected error for out of range index")
	}
}
