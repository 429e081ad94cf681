package watchers

import (
	"testing"

	"github.com/cureworks/pandemic-server-go/internal/game/rules"
)

func TestEventLogWatcher(t *testing.T) {
	watcher := NewEventLogWatcher()

	if watcher.ConditionMet() {
		t.Fatal("watcher should not have condition met initially")
	}

	watcher.Watch(rules.NewEvent(rules.EventPlayerMoved, "p1", "Chicago", ""))
	watcher.Watch(rules.NewEvent(rules.EventInfect, "", "Lima", "YELLOW"))

	if !watcher.ConditionMet() {
		t.Fatal("watcher should have condition met after events")
	}
	if got := len(watcher.Events()); got != 2 {
		t.Fatalf("expected 2 events, got %d", got)
	}

	drained := watcher.Drain()
	if len(drained) != 2 || drained[0].Type != rules.EventPlayerMoved {
		t.Fatalf("unexpected drained events %+v", drained)
	}
	if len(watcher.Events()) != 0 || watcher.ConditionMet() {
		t.Fatal("expected empty log after drain")
	}
}

func TestOutbreakWatcher(t *testing.T) {
	watcher := NewOutbreakWatcher()

	outbreak := rules.NewEvent(rules.EventOutbreak, "", "Paris", "BLUE")
	outbreak.Cities = []string{"Paris", "London", "Madrid"}
	watcher.Watch(outbreak)

	second := rules.NewEvent(rules.EventOutbreak, "", "Lima", "YELLOW")
	second.Cities = []string{"Lima"}
	watcher.Watch(second)

	watcher.Watch(rules.NewEvent(rules.EventInfect, "", "Paris", "BLUE"))

	if watcher.GetCount("BLUE") != 1 || watcher.GetCount("YELLOW") != 1 {
		t.Fatalf("unexpected counts blue=%d yellow=%d", watcher.GetCount("BLUE"), watcher.GetCount("YELLOW"))
	}
	if watcher.GetTotal() != 2 {
		t.Fatalf("expected 2 outbreaks, got %d", watcher.GetTotal())
	}
	if watcher.GetCitiesTouched("BLUE") != 3 {
		t.Fatalf("expected 3 blue cities touched, got %d", watcher.GetCitiesTouched("BLUE"))
	}
	if watcher.LongestChain() != 3 {
		t.Fatalf("expected longest chain 3, got %d", watcher.LongestChain())
	}

	watcher.Reset()
	if watcher.GetTotal() != 0 || watcher.LongestChain() != 0 {
		t.Fatal("expected cleared state after reset")
	}
}

func TestCubesPlacedWatcher(t *testing.T) {
	watcher := NewCubesPlacedWatcher()
	if watcher.GetScope() != rules.WatcherScopeTurn {
		t.Fatalf("expected TURN scope, got %s", watcher.GetScope())
	}

	watcher.Watch(rules.NewEventWithAmount(rules.EventInfect, "", "Lima", "YELLOW", 1))
	watcher.Watch(rules.NewEventWithAmount(rules.EventInfect, "", "Bogota", "YELLOW", 3))
	watcher.Watch(rules.NewEventWithAmount(rules.EventCubesTreated, "p1", "Lima", "YELLOW", 1))

	if watcher.GetPlaced("YELLOW") != 4 {
		t.Fatalf("expected 4 yellow cubes, got %d", watcher.GetPlaced("YELLOW"))
	}

	registry := rules.NewWatcherRegistry()
	registry.AddWatcher(watcher)
	registry.ResetWatchersByScope(rules.WatcherScopeTurn)
	if watcher.GetPlaced("YELLOW") != 0 {
		t.Fatal("expected turn reset to clear placed cubes")
	}
}

func TestCardsDrawnWatcher(t *testing.T) {
	watcher := NewCardsDrawnWatcher()

	watcher.Watch(rules.NewEvent(rules.EventCardDrawn, "p1", "Paris", "BLUE"))
	watcher.Watch(rules.NewEvent(rules.EventCardDrawn, "p1", "Lima", "YELLOW"))
	watcher.Watch(rules.NewEvent(rules.EventCardDrawn, "", "Lima", "YELLOW"))

	if watcher.GetCount("p1") != 2 {
		t.Fatalf("expected 2 cards for p1, got %d", watcher.GetCount("p1"))
	}
	if watcher.GetCount("p2") != 0 {
		t.Fatalf("expected 0 cards for p2, got %d", watcher.GetCount("p2"))
	}
}
