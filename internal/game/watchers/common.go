package watchers

import (
	"github.com/cureworks/pandemic-server-go/internal/game/rules"
)

// EventLogWatcher collects every event in publication order until drained.
type EventLogWatcher struct {
	*rules.BaseWatcher
	events []rules.Event
}

// NewEventLogWatcher creates a new event log watcher.
func NewEventLogWatcher() *EventLogWatcher {
	w := &EventLogWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeGame),
	}
	w.SetKey("EventLogWatcher")
	return w
}

// Watch implements the Watcher interface.
func (w *EventLogWatcher) Watch(event rules.Event) {
	w.events = append(w.events, event)
	w.SetCondition(true)
}

// Reset clears the watcher's state.
func (w *EventLogWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.events = nil
}

// Events returns a copy of the collected events.
func (w *EventLogWatcher) Events() []rules.Event {
	return append([]rules.Event(nil), w.events...)
}

// Drain returns the collected events and clears the log.
func (w *EventLogWatcher) Drain() []rules.Event {
	events := w.events
	w.Reset()
	return events
}

// OutbreakWatcher tracks outbreak origins and chain sizes per disease color.
type OutbreakWatcher struct {
	*rules.BaseWatcher
	outbreaks map[string]int // color -> outbreak origins
	touched   map[string]int // color -> cities reached by chains
	longest   int
}

// NewOutbreakWatcher creates a new outbreak watcher.
func NewOutbreakWatcher() *OutbreakWatcher {
	w := &OutbreakWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeGame),
		outbreaks:   make(map[string]int),
		touched:     make(map[string]int),
	}
	w.SetKey("OutbreakWatcher")
	return w
}

// Watch implements the Watcher interface.
func (w *OutbreakWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventOutbreak || event.Color == "" {
		return
	}
	w.outbreaks[event.Color]++
	w.touched[event.Color] += len(event.Cities)
	if len(event.Cities) > w.longest {
		w.longest = len(event.Cities)
	}
	w.SetCondition(true)
}

// Reset clears the watcher's state.
func (w *OutbreakWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.outbreaks = make(map[string]int)
	w.touched = make(map[string]int)
	w.longest = 0
}

// GetCount returns the number of outbreak origins for a color.
func (w *OutbreakWatcher) GetCount(color string) int {
	return w.outbreaks[color]
}

// GetTotal returns the number of outbreak origins across all colors.
func (w *OutbreakWatcher) GetTotal() int {
	total := 0
	for _, n := range w.outbreaks {
		total += n
	}
	return total
}

// GetCitiesTouched returns how many cities outbreak chains of a color reached.
func (w *OutbreakWatcher) GetCitiesTouched(color string) int {
	return w.touched[color]
}

// LongestChain returns the largest number of cities reached by one chain.
func (w *OutbreakWatcher) LongestChain() int {
	return w.longest
}

// CubesPlacedWatcher tracks cubes placed per color during the current turn.
type CubesPlacedWatcher struct {
	*rules.BaseWatcher
	placed map[string]int
}

// NewCubesPlacedWatcher creates a new per-turn cube watcher.
func NewCubesPlacedWatcher() *CubesPlacedWatcher {
	w := &CubesPlacedWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeTurn),
		placed:      make(map[string]int),
	}
	w.SetKey("CubesPlacedWatcher")
	return w
}

// Watch implements the Watcher interface.
func (w *CubesPlacedWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventInfect || event.Amount <= 0 {
		return
	}
	w.placed[event.Color] += event.Amount
	w.SetCondition(true)
}

// Reset clears the watcher's state.
func (w *CubesPlacedWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.placed = make(map[string]int)
}

// GetPlaced returns the cubes of a color placed this turn.
func (w *CubesPlacedWatcher) GetPlaced(color string) int {
	return w.placed[color]
}

// CardsDrawnWatcher counts player cards drawn per player over the whole game.
type CardsDrawnWatcher struct {
	*rules.BaseWatcher
	drawn map[string]int
}

// NewCardsDrawnWatcher creates a new cards drawn watcher.
func NewCardsDrawnWatcher() *CardsDrawnWatcher {
	w := &CardsDrawnWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeGame),
		drawn:       make(map[string]int),
	}
	w.SetKey("CardsDrawnWatcher")
	return w
}

// Watch implements the Watcher interface.
func (w *CardsDrawnWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventCardDrawn || event.PlayerID == "" {
		return
	}
	w.drawn[event.PlayerID]++
	w.SetCondition(true)
}

// Reset clears the watcher's state.
func (w *CardsDrawnWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.drawn = make(map[string]int)
}

// GetCount returns the number of cards a player has drawn.
func (w *CardsDrawnWatcher) GetCount(playerID string) int {
	return w.drawn[playerID]
}
