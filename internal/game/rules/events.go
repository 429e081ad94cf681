package rules

import (
	"sync"
	"time"
)

// EventType indicates the category of a rules event.
type EventType string

const (
	// Turn events
	EventTurnStarted EventType = "TURN_STARTED"
	EventTurnEnded   EventType = "TURN_ENDED"
	EventPhaseChange EventType = "PHASE_CHANGE"
	EventActionTaken EventType = "ACTION_TAKEN"

	// Player events
	EventPlayerMoved       EventType = "PLAYER_MOVED"
	EventKnowledgeShared   EventType = "KNOWLEDGE_SHARED"
	EventResearchStation   EventType = "RESEARCH_STATION_BUILT"
	EventCardDrawn         EventType = "CARD_DRAWN"
	EventCardDiscarded     EventType = "CARD_DISCARDED"
	EventHandLimitExceeded EventType = "HAND_LIMIT_EXCEEDED"

	// Disease events
	EventInfect        EventType = "INFECT"
	EventCubesTreated  EventType = "CUBES_TREATED"
	EventOutbreak      EventType = "OUTBREAK"
	EventEpidemic      EventType = "EPIDEMIC"
	EventInfectionRate EventType = "INFECTION_RATE_INCREASED"
	EventCured         EventType = "DISEASE_CURED"
	EventEradicated    EventType = "DISEASE_ERADICATED"

	// Game end
	EventGameWon  EventType = "GAME_WON"
	EventGameLost EventType = "GAME_LOST"
)

// Event represents a state change that other subsystems may react to.
type Event struct {
	Type        EventType `json:"type"`
	PlayerID    string    `json:"player_id,omitempty"`
	City        string    `json:"city,omitempty"`
	Color       string    `json:"color,omitempty"`
	Amount      int       `json:"amount,omitempty"`
	Cities      []string  `json:"cities,omitempty"` // cities touched, e.g. by an outbreak chain
	Turn        int       `json:"turn,omitempty"`
	Description string    `json:"description,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

// TypedListener defines a callback that reacts to a specific event type.
type TypedListener struct {
	Handle    int
	EventType EventType
	Callback  func(Event)
}

// EventBus provides a synchronous publish/subscribe implementation with type filtering.
type EventBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	typedListeners map[EventType][]TypedListener
	nextHandle     int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]TypedListener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback func(Event)) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], TypedListener{
		Handle:    handle,
		EventType: eventType,
		Callback:  callback,
	})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle,
// whether it was registered with Subscribe or SubscribeTyped.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
	for eventType, listeners := range bus.typedListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].Handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to all registered listeners synchronously.
// Listeners must not publish from inside the callback.
func (bus *EventBus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	bus.mu.RLock()
	defer bus.mu.RUnlock()

	for _, listener := range bus.listeners {
		listener(event)
	}
	for _, listener := range bus.typedListeners[event.Type] {
		listener.Callback(event)
	}
}

// NewEvent creates a new event with common fields populated.
func NewEvent(eventType EventType, playerID, city, color string) Event {
	return Event{
		Type:      eventType,
		PlayerID:  playerID,
		City:      city,
		Color:     color,
		Timestamp: time.Now(),
	}
}

// NewEventWithAmount creates a new event with an amount value.
func NewEventWithAmount(eventType EventType, playerID, city, color string, amount int) Event {
	evt := NewEvent(eventType, playerID, city, color)
	evt.Amount = amount
	return evt
}
