package rules

import (
	"testing"
	"time"
)

func TestEventBusSubscribeTyped(t *testing.T) {
	bus := NewEventBus()

	outbreaks := 0
	cures := 0

	handle1 := bus.SubscribeTyped(EventOutbreak, func(e Event) {
		outbreaks++
	})
	handle2 := bus.SubscribeTyped(EventCured, func(e Event) {
		cures++
	})

	bus.Publish(NewEvent(EventOutbreak, "", "Atlanta", "BLUE"))
	if outbreaks != 1 || cures != 0 {
		t.Fatalf("expected 1 outbreak and 0 cures, got %d and %d", outbreaks, cures)
	}

	bus.Publish(NewEvent(EventCured, "p1", "Atlanta", "BLUE"))
	if outbreaks != 1 || cures != 1 {
		t.Fatalf("expected 1 outbreak and 1 cure, got %d and %d", outbreaks, cures)
	}

	bus.Unsubscribe(handle1)
	bus.Publish(NewEvent(EventOutbreak, "", "Miami", "YELLOW"))
	if outbreaks != 1 {
		t.Fatalf("expected outbreak count still 1 after unsubscribe, got %d", outbreaks)
	}

	bus.Unsubscribe(handle2)
	bus.Publish(NewEvent(EventCured, "p1", "Atlanta", "RED"))
	if cures != 1 {
		t.Fatalf("expected cure count still 1 after unsubscribe, got %d", cures)
	}
}

func TestEventBusSubscribeAll(t *testing.T) {
	bus := NewEventBus()

	count := 0
	handle := bus.Subscribe(func(e Event) {
		count++
	})

	bus.Publish(NewEvent(EventInfect, "", "Lima", "YELLOW"))
	bus.Publish(NewEvent(EventPlayerMoved, "p1", "Miami", ""))
	bus.Publish(NewEventWithAmount(EventCubesTreated, "p1", "Miami", "YELLOW", 2))
	if count != 3 {
		t.Fatalf("expected 3 events, got %d", count)
	}

	bus.Unsubscribe(handle)
	bus.Publish(NewEvent(EventInfect, "", "Lima", "YELLOW"))
	if count != 3 {
		t.Fatalf("expected count still 3 after unsubscribe, got %d", count)
	}
}

func TestEventBusNilListener(t *testing.T) {
	bus := NewEventBus()
	if h := bus.Subscribe(nil); h != -1 {
		t.Fatalf("expected -1 for nil listener, got %d", h)
	}
	if h := bus.SubscribeTyped(EventInfect, nil); h != -1 {
		t.Fatalf("expected -1 for nil typed listener, got %d", h)
	}
}

func TestPublishStampsTimestamp(t *testing.T) {
	bus := NewEventBus()

	var got Event
	bus.Subscribe(func(e Event) { got = e })
	bus.Publish(Event{Type: EventEpidemic, City: "Lagos"})

	if got.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be set")
	}
	if time.Since(got.Timestamp) > time.Minute {
		t.Fatalf("timestamp looks stale: %v", got.Timestamp)
	}
}
