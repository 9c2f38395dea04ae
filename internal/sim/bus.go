// Package sim is a small grid host for neighbour teleports: bodies that move
// one cell per step across the maps of an atlas, and an event bus that
// carries their movement-finished notifications to a teleporter.
package sim

import "github.com/mesh-intelligence/atlas/pkg/types"

// EventType identifies different types of events.
type EventType string

// Event types emitted by a World.
const (
	EventMovementFinished EventType = "movement_finished"
	EventRelocated        EventType = "relocated"
)

// Event is anything the bus can carry.
type Event interface {
	Type() EventType
}

// MovementEvent wraps a movement-finished notification.
type MovementEvent struct {
	types.MovementFinished
}

func (MovementEvent) Type() EventType { return EventMovementFinished }

// RelocatedEvent reports that a delayed relocation has landed a body.
type RelocatedEvent struct {
	Body *Body
	Err  error
}

func (RelocatedEvent) Type() EventType { return EventRelocated }

// Handler processes events.
type Handler func(Event)

// Bus manages event subscriptions and dispatches them synchronously, in
// subscription order.
type Bus struct {
	subscribers map[EventType][]Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[EventType][]Handler)}
}

// Subscribe registers a handler for a specific event type.
func (b *Bus) Subscribe(t EventType, h Handler) {
	b.subscribers[t] = append(b.subscribers[t], h)
}

// Emit dispatches an event to all subscribed handlers.
func (b *Bus) Emit(e Event) {
	for _, h := range b.subscribers[e.Type()] {
		h(e)
	}
}
