package httpapi

import (
	"sync"

	"github.com/rs/zerolog"

	"falbridge/pkg/types"
)

// Event is one named payload pushed to observers.
type Event struct {
	Name string `json:"name"`
	Data any    `json:"data"`
}

// keyStatusEvent is the event name nodes use to announce the active
// credential.
const keyStatusEvent = "fal-key-status"

// EventHub fans events out to SSE subscribers. Broadcast is
// fire-and-forget and never blocks: a slow subscriber drops events
// rather than stalling the sender.
type EventHub struct {
	mu     sync.Mutex
	subs   map[chan Event]struct{}
	logger zerolog.Logger
}

// NewEventHub constructs an empty hub.
func NewEventHub(logger zerolog.Logger) *EventHub {
	return &EventHub{
		subs:   make(map[chan Event]struct{}),
		logger: logger.With().Str("component", "events").Logger(),
	}
}

// Subscribe registers a new observer channel.
func (h *EventHub) Subscribe() chan Event {
	ch := make(chan Event, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes an observer channel.
func (h *EventHub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; !ok {
		return
	}
	delete(h.subs, ch)
	close(ch)
}

// Broadcast delivers e to every subscriber that has room.
func (h *EventHub) Broadcast(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- e:
		default:
			h.logger.Debug().Str("event", e.Name).Msg("subscriber full, dropping event")
		}
	}
}

// KeyStatus announces the active credential name to all observers.
// The key itself never travels through the hub.
func (h *EventHub) KeyStatus(activeKeyName string) {
	h.Broadcast(Event{Name: keyStatusEvent, Data: types.KeyStatusEvent{ActiveKeyName: activeKeyName}})
}
