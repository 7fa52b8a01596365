// Package notify carries real-time raffle announcements to entrants.
// Delivery is fire-and-forget relative to the draw transaction: a completed
// draw is never rolled back or re-run because a message failed to send.
package notify

import (
	"context"
	"sync"
	"time"
)

// EventType names the announcements the raffle core emits.
type EventType string

const (
	// EventPoolClosed announces the published commitment (hash only,
	// never the seed) when a pool stops accepting entries.
	EventPoolClosed EventType = "pool:closed"
	// EventDrawComplete announces the final result: winner count, the
	// commitment, the now-public seed, and the verification URL.
	EventDrawComplete EventType = "draw:complete"
	// EventWinner is sent once per winning entry.
	EventWinner EventType = "winner"
)

// Event is one announcement on a channel scoped to an event.
type Event struct {
	Type       EventType         `json:"type"`
	Channel    string            `json:"channel"`
	OccurredAt time.Time         `json:"occurred_at"`
	Payload    map[string]string `json:"payload,omitempty"`
}

// InMemory records published events. It backs tests and broker-less
// development.
type InMemory struct {
	mu     sync.Mutex
	events []Event
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (n *InMemory) Publish(ctx context.Context, event Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

// Events returns a snapshot of everything published so far.
func (n *InMemory) Events() []Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Event, len(n.events))
	copy(out, n.events)
	return out
}

// ByType filters the recorded events.
func (n *InMemory) ByType(t EventType) []Event {
	var out []Event
	for _, e := range n.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
