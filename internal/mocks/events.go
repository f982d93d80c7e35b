package mocks

import (
	"sync"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/logger"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/pubsub"
)

// EventLog replaces NATS for one-shot commands. There is no broker and no
// other replica; events are delivered locally and kept in publish order.
type EventLog struct {
	*pubsub.PubSub

	mu     sync.Mutex
	events []pubsub.Event
}

// NewEventLog creates an empty log
func NewEventLog() *EventLog {
	return &EventLog{PubSub: pubsub.New()}
}

// Publish records event and delivers it to local subscribers
func (l *EventLog) Publish(event pubsub.Event) {
	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()
	l.PubSub.Publish(event)
}

// Events returns every recorded event, oldest first
func (l *EventLog) Events() []pubsub.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]pubsub.Event(nil), l.events...)
}

// Counts tallies recorded events by type
func (l *EventLog) Counts() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int)
	for _, e := range l.events {
		out[e.Type]++
	}
	return out
}

// Close logs what the command published
func (l *EventLog) Close() {
	counts := l.Counts()
	if len(counts) == 0 {
		return
	}
	logger.Debug("Command events", "counts", counts)
	if n := counts[pubsub.EventRefreshFailed]; n > 0 {
		logger.Warn("Catalog refresh failed during command", "failures", n)
	}
}
