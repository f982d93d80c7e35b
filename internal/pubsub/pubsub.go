package pubsub

import (
	"sync"
	"time"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/logger"
)

// Event types
const (
	EventCatalogRefreshed = "catalog:refreshed"
	EventLeagueSynced     = "league:synced"
	EventRefreshFailed    = "catalog:refresh_failed"
)

// Event represents a pubsub event
type Event struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	At      time.Time              `json:"at"`
}

// CatalogRefreshed announces a new catalog version
func CatalogRefreshed(version, source string, players, picks int) Event {
	return Event{
		Type: EventCatalogRefreshed,
		Payload: map[string]interface{}{
			"version": version,
			"source":  source,
			"players": players,
			"picks":   picks,
		},
		At: time.Now().UTC(),
	}
}

// RefreshFailed announces that the last good catalog is still in force
func RefreshFailed(version string, err error) Event {
	return Event{
		Type: EventRefreshFailed,
		Payload: map[string]interface{}{
			"version": version,
			"error":   err.Error(),
		},
		At: time.Now().UTC(),
	}
}

// LeagueSynced announces a completed roster sync
func LeagueSynced(runID string, teams, picks, skipped int) Event {
	return Event{
		Type: EventLeagueSynced,
		Payload: map[string]interface{}{
			"run_id":  runID,
			"teams":   teams,
			"picks":   picks,
			"skipped": skipped,
		},
		At: time.Now().UTC(),
	}
}

// Bus is anything events can be published to and streamed from
type Bus interface {
	Publish(Event)
	Subscribe() chan Event
	Unsubscribe(chan Event)
}

// fanout delivers events to local subscriber channels without blocking
type fanout struct {
	mu          sync.RWMutex
	subscribers []chan Event
	buffer      int
}

func (f *fanout) subscribe() chan Event {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan Event, f.buffer)
	f.subscribers = append(f.subscribers, ch)
	logger.Debug("PubSub: New subscriber added", "total_subscribers", len(f.subscribers))
	return ch
}

func (f *fanout) unsubscribe(ch chan Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, sub := range f.subscribers {
		if sub == ch {
			close(ch)
			f.subscribers = append(f.subscribers[:i], f.subscribers[i+1:]...)
			break
		}
	}
}

func (f *fanout) broadcast(event Event) {
	f.mu.RLock()
	subs := make([]chan Event, len(f.subscribers))
	copy(subs, f.subscribers)
	f.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
			logger.Warn("PubSub: Skipping slow subscriber", "event_type", event.Type)
		}
	}
}

func (f *fanout) count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers)
}

func (f *fanout) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, sub := range f.subscribers {
		close(sub)
	}
	f.subscribers = nil
}

// PubSub is the in-process bus handlers and streams subscribe to
type PubSub struct {
	fanout
	upstream Bus
}

// New creates a new PubSub instance
func New() *PubSub {
	return &PubSub{fanout: fanout{buffer: 10}}
}

// NewWithUpstream creates a PubSub that bridges to an upstream bus such as
// NATS. Publishes go to the upstream, which broadcasts to every instance,
// and upstream events are forwarded to local subscribers.
func NewWithUpstream(upstream Bus) *PubSub {
	ps := &PubSub{fanout: fanout{buffer: 10}, upstream: upstream}

	ch := upstream.Subscribe()
	go func() {
		for event := range ch {
			ps.broadcast(event)
		}
		logger.Debug("PubSub: Upstream channel closed")
	}()

	return ps
}

// Subscribe adds a new subscriber and returns a channel for receiving events
func (ps *PubSub) Subscribe() chan Event { return ps.subscribe() }

// Unsubscribe removes a subscriber and closes its channel
func (ps *PubSub) Unsubscribe(ch chan Event) { ps.unsubscribe(ch) }

// Publish sends an event to the upstream when there is one, otherwise to
// local subscribers directly
func (ps *PubSub) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	if ps.upstream != nil {
		ps.upstream.Publish(event)
		return
	}
	ps.broadcast(event)
}

// SubscriberCount returns the number of local subscribers
func (ps *PubSub) SubscriberCount() int { return ps.count() }
