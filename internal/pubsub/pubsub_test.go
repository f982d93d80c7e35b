package pubsub

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func recv(t *testing.T, ch chan Event) Event {
	t.Helper()
	select {
	case e, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return e
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
	return Event{}
}

func TestNew(t *testing.T) {
	ps := New()
	if ps == nil {
		t.Fatal("New() returned nil")
	}
	if ps.upstream != nil {
		t.Error("upstream should be nil for basic PubSub")
	}
	if ps.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers, got %d", ps.SubscriberCount())
	}
}

func TestSubscribeMultiple(t *testing.T) {
	ps := New()

	ch1 := ps.Subscribe()
	ch2 := ps.Subscribe()
	ch3 := ps.Subscribe()
	if ch1 == nil || ch2 == nil || ch3 == nil {
		t.Fatal("Subscribe() returned nil channel")
	}
	if ps.SubscriberCount() != 3 {
		t.Errorf("expected 3 subscribers, got %d", ps.SubscriberCount())
	}
}

func TestUnsubscribeMiddle(t *testing.T) {
	ps := New()

	ch1 := ps.Subscribe()
	ch2 := ps.Subscribe()
	ch3 := ps.Subscribe()
	ps.Unsubscribe(ch2)

	if _, ok := <-ch2; ok {
		t.Error("unsubscribed channel should be closed")
	}
	if ps.SubscriberCount() != 2 {
		t.Errorf("expected 2 subscribers, got %d", ps.SubscriberCount())
	}

	ps.Publish(LeagueSynced("run-1", 6, 48, 0))
	recv(t, ch1)
	recv(t, ch3)
}

func TestUnsubscribeNonexistent(t *testing.T) {
	ps := New()
	ps.Subscribe()

	// must not panic or close anything
	ps.Unsubscribe(make(chan Event))
	if ps.SubscriberCount() != 1 {
		t.Errorf("expected 1 subscriber, got %d", ps.SubscriberCount())
	}
}

func TestPublishNoSubscribers(t *testing.T) {
	ps := New()
	ps.Publish(Event{Type: EventCatalogRefreshed})
}

func TestPublishStampsTime(t *testing.T) {
	ps := New()
	ch := ps.Subscribe()

	ps.Publish(Event{Type: "custom"})
	e := recv(t, ch)
	if e.At.IsZero() {
		t.Error("publish should stamp a zero event time")
	}
}

func TestPublishDropsWhenChannelFull(t *testing.T) {
	ps := New()
	ch := ps.Subscribe()

	for i := 0; i < 15; i++ {
		ps.Publish(Event{Type: "fill"})
	}

	count := 0
	for {
		select {
		case <-ch:
			count++
		default:
			goto done
		}
	}
done:
	if count != 10 {
		t.Errorf("expected 10 events (buffer size), got %d", count)
	}
}

func TestConcurrentSubscribeUnsubscribe(t *testing.T) {
	ps := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			ch := ps.Subscribe()
			time.Sleep(time.Millisecond)
			ps.Unsubscribe(ch)
		}()
		go func() {
			defer wg.Done()
			ps.Publish(Event{Type: "concurrent"})
		}()
	}
	wg.Wait()

	if ps.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers after all unsubscribe, got %d", ps.SubscriberCount())
	}
}

// stubUpstream records publishes and echoes them back like a broker would
type stubUpstream struct {
	fanout
	mu        sync.Mutex
	published []Event
}

func newStubUpstream() *stubUpstream {
	return &stubUpstream{fanout: fanout{buffer: 100}}
}

func (s *stubUpstream) Publish(event Event) {
	s.mu.Lock()
	s.published = append(s.published, event)
	s.mu.Unlock()
	s.broadcast(event)
}

func (s *stubUpstream) Subscribe() chan Event    { return s.subscribe() }
func (s *stubUpstream) Unsubscribe(ch chan Event) { s.unsubscribe(ch) }

func (s *stubUpstream) Published() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.published...)
}

func TestPublishWithUpstream(t *testing.T) {
	upstream := newStubUpstream()
	ps := NewWithUpstream(upstream)
	ch := ps.Subscribe()

	ps.Publish(CatalogRefreshed("abc123", "http-market", 400, 12))

	if got := upstream.Published(); len(got) != 1 || got[0].Type != EventCatalogRefreshed {
		t.Fatalf("expected one catalog event upstream, got %+v", got)
	}
	e := recv(t, ch)
	if e.Payload["version"] != "abc123" {
		t.Errorf("expected version abc123, got %v", e.Payload["version"])
	}
}

func TestUpstreamBroadcastToLocalSubscribers(t *testing.T) {
	upstream := newStubUpstream()
	ps := NewWithUpstream(upstream)
	ch1 := ps.Subscribe()
	ch2 := ps.Subscribe()

	// another replica publishing straight to the broker
	upstream.Publish(LeagueSynced("run-9", 12, 96, 1))

	for _, ch := range []chan Event{ch1, ch2} {
		e := recv(t, ch)
		if e.Type != EventLeagueSynced {
			t.Errorf("expected %s, got %s", EventLeagueSynced, e.Type)
		}
		if e.Payload["skipped"] != 1 {
			t.Errorf("expected skipped=1, got %v", e.Payload["skipped"])
		}
	}
}

func TestEventConstructors(t *testing.T) {
	e := RefreshFailed("v1", errors.New("feed down"))
	if e.Type != EventRefreshFailed {
		t.Errorf("unexpected type %s", e.Type)
	}
	if e.Payload["error"] != "feed down" || e.Payload["version"] != "v1" {
		t.Errorf("unexpected payload %+v", e.Payload)
	}
	if e.At.IsZero() {
		t.Error("constructor should stamp the event")
	}

	c := CatalogRefreshed("v2", "static", 3, 4)
	if c.Payload["players"] != 3 || c.Payload["picks"] != 4 || c.Payload["source"] != "static" {
		t.Errorf("unexpected payload %+v", c.Payload)
	}
}
