package pubsub

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/logger"
)

// DefaultStreamName is the JetStream stream dynasty events are kept in
const DefaultStreamName = "DYNASTY_EVENTS"

// NATSPubSub implements pub/sub using NATS JetStream. Every instance
// publishes to the stream and receives the stream's new messages, so events
// from any replica reach every replica's local subscribers.
type NATSPubSub struct {
	fanout
	nc      *nats.Conn
	js      nats.JetStreamContext
	sub     *nats.Subscription
	subject string
}

// NewNATSPubSub connects to a NATS server and binds to the JetStream stream
// for subject, creating it with file storage when missing
func NewNATSPubSub(natsURL, subject string) (*NATSPubSub, error) {
	nc, err := nats.Connect(natsURL, nats.Name("dynasty"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	ps, err := newJetStreamBus(nc, subject, &nats.StreamConfig{
		Name:     DefaultStreamName,
		Subjects: []string{subject},
		Storage:  nats.FileStorage,
		MaxAge:   7 * 24 * time.Hour,
	})
	if err != nil {
		nc.Close()
		return nil, err
	}
	return ps, nil
}

func newJetStreamBus(nc *nats.Conn, subject string, stream *nats.StreamConfig) (*NATSPubSub, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if _, err := js.StreamInfo(stream.Name); err != nil {
		if _, err := js.AddStream(stream); err != nil {
			return nil, fmt.Errorf("failed to create stream %s: %w", stream.Name, err)
		}
		logger.Info("JetStream stream created", "stream", stream.Name, "subject", subject)
	}

	ps := &NATSPubSub{
		fanout:  fanout{buffer: 100},
		nc:      nc,
		js:      js,
		subject: subject,
	}

	ps.sub, err = js.Subscribe(subject, ps.handle, nats.ManualAck(), nats.DeliverNew())
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	return ps, nil
}

func (p *NATSPubSub) handle(msg *nats.Msg) {
	var event Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Error("Failed to unmarshal event from JetStream", "error", err)
		msg.Term()
		return
	}
	p.broadcast(event)
	msg.Ack()
}

// Publish publishes an event to the JetStream subject. Local subscribers
// receive it through the stream subscription.
func (p *NATSPubSub) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return
	}
	if _, err := p.js.Publish(p.subject, data); err != nil {
		logger.Error("Failed to publish to NATS", "error", err, "subject", p.subject, "event_type", event.Type)
		return
	}
	logger.Debug("Published event to NATS", "event_type", event.Type, "subject", p.subject)
}

// Subscribe creates a subscription channel for events
func (p *NATSPubSub) Subscribe() chan Event { return p.subscribe() }

// Unsubscribe removes a subscription channel
func (p *NATSPubSub) Unsubscribe(ch chan Event) { p.unsubscribe(ch) }

// SubscriberCount returns the number of active local subscribers
func (p *NATSPubSub) SubscriberCount() int { return p.count() }

// Connected reports whether the NATS connection is up
func (p *NATSPubSub) Connected() bool {
	return p.nc != nil && p.nc.IsConnected()
}

// Close drains the stream subscription and closes the connection
func (p *NATSPubSub) Close() {
	if p.sub != nil {
		p.sub.Unsubscribe()
	}
	p.closeAll()
	if p.nc != nil {
		p.nc.Close()
	}
}
