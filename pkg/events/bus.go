// FILE: pkg/events/bus.go
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// TopicBilling carries every billing event through the in-process bus.
const TopicBilling = "billing.events"

// Publisher is the side the services see; the consumer side reads from Bus.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type envelope struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// Bus is an in-process pub/sub for billing events, backed by a Watermill
// go-channel. It decouples the billing services from side effects like
// receipt mail without requiring a broker in the request path.
type Bus struct {
	pubSub *gochannel.GoChannel
}

func NewBus() *Bus {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NopLogger{},
	)
	return &Bus{pubSub: pubSub}
}

func (b *Bus) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(envelope{
		Type:       event.EventType(),
		Data:       event.Payload(),
		OccurredAt: event.Timestamp(),
	})
	if err != nil {
		return err
	}
	return b.pubSub.Publish(TopicBilling, message.NewMessage(watermill.NewUUID(), data))
}

// Subscribe delivers decoded events until ctx is cancelled. Messages that do
// not decode are acked and dropped.
func (b *Bus) Subscribe(ctx context.Context) (<-chan Event, error) {
	messages, err := b.pubSub.Subscribe(ctx, TopicBilling)
	if err != nil {
		return nil, err
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		for msg := range messages {
			var env envelope
			if err := json.Unmarshal(msg.Payload, &env); err != nil {
				msg.Ack()
				continue
			}
			msg.Ack()
			select {
			case out <- BaseEvent{Type: env.Type, Data: env.Data, OccurredAt: env.OccurredAt}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (b *Bus) Close() error {
	return b.pubSub.Close()
}

// Fanout publishes each event to every publisher; the first error wins but
// all publishers are attempted.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event Event) error {
	var firstErr error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
