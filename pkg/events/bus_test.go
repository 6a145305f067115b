// FILE: pkg/events/bus_test.go
package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusRoundTrip(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	err = bus.Publish(ctx, New(TypePaymentCompleted, map[string]interface{}{
		"transaction_id": "t-1",
		"amount":         29.99,
	}))
	require.NoError(t, err)

	select {
	case ev := <-ch:
		assert.Equal(t, TypePaymentCompleted, ev.EventType())
		assert.Equal(t, "t-1", ev.Payload()["transaction_id"])
		assert.Equal(t, 29.99, ev.Payload()["amount"])
		assert.False(t, ev.Timestamp().IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

type flakyPublisher struct {
	err   error
	calls int
}

func (p *flakyPublisher) Publish(ctx context.Context, event Event) error {
	p.calls++
	return p.err
}

func TestFanoutAttemptsAllPublishers(t *testing.T) {
	failing := &flakyPublisher{err: errors.New("broker down")}
	healthy := &flakyPublisher{}

	err := Fanout{failing, healthy}.Publish(context.Background(), New(TypePaymentFailed, nil))
	require.Error(t, err)
	assert.Equal(t, "broker down", err.Error())
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, healthy.calls)
}
