package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var got []Event
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		got = append(got, e)
		return nil
	})

	event := Event{ID: "e1", Type: EventTicketCreated, TicketID: 7, Timestamp: time.Now()}
	require.NoError(t, d.Publish(context.Background(), event))
	require.NoError(t, d.Publish(context.Background(), Event{ID: "e2", Type: EventTicketAnswered}))

	require.Len(t, got, 1, "handler only sees its subscribed type")
	assert.Equal(t, "e1", got[0].ID)
	assert.Equal(t, int64(7), got[0].TicketID)
}

func TestDispatcherHandlerErrorDoesNotStopDelivery(t *testing.T) {
	d := NewInMemoryDispatcher()

	var second bool
	d.Subscribe(EventTicketEscalated, func(context.Context, Event) error {
		return errors.New("handler failed")
	})
	d.Subscribe(EventTicketEscalated, func(context.Context, Event) error {
		second = true
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketEscalated}))
	assert.True(t, second)
}

func TestDispatcherNoSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketReplySent}))
}
