package ws

import (
	"context"
	"testing"
	"time"

	"github.com/ViniZap4/lumi-estimates/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e, ok := <-ch:
		require.True(t, ok, "channel closed")
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestHub_DeliversToWorkspace(t *testing.T) {
	hub, _ := startHub(t)

	ws1, cancel1 := hub.Subscribe("ws1")
	defer cancel1()
	ws2, cancel2 := hub.Subscribe("ws2")
	defer cancel2()

	hub.Broadcast(EventContactCreated, &domain.Contact{ID: "c1", WorkspaceID: "ws1"})
	hub.Broadcast(EventContactCreated, &domain.Contact{ID: "c2", WorkspaceID: "ws2"})

	e := receive(t, ws1)
	assert.Equal(t, EventContactCreated, e.Type)
	assert.Equal(t, "c1", e.Contact.ID)

	e = receive(t, ws2)
	assert.Equal(t, "c2", e.Contact.ID)
}

func TestHub_CancelClosesChannel(t *testing.T) {
	hub, _ := startHub(t)

	ch, cancel := hub.Subscribe("ws1")
	cancel()
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub, _ := startHub(t)

	slow, cancelSlow := hub.Subscribe("ws1")
	defer cancelSlow()

	for i := 0; i < subscriberBuffer*3; i++ {
		hub.Publish(Event{Type: EventContactUpdated, WorkspaceID: "ws1"})
	}

	// broadcasts are handled in order, so once the barrier arrives the
	// updates have all been delivered or dropped
	barrier, cancelBarrier := hub.Subscribe("ws2")
	defer cancelBarrier()
	hub.Publish(Event{Type: EventContactCreated, WorkspaceID: "ws2"})
	receive(t, barrier)

	fresh, cancelFresh := hub.Subscribe("ws1")
	defer cancelFresh()
	hub.Publish(Event{Type: EventContactDeleted, WorkspaceID: "ws1"})

	assert.Equal(t, EventContactDeleted, receive(t, fresh).Type)
	assert.Len(t, slow, subscriberBuffer)
}

func TestHub_StopClosesSubscribers(t *testing.T) {
	hub, cancel := startHub(t)

	ch, _ := hub.Subscribe("ws1")
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed on stop")
	}

	<-hub.done
	hub.Publish(Event{Type: EventContactCreated, WorkspaceID: "ws1"})

	late, unsubscribe := hub.Subscribe("ws1")
	unsubscribe()
	_, ok := <-late
	assert.False(t, ok)
}
