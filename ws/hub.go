// ws/hub.go
package ws

import (
	"context"
	"sync"

	"github.com/ViniZap4/lumi-estimates/domain"
	"github.com/rs/zerolog"
)

const (
	EventContactCreated = "contact_created"
	EventContactUpdated = "contact_updated"
	EventContactDeleted = "contact_deleted"
)

const subscriberBuffer = 32

type Event struct {
	Type        string          `json:"type"`
	WorkspaceID string          `json:"-"`
	Contact     *domain.Contact `json:"contact,omitempty"`
}

type subscriber struct {
	workspaceID string
	ch          chan Event
}

// Hub fans contact events out to the subscribers of each workspace. The set
// of subscribers is owned by the Run goroutine.
type Hub struct {
	subscribers map[*subscriber]bool
	broadcast   chan Event
	register    chan *subscriber
	unregister  chan *subscriber
	done        chan struct{}
	log         zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		subscribers: make(map[*subscriber]bool),
		broadcast:   make(chan Event, 256),
		register:    make(chan *subscriber),
		unregister:  make(chan *subscriber),
		done:        make(chan struct{}),
		log:         log,
	}
}

// Run processes registrations and broadcasts until ctx is cancelled, then
// closes every subscriber channel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for sub := range h.subscribers {
				close(sub.ch)
				delete(h.subscribers, sub)
			}
			return

		case sub := <-h.register:
			h.subscribers[sub] = true

		case sub := <-h.unregister:
			if _, ok := h.subscribers[sub]; ok {
				delete(h.subscribers, sub)
				close(sub.ch)
			}

		case event := <-h.broadcast:
			for sub := range h.subscribers {
				if sub.workspaceID != event.WorkspaceID {
					continue
				}
				select {
				case sub.ch <- event:
				default:
					h.log.Warn().
						Str("workspace", sub.workspaceID).
						Str("event", event.Type).
						Msg("subscriber buffer full, dropping event")
				}
			}
		}
	}
}

// Subscribe returns a channel of events for workspaceID and a func that ends
// the subscription. The channel is closed when the subscription ends or the
// hub stops.
func (h *Hub) Subscribe(workspaceID string) (<-chan Event, func()) {
	sub := &subscriber{workspaceID: workspaceID, ch: make(chan Event, subscriberBuffer)}

	select {
	case h.register <- sub:
	case <-h.done:
		close(sub.ch)
		return sub.ch, func() {}
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			select {
			case h.unregister <- sub:
			case <-h.done:
			}
		})
	}
	return sub.ch, cancel
}

// Publish queues an event. It never blocks once the hub has stopped.
func (h *Hub) Publish(event Event) {
	select {
	case h.broadcast <- event:
	case <-h.done:
	}
}

func (h *Hub) Broadcast(eventType string, contact *domain.Contact) {
	h.Publish(Event{Type: eventType, WorkspaceID: contact.WorkspaceID, Contact: contact})
}
