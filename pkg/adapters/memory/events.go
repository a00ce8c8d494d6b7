package memory

import (
	"context"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// EventStore implements ports.EventStore in memory.
type EventStore struct {
	mu     sync.RWMutex
	events []*domain.Event
}

// NewEventStore creates an empty event store.
func NewEventStore() *EventStore {
	return &EventStore{}
}

// Append stores a copy of the event.
func (s *EventStore) Append(ctx context.Context, event *domain.Event) error {
	copied := copyEvent(event)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, copied)
	return nil
}

// List returns copies of all events, oldest first.
func (s *EventStore) List(ctx context.Context) ([]*domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, copyEvent(e))
	}
	return out, nil
}

func copyEvent(e *domain.Event) *domain.Event {
	copied := *e
	if e.Properties != nil {
		copied.Properties = make(map[string]any, len(e.Properties))
		for k, v := range e.Properties {
			copied.Properties[k] = v
		}
	}
	return &copied
}

// Outbox implements ports.Mailer by recording messages.
type Outbox struct {
	mu       sync.Mutex
	messages []ports.Message
}

// NewOutbox creates an empty outbox.
func NewOutbox() *Outbox {
	return &Outbox{}
}

// Send records the message.
func (o *Outbox) Send(ctx context.Context, msg ports.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = append(o.messages, msg)
	return nil
}

// Messages returns the recorded messages.
func (o *Outbox) Messages() []ports.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]ports.Message(nil), o.messages...)
}
