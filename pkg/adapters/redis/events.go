package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// EventStore implements ports.EventStore on a Redis list.
type EventStore struct {
	client    *backend.Client
	prefix    string
	maxEvents int64
}

// NewEventStore creates an event store from an existing client.
func NewEventStore(client *backend.Client, opts ...Option) *EventStore {
	o := applyOptions(opts)
	return &EventStore{client: client, prefix: o.prefix, maxEvents: o.maxEvents}
}

func (s *EventStore) key() string {
	return s.prefix + "events"
}

// Append pushes the event to the tail of the list.
func (s *EventStore) Append(ctx context.Context, event *domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.key(), data)
	if s.maxEvents > 0 {
		pipe.LTrim(ctx, s.key(), -s.maxEvents, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append event to redis: %w", err)
	}
	return nil
}

// List returns every retained event, oldest first.
func (s *EventStore) List(ctx context.Context) ([]*domain.Event, error) {
	raw, err := s.client.LRange(ctx, s.key(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	events := make([]*domain.Event, 0, len(raw))
	for _, val := range raw {
		var ev domain.Event
		if err := json.Unmarshal([]byte(val), &ev); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event: %w", err)
		}
		events = append(events, &ev)
	}
	return events, nil
}
