package bolt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
	bolt "go.etcd.io/bbolt"
)

// EventStore implements ports.EventStore as an append-only bucket keyed by sequence.
type EventStore struct {
	db *DB
}

// NewEventStore creates an event store on db.
func NewEventStore(db *DB) *EventStore {
	return &EventStore{db: db}
}

// Append stores the event under the bucket's next sequence number.
func (s *EventStore) Append(ctx context.Context, event *domain.Event) error {
	js, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return s.db.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(eventsBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(itob(seq), js)
	})
}

// List returns every event in append order.
func (s *EventStore) List(ctx context.Context) ([]*domain.Event, error) {
	events := make([]*domain.Event, 0, 32)
	err := s.db.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(eventsBucket).Cursor()
		for k, bs := c.First(); k != nil; k, bs = c.Next() {
			var ev domain.Event
			if err := json.Unmarshal(bs, &ev); err != nil {
				return fmt.Errorf("failed to unmarshal event: %w", err)
			}
			events = append(events, &ev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}
