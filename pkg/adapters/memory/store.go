package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
)

// Store implements ports.ContactStore in memory.
// Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	nextID   int32
	contacts map[int32]*domain.Contact
	bySocial map[string]int32
	byEmail  map[string]int32
}

// NewStore creates a new in-memory contact store, optionally seeded with contacts.
func NewStore(seed ...*domain.Contact) *Store {
	s := &Store{
		contacts: make(map[int32]*domain.Contact),
		bySocial: make(map[string]int32),
		byEmail:  make(map[string]int32),
	}
	for _, c := range seed {
		_ = s.Save(context.Background(), c)
	}
	return s
}

// FindByID returns a copy of the contact with the given id.
func (s *Store) FindByID(ctx context.Context, id int32) (*domain.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(id)
}

// FindBySocialID returns a copy of the contact linked to socialID.
func (s *Store) FindBySocialID(ctx context.Context, socialID string) (*domain.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.bySocial[socialID]
	if !ok {
		return nil, domain.ErrContactNotFound
	}
	return s.get(id)
}

// FindByEmail returns a copy of the contact owning the address.
func (s *Store) FindByEmail(ctx context.Context, address string) (*domain.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(address))]
	if !ok {
		return nil, domain.ErrContactNotFound
	}
	return s.get(id)
}

func (s *Store) get(id int32) (*domain.Contact, error) {
	c, ok := s.contacts[id]
	if !ok {
		return nil, domain.ErrContactNotFound
	}
	// Copy on read so callers can't mutate store state through the pointer
	return c.Clone(), nil
}

// Save inserts or updates a contact, keeping the lookup indexes current.
func (s *Store) Save(ctx context.Context, c *domain.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID <= 0 {
		s.nextID++
		c.ID = s.nextID
	} else if c.ID > s.nextID {
		s.nextID = c.ID
	}

	if old, ok := s.contacts[c.ID]; ok {
		s.unindex(old)
	}
	stored := c.Clone()
	s.contacts[c.ID] = stored
	if stored.SocialID != "" {
		s.bySocial[stored.SocialID] = stored.ID
	}
	if addr := stored.EmailAddress(); addr != "" {
		s.byEmail[addr] = stored.ID
	}
	return nil
}

// Delete removes the contact and its index entries.
func (s *Store) Delete(ctx context.Context, id int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.contacts[id]; ok {
		s.unindex(old)
		delete(s.contacts, id)
	}
	return nil
}

func (s *Store) unindex(c *domain.Contact) {
	if c.SocialID != "" && s.bySocial[c.SocialID] == c.ID {
		delete(s.bySocial, c.SocialID)
	}
	if addr := c.EmailAddress(); addr != "" && s.byEmail[addr] == c.ID {
		delete(s.byEmail, addr)
	}
}

// Len returns the number of stored contacts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contacts)
}
