package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	bolt "go.etcd.io/bbolt"
)

// Store implements ports.ContactStore. Contacts are JSON values keyed by id;
// two index buckets map social ids and lowercased email addresses to ids.
type Store struct {
	db *DB
}

// NewStore creates a contact store on db.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

func idKey(id int32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(id))
	return b
}

func getContact(tx *bolt.Tx, key []byte) (*domain.Contact, error) {
	bs := tx.Bucket(contactsBucket).Get(key)
	if bs == nil {
		return nil, domain.ErrContactNotFound
	}
	var c domain.Contact
	if err := json.Unmarshal(bs, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal contact: %w", err)
	}
	return &c, nil
}

// FindByID loads the contact with the given id.
func (s *Store) FindByID(ctx context.Context, id int32) (*domain.Contact, error) {
	var c *domain.Contact
	err := s.db.db.View(func(tx *bolt.Tx) error {
		var err error
		c, err = getContact(tx, idKey(id))
		return err
	})
	return c, err
}

// FindBySocialID loads the contact linked to socialID.
func (s *Store) FindBySocialID(ctx context.Context, socialID string) (*domain.Contact, error) {
	return s.findByIndex(bySocialBucket, socialID)
}

// FindByEmail loads the contact owning the address.
func (s *Store) FindByEmail(ctx context.Context, address string) (*domain.Contact, error) {
	return s.findByIndex(byEmailBucket, strings.ToLower(strings.TrimSpace(address)))
}

func (s *Store) findByIndex(bucket []byte, field string) (*domain.Contact, error) {
	if field == "" {
		return nil, domain.ErrContactNotFound
	}
	var c *domain.Contact
	err := s.db.db.View(func(tx *bolt.Tx) error {
		key := tx.Bucket(bucket).Get([]byte(field))
		if key == nil {
			return domain.ErrContactNotFound
		}
		var err error
		c, err = getContact(tx, key)
		return err
	})
	return c, err
}

// Save inserts or updates a contact in one transaction. A contact with ID <= 0
// receives the bucket's next sequence number.
func (s *Store) Save(ctx context.Context, c *domain.Contact) error {
	return s.db.db.Update(func(tx *bolt.Tx) error {
		contacts := tx.Bucket(contactsBucket)
		if c.ID <= 0 {
			seq, err := contacts.NextSequence()
			if err != nil {
				return err
			}
			if seq > math.MaxInt32 {
				return fmt.Errorf("contact id space exhausted")
			}
			c.ID = int32(seq)
		} else if uint64(c.ID) > contacts.Sequence() {
			// Keep the sequence ahead of explicitly chosen ids.
			if err := contacts.SetSequence(uint64(c.ID)); err != nil {
				return err
			}
		}

		key := idKey(c.ID)
		if old, err := getContact(tx, key); err == nil {
			if err := unindex(tx, old, c); err != nil {
				return err
			}
		}

		js, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to marshal contact: %w", err)
		}
		if err := contacts.Put(key, js); err != nil {
			return err
		}
		if c.SocialID != "" {
			if err := tx.Bucket(bySocialBucket).Put([]byte(c.SocialID), key); err != nil {
				return err
			}
		}
		if addr := c.EmailAddress(); addr != "" {
			if err := tx.Bucket(byEmailBucket).Put([]byte(addr), key); err != nil {
				return err
			}
		}
		return nil
	})
}

// unindex drops index entries of old that next no longer carries. next may be nil.
func unindex(tx *bolt.Tx, old, next *domain.Contact) error {
	if old.SocialID != "" && (next == nil || next.SocialID != old.SocialID) {
		if err := tx.Bucket(bySocialBucket).Delete([]byte(old.SocialID)); err != nil {
			return err
		}
	}
	if addr := old.EmailAddress(); addr != "" && (next == nil || next.EmailAddress() != addr) {
		if err := tx.Bucket(byEmailBucket).Delete([]byte(addr)); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the contact and its index entries. Deleting a missing contact is a no-op.
func (s *Store) Delete(ctx context.Context, id int32) error {
	return s.db.db.Update(func(tx *bolt.Tx) error {
		key := idKey(id)
		old, err := getContact(tx, key)
		if err == domain.ErrContactNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		if err := unindex(tx, old, nil); err != nil {
			return err
		}
		return tx.Bucket(contactsBucket).Delete(key)
	})
}
