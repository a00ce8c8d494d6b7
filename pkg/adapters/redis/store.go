package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

const defaultPrefix = "arbor:"

// Store implements ports.ContactStore using Redis.
//
// Contacts are stored as JSON under <prefix>contact:<id>. Two hashes index them by
// social id and by lowercased email address; ids come from an INCR counter.
type Store struct {
	client *backend.Client
	prefix string
}

// Option configures the Redis adapters.
type Option func(*options)

type options struct {
	prefix    string
	maxEvents int64
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithMaxEvents caps the event list, dropping the oldest entries. Zero keeps everything.
func WithMaxEvents(n int64) Option {
	return func(o *options) {
		o.maxEvents = n
	}
}

func applyOptions(opts []Option) options {
	o := options{prefix: defaultPrefix}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewClient creates a go-redis client for the given server.
func NewClient(address, password string, db int) *backend.Client {
	return backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
}

// NewStore creates a contact store from an existing client.
func NewStore(client *backend.Client, opts ...Option) *Store {
	o := applyOptions(opts)
	return &Store{client: client, prefix: o.prefix}
}

func (s *Store) key(id int32) string {
	return s.prefix + "contact:" + strconv.FormatInt(int64(id), 10)
}

func (s *Store) seqKey() string    { return s.prefix + "contact:seq" }
func (s *Store) socialKey() string { return s.prefix + "contact:by-social" }
func (s *Store) emailKey() string  { return s.prefix + "contact:by-email" }

// FindByID loads the contact with the given id.
func (s *Store) FindByID(ctx context.Context, id int32) (*domain.Contact, error) {
	val, err := s.client.Get(ctx, s.key(id)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrContactNotFound
		}
		return nil, fmt.Errorf("failed to get contact from redis: %w", err)
	}

	var c domain.Contact
	if err := json.Unmarshal([]byte(val), &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal contact: %w", err)
	}
	return &c, nil
}

// FindBySocialID loads the contact linked to socialID.
func (s *Store) FindBySocialID(ctx context.Context, socialID string) (*domain.Contact, error) {
	return s.findByIndex(ctx, s.socialKey(), socialID)
}

// FindByEmail loads the contact owning the address.
func (s *Store) FindByEmail(ctx context.Context, address string) (*domain.Contact, error) {
	return s.findByIndex(ctx, s.emailKey(), strings.ToLower(strings.TrimSpace(address)))
}

func (s *Store) findByIndex(ctx context.Context, index, field string) (*domain.Contact, error) {
	if field == "" {
		return nil, domain.ErrContactNotFound
	}
	id, err := s.client.HGet(ctx, index, field).Int64()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrContactNotFound
		}
		return nil, fmt.Errorf("failed to read index %s: %w", index, err)
	}
	return s.FindByID(ctx, int32(id))
}

// raiseSeqScript moves the id counter up to ARGV[1] so INCR never hands out an explicit id.
const raiseSeqScript = `
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
if current < tonumber(ARGV[1]) then
	redis.call("SET", KEYS[1], ARGV[1])
end
return 0
`

// Save inserts or updates a contact. A contact with ID <= 0 receives the next id.
// An explicit id raises the id counter in the same transaction.
func (s *Store) Save(ctx context.Context, c *domain.Contact) error {
	explicit := c.ID > 0
	if !explicit {
		next, err := s.client.Incr(ctx, s.seqKey()).Result()
		if err != nil {
			return fmt.Errorf("failed to allocate contact id: %w", err)
		}
		if next > math.MaxInt32 {
			return fmt.Errorf("contact id space exhausted")
		}
		c.ID = int32(next)
	}

	old, err := s.FindByID(ctx, c.ID)
	if err != nil && !errors.Is(err, domain.ErrContactNotFound) {
		return err
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal contact: %w", err)
	}

	pipe := s.client.TxPipeline()
	if old != nil {
		s.unindex(ctx, pipe, old, c)
	}
	pipe.Set(ctx, s.key(c.ID), data, 0)
	if explicit {
		pipe.Eval(ctx, raiseSeqScript, []string{s.seqKey()}, c.ID)
	}
	if c.SocialID != "" {
		pipe.HSet(ctx, s.socialKey(), c.SocialID, c.ID)
	}
	if addr := c.EmailAddress(); addr != "" {
		pipe.HSet(ctx, s.emailKey(), addr, c.ID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save contact to redis: %w", err)
	}
	return nil
}

// unindex drops index entries of old that next no longer carries. next may be nil.
func (s *Store) unindex(ctx context.Context, pipe backend.Pipeliner, old, next *domain.Contact) {
	if old.SocialID != "" && (next == nil || next.SocialID != old.SocialID) {
		pipe.HDel(ctx, s.socialKey(), old.SocialID)
	}
	if addr := old.EmailAddress(); addr != "" && (next == nil || next.EmailAddress() != addr) {
		pipe.HDel(ctx, s.emailKey(), addr)
	}
}

// Delete removes the contact and its index entries. Deleting a missing contact is a no-op.
func (s *Store) Delete(ctx context.Context, id int32) error {
	old, err := s.FindByID(ctx, id)
	if errors.Is(err, domain.ErrContactNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	s.unindex(ctx, pipe, old, nil)
	pipe.Del(ctx, s.key(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete contact from redis: %w", err)
	}
	return nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
