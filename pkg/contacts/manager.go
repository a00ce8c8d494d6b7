package contacts

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/action"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

const defaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager applies run results to the contact store.
// Lock entries are reference counted and dropped once no writer holds them.
type Manager struct {
	store ports.ContactStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets how long a distributed lock survives a crashed holder.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a Manager writing to store.
func NewManager(store ports.ContactStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: defaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store returns the underlying contact store.
func (m *Manager) Store() ports.ContactStore {
	return m.store
}

// Apply persists the result's contact according to its state:
// Added and Modified save it, Deleted removes it, Unchanged is a no-op.
// It reports whether a write happened.
func (m *Manager) Apply(ctx context.Context, res *action.Result) (bool, error) {
	if res == nil || res.Contact == nil {
		return false, nil
	}
	c := res.Contact

	switch res.ContactState {
	case domain.ContactAdded, domain.ContactModified:
		err := m.WithLock(ctx, lockKey(c), func(ctx context.Context) error {
			return m.store.Save(ctx, c)
		})
		if err != nil {
			return false, fmt.Errorf("save contact: %w", err)
		}
		m.logger.DebugContext(ctx, "contact saved", "contact_id", c.ID, "state", res.ContactState)
		return true, nil

	case domain.ContactDeleted:
		if c.ID <= 0 {
			return false, nil
		}
		err := m.WithLock(ctx, lockKey(c), func(ctx context.Context) error {
			return m.store.Delete(ctx, c.ID)
		})
		if err != nil {
			return false, fmt.Errorf("delete contact: %w", err)
		}
		m.logger.DebugContext(ctx, "contact deleted", "contact_id", c.ID)
		return true, nil
	}
	return false, nil
}

// WithLock executes fn while holding the lock for key.
func (m *Manager) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := m.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(key)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, key, m.lockTTL)
		if err != nil {
			return fmt.Errorf("acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"key", key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// acquire gets or creates a lock entry and increments its reference count.
func (m *Manager) acquire(key string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[key]
	if !ok {
		entry = &lockEntry{}
		m.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[key]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, key)
	}
}

// lockKey names a contact for locking. New contacts have no id yet,
// so they are keyed by their email address or social id.
func lockKey(c *domain.Contact) string {
	switch {
	case c.ID > 0:
		return "contact:" + strconv.FormatInt(int64(c.ID), 10)
	case c.EmailAddress() != "":
		return "email:" + c.EmailAddress()
	case c.SocialID != "":
		return "social:" + c.SocialID
	}
	return "contact:new"
}
