package contacts_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/action"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/contacts"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_ApplyByState(t *testing.T) {
	store := memory.NewStore()
	mgr := contacts.NewManager(store)
	ctx := context.Background()

	added := &domain.Contact{FirstName: "Ann"}
	wrote, err := mgr.Apply(ctx, &action.Result{Contact: added, ContactState: domain.ContactAdded})
	require.NoError(t, err)
	assert.True(t, wrote)
	assert.Positive(t, added.ID, "saving a new contact assigns an id")

	added.City = "Porto"
	wrote, err = mgr.Apply(ctx, &action.Result{Contact: added, ContactState: domain.ContactModified})
	require.NoError(t, err)
	assert.True(t, wrote)
	got, err := store.FindByID(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, "Porto", got.City)

	wrote, err = mgr.Apply(ctx, &action.Result{Contact: added, ContactState: domain.ContactUnchanged})
	require.NoError(t, err)
	assert.False(t, wrote)

	wrote, err = mgr.Apply(ctx, &action.Result{Contact: added, ContactState: domain.ContactDeleted})
	require.NoError(t, err)
	assert.True(t, wrote)
	_, err = store.FindByID(ctx, added.ID)
	assert.ErrorIs(t, err, domain.ErrContactNotFound)
}

func TestManager_ApplyWithoutContact(t *testing.T) {
	mgr := contacts.NewManager(memory.NewStore())

	wrote, err := mgr.Apply(context.Background(), nil)
	assert.NoError(t, err)
	assert.False(t, wrote)

	wrote, err = mgr.Apply(context.Background(), &action.Result{ContactState: domain.ContactAdded})
	assert.NoError(t, err)
	assert.False(t, wrote)
}

// slowStore simulates IO latency and counts overlapping writes.
type slowStore struct {
	*memory.Store
	mu       sync.Mutex
	inFlight int
	overlap  bool
}

func (s *slowStore) Save(ctx context.Context, c *domain.Contact) error {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > 1 {
		s.overlap = true
	}
	s.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
	return s.Store.Save(ctx, c)
}

func TestManager_SerializesWritesPerContact(t *testing.T) {
	store := &slowStore{Store: memory.NewStore()}
	mgr := contacts.NewManager(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := &domain.Contact{ID: 42, FirstName: "Ann"}
			_, err := mgr.Apply(ctx, &action.Result{Contact: c, ContactState: domain.ContactModified})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.False(t, store.overlap, "writes to the same contact must not overlap")
}

type recordingLocker struct {
	mu       sync.Mutex
	keys     []string
	released int
	fail     error
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if l.fail != nil {
		return nil, l.fail
	}
	l.mu.Lock()
	l.keys = append(l.keys, key)
	l.mu.Unlock()
	return func(ctx context.Context) error {
		l.mu.Lock()
		l.released++
		l.mu.Unlock()
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &recordingLocker{}
	mgr := contacts.NewManager(memory.NewStore(), contacts.WithLocker(locker))

	_, err := mgr.Apply(context.Background(), &action.Result{
		Contact:      &domain.Contact{ID: 3},
		ContactState: domain.ContactModified,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"contact:3"}, locker.keys)
	assert.Equal(t, 1, locker.released)

	locker.fail = errors.New("redis down")
	_, err = mgr.Apply(context.Background(), &action.Result{
		Contact:      &domain.Contact{ID: 3},
		ContactState: domain.ContactModified,
	})
	assert.ErrorIs(t, err, locker.fail)
}
