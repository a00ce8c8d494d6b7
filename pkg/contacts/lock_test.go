package contacts

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/arbor/pkg/action"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()

	for i := 1; i <= 1000; i++ {
		c := &domain.Contact{ID: int32(i), FirstName: fmt.Sprintf("c%d", i)}
		_, err := mgr.Apply(ctx, &action.Result{Contact: c, ContactState: domain.ContactAdded})
		require.NoError(t, err)
		_, err = mgr.Apply(ctx, &action.Result{Contact: c, ContactState: domain.ContactDeleted})
		require.NoError(t, err)
	}

	assert.Empty(t, mgr.locks, "lock entries must be released once unused")
}

func TestLockKey(t *testing.T) {
	assert.Equal(t, "contact:7", lockKey(&domain.Contact{ID: 7, SocialID: "x"}))
	assert.Equal(t, "email:ann@example.com", lockKey(&domain.Contact{Email: &domain.EmailAddress{Address: " Ann@Example.com"}}))
	assert.Equal(t, "social:fb:1", lockKey(&domain.Contact{SocialID: "fb:1"}))
	assert.Equal(t, "contact:new", lockKey(&domain.Contact{}))
}
