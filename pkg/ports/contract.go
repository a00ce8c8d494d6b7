package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunContactStoreContract runs a suite of tests to verify that a ContactStore implementation
// adheres to the defined interface contract.
func RunContactStoreContract(t *testing.T, store ContactStore) {
	ctx := context.Background()
	suffix := time.Now().Format("20060102150405.000000000")

	t.Run("Save assigns id and FindByID loads it", func(t *testing.T) {
		c := &domain.Contact{FirstName: "Ann", Email: &domain.EmailAddress{Address: "ann-" + suffix + "@example.com"}}
		require.NoError(t, store.Save(ctx, c))
		require.Greater(t, c.ID, int32(0), "Save should assign a positive id")

		loaded, err := store.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ann", loaded.FirstName)
		assert.Equal(t, c.Email.Address, loaded.Email.Address)
	})

	t.Run("Save updates existing contact", func(t *testing.T) {
		c := &domain.Contact{FirstName: "Bob"}
		require.NoError(t, store.Save(ctx, c))
		id := c.ID

		c.LastName = "Builder"
		require.NoError(t, store.Save(ctx, c))
		assert.Equal(t, id, c.ID, "Update must keep the id")

		loaded, err := store.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Builder", loaded.LastName)
	})

	t.Run("FindBySocialID", func(t *testing.T) {
		c := &domain.Contact{SocialID: "fb:" + suffix}
		require.NoError(t, store.Save(ctx, c))

		loaded, err := store.FindBySocialID(ctx, "fb:"+suffix)
		require.NoError(t, err)
		assert.Equal(t, c.ID, loaded.ID)
	})

	t.Run("FindByEmail is case-insensitive", func(t *testing.T) {
		addr := "Mixed.Case-" + suffix + "@Example.com"
		c := &domain.Contact{Email: &domain.EmailAddress{Address: addr}}
		require.NoError(t, store.Save(ctx, c))

		loaded, err := store.FindByEmail(ctx, "mixed.case-"+suffix+"@example.com")
		require.NoError(t, err)
		assert.Equal(t, c.ID, loaded.ID)
	})

	t.Run("Lookups of missing contacts", func(t *testing.T) {
		_, err := store.FindByID(ctx, 1<<30)
		assert.ErrorIs(t, err, domain.ErrContactNotFound)
		_, err = store.FindBySocialID(ctx, "missing-"+suffix)
		assert.ErrorIs(t, err, domain.ErrContactNotFound)
		_, err = store.FindByEmail(ctx, "missing-"+suffix+"@example.com")
		assert.ErrorIs(t, err, domain.ErrContactNotFound)
	})

	t.Run("Returned contacts are isolated copies", func(t *testing.T) {
		c := &domain.Contact{FirstName: "Iso"}
		require.NoError(t, store.Save(ctx, c))

		loaded, err := store.FindByID(ctx, c.ID)
		require.NoError(t, err)
		loaded.FirstName = "Mutated"

		again, err := store.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "Iso", again.FirstName)
	})

	t.Run("Delete", func(t *testing.T) {
		addr := "gone-" + suffix + "@example.com"
		c := &domain.Contact{SocialID: "gone:" + suffix, Email: &domain.EmailAddress{Address: addr}}
		require.NoError(t, store.Save(ctx, c))

		require.NoError(t, store.Delete(ctx, c.ID))

		_, err := store.FindByID(ctx, c.ID)
		assert.ErrorIs(t, err, domain.ErrContactNotFound)
		_, err = store.FindBySocialID(ctx, "gone:"+suffix)
		assert.ErrorIs(t, err, domain.ErrContactNotFound, "Delete must drop the social id index")
		_, err = store.FindByEmail(ctx, addr)
		assert.ErrorIs(t, err, domain.ErrContactNotFound, "Delete must drop the email index")

		assert.NoError(t, store.Delete(ctx, c.ID), "Deleting twice is not an error")
	})

	t.Run("Explicit id then new contact does not collide", func(t *testing.T) {
		first := &domain.Contact{FirstName: "Seed"}
		require.NoError(t, store.Save(ctx, first))

		imported := &domain.Contact{ID: first.ID + 1000, FirstName: "Imported"}
		require.NoError(t, store.Save(ctx, imported))
		assert.Equal(t, first.ID+1000, imported.ID, "Save must keep an explicit id")

		fresh := &domain.Contact{FirstName: "New"}
		require.NoError(t, store.Save(ctx, fresh))
		assert.Greater(t, fresh.ID, imported.ID, "new ids must not reuse explicit ones")

		loaded, err := store.FindByID(ctx, imported.ID)
		require.NoError(t, err)
		assert.Equal(t, "Imported", loaded.FirstName)
	})
}

// RunEventStoreContract verifies that an EventStore implementation adheres to the interface contract.
func RunEventStoreContract(t *testing.T, store EventStore) {
	ctx := context.Background()

	t.Run("Append and List keep order", func(t *testing.T) {
		before, err := store.List(ctx)
		require.NoError(t, err)

		first := &domain.Event{ID: "01-contract-first", ActionID: 1, ContactID: 7, CreatedAt: time.Now().UTC()}
		second := &domain.Event{ID: "02-contract-second", ActionID: 2, Anonymous: true, CreatedAt: time.Now().UTC()}
		require.NoError(t, store.Append(ctx, first))
		require.NoError(t, store.Append(ctx, second))

		events, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, events, len(before)+2)

		got := events[len(before):]
		assert.Equal(t, first.ID, got[0].ID)
		assert.Equal(t, int32(7), got[0].ContactID)
		assert.Equal(t, second.ID, got[1].ID)
		assert.True(t, got[1].Anonymous)
	})
}
