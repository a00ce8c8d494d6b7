package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/arbor/pkg/action"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureContact registers an action type that records the contact it sees.
func captureContact(f *fixture) *[]*domain.Contact {
	var seen []*domain.Contact
	f.registry.Register("capture", action.Func(func(ctx context.Context, ec *action.ExecutionContext) (*action.Result, error) {
		seen = append(seen, ec.Contact())
		return ec.Success(), nil
	}), registry.Metadata{})
	return &seen
}

func TestEngine_ResolvesAndMergesByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	canonical := &domain.Contact{FirstName: "Ann"}
	require.NoError(t, f.contacts.Save(ctx, canonical))
	seen := captureContact(f)

	incoming := &domain.Contact{
		ID:        canonical.ID,
		FirstName: "Annie",
		Email:     &domain.EmailAddress{Address: "a@b.com"},
	}
	res := f.run(t, node(1, "capture"), action.WithContact(incoming))

	require.Len(t, *seen, 1)
	got := (*seen)[0]
	assert.Equal(t, "Ann", got.FirstName, "non-empty canonical fields are never overwritten")
	require.NotNil(t, got.Email)
	assert.Equal(t, "a@b.com", got.Email.Address)
	assert.Equal(t, domain.ContactModified, res.ContactState)
	assert.Same(t, got, res.Contact)
}

func TestEngine_ResolvesBySocialThenEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	social := &domain.Contact{SocialID: "fb:1", FirstName: "Social"}
	byMail := &domain.Contact{Email: &domain.EmailAddress{Address: "mail@example.com"}, FirstName: "Mail"}
	require.NoError(t, f.contacts.Save(ctx, social))
	require.NoError(t, f.contacts.Save(ctx, byMail))
	seen := captureContact(f)

	// Social id wins over email when both match.
	f.run(t, node(1, "capture"), action.WithContact(&domain.Contact{
		SocialID: "fb:1",
		Email:    &domain.EmailAddress{Address: "mail@example.com"},
	}))
	// An unknown social id falls through to the email lookup.
	f.run(t, node(1, "capture"), action.WithContact(&domain.Contact{
		SocialID: "fb:unknown",
		Email:    &domain.EmailAddress{Address: "MAIL@example.com"},
	}))

	require.Len(t, *seen, 2)
	assert.Equal(t, social.ID, (*seen)[0].ID)
	assert.Equal(t, byMail.ID, (*seen)[1].ID)
	assert.Equal(t, "fb:unknown", (*seen)[1].SocialID, "empty canonical social id is filled in")
}

func TestEngine_UnmatchedTransientContactIsAdded(t *testing.T) {
	f := newFixture(t)
	seen := captureContact(f)
	incoming := &domain.Contact{Email: &domain.EmailAddress{Address: "new@example.com"}}

	res := f.run(t, node(1, "capture"), action.WithContact(incoming))

	assert.Equal(t, domain.ContactAdded, res.ContactState)
	assert.Same(t, incoming, (*seen)[0])
}

func TestEngine_UnchangedWhenNothingToFill(t *testing.T) {
	f := newFixture(t)
	canonical := &domain.Contact{FirstName: "Ann"}
	require.NoError(t, f.contacts.Save(context.Background(), canonical))

	res := f.run(t, node(1, "pass"), action.WithContact(&domain.Contact{ID: canonical.ID}))

	assert.Equal(t, domain.ContactUnchanged, res.ContactState)
	assert.Equal(t, canonical.ID, res.Contact.ID)
}

type brokenStore struct{}

var errStoreDown = errors.New("store unavailable")

func (brokenStore) FindByID(ctx context.Context, id int32) (*domain.Contact, error) {
	return nil, errStoreDown
}
func (brokenStore) FindBySocialID(ctx context.Context, s string) (*domain.Contact, error) {
	return nil, errStoreDown
}
func (brokenStore) FindByEmail(ctx context.Context, a string) (*domain.Contact, error) {
	return nil, errStoreDown
}
func (brokenStore) Save(ctx context.Context, c *domain.Contact) error { return errStoreDown }
func (brokenStore) Delete(ctx context.Context, id int32) error     { return errStoreDown }

func TestEngine_StoreFailureFaultsRun(t *testing.T) {
	f := newFixture(t)
	ec := action.NewContext(node(1, "count"),
		action.WithCapabilities(&action.Capabilities{Contacts: brokenStore{}}),
		action.WithContact(&domain.Contact{ID: 4}),
	)

	res, err := f.engine.Execute(context.Background(), ec)

	assert.Nil(t, res)
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, 0, f.calls["count"], "no node runs when contact resolution fails")
}
