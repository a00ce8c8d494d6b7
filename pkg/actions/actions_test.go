package actions_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/arbor/pkg/action"
	"github.com/aretw0/arbor/pkg/actions"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/link"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nodeWith(typ string, opts map[string]any) *domain.ActionNode {
	return &domain.ActionNode{ID: 5, Type: typ, Enabled: true, Options: opts}
}

func run(t *testing.T, impl action.Type, ec *action.ExecutionContext) *action.Result {
	t.Helper()
	res, err := impl.Execute(context.Background(), ec)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func TestRegisterDefaults(t *testing.T) {
	reg := registry.NewRegistry()
	actions.RegisterDefaults(reg)

	for _, tag := range []string{
		domain.TypeLog,
		domain.TypeRedirect,
		domain.TypeSetProperty,
		domain.TypeTag,
		domain.TypeRequireContact,
		domain.TypeSendMail,
	} {
		_, ok := reg.Lookup(tag)
		assert.True(t, ok, "missing built-in %q", tag)
	}
}

func TestLog_RecordsOncePerRun(t *testing.T) {
	events := memory.NewEventStore()
	caps := &action.Capabilities{Events: events}
	ec := action.NewContext(nodeWith(domain.TypeLog, map[string]any{"category": "click"}),
		action.WithCapabilities(caps),
		action.WithContact(&domain.Contact{ID: 9}),
		action.WithAnonymousID("anon"),
	)
	ec.SetProperty("step", 1)

	res := run(t, actions.Log{}, ec)
	assert.Equal(t, domain.StatusSuccess, res.Status)

	// A second log node in the same run does not record a second event.
	run(t, actions.Log{}, ec.WithNode(nodeWith(domain.TypeLog, nil)))

	logged, err := events.List(context.Background())
	require.NoError(t, err)
	require.Len(t, logged, 1)
	ev := logged[0]
	assert.Equal(t, int32(5), ev.NodeID)
	assert.Equal(t, int32(9), ev.ContactID)
	assert.Equal(t, "anon", ev.AnonymousID)
	assert.Equal(t, "click", ev.Properties["category"])
	assert.Equal(t, 1, ev.Properties["step"])
	assert.False(t, ev.LoggedAt.IsZero())
	assert.NotEmpty(t, ev.ID)
}

type failingEvents struct{}

func (failingEvents) Append(ctx context.Context, e *domain.Event) error { return errors.New("disk full") }
func (failingEvents) List(ctx context.Context) ([]*domain.Event, error) { return nil, nil }

func TestLog_StoreFailureIsAnError(t *testing.T) {
	ec := action.NewContext(nodeWith(domain.TypeLog, nil),
		action.WithCapabilities(&action.Capabilities{Events: failingEvents{}}))

	_, err := actions.Log{}.Execute(context.Background(), ec)
	assert.ErrorContains(t, err, "disk full")
}

func TestRedirect(t *testing.T) {
	t.Run("plain url", func(t *testing.T) {
		res := run(t, actions.Redirect{}, action.NewContext(nodeWith(domain.TypeRedirect, map[string]any{"url": " https://example.com/x "})))
		assert.Equal(t, domain.StatusSuccess, res.Status)
		assert.Equal(t, "https://example.com/x", res.Redirect)
		assert.True(t, res.IsTerminal())
	})

	t.Run("empty url fails", func(t *testing.T) {
		res := run(t, actions.Redirect{}, action.NewContext(nodeWith(domain.TypeRedirect, nil)))
		assert.Equal(t, domain.StatusFailed, res.Status)
		assert.Len(t, res.Errors, 1)
	})

	t.Run("links are personalized", func(t *testing.T) {
		ec := action.NewContext(
			nodeWith(domain.TypeRedirect, map[string]any{"url": "https://example.com/a.0.42/offer"}),
			action.WithContact(&domain.Contact{ID: 7}),
		)
		res := run(t, actions.Redirect{}, ec)
		want := link.Encode(link.Link{ActionID: 42, ContactID: 7, CustomURI: "offer"})
		assert.Equal(t, "https://example.com/a."+want, res.Redirect)
	})
}

func TestSetProperty(t *testing.T) {
	ec := action.NewContext(nodeWith(domain.TypeSetProperty, map[string]any{"key": "campaign", "value": "spring"}))
	res := run(t, actions.SetProperty{}, ec)

	assert.Equal(t, domain.StatusSuccess, res.Status)
	assert.Empty(t, res.Redirect)
	v, ok := ec.Property("campaign")
	assert.True(t, ok)
	assert.Equal(t, "spring", v)

	res = run(t, actions.SetProperty{}, action.NewContext(nodeWith(domain.TypeSetProperty, map[string]any{"value": 1})))
	assert.Equal(t, domain.StatusFailed, res.Status)
}

func TestTag(t *testing.T) {
	contact := &domain.Contact{ID: 3, Tags: []string{"old"}}
	ec := action.NewContext(nodeWith(domain.TypeTag, map[string]any{"tags": []any{"old", "new", " "}}),
		action.WithContact(contact))

	res := run(t, actions.Tag{}, ec)

	assert.Equal(t, domain.StatusSuccess, res.Status)
	assert.Equal(t, []string{"old", "new"}, contact.Tags)
	assert.Equal(t, domain.ContactModified, res.ContactState)

	res = run(t, actions.Tag{}, action.NewContext(nodeWith(domain.TypeTag, map[string]any{"tags": []string{"x"}})))
	assert.Equal(t, domain.StatusFailed, res.Status, "tagging needs a contact")
}

func TestTag_NoChangeKeepsState(t *testing.T) {
	ec := action.NewContext(nodeWith(domain.TypeTag, map[string]any{"tags": []string{"old"}}),
		action.WithContact(&domain.Contact{ID: 3, Tags: []string{"old"}}))

	res := run(t, actions.Tag{}, ec)
	assert.Equal(t, domain.ContactUnchanged, res.ContactState)
}

func TestRequireContact(t *testing.T) {
	tests := []struct {
		name    string
		contact *domain.Contact
		opts    map[string]any
		want    domain.Status
	}{
		{"no contact", nil, nil, domain.StatusForbidden},
		{"anonymous transient contact", &domain.Contact{FirstName: "x"}, nil, domain.StatusForbidden},
		{"known id", &domain.Contact{ID: 1}, nil, domain.StatusSuccess},
		{"email only", &domain.Contact{Email: &domain.EmailAddress{Address: "a@b.com"}}, nil, domain.StatusSuccess},
		{"missing tag", &domain.Contact{ID: 1}, map[string]any{"tag": "vip"}, domain.StatusForbidden},
		{"has tag", &domain.Contact{ID: 1, Tags: []string{"vip"}}, map[string]any{"tag": "vip"}, domain.StatusSuccess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ec := action.NewContext(nodeWith(domain.TypeRequireContact, tt.opts), action.WithContact(tt.contact))
			res := run(t, actions.RequireContact{}, ec)
			assert.Equal(t, tt.want, res.Status)
		})
	}
}

type failingMailer struct{}

func (failingMailer) Send(ctx context.Context, msg ports.Message) error { return errors.New("smtp down") }

func TestSendMail(t *testing.T) {
	outbox := memory.NewOutbox()
	codec := link.NewCodec(link.WithBaseURL("https://go.example.com"))
	caps := &action.Capabilities{Mailer: outbox, Links: codec}
	contact := &domain.Contact{ID: 12, Email: &domain.EmailAddress{Address: "ann@example.com", Name: "Ann"}}

	ec := action.NewContext(nodeWith(domain.TypeSendMail, map[string]any{
		"subject": "Hello",
		"body":    "Open https://go.example.com/a.0.42/offer today",
	}), action.WithCapabilities(caps), action.WithContact(contact))

	res := run(t, actions.SendMail{}, ec)
	assert.Equal(t, domain.StatusSuccess, res.Status)

	msgs := outbox.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "ann@example.com", msgs[0].To.Address)
	assert.Equal(t, "Hello", msgs[0].Subject)

	personalized := "a." + link.Encode(link.Link{ActionID: 42, ContactID: 12, CustomURI: "offer"})
	assert.Contains(t, msgs[0].Body, personalized)

	l, err := codec.DecodeLink("https://go.example.com/" + personalized)
	require.NoError(t, err)
	assert.Equal(t, int32(12), l.ContactID)
}

func TestSendMail_Failures(t *testing.T) {
	contact := &domain.Contact{ID: 1, Email: &domain.EmailAddress{Address: "a@b.com"}}
	node := nodeWith(domain.TypeSendMail, map[string]any{"subject": "s", "body": "b"})

	res := run(t, actions.SendMail{}, action.NewContext(node, action.WithContact(contact)))
	assert.Equal(t, domain.StatusFailed, res.Status, "no mailer configured")

	res = run(t, actions.SendMail{}, action.NewContext(node,
		action.WithCapabilities(&action.Capabilities{Mailer: memory.NewOutbox()}),
		action.WithContact(&domain.Contact{ID: 1})))
	assert.Equal(t, domain.StatusFailed, res.Status, "no email address")

	_, err := actions.SendMail{}.Execute(context.Background(), action.NewContext(node,
		action.WithCapabilities(&action.Capabilities{Mailer: failingMailer{}}),
		action.WithContact(contact)))
	assert.ErrorContains(t, err, "smtp down")
}

func TestOptions_InvalidPayload(t *testing.T) {
	res := run(t, actions.Tag{}, action.NewContext(
		nodeWith(domain.TypeTag, map[string]any{"tags": map[string]any{"nested": true}}),
		action.WithContact(&domain.Contact{ID: 1}),
	))
	assert.Equal(t, domain.StatusFailed, res.Status)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Error(), "invalid options for node 5")
}
