package actions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/arbor/pkg/action"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/link"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/registry"
)

// RegisterDefaults registers every built-in action type.
func RegisterDefaults(reg *registry.Registry) {
	reg.Register(domain.TypeLog, Log{}, registry.Metadata{
		Name:        "Log",
		Description: "Records the audit event of the run.",
		Category:    "audit",
	})
	reg.Register(domain.TypeRedirect, Redirect{}, registry.Metadata{
		Name:        "Redirect",
		Description: "Ends the run and sends the visitor to a URL.",
		Category:    "navigation",
	})
	reg.Register(domain.TypeSetProperty, SetProperty{}, registry.Metadata{
		Name:        "Set property",
		Description: "Stores a value in the run's property bag.",
		Category:    "data",
	})
	reg.Register(domain.TypeTag, Tag{}, registry.Metadata{
		Name:        "Tag contact",
		Description: "Adds tags to the contact.",
		Category:    "contact",
	})
	reg.Register(domain.TypeRequireContact, RequireContact{}, registry.Metadata{
		Name:        "Require contact",
		Description: "Denies the run unless an identified contact is present.",
		Category:    "access",
	})
	reg.Register(domain.TypeSendMail, SendMail{}, registry.Metadata{
		Name:        "Send mail",
		Description: "Sends a personalized message to the contact.",
		Category:    "messaging",
	})
}

// Log completes the run's audit event and appends it to the event store.
// The event is recorded at most once per run.
type Log struct{}

type logOptions struct {
	Category string `mapstructure:"category"`
}

func (Log) Execute(ctx context.Context, ec *action.ExecutionContext) (*action.Result, error) {
	var opts logOptions
	if err := decodeOptions(ec.Node(), &opts); err != nil {
		ec.AddError(err)
		return ec.Failed(), nil
	}

	ev := ec.Event()
	if !ev.LoggedAt.IsZero() {
		return ec.Success(), nil
	}

	node := ec.Node()
	ev.NodeID = node.ID
	ev.Anonymous = node.Anonymous
	if c := ec.Contact(); c != nil {
		ev.ContactID = c.ID
	}
	ev.Properties = ec.Properties()
	if opts.Category != "" {
		ev.Properties["category"] = opts.Category
	}
	ev.LoggedAt = time.Now().UTC()

	if events := ec.Capabilities().EventStore(); events != nil {
		if err := events.Append(ctx, ev); err != nil {
			return nil, fmt.Errorf("append event: %w", err)
		}
	}
	ec.Capabilities().Log().DebugContext(ctx, "event logged", "event_id", ev.ID, "node_id", node.ID, "anonymous", node.Anonymous)
	return ec.Success(), nil
}

// Redirect ends the run with a destination URL.
// Action links inside the URL are personalized with the current contact.
type Redirect struct{}

type redirectOptions struct {
	URL string `mapstructure:"url"`
}

func (Redirect) Execute(ctx context.Context, ec *action.ExecutionContext) (*action.Result, error) {
	var opts redirectOptions
	if err := decodeOptions(ec.Node(), &opts); err != nil {
		ec.AddError(err)
		return ec.Failed(), nil
	}
	dest := strings.TrimSpace(opts.URL)
	if dest == "" {
		ec.AddError(fmt.Errorf("redirect node %d has no url", ec.Node().ID))
		return ec.Failed(), nil
	}
	if c := ec.Contact(); c != nil && c.ID > 0 {
		dest = ec.Capabilities().Codec().ReplaceLinks(dest, func(l *link.Link) {
			l.ContactID = c.ID
		})
	}
	return ec.RedirectTo(dest), nil
}

// SetProperty stores a value in the shared property bag and continues.
type SetProperty struct{}

type setPropertyOptions struct {
	Key   string `mapstructure:"key"`
	Value any    `mapstructure:"value"`
}

func (SetProperty) Execute(ctx context.Context, ec *action.ExecutionContext) (*action.Result, error) {
	var opts setPropertyOptions
	if err := decodeOptions(ec.Node(), &opts); err != nil {
		ec.AddError(err)
		return ec.Failed(), nil
	}
	if opts.Key == "" {
		ec.AddError(fmt.Errorf("set-property node %d has no key", ec.Node().ID))
		return ec.Failed(), nil
	}
	ec.SetProperty(opts.Key, opts.Value)
	return ec.Success(), nil
}

// Tag adds tags to the contact and continues.
type Tag struct{}

type tagOptions struct {
	Tags []string `mapstructure:"tags"`
}

func (Tag) Execute(ctx context.Context, ec *action.ExecutionContext) (*action.Result, error) {
	var opts tagOptions
	if err := decodeOptions(ec.Node(), &opts); err != nil {
		ec.AddError(err)
		return ec.Failed(), nil
	}
	c := ec.Contact()
	if c == nil {
		return ec.Failed(), nil
	}

	added := false
	for _, tag := range opts.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || c.HasTag(tag) {
			continue
		}
		c.Tags = append(c.Tags, tag)
		added = true
	}
	if added {
		ec.SetContactState(domain.ContactModified)
	}
	return ec.Success(), nil
}

// RequireContact denies the run unless an identified contact is present.
// With the tag option, the contact must also carry that tag.
type RequireContact struct{}

type requireContactOptions struct {
	Tag string `mapstructure:"tag"`
}

func (RequireContact) Execute(ctx context.Context, ec *action.ExecutionContext) (*action.Result, error) {
	var opts requireContactOptions
	if err := decodeOptions(ec.Node(), &opts); err != nil {
		ec.AddError(err)
		return ec.Failed(), nil
	}
	c := ec.Contact()
	if c == nil || (c.ID <= 0 && c.EmailAddress() == "") {
		return ec.Forbidden(), nil
	}
	if opts.Tag != "" && !c.HasTag(opts.Tag) {
		return ec.Forbidden(), nil
	}
	return ec.Success(), nil
}

// SendMail sends a message to the contact. Every action link in the body is
// rewritten to carry the contact id.
type SendMail struct{}

type sendMailOptions struct {
	Subject string `mapstructure:"subject"`
	Body    string `mapstructure:"body"`
}

func (SendMail) Execute(ctx context.Context, ec *action.ExecutionContext) (*action.Result, error) {
	var opts sendMailOptions
	if err := decodeOptions(ec.Node(), &opts); err != nil {
		ec.AddError(err)
		return ec.Failed(), nil
	}
	c := ec.Contact()
	if c == nil || c.EmailAddress() == "" {
		return ec.Failed(), nil
	}
	mailer := ec.Capabilities().MailSender()
	if mailer == nil {
		ec.AddError(fmt.Errorf("send-mail node %d: no mailer configured", ec.Node().ID))
		return ec.Failed(), nil
	}

	body := ec.Capabilities().Codec().ReplaceLinks(opts.Body, func(l *link.Link) {
		l.ContactID = c.ID
	})
	msg := ports.Message{
		To:      domain.EmailAddress{Address: c.Email.Address, Name: c.Email.Name},
		Subject: opts.Subject,
		Body:    body,
	}
	if err := mailer.Send(ctx, msg); err != nil {
		return nil, fmt.Errorf("send mail: %w", err)
	}
	return ec.Success(), nil
}
