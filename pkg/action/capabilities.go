package action

import (
	"log/slog"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/link"
	"github.com/aretw0/arbor/pkg/ports"
)

// Capabilities is the closed set of collaborators an action type may reach.
// It is resolved once at the entry point and shared by every clone of a context.
// Any field may be nil; action types must check what they need.
type Capabilities struct {
	Contacts ports.ContactStore
	Events   ports.EventStore
	Mailer   ports.Mailer
	Links    *link.Codec
	Logger   *slog.Logger
}

// Log returns the configured logger, or a no-op logger.
func (c *Capabilities) Log() *slog.Logger {
	if c == nil || c.Logger == nil {
		return logging.NewNop()
	}
	return c.Logger
}

// Codec returns the configured link codec, or a codec rooted at "/".
func (c *Capabilities) Codec() *link.Codec {
	if c == nil || c.Links == nil {
		return link.NewCodec()
	}
	return c.Links
}

// ContactStore returns the contact store, or nil.
func (c *Capabilities) ContactStore() ports.ContactStore {
	if c == nil {
		return nil
	}
	return c.Contacts
}

// EventStore returns the event store, or nil.
func (c *Capabilities) EventStore() ports.EventStore {
	if c == nil {
		return nil
	}
	return c.Events
}

// MailSender returns the mailer, or nil.
func (c *Capabilities) MailSender() ports.Mailer {
	if c == nil {
		return nil
	}
	return c.Mailer
}
