package ports

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// ContactStore is the canonical source of contacts.
type ContactStore interface {
	// FindByID returns the contact with the given id.
	// Returns domain.ErrContactNotFound if no contact matches.
	FindByID(ctx context.Context, id int32) (*domain.Contact, error)

	// FindBySocialID returns the contact linked to an external social id.
	// Returns domain.ErrContactNotFound if no contact matches.
	FindBySocialID(ctx context.Context, socialID string) (*domain.Contact, error)

	// FindByEmail returns the contact owning the email address (case-insensitive).
	// Returns domain.ErrContactNotFound if no contact matches.
	FindByEmail(ctx context.Context, address string) (*domain.Contact, error)

	// Save inserts or updates the contact. Contacts with ID <= 0 receive a new id,
	// which is written back into the given value.
	Save(ctx context.Context, contact *domain.Contact) error

	// Delete removes the contact. Deleting a missing contact is not an error.
	Delete(ctx context.Context, id int32) error
}

// EventStore persists audit events.
type EventStore interface {
	// Append stores an event.
	Append(ctx context.Context, event *domain.Event) error

	// List returns stored events, oldest first.
	List(ctx context.Context) ([]*domain.Event, error)
}

// Message is an outgoing email produced by a mail action.
type Message struct {
	To      domain.EmailAddress `json:"to"`
	Subject string              `json:"subject"`
	Body    string              `json:"body"`
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
