package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/arbor/pkg/action"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// resolveContact matches the context's contact against the canonical store and merges it.
// A match replaces the contact with the merged canonical record (Modified if anything was filled in).
// A transient contact without a match is marked Added.
func (e *Engine) resolveContact(ctx context.Context, ec *action.ExecutionContext) error {
	incoming := ec.Contact()
	if incoming == nil {
		return nil
	}
	store := ec.Capabilities().ContactStore()
	if store == nil {
		return nil
	}

	canonical, err := lookupContact(ctx, store, incoming)
	if errors.Is(err, domain.ErrContactNotFound) {
		if incoming.ID <= 0 {
			ec.SetContactState(domain.ContactAdded)
		}
		e.logger.DebugContext(ctx, "contact not matched", "contact_id", incoming.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve contact: %w", err)
	}

	if mergeContact(canonical, incoming) {
		ec.SetContactState(domain.ContactModified)
	}
	ec.SetContact(canonical)
	e.logger.DebugContext(ctx, "contact resolved", "contact_id", canonical.ID, "state", ec.ContactState())
	return nil
}

// lookupContact tries the id, the social id, then the email address, stopping at the first match.
func lookupContact(ctx context.Context, store ports.ContactStore, c *domain.Contact) (*domain.Contact, error) {
	type lookup func() (*domain.Contact, error)
	var lookups []lookup

	if c.ID > 0 {
		lookups = append(lookups, func() (*domain.Contact, error) { return store.FindByID(ctx, c.ID) })
	}
	if c.SocialID != "" {
		lookups = append(lookups, func() (*domain.Contact, error) { return store.FindBySocialID(ctx, c.SocialID) })
	}
	if addr := c.EmailAddress(); addr != "" {
		lookups = append(lookups, func() (*domain.Contact, error) { return store.FindByEmail(ctx, addr) })
	}

	for _, find := range lookups {
		found, err := find()
		if err == nil && found != nil {
			return found, nil
		}
		if err != nil && !errors.Is(err, domain.ErrContactNotFound) {
			return nil, err
		}
	}
	return nil, domain.ErrContactNotFound
}

// mergeContact fills every empty field of dst with the value from src.
// Non-empty fields of dst are never overwritten. Composite fields merge sub-field by sub-field.
// Reports whether dst changed.
func mergeContact(dst, src *domain.Contact) bool {
	if src == nil {
		return false
	}
	changed := false

	fill := func(d *string, s string) {
		if *d == "" && s != "" {
			*d = s
			changed = true
		}
	}

	fill(&dst.SocialID, src.SocialID)
	fill(&dst.FirstName, src.FirstName)
	fill(&dst.LastName, src.LastName)
	fill(&dst.Company, src.Company)
	fill(&dst.City, src.City)
	fill(&dst.Country, src.Country)

	if dst.Gender == domain.GenderUnknown && src.Gender != domain.GenderUnknown {
		dst.Gender = src.Gender
		changed = true
	}

	if dst.Birthday == nil && src.Birthday != nil {
		b := *src.Birthday
		dst.Birthday = &b
		changed = true
	}

	if !src.Email.IsEmpty() {
		if dst.Email == nil {
			dst.Email = &domain.EmailAddress{}
		}
		fill(&dst.Email.Address, src.Email.Address)
		fill(&dst.Email.Name, src.Email.Name)
	}

	if !src.Phones.IsEmpty() {
		if dst.Phones == nil {
			dst.Phones = &domain.Phones{}
		}
		fill(&dst.Phones.Home, src.Phones.Home)
		fill(&dst.Phones.Work, src.Phones.Work)
		fill(&dst.Phones.Mobile, src.Phones.Mobile)
		fill(&dst.Phones.Fax, src.Phones.Fax)
	}

	if len(dst.Tags) == 0 && len(src.Tags) > 0 {
		dst.Tags = append([]string(nil), src.Tags...)
		changed = true
	}

	return changed
}
