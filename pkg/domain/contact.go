package domain

import (
	"strings"
	"time"
)

// Gender is an enumerated contact attribute. GenderUnknown counts as empty when merging.
type Gender string

const (
	GenderUnknown Gender = ""
	GenderFemale  Gender = "female"
	GenderMale    Gender = "male"
	GenderOther   Gender = "other"
)

// EmailAddress is a composite email value.
type EmailAddress struct {
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
}

// IsEmpty reports whether no sub-field is set.
func (e *EmailAddress) IsEmpty() bool {
	return e == nil || (e.Address == "" && e.Name == "")
}

// Phones groups the four phone numbers a contact may carry.
type Phones struct {
	Home   string `json:"home,omitempty" yaml:"home,omitempty"`
	Work   string `json:"work,omitempty" yaml:"work,omitempty"`
	Mobile string `json:"mobile,omitempty" yaml:"mobile,omitempty"`
	Fax    string `json:"fax,omitempty" yaml:"fax,omitempty"`
}

// IsEmpty reports whether no sub-field is set.
func (p *Phones) IsEmpty() bool {
	return p == nil || (p.Home == "" && p.Work == "" && p.Mobile == "" && p.Fax == "")
}

// Contact represents a visitor or lead.
// A contact with ID <= 0 is transient: it has not been matched against the store yet.
type Contact struct {
	ID       int32  `json:"id,omitempty" yaml:"id,omitempty"`
	SocialID string `json:"social_id,omitempty" yaml:"social_id,omitempty"`

	FirstName string        `json:"first_name,omitempty" yaml:"first_name,omitempty"`
	LastName  string        `json:"last_name,omitempty" yaml:"last_name,omitempty"`
	Email     *EmailAddress `json:"email,omitempty" yaml:"email,omitempty"`
	Phones    *Phones       `json:"phones,omitempty" yaml:"phones,omitempty"`
	Gender    Gender        `json:"gender,omitempty" yaml:"gender,omitempty"`
	Company   string        `json:"company,omitempty" yaml:"company,omitempty"`
	City      string        `json:"city,omitempty" yaml:"city,omitempty"`
	Country   string        `json:"country,omitempty" yaml:"country,omitempty"`
	Birthday  *time.Time    `json:"birthday,omitempty" yaml:"birthday,omitempty"`

	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// EmailAddress returns the normalized email address, or "" if none is set.
func (c *Contact) EmailAddress() string {
	if c == nil || c.Email == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(c.Email.Address))
}

// HasTag reports whether the contact carries the tag (case-insensitive).
func (c *Contact) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the contact.
func (c *Contact) Clone() *Contact {
	if c == nil {
		return nil
	}
	out := *c
	if c.Email != nil {
		email := *c.Email
		out.Email = &email
	}
	if c.Phones != nil {
		phones := *c.Phones
		out.Phones = &phones
	}
	if c.Birthday != nil {
		b := *c.Birthday
		out.Birthday = &b
	}
	if c.Tags != nil {
		out.Tags = append([]string(nil), c.Tags...)
	}
	return &out
}

// ContactState is the pending persistence classification of the contact in a run.
type ContactState int

const (
	ContactUnchanged ContactState = iota
	ContactModified
	ContactAdded
	ContactDeleted
)

func (s ContactState) String() string {
	switch s {
	case ContactModified:
		return "modified"
	case ContactAdded:
		return "added"
	case ContactDeleted:
		return "deleted"
	default:
		return "unchanged"
	}
}

// MarshalText encodes the state by name.
func (s ContactState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name; unknown names decode as ContactUnchanged.
func (s *ContactState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "modified":
		*s = ContactModified
	case "added":
		*s = ContactAdded
	case "deleted":
		*s = ContactDeleted
	default:
		*s = ContactUnchanged
	}
	return nil
}

// Next returns the state after requesting a transition to next.
// The state never regresses: Modified does not override Added or Deleted,
// and Unchanged never overrides anything.
func (s ContactState) Next(next ContactState) ContactState {
	switch next {
	case ContactUnchanged:
		return s
	case ContactModified:
		if s == ContactAdded || s == ContactDeleted {
			return s
		}
	}
	return next
}
