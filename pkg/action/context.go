package action

import (
	"crypto/rand"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/oklog/ulid/v2"
)

// RunState is the storage shared by every clone of an ExecutionContext within one run.
// Clones hold the same *RunState, so writes by one node are visible to every later node.
// A run is confined to one goroutine; RunState is not safe for concurrent use.
type RunState struct {
	properties map[string]any
	errors     []error
	event      *domain.Event
	logSeen    bool
}

// NewRunState creates the shared state of a run, including a fresh audit event.
func NewRunState(rootID int32) *RunState {
	now := time.Now().UTC()
	return &RunState{
		properties: make(map[string]any),
		event: &domain.Event{
			ID:        ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
			ActionID:  rootID,
			CreatedAt: now,
		},
	}
}

// ExecutionContext is the state one node sees during a run.
//
// Capabilities, root, identity and anonymous id are fixed for the run. Node, contact and
// contact state belong to each clone. Properties, errors, the audit event and the
// "log seen" flag live in the shared RunState.
type ExecutionContext struct {
	caps        *Capabilities
	root        *domain.ActionNode
	identity    string
	anonymousID string

	node         *domain.ActionNode
	contact      *domain.Contact
	contactState domain.ContactState

	run *RunState
}

// ContextOption configures a new ExecutionContext.
type ContextOption func(*ExecutionContext)

// WithCapabilities attaches the collaborator set action types may use.
func WithCapabilities(caps *Capabilities) ContextOption {
	return func(ec *ExecutionContext) {
		ec.caps = caps
	}
}

// WithIdentity sets the identity token of the caller (e.g. an authenticated session).
func WithIdentity(identity string) ContextOption {
	return func(ec *ExecutionContext) {
		ec.identity = identity
	}
}

// WithAnonymousID sets the anonymous visitor id (e.g. from a tracking cookie).
func WithAnonymousID(id string) ContextOption {
	return func(ec *ExecutionContext) {
		ec.anonymousID = id
	}
}

// WithContact sets the contact the run starts with. A contact with ID <= 0 is transient
// and is resolved against the contact store before the root node runs.
func WithContact(c *domain.Contact) ContextOption {
	return func(ec *ExecutionContext) {
		ec.contact = c
	}
}

// WithProperties seeds the shared property bag.
func WithProperties(props map[string]any) ContextOption {
	return func(ec *ExecutionContext) {
		for k, v := range props {
			ec.run.properties[k] = v
		}
	}
}

// NewContext creates the context of a new run pointing at the root node.
func NewContext(root *domain.ActionNode, opts ...ContextOption) *ExecutionContext {
	var rootID int32
	if root != nil {
		rootID = root.ID
	}
	ec := &ExecutionContext{
		root: root,
		node: root,
		run:  NewRunState(rootID),
	}
	for _, opt := range opts {
		opt(ec)
	}

	ec.run.event.AnonymousID = ec.anonymousID
	ec.run.event.Identity = ec.identity
	return ec
}

// WithNode returns a clone of the context pointing at node.
// Per-node fields are copied; the RunState is shared.
func (ec *ExecutionContext) WithNode(node *domain.ActionNode) *ExecutionContext {
	clone := *ec
	clone.node = node
	return &clone
}

// Capabilities returns the collaborator set, or nil if none was attached.
func (ec *ExecutionContext) Capabilities() *Capabilities { return ec.caps }

// SetCapabilities attaches a collaborator set to this context.
func (ec *ExecutionContext) SetCapabilities(caps *Capabilities) { ec.caps = caps }

// Root returns the root of the tree being executed.
func (ec *ExecutionContext) Root() *domain.ActionNode { return ec.root }

// Node returns the node being evaluated.
func (ec *ExecutionContext) Node() *domain.ActionNode { return ec.node }

// Identity returns the identity token of the run.
func (ec *ExecutionContext) Identity() string { return ec.identity }

// AnonymousID returns the anonymous visitor id of the run.
func (ec *ExecutionContext) AnonymousID() string { return ec.anonymousID }

// Contact returns the contact, which may be nil.
func (ec *ExecutionContext) Contact() *domain.Contact { return ec.contact }

// SetContact replaces the contact of this context.
func (ec *ExecutionContext) SetContact(c *domain.Contact) { ec.contact = c }

// ContactState returns the pending persistence classification of the contact.
func (ec *ExecutionContext) ContactState() domain.ContactState { return ec.contactState }

// SetContactState requests a state transition. Modified never overrides Added or Deleted.
func (ec *ExecutionContext) SetContactState(s domain.ContactState) {
	ec.contactState = ec.contactState.Next(s)
}

// Property returns a value from the shared property bag.
func (ec *ExecutionContext) Property(key string) (any, bool) {
	v, ok := ec.run.properties[key]
	return v, ok
}

// SetProperty writes a value into the shared property bag.
func (ec *ExecutionContext) SetProperty(key string, value any) {
	ec.run.properties[key] = value
}

// Properties returns a copy of the shared property bag.
func (ec *ExecutionContext) Properties() map[string]any {
	out := make(map[string]any, len(ec.run.properties))
	for k, v := range ec.run.properties {
		out[k] = v
	}
	return out
}

// AddError records a non-fatal error on the run.
func (ec *ExecutionContext) AddError(err error) {
	if err == nil {
		return
	}
	ec.run.errors = append(ec.run.errors, err)
}

// Errors returns the errors recorded so far.
func (ec *ExecutionContext) Errors() []error {
	return append([]error(nil), ec.run.errors...)
}

// Event returns the audit event being built for the run.
func (ec *ExecutionContext) Event() *domain.Event { return ec.run.event }

// LogSeen reports whether a log node was visited in this run.
func (ec *ExecutionContext) LogSeen() bool {
	return ec.run.logSeen
}

// MarkLogSeen records that a log node was visited.
func (ec *ExecutionContext) MarkLogSeen() {
	ec.run.logSeen = true
}

// SharesRunWith reports whether both contexts belong to the same run.
func (ec *ExecutionContext) SharesRunWith(other *ExecutionContext) bool {
	return other != nil && ec.run == other.run
}
