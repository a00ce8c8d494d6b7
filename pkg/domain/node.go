package domain

// Built-in action type tags.
const (
	// TypeLog records the audit event of a run.
	// The interpreter treats it specially: when no log node is visited, a synthetic one runs at the end.
	TypeLog = "log"
	// TypeRedirect stops the run with a redirect destination.
	TypeRedirect = "redirect"
	// TypeSetProperty writes a value into the run's property bag and continues.
	TypeSetProperty = "set-property"
	// TypeTag adds tags to the contact and continues.
	TypeTag = "tag"
	// TypeRequireContact denies the run when no identified contact is present.
	TypeRequireContact = "require-contact"
	// TypeSendMail sends a personalized message to the contact.
	TypeSendMail = "send-mail"
)

// ActionNode represents one configured step in an action tree.
// Trees are owned by the configuration source and are never modified by the engine.
type ActionNode struct {
	ID      int32  `json:"id" yaml:"id"`
	Type    string `json:"type" yaml:"type"`
	Enabled bool   `json:"enabled" yaml:"enabled"`

	// Anonymous marks nodes that were not configured by a user (e.g. the synthetic audit log).
	Anonymous bool `json:"anonymous,omitempty" yaml:"-"`

	// Options is the opaque per-type payload. Only the registered action type interprets it.
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty"`

	// Children are evaluated left to right when this node succeeds.
	Children []*ActionNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// HasChildren reports whether the node has at least one child.
func (n *ActionNode) HasChildren() bool {
	return n != nil && len(n.Children) > 0
}

// Walk visits the node and all of its descendants depth first.
// Returning false from fn stops the walk below the current node.
func (n *ActionNode) Walk(fn func(node *ActionNode, depth int) bool) {
	n.walk(fn, 0)
}

func (n *ActionNode) walk(fn func(node *ActionNode, depth int) bool, depth int) {
	if n == nil {
		return
	}
	if !fn(n, depth) {
		return
	}
	for _, child := range n.Children {
		child.walk(fn, depth+1)
	}
}

// Find returns the node with the given id inside the tree rooted at n.
func (n *ActionNode) Find(id int32) *ActionNode {
	var found *ActionNode
	n.Walk(func(node *ActionNode, _ int) bool {
		if found != nil {
			return false
		}
		if node.ID == id {
			found = node
			return false
		}
		return true
	})
	return found
}
