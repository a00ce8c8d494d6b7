package dsl

import "github.com/aretw0/arbor/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node and its children.
type NodeBuilder struct {
	node   *domain.ActionNode
	parent *NodeBuilder
}

func newNode(id int32, typ string, parent *NodeBuilder) *NodeBuilder {
	return &NodeBuilder{
		node:   &domain.ActionNode{ID: id, Type: typ, Enabled: true},
		parent: parent,
	}
}

// Option sets one entry of the node's options payload.
func (n *NodeBuilder) Option(key string, value any) *NodeBuilder {
	if n.node.Options == nil {
		n.node.Options = make(map[string]any)
	}
	n.node.Options[key] = value
	return n
}

// Options merges a whole payload into the node's options.
func (n *NodeBuilder) Options(opts map[string]any) *NodeBuilder {
	for k, v := range opts {
		n.Option(k, v)
	}
	return n
}

// Disabled marks the node as disabled. Disabled nodes fail without running their children.
func (n *NodeBuilder) Disabled() *NodeBuilder {
	n.node.Enabled = false
	return n
}

// Child appends a child node and returns its builder.
func (n *NodeBuilder) Child(id int32, typ string) *NodeBuilder {
	child := newNode(id, typ, n)
	n.node.Children = append(n.node.Children, child.node)
	return child
}

// Up returns the parent builder, or the node itself at the root.
func (n *NodeBuilder) Up() *NodeBuilder {
	if n.parent == nil {
		return n
	}
	return n.parent
}

// Build returns the underlying node.
// This is primarily used by the Builder, but exposed for advanced usage.
func (n *NodeBuilder) Build() *domain.ActionNode {
	return n.node
}
