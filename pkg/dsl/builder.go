package dsl

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
)

// Builder manages the construction of one or more action trees.
type Builder struct {
	roots []*NodeBuilder
}

// New creates a new tree builder.
func New() *Builder {
	return &Builder{}
}

// Root starts a new tree. The node is enabled by default.
func (b *Builder) Root(id int32, typ string) *NodeBuilder {
	nb := newNode(id, typ, nil)
	b.roots = append(b.roots, nb)
	return nb
}

// Trees returns the built roots without validation.
func (b *Builder) Trees() []*domain.ActionNode {
	out := make([]*domain.ActionNode, 0, len(b.roots))
	for _, nb := range b.roots {
		out = append(out, nb.node)
	}
	return out
}

// Build validates every tree and compiles them into a memory loader.
// Node ids must be unique within a tree.
func (b *Builder) Build() (*memory.Loader, error) {
	roots := b.Trees()
	for _, root := range roots {
		if err := validate(root); err != nil {
			return nil, err
		}
	}

	loader, err := memory.NewLoader(roots...)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return loader, nil
}

func validate(root *domain.ActionNode) error {
	seen := make(map[int32]bool)
	var err error
	root.Walk(func(n *domain.ActionNode, depth int) bool {
		if err != nil {
			return false
		}
		if n.Type == "" {
			err = fmt.Errorf("tree %d: node %d has no type", root.ID, n.ID)
			return false
		}
		if seen[n.ID] {
			err = fmt.Errorf("tree %d: duplicate node id %d", root.ID, n.ID)
			return false
		}
		seen[n.ID] = true
		return true
	})
	return err
}
