package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/arbor/pkg/domain"
)

// Loader implements ports.TreeLoader using an in-memory map of roots.
type Loader struct {
	trees map[int32]*domain.ActionNode
}

// NewLoader creates a loader serving the given trees, keyed by root id.
func NewLoader(roots ...*domain.ActionNode) (*Loader, error) {
	trees := make(map[int32]*domain.ActionNode, len(roots))
	for _, root := range roots {
		if root == nil {
			return nil, fmt.Errorf("nil tree root")
		}
		if _, dup := trees[root.ID]; dup {
			return nil, fmt.Errorf("duplicate tree root %d", root.ID)
		}
		trees[root.ID] = root
	}
	return &Loader{trees: trees}, nil
}

// Load returns the tree whose root has the given id.
func (l *Loader) Load(ctx context.Context, actionID int32) (*domain.ActionNode, error) {
	root, ok := l.trees[actionID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrActionNotFound, actionID)
	}
	return root, nil
}

// List returns every root ordered by id.
func (l *Loader) List(ctx context.Context) ([]*domain.ActionNode, error) {
	out := make([]*domain.ActionNode, 0, len(l.trees))
	for _, root := range l.trees {
		out = append(out, root)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID }) // Deterministic order
	return out, nil
}
