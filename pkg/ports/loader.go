package ports

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// TreeLoader defines how the engine retrieves configured action trees.
// This allows the configuration source (YAML, Memory, a database) to be decoupled.
type TreeLoader interface {
	// Load returns the tree whose root has the given action id.
	// Returns domain.ErrActionNotFound if no such tree exists.
	Load(ctx context.Context, actionID int32) (*domain.ActionNode, error)

	// List returns the roots of every available tree, ordered by id.
	// This is used for introspection and visualization tools (e.g. 'arbor graph').
	List(ctx context.Context) ([]*domain.ActionNode, error)
}
