package validator

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/registry"
)

// ValidateTree walks the tree and reports configuration mistakes:
// missing or unregistered types, duplicate node ids, and enabled siblings
// placed after a redirect that always stops the run.
// A nil registry skips the type lookup.
func ValidateTree(root *domain.ActionNode, reg *registry.Registry) error {
	if root == nil {
		return domain.ErrNilNode
	}

	var errors []string
	seen := make(map[int32]bool)

	root.Walk(func(node *domain.ActionNode, depth int) bool {
		if seen[node.ID] {
			errors = append(errors, fmt.Sprintf("node %d: duplicate id", node.ID))
		}
		seen[node.ID] = true

		switch {
		case node.Type == "":
			errors = append(errors, fmt.Sprintf("node %d: missing type", node.ID))
		case reg != nil:
			if _, ok := reg.Lookup(node.Type); !ok {
				errors = append(errors, fmt.Sprintf("node %d: unregistered type %q", node.ID, node.Type))
			}
		}

		for i, child := range node.Children {
			if !stopsRun(child) {
				continue
			}
			for _, later := range node.Children[i+1:] {
				if later.Enabled {
					errors = append(errors, fmt.Sprintf("node %d: unreachable after redirect %d", later.ID, child.ID))
				}
			}
			break
		}
		return true
	})

	if len(errors) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(errors), strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateAll validates every tree the loader provides.
// It returns one error per invalid tree, keyed by root id.
func ValidateAll(ctx context.Context, loader ports.TreeLoader, reg *registry.Registry) (map[int32]error, error) {
	roots, err := loader.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list trees: %w", err)
	}

	failures := make(map[int32]error)
	for _, root := range roots {
		if err := ValidateTree(root, reg); err != nil {
			failures[root.ID] = err
		}
	}
	return failures, nil
}

// stopsRun reports whether an enabled redirect node always ends the run.
// A redirect without url fails and lets the next sibling run.
func stopsRun(n *domain.ActionNode) bool {
	if !n.Enabled || n.Type != domain.TypeRedirect {
		return false
	}
	url, _ := n.Options["url"].(string)
	return strings.TrimSpace(url) != ""
}
