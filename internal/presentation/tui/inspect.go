package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/registry"
)

// TreeMarkdown describes a tree as a markdown document: an indented outline
// followed by a table of the action types it uses.
func TreeMarkdown(root *domain.ActionNode, reg *registry.Registry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Action %d\n\n", root.ID)

	used := make(map[string]int)
	root.Walk(func(n *domain.ActionNode, depth int) bool {
		used[n.Type]++
		indent := strings.Repeat("  ", depth)
		fmt.Fprintf(&sb, "%s- **%d** `%s`", indent, n.ID, n.Type)
		if !n.Enabled {
			sb.WriteString(" _(disabled)_")
		}
		if len(n.Options) > 0 {
			sb.WriteString(" " + formatOptions(n.Options))
		}
		sb.WriteString("\n")
		return true
	})

	types := make([]string, 0, len(used))
	for t := range used {
		types = append(types, t)
	}
	sort.Strings(types)

	sb.WriteString("\n| Type | Nodes | Description |\n|---|---|---|\n")
	for _, t := range types {
		desc := "**not registered**"
		if reg != nil {
			if e, ok := reg.Entry(t); ok {
				desc = e.Metadata.Description
			}
		}
		fmt.Fprintf(&sb, "| `%s` | %d | %s |\n", t, used[t], desc)
	}
	return sb.String()
}

func formatOptions(opts map[string]any) string {
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, opts[k]))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
