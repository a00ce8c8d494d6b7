package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// GraphOverlay contains run data to visualize on the tree.
type GraphOverlay struct {
	VisitedNodes []int32
	// Outcomes maps a visited node to the status it left with.
	Outcomes map[int32]domain.Status
}

// GenerateMermaid produces a Mermaid flowchart for an action tree.
// It applies semantic styling:
// - Log: ((Circle))
// - Redirect: [/Parallelogram/]
// - Require contact: {Diamond}
// - Default: [Rectangle]
// Edges are numbered in evaluation order. Disabled nodes and overlay data are styled with classes.
func GenerateMermaid(root *domain.ActionNode, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	var disabled []string
	root.Walk(func(node *domain.ActionNode, depth int) bool {
		id := mermaidID(node.ID)

		opener, closer := "[", "]"
		switch node.Type {
		case domain.TypeLog:
			opener, closer = "((", "))"
		case domain.TypeRedirect:
			opener, closer = "[/", "/]"
		case domain.TypeRequireContact:
			opener, closer = "{", "}"
		}

		label := fmt.Sprintf("%d: %s", node.ID, node.Type)
		if url, ok := node.Options["url"].(string); ok && url != "" {
			label += "<br/>" + url
		}
		label = strings.ReplaceAll(label, "\"", "'")
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", id, opener, label, closer))

		if !node.Enabled {
			disabled = append(disabled, id)
		}
		for i, child := range node.Children {
			sb.WriteString(fmt.Sprintf("    %s -- \"%d\" --> %s\n", id, i+1, mermaidID(child.ID)))
		}
		return true
	})

	if len(disabled) > 0 {
		sb.WriteString("\n    classDef disabled fill:#eeeeee,stroke:#9e9e9e,stroke-dasharray: 5 5,color:#757575;\n")
		for _, id := range disabled {
			sb.WriteString(fmt.Sprintf("    class %s disabled;\n", id))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef forbidden fill:#ffcdd2,stroke:#b71c1c,stroke-width:2px,color:#000;\n")

		seen := make(map[int32]bool)
		for _, nodeID := range overlay.VisitedNodes {
			if seen[nodeID] {
				continue
			}
			seen[nodeID] = true
			class := "visited"
			if overlay.Outcomes[nodeID] == domain.StatusForbidden {
				class = "forbidden"
			}
			sb.WriteString(fmt.Sprintf("    class %s %s;\n", mermaidID(nodeID), class))
		}
	}

	return sb.String()
}

func mermaidID(id int32) string {
	if id < 0 {
		return fmt.Sprintf("n_%d", -id)
	}
	return fmt.Sprintf("n%d", id)
}
