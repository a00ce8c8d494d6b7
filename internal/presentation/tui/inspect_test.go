package tui_test

import (
	"testing"

	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/actions"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeMarkdown(t *testing.T) {
	reg := registry.NewRegistry()
	actions.RegisterDefaults(reg)

	root := &domain.ActionNode{ID: 7, Type: domain.TypeSetProperty, Enabled: true,
		Options: map[string]any{"value": 1, "key": "k"},
		Children: []*domain.ActionNode{
			{ID: 8, Type: "custom", Enabled: false},
		},
	}

	md := tui.TreeMarkdown(root, reg)

	assert.Contains(t, md, "# Action 7")
	assert.Contains(t, md, "- **7** `set-property` (key=k, value=1)")
	assert.Contains(t, md, "  - **8** `custom` _(disabled)_")
	assert.Contains(t, md, "| `custom` | 1 | **not registered** |")
	assert.Contains(t, md, "| `set-property` | 1 | Stores a value in the run's property bag. |")
}

func TestNewRenderer(t *testing.T) {
	render, err := tui.NewRenderer()
	require.NoError(t, err)

	out, err := render("# Title\n\nbody")
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
}
