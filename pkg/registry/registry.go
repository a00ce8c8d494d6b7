package registry

import (
	"sort"
	"sync"

	"github.com/aretw0/arbor/pkg/action"
)

// Metadata describes an action type for tooling (validation, documentation, UIs).
type Metadata struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty"`
}

// Entry is a registered action type.
type Entry struct {
	Tag      string
	Type     action.Type
	Metadata Metadata
}

// Registry maps action type tags to their implementations.
// It is populated once at startup; lookups are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
	}
}

// Register adds an action type to the registry.
// If a type with the same tag exists, it is overwritten.
func (r *Registry) Register(tag string, impl action.Type, meta Metadata) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if meta.Name == "" {
		meta.Name = tag
	}
	r.entries[tag] = Entry{Tag: tag, Type: impl, Metadata: meta}
}

// Lookup returns the action type registered for tag.
// Unknown tags report false; they are not an error.
func (r *Registry) Lookup(tag string) (action.Type, bool) {
	r.mu.RLock()
	entry, ok := r.entries[tag]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return entry.Type, true
}

// Entry returns the full registration for tag.
func (r *Registry) Entry(tag string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[tag]
	return entry, ok
}

// List returns every registration ordered by tag.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out
}
