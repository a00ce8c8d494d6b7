package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// Mask replaces property values whose key matches a PII pattern.
const Mask = "***"

type piiMiddleware struct {
	next     ports.EventStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks event property values whose keys match the patterns.
// Nested maps are masked recursively. The caller's event is never modified.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.EventStore) ports.EventStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Append(ctx context.Context, event *domain.Event) error {
	cloned := *event
	if event.Properties != nil {
		cloned.Properties = deepCopyMap(event.Properties)
		maskMap(cloned.Properties, m.patterns)
	}
	return m.next.Append(ctx, &cloned)
}

func (m *piiMiddleware) List(ctx context.Context) ([]*domain.Event, error) {
	return m.next.List(ctx)
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if subMap, ok := v.(map[string]any); ok {
			out[k] = deepCopyMap(subMap)
		} else {
			out[k] = v
		}
	}
	return out
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		masked := false
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = Mask
				masked = true
				break
			}
		}

		if subMap, ok := v.(map[string]any); ok && !masked {
			maskMap(subMap, patterns)
		}
	}
}
