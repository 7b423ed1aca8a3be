package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/aretw0/arbor/pkg/ports"
)

// Mask replaces the value of every matching key.
const Mask = "***"

type piiMiddleware struct {
	next     ports.Storage
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks values of keys matching the
// patterns before a snapshot reaches the next storage. Non-object snapshots pass through.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.Storage) ports.Storage {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, key string, data []byte) error {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil || doc == nil {
		return m.next.Save(ctx, key, data)
	}

	maskMap(doc, m.patterns)

	masked, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal masked snapshot: %w", err)
	}
	return m.next.Save(ctx, key, masked)
}

func (m *piiMiddleware) Load(ctx context.Context, key string) ([]byte, error) {
	return m.next.Load(ctx, key)
}

func (m *piiMiddleware) Delete(ctx context.Context, key string) error {
	return m.next.Delete(ctx, key)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// maskMap works on a freshly decoded document, so in-place edits are safe.
func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		if matchAny(k, patterns) {
			m[k] = Mask
			continue
		}

		switch child := v.(type) {
		case map[string]any:
			maskMap(child, patterns)
		case []any:
			for _, item := range child {
				if sub, ok := item.(map[string]any); ok {
					maskMap(sub, patterns)
				}
			}
		}
	}
}

func matchAny(key string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
