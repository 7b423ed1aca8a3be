package core

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/bus"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/stream"
)

// Dispatch publishes change on namespace. A nil bus means the process-wide bus.
// It reports whether the publish was attempted, not whether anyone consumed it.
func Dispatch[S any](b *bus.Bus, namespace string, change domain.Reducer[S]) bool {
	if change == nil {
		return false
	}
	return bus.OrDefault(b).Publish(domain.NamespaceOrDefault(namespace), change)
}

// Collect subscribes fn to the reducers published on namespace.
// Values that are not reducers of S are skipped with a warning.
func Collect[S any](b *bus.Bus, namespace string, fn func(domain.Reducer[S])) stream.CancelFunc {
	b = bus.OrDefault(b)
	namespace = domain.NamespaceOrDefault(namespace)

	return b.Subscribe(namespace, func(v any) {
		switch r := v.(type) {
		case domain.Reducer[S]:
			if r != nil {
				fn(r)
			}
		case func(S) S:
			if r != nil {
				fn(r)
			}
		default:
			b.Logger().Warn("Skipping non-reducer value",
				"namespace", namespace,
				"type", fmt.Sprintf("%T", v),
			)
		}
	})
}
