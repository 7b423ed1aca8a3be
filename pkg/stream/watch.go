package stream

import (
	"context"
	"sync"
)

// watch adapts a callback subscription into a channel. Values are buffered
// without bound so a slow reader never blocks publishers.
func watch[T any](ctx context.Context, subscribe func(func(T)) CancelFunc) <-chan T {
	out := make(chan T)
	wake := make(chan struct{}, 1)

	var (
		mu      sync.Mutex
		pending []T
	)

	cancel := subscribe(func(v T) {
		mu.Lock()
		pending = append(pending, v)
		mu.Unlock()

		select {
		case wake <- struct{}{}:
		default:
		}
	})

	go func() {
		defer close(out)
		defer cancel()

		for {
			mu.Lock()
			if len(pending) == 0 {
				mu.Unlock()
				select {
				case <-ctx.Done():
					return
				case <-wake:
					continue
				}
			}
			v := pending[0]
			var zero T
			pending[0] = zero
			pending = pending[1:]
			mu.Unlock()

			select {
			case out <- v:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
