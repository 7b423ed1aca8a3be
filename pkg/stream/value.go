package stream

import (
	"context"
	"sync"
)

// Value is a hot sequence with a current value.
// Subscribers receive the current value first, then every update.
type Value[T any] struct {
	queue serial
	subs  subscribers[T]

	mu      sync.RWMutex
	current T
}

// NewValue creates a Value seeded with initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{current: initial}
}

// Get returns the latest folded value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// Next replaces the current value and delivers it.
func (v *Value[T]) Next(x T) {
	v.Update(func(T) T { return x })
}

// Update folds fn into the current value and delivers the result.
// Folds run in submission order. If fn panics the current value is kept and
// the panic propagates to the goroutine draining the queue.
func (v *Value[T]) Update(fn func(T) T) {
	v.Modify(func(x T) (T, bool) { return fn(x), true })
}

// Modify is Update for folds that may decline: when fn reports false the
// current value is kept and nothing is delivered.
func (v *Value[T]) Modify(fn func(T) (T, bool)) {
	v.queue.do(func() {
		next, ok := fn(v.Get())
		if !ok {
			return
		}

		v.mu.Lock()
		v.current = next
		v.mu.Unlock()

		v.subs.deliver(next)
	})
}

// Subscribe attaches fn, replays the current value to it and then delivers
// every update. The replay is ordered with respect to pending updates.
func (v *Value[T]) Subscribe(fn func(T)) CancelFunc {
	var (
		once sync.Once
		sub  *subscriber[T]
		mu   sync.Mutex
		gone bool
	)

	v.queue.do(func() {
		mu.Lock()
		if gone {
			mu.Unlock()
			return
		}
		sub = v.subs.add(fn)
		mu.Unlock()

		if sub.active.Load() {
			fn(v.Get())
		}
	})

	return func() {
		once.Do(func() {
			mu.Lock()
			defer mu.Unlock()
			gone = true
			if sub != nil {
				v.subs.remove(sub)
			}
		})
	}
}

// Watch exposes the sequence as a channel until ctx ends.
func (v *Value[T]) Watch(ctx context.Context) <-chan T {
	return watch(ctx, v.Subscribe)
}

// Subscribers reports how many subscribers are attached.
func (v *Value[T]) Subscribers() int {
	return v.subs.len()
}
