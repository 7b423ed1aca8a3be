package stream

import (
	"context"
	"sync"
	"sync/atomic"
)

// CancelFunc detaches a subscriber. It is safe to call more than once.
type CancelFunc func()

type subscriber[T any] struct {
	fn     func(T)
	active atomic.Bool
}

type subscribers[T any] struct {
	mu   sync.RWMutex
	list []*subscriber[T]
}

func (s *subscribers[T]) add(fn func(T)) *subscriber[T] {
	sub := &subscriber[T]{fn: fn}
	sub.active.Store(true)

	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]*subscriber[T], len(s.list), len(s.list)+1)
	copy(next, s.list)
	s.list = append(next, sub)
	return sub
}

func (s *subscribers[T]) remove(sub *subscriber[T]) {
	if !sub.active.CompareAndSwap(true, false) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]*subscriber[T], 0, len(s.list))
	for _, other := range s.list {
		if other != sub {
			next = append(next, other)
		}
	}
	s.list = next
}

func (s *subscribers[T]) snapshot() []*subscriber[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list
}

func (s *subscribers[T]) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.list)
}

// deliver calls every active subscriber even when one of them panics.
// The first panic is re-raised once all subscribers have run.
func (s *subscribers[T]) deliver(v T) {
	var (
		fault    any
		panicked bool
	)
	for _, sub := range s.snapshot() {
		if !sub.active.Load() {
			continue
		}
		if p, ok := call(sub.fn, v); ok && !panicked {
			fault, panicked = p, true
		}
	}
	if panicked {
		panic(fault)
	}
}

func call[T any](fn func(T), v T) (p any, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			p, panicked = r, true
		}
	}()
	fn(v)
	return nil, false
}

// Subject is a hot broadcast sequence without replay.
// The zero value is ready to use.
type Subject[T any] struct {
	queue serial
	subs  subscribers[T]
}

// NewSubject creates an empty Subject.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{}
}

// Next delivers v to every current subscriber. A panicking subscriber does not
// keep v from the others; its panic is re-raised after delivery.
func (s *Subject[T]) Next(v T) {
	s.queue.do(func() {
		s.subs.deliver(v)
	})
}

// Subscribe attaches fn. It receives values published from now on.
func (s *Subject[T]) Subscribe(fn func(T)) CancelFunc {
	sub := s.subs.add(fn)
	return func() { s.subs.remove(sub) }
}

// Watch exposes the sequence as a channel until ctx ends.
func (s *Subject[T]) Watch(ctx context.Context) <-chan T {
	return watch(ctx, s.Subscribe)
}

// Subscribers reports how many subscribers are attached.
func (s *Subject[T]) Subscribers() int {
	return s.subs.len()
}
