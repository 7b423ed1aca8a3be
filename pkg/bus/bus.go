package bus

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/stream"
)

// Bus is a named publish/subscribe channel. Safe for concurrent use.
type Bus struct {
	mu     sync.RWMutex
	topics map[string]*stream.Subject[any]

	logger  *slog.Logger
	metrics *Metrics
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used for debug tracing of publishes.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

// WithMetrics records publish and subscriber counts.
func WithMetrics(m *Metrics) Option {
	return func(b *Bus) {
		b.metrics = m
	}
}

// New creates an empty Bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		topics: make(map[string]*stream.Subject[any]),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = logging.OrNop(b.logger)
	return b
}

var (
	defaultBus  *Bus
	defaultOnce sync.Once
)

// Default returns the process-wide bus.
func Default() *Bus {
	defaultOnce.Do(func() {
		defaultBus = New()
	})
	return defaultBus
}

// OrDefault returns b, or the process-wide bus when b is nil.
func OrDefault(b *Bus) *Bus {
	if b == nil {
		return Default()
	}
	return b
}

func (b *Bus) topic(name string) *stream.Subject[any] {
	b.mu.RLock()
	t, ok := b.topics[name]
	b.mu.RUnlock()
	if ok {
		return t
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok = b.topics[name]; ok {
		return t
	}
	t = stream.NewSubject[any]()
	b.topics[name] = t
	b.logger.Debug("bus topic created", "topic", name)
	return t
}

// Publish delivers value to every subscriber of name.
// It reports whether delivery was attempted, not whether anyone listened.
// An empty name is rejected.
func (b *Bus) Publish(name string, value any) bool {
	if name == "" {
		b.logger.Warn("bus publish rejected: empty topic name")
		return false
	}

	t := b.topic(name)
	b.logger.Debug("bus publish", "topic", name, "subscribers", t.Subscribers())
	if b.metrics != nil {
		b.metrics.published.WithLabelValues(name).Inc()
	}

	t.Next(value)
	return true
}

// Subscribe attaches fn to name. Values published from now on are delivered
// until the returned CancelFunc is called.
func (b *Bus) Subscribe(name string, fn func(any)) stream.CancelFunc {
	t := b.topic(name)
	cancel := t.Subscribe(fn)

	if b.metrics != nil {
		b.metrics.subscribers.WithLabelValues(name).Inc()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			if b.metrics != nil {
				b.metrics.subscribers.WithLabelValues(name).Dec()
			}
		})
	}
}

// Watch exposes the values published under name as a channel until ctx ends.
func (b *Bus) Watch(ctx context.Context, name string) <-chan any {
	t := b.topic(name)
	if b.metrics != nil {
		b.metrics.subscribers.WithLabelValues(name).Inc()
		go func() {
			<-ctx.Done()
			b.metrics.subscribers.WithLabelValues(name).Dec()
		}()
	}
	return t.Watch(ctx)
}

// Logger returns the logger the bus reports with.
func (b *Bus) Logger() *slog.Logger {
	return b.logger
}

// Subscribers reports how many subscribers are attached to name.
func (b *Bus) Subscribers(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if t, ok := b.topics[name]; ok {
		return t.Subscribers()
	}
	return 0
}

// Topics lists the names used so far, sorted.
func (b *Bus) Topics() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.topics))
	for name := range b.topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
