package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/bus"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/persistence"
	"github.com/aretw0/arbor/pkg/stream"
)

// Machine folds the reducers published on one namespace into a live value.
type Machine[S any] struct {
	namespace string
	value     *stream.Value[S]

	bus     *bus.Bus
	storage *persistence.Adapter
	ctx     context.Context
	logger  *slog.Logger
	metrics *Metrics

	detach    stream.CancelFunc
	persist   stream.CancelFunc
	closeOnce sync.Once
	done      chan struct{}

	mu  sync.Mutex
	err error
}

// Option configures a Machine.
type Option func(*config)

type config struct {
	bus     *bus.Bus
	storage *persistence.Adapter
	ctx     context.Context
	logger  *slog.Logger
	metrics *Metrics
}

// WithBus sets the bus reducers are collected from. Defaults to bus.Default().
func WithBus(b *bus.Bus) Option {
	return func(c *config) {
		c.bus = b
	}
}

// WithStorage seeds the machine from the snapshot under its namespace and
// persists every state it emits.
func WithStorage(a *persistence.Adapter) Option {
	return func(c *config) {
		c.storage = a
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithContext bounds storage calls. The machine closes itself when ctx ends.
func WithContext(ctx context.Context) Option {
	return func(c *config) {
		c.ctx = ctx
	}
}

// WithMetrics records reducer activity.
func WithMetrics(m *Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// Init starts a machine on namespace. The initial value is replaced by the
// persisted snapshot when storage holds a readable one.
func Init[S any](initial S, namespace string, opts ...Option) *Machine[S] {
	cfg := config{ctx: context.Background()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.ctx == nil {
		cfg.ctx = context.Background()
	}

	m := &Machine[S]{
		namespace: domain.NamespaceOrDefault(namespace),
		bus:       bus.OrDefault(cfg.bus),
		storage:   cfg.storage,
		ctx:       cfg.ctx,
		logger:    logging.OrNop(cfg.logger),
		metrics:   cfg.metrics,
		done:      make(chan struct{}),
	}

	start := persistence.Get(m.ctx, m.storage, m.namespace, initial)
	m.value = stream.NewValue(start)

	if m.storage != nil {
		m.persist = m.value.Subscribe(m.save)
	}
	detach := Collect(m.bus, m.namespace, m.apply)
	m.mu.Lock()
	m.detach = detach
	m.mu.Unlock()

	if ctxDone := m.ctx.Done(); ctxDone != nil {
		go func() {
			select {
			case <-ctxDone:
				m.Close()
			case <-m.done:
			}
		}()
	}

	m.logger.Debug("State machine started", "namespace", m.namespace, "persistent", m.storage != nil)
	return m
}

func (m *Machine[S]) apply(r domain.Reducer[S]) {
	m.value.Modify(func(s S) (next S, ok bool) {
		start := time.Now()
		defer func() {
			if p := recover(); p != nil {
				m.fail(p)
				next, ok = s, false
			}
		}()

		next = r(s)

		if m.metrics != nil {
			m.metrics.applied.WithLabelValues(m.namespace).Inc()
			m.metrics.duration.WithLabelValues(m.namespace).Observe(time.Since(start).Seconds())
		}
		return next, true
	})
}

func (m *Machine[S]) fail(p any) {
	err := fmt.Errorf("%w: %v", domain.ErrReducerFault, p)

	m.mu.Lock()
	if m.err == nil {
		m.err = err
	}
	detach := m.detach
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.faults.WithLabelValues(m.namespace).Inc()
	}
	m.logger.Error("Reducer panicked, detaching state machine", "namespace", m.namespace, "err", err)
	if detach != nil {
		detach()
	}
}

func (m *Machine[S]) save(s S) {
	if err := m.storage.Set(m.ctx, m.namespace, s); err != nil {
		m.logger.Warn("Failed to persist state", "namespace", m.namespace, "err", err)
	}
}

// Get returns the current state.
func (m *Machine[S]) Get() S {
	return m.value.Get()
}

// Subscribe calls fn with the current state and then with every later state.
func (m *Machine[S]) Subscribe(fn func(S)) stream.CancelFunc {
	return m.value.Subscribe(fn)
}

// Watch streams the current state and every later state until ctx ends.
func (m *Machine[S]) Watch(ctx context.Context) <-chan S {
	return m.value.Watch(ctx)
}

// Namespace returns the namespace the machine collects from.
func (m *Machine[S]) Namespace() string {
	return m.namespace
}

// Err returns the reducer fault that detached the machine, if any.
func (m *Machine[S]) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Close detaches the machine from its bus and stops persisting.
// The last state stays readable.
func (m *Machine[S]) Close() {
	m.closeOnce.Do(func() {
		close(m.done)

		m.mu.Lock()
		detach := m.detach
		m.mu.Unlock()
		if detach != nil {
			detach()
		}
		if m.persist != nil {
			m.persist()
		}
		m.logger.Debug("State machine closed", "namespace", m.namespace)
	})
}
