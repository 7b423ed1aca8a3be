package arbor

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/bus"
	"github.com/aretw0/arbor/pkg/core"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/persistence"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/tree"
)

// Store couples an adapted action tree with the state machine it drives.
type Store struct {
	namespace string
	bus       *bus.Bus
	logger    *slog.Logger

	mu      sync.RWMutex
	actions *tree.Tree
	state   *core.Machine[domain.State]
}

// Option configures CreateState.
type Option func(*config)

type config struct {
	storage ports.Storage
	bus     *bus.Bus
	logger  *slog.Logger
	ctx     context.Context
	metrics *core.Metrics
	onError tree.ErrorHandler
}

// WithStorage persists the state under its namespace and resumes from it.
func WithStorage(s ports.Storage) Option {
	return func(c *config) {
		c.storage = s
	}
}

// WithBus isolates the store on its own bus instead of the process-wide one.
func WithBus(b *bus.Bus) Option {
	return func(c *config) {
		c.bus = b
	}
}

// WithLogger sets the logger shared by the tree, the machine and storage.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithContext bounds storage calls and deferred actions.
// The state machine detaches when ctx ends.
func WithContext(ctx context.Context) Option {
	return func(c *config) {
		c.ctx = ctx
	}
}

// WithMetrics records reducer activity.
func WithMetrics(m *core.Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithErrorHandler receives failures of deferred actions.
func WithErrorHandler(fn tree.ErrorHandler) Option {
	return func(c *config) {
		c.onError = fn
	}
}

// CreateState adapts root on namespace and starts a state machine seeded
// from the tree's merged initial state, or from storage when it holds a snapshot.
func CreateState(root *tree.Branch, namespace string, opts ...Option) *Store {
	cfg := config{ctx: context.Background()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.ctx == nil {
		cfg.ctx = context.Background()
	}
	logger := logging.OrNop(cfg.logger)
	b := bus.OrDefault(cfg.bus)
	namespace = domain.NamespaceOrDefault(namespace)

	treeOpts := []tree.Option{
		tree.WithBus(b),
		tree.WithLogger(logger),
		tree.WithContext(cfg.ctx),
	}
	if cfg.onError != nil {
		treeOpts = append(treeOpts, tree.WithErrorHandler(cfg.onError))
	}
	actions := tree.Adapt(root, namespace, treeOpts...)

	machineOpts := []core.Option{
		core.WithBus(b),
		core.WithLogger(logger),
		core.WithContext(cfg.ctx),
		core.WithMetrics(cfg.metrics),
	}
	if cfg.storage != nil {
		machineOpts = append(machineOpts, core.WithStorage(
			persistence.New(cfg.storage, persistence.WithLogger(logger)),
		))
	}
	state := core.Init(actions.Initial(), namespace, machineOpts...)

	logger.Info("State created", "namespace", namespace, "actions", countActions(actions))

	return &Store{
		namespace: namespace,
		bus:       b,
		logger:    logger,
		actions:   actions,
		state:     state,
	}
}

// Actions returns the current adapted tree.
func (s *Store) Actions() *tree.Tree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.actions
}

// State returns the live state.
func (s *Store) State() *core.Machine[domain.State] {
	return s.state
}

// Namespace returns the namespace shared by actions and state.
func (s *Store) Namespace() string {
	return s.namespace
}

// Call invokes the action at a dotted path.
func (s *Store) Call(path string, args ...any) error {
	return s.Actions().Call(path, args...)
}

// Dispatch publishes a reducer on the store's namespace directly.
func (s *Store) Dispatch(r domain.Reducer[domain.State]) bool {
	return core.Dispatch(s.bus, s.namespace, r)
}

// Attach grafts node onto the actions at a dotted path and returns the new tree.
// When the live state has nothing at that path yet, the attached initial
// fragment is seeded into it. Attaching at the root seeds the top-level keys
// the node introduces that the live state lacks.
func (s *Store) Attach(path string, node *tree.Branch) *tree.Tree {
	keys := tree.ParsePath(path)

	s.mu.Lock()
	prev := s.actions
	next := tree.Attach(prev, keys, node)
	s.actions = next
	s.mu.Unlock()

	if len(keys) == 0 {
		s.seedRoot(prev.Initial(), next.Initial())
	} else if fragment, ok := next.Initial().Lookup(keys...); ok {
		s.Dispatch(func(st domain.State) domain.State {
			if _, exists := st.Lookup(keys...); exists {
				return st
			}
			return st.With(fragment, keys...)
		})
	}

	s.logger.Debug("Actions attached", "namespace", s.namespace, "path", path)
	return next
}

func (s *Store) seedRoot(before, after domain.State) {
	added := domain.State{}
	for k, v := range after {
		if _, ok := before[k]; !ok {
			added[k] = v
		}
	}
	if len(added) == 0 {
		return
	}
	s.Dispatch(func(st domain.State) domain.State {
		for k, v := range added {
			if _, exists := st[k]; !exists {
				st = st.With(v, k)
			}
		}
		return st
	})
}

// Close waits for in-flight deferred actions, then detaches the state machine.
// Callers must have stopped invoking actions; a deferred action started during
// Close may resolve after the machine has detached.
func (s *Store) Close() {
	s.Actions().Wait()
	s.state.Close()
}

func countActions(t *tree.Tree) int {
	n := 0
	t.Walk(func([]string, tree.Action) { n++ })
	return n
}
