package tree

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/bus"
	"github.com/aretw0/arbor/pkg/core"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/stream"
	"github.com/google/uuid"
)

// ErrorHandler receives the failure of a deferred leaf invocation.
type ErrorHandler func(path []string, err error)

// Option configures Adapt.
type Option func(*options)

type options struct {
	path    []string
	emitter *stream.Subject[domain.ActionEvent]
	bus     *bus.Bus
	logger  *slog.Logger
	ctx     context.Context
	onError ErrorHandler
}

// WithPath adapts the tree as if it were mounted at keys.
// Action Event paths are prefixed with it.
func WithPath(keys ...string) Option {
	return func(o *options) {
		o.path = keys
	}
}

// WithEmitter shares an existing action stream instead of creating one.
func WithEmitter(s *stream.Subject[domain.ActionEvent]) Option {
	return func(o *options) {
		o.emitter = s
	}
}

// WithBus sets the bus reducers are dispatched on. Defaults to bus.Default().
func WithBus(b *bus.Bus) Option {
	return func(o *options) {
		o.bus = b
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithContext sets the context handed to deferred computations.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		o.ctx = ctx
	}
}

// WithErrorHandler sets the handler for failed deferred invocations.
// The default logs them at error level.
func WithErrorHandler(fn ErrorHandler) Option {
	return func(o *options) {
		o.onError = fn
	}
}

// env is shared by every branch of one adapted tree and by its attachments.
type env struct {
	namespace string
	emitter   *stream.Subject[domain.ActionEvent]
	bus       *bus.Bus
	logger    *slog.Logger
	ctx       context.Context
	onError   ErrorHandler
	inflight  sync.WaitGroup
}

// Adapt converts root into an adapted tree dispatching on namespace.
// A nil root adapts as an empty branch.
func Adapt(root *Branch, namespace string, opts ...Option) *Tree {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	e := &env{
		namespace: domain.NamespaceOrDefault(namespace),
		emitter:   o.emitter,
		bus:       bus.OrDefault(o.bus),
		logger:    logging.OrNop(o.logger),
		ctx:       o.ctx,
		onError:   o.onError,
	}
	if e.emitter == nil {
		e.emitter = stream.NewSubject[domain.ActionEvent]()
	}
	if e.ctx == nil {
		e.ctx = context.Background()
	}
	if e.onError == nil {
		e.onError = func(path []string, err error) {
			e.logger.Error("Deferred action failed", "namespace", e.namespace, "action", JoinPath(path), "err", err)
		}
	}

	return e.adapt(root, append([]string{}, o.path...))
}

func (e *env) adapt(b *Branch, path []string) *Tree {
	t := &Tree{
		env:     e,
		path:    path,
		initial: domain.State{},
		members: make(map[string]any),
	}
	if b == nil {
		return t
	}

	for k, v := range b.Initial {
		t.initial[k] = v
	}

	for key, child := range b.Children {
		if key == domain.KeyInitial {
			e.logger.Debug("Skipping reserved key in children", "path", JoinPath(path))
			continue
		}
		at := append(append([]string{}, path...), key)

		switch n := child.(type) {
		case Leaf:
			if n == nil {
				t.members[key] = Value{}
				continue
			}
			t.members[key] = e.wrap(n, at)
		case *Branch:
			sub := e.adapt(n, at)
			t.members[key] = sub
			t.initial[key] = sub.initial
		case Value:
			t.members[key] = n
		default:
			t.members[key] = Value{V: n}
		}
	}
	return t
}

// wrap returns the dispatching form of leaf mounted at path.
func (e *env) wrap(leaf Leaf, path []string) Action {
	return func(args ...any) {
		payload := append([]any{}, args...)
		res := leaf(args...)

		switch {
		case res.reducer != nil:
			e.complete(path, payload, res.reducer)
		case res.deferred != nil:
			e.inflight.Add(1)
			go e.await(path, payload, res.deferred)
		default:
			e.logger.Warn("Action returned no reducer", "namespace", e.namespace, "action", JoinPath(path))
		}
	}
}

func (e *env) await(path []string, payload []any, fn func(context.Context) (domain.Reducer[domain.State], error)) {
	defer e.inflight.Done()
	defer func() {
		if p := recover(); p != nil {
			e.onError(path, fmt.Errorf("deferred action panicked: %v", p))
		}
	}()

	r, err := fn(e.ctx)
	if err != nil {
		e.onError(path, err)
		return
	}
	if r == nil {
		e.logger.Warn("Deferred action resolved without a reducer", "namespace", e.namespace, "action", JoinPath(path))
		return
	}
	e.complete(path, payload, r)
}

// complete dispatches r, then reports the invocation on the action stream.
func (e *env) complete(path []string, payload []any, r domain.Reducer[domain.State]) {
	core.Dispatch(e.bus, e.namespace, r)

	e.emitter.Next(domain.ActionEvent{
		ID:        uuid.NewString(),
		Namespace: e.namespace,
		Path:      append([]string{}, path...),
		Payload:   payload,
		Reducer:   r,
		Timestamp: time.Now(),
	})
}

func isFunc(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Func
}
