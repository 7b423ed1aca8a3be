package arbor_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/bus"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// count reads a number that may have been through a JSON round-trip.
func count(s domain.State) int {
	switch n := s["count"].(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}

func counterTree() *tree.Branch {
	return &tree.Branch{
		Initial: domain.State{"count": 0},
		Children: map[string]tree.Node{
			"increment": tree.Leaf(func(args ...any) tree.Result {
				return tree.Immediate(func(s domain.State) domain.State {
					return s.With(count(s)+1, "count")
				})
			}),
			"nested": &tree.Branch{
				Initial: domain.State{"value": ""},
				Children: map[string]tree.Node{
					"setValue": tree.Leaf(func(args ...any) tree.Result {
						v := args[0]
						return tree.Immediate(func(s domain.State) domain.State {
							return s.With(v, "nested", "value")
						})
					}),
				},
			},
		},
	}
}

func TestCreateState(t *testing.T) {
	store := arbor.CreateState(counterTree(), "test.arbor.create", arbor.WithBus(bus.New()))
	defer store.Close()

	assert.Equal(t, domain.State{
		"count":  0,
		"nested": domain.State{"value": ""},
	}, store.State().Get())
	assert.Equal(t, "test.arbor.create", store.Namespace())
	assert.Equal(t, store.Namespace(), store.Actions().Namespace())

	var events []domain.ActionEvent
	store.Actions().Stream().Subscribe(func(ev domain.ActionEvent) { events = append(events, ev) })

	require.NoError(t, store.Call("increment"))
	require.NoError(t, store.Call("nested.setValue", "hello"))

	assert.Equal(t, 1, count(store.State().Get()))
	v, _ := store.State().Get().Lookup("nested", "value")
	assert.Equal(t, "hello", v)

	require.Len(t, events, 2)
	assert.Equal(t, []string{"nested", "setValue"}, events[1].Path)
	assert.Equal(t, []any{"hello"}, events[1].Payload)

	err := store.Call("nested.missing")
	assert.True(t, errors.Is(err, domain.ErrActionNotFound))
}

func TestCreateState_DefaultNamespace(t *testing.T) {
	store := arbor.CreateState(&tree.Branch{}, "", arbor.WithBus(bus.New()))
	defer store.Close()

	assert.Equal(t, domain.DefaultNamespace, store.Namespace())
}

func TestCreateState_PersistenceRoundTrip(t *testing.T) {
	storage := memory.NewStore()
	ns := "test.arbor.persist"

	first := arbor.CreateState(counterTree(), ns, arbor.WithBus(bus.New()), arbor.WithStorage(storage))
	require.NoError(t, first.Call("increment"))
	first.Close()

	second := arbor.CreateState(counterTree(), ns, arbor.WithBus(bus.New()), arbor.WithStorage(storage))
	defer second.Close()

	assert.Equal(t, 1, count(second.State().Get()), "stored state wins over the tree's initial state")

	require.NoError(t, second.Call("increment"))
	assert.Equal(t, 2, count(second.State().Get()))
}

func TestCreateState_RecoversStoredState(t *testing.T) {
	storage := memory.NewStore()
	ns := "test.arbor.recover"
	require.NoError(t, storage.Save(context.Background(), ns, []byte(`{"count":42}`)))

	store := arbor.CreateState(counterTree(), ns, arbor.WithBus(bus.New()), arbor.WithStorage(storage))
	defer store.Close()

	assert.Equal(t, 42, count(store.State().Get()))
	assert.Equal(t, float64(42), store.State().Get()["count"])
}

func TestCreateState_SharedNamespace(t *testing.T) {
	b := bus.New()
	ns := "test.arbor.shared"

	producer := arbor.CreateState(counterTree(), ns, arbor.WithBus(b))
	consumer := arbor.CreateState(&tree.Branch{Initial: domain.State{"count": 10}}, ns, arbor.WithBus(b))
	defer producer.Close()
	defer consumer.Close()

	require.NoError(t, producer.Call("increment"))

	assert.Equal(t, 1, count(producer.State().Get()))
	assert.Equal(t, 11, count(consumer.State().Get()), "same namespace on the same bus observes every reducer")
}

func TestStore_Attach(t *testing.T) {
	store := arbor.CreateState(counterTree(), "test.arbor.attach", arbor.WithBus(bus.New()))
	defer store.Close()

	before := store.Actions()
	after := store.Attach("settings.theme", &tree.Branch{
		Initial: domain.State{"name": "light"},
		Children: map[string]tree.Node{
			"set": tree.Leaf(func(args ...any) tree.Result {
				v := args[0]
				return tree.Immediate(func(s domain.State) domain.State {
					return s.With(v, "settings", "theme", "name")
				})
			}),
		},
	})

	assert.Same(t, after, store.Actions())
	assert.Same(t, before.Stream(), after.Stream())

	v, _ := store.State().Get().Lookup("settings", "theme", "name")
	assert.Equal(t, "light", v, "attached initial is seeded into live state")

	require.NoError(t, store.Call("settings.theme.set", "dark"))
	v, _ = store.State().Get().Lookup("settings", "theme", "name")
	assert.Equal(t, "dark", v)
	assert.Equal(t, 0, count(store.State().Get()), "unrelated state is untouched")
}

func TestStore_AttachKeepsExistingState(t *testing.T) {
	storage := memory.NewStore()
	ns := "test.arbor.attach.existing"
	require.NoError(t, storage.Save(context.Background(), ns, []byte(`{"count":0,"extra":{"n":5}}`)))

	store := arbor.CreateState(counterTree(), ns, arbor.WithBus(bus.New()), arbor.WithStorage(storage))
	defer store.Close()

	store.Attach("extra", &tree.Branch{Initial: domain.State{"n": 0}})

	v, _ := store.State().Get().Lookup("extra", "n")
	assert.Equal(t, float64(5), v)
}

func TestStore_AttachAtRootSeedsNewKeys(t *testing.T) {
	store := arbor.CreateState(counterTree(), "test.arbor.attach.root", arbor.WithBus(bus.New()))
	defer store.Close()

	require.NoError(t, store.Call("increment"))

	store.Attach("", &tree.Branch{
		Initial: domain.State{"count": 100, "flags": domain.State{"beta": true}},
		Children: map[string]tree.Node{
			"toggle": tree.Leaf(func(args ...any) tree.Result {
				return tree.Immediate(func(s domain.State) domain.State {
					on, _ := s.Lookup("flags", "beta")
					return s.With(!on.(bool), "flags", "beta")
				})
			}),
		},
	})

	got := store.State().Get()
	assert.Equal(t, 1, count(got), "existing top-level keys are kept")
	v, ok := got.Lookup("flags", "beta")
	require.True(t, ok, "new top-level keys are seeded")
	assert.Equal(t, true, v)

	require.NoError(t, store.Call("toggle"))
	v, _ = store.State().Get().Lookup("flags", "beta")
	assert.Equal(t, false, v)
}

func TestStore_DeferredErrorHandler(t *testing.T) {
	var failed []string
	root := &tree.Branch{
		Children: map[string]tree.Node{
			"fetch": tree.Leaf(func(args ...any) tree.Result {
				return tree.Deferred(func(ctx context.Context) (domain.Reducer[domain.State], error) {
					return nil, errors.New("offline")
				})
			}),
		},
	}

	store := arbor.CreateState(root, "test.arbor.deferred",
		arbor.WithBus(bus.New()),
		arbor.WithErrorHandler(func(path []string, err error) {
			failed = append(failed, strings.Join(path, ".")+": "+err.Error())
		}),
	)

	require.NoError(t, store.Call("fetch"))
	store.Close()

	assert.Equal(t, []string{"fetch: offline"}, failed)
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, strings.TrimSpace(arbor.Version))
}
