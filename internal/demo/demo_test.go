package demo_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/demo"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/bus"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedFetch(texts ...string) demo.Fetcher {
	return func(ctx context.Context) ([]string, error) {
		return texts, nil
	}
}

func todos(t *testing.T, s domain.State) []demo.Todo {
	t.Helper()
	var l struct {
		Items []demo.Todo `json:"items"`
	}
	require.NoError(t, domain.Decode(s.Branch("todos"), &l))
	return l.Items
}

func count(t *testing.T, s domain.State) int {
	t.Helper()
	var c struct {
		Count int `json:"count"`
	}
	require.NoError(t, domain.Decode(s.Branch("counter"), &c))
	return c.Count
}

func TestDemo_Counter(t *testing.T) {
	store := arbor.CreateState(demo.Tree(nil), "test.demo.counter", arbor.WithBus(bus.New()))
	defer store.Close()

	require.NoError(t, store.Call("counter.increment"))
	require.NoError(t, store.Call("counter.increment"))
	require.NoError(t, store.Call("counter.decrement"))
	require.NoError(t, store.Call("counter.add", float64(10)))
	require.NoError(t, store.Call("counter.add", "oops"))
	assert.Equal(t, 11, count(t, store.State().Get()))

	require.NoError(t, store.Call("counter.reset"))
	assert.Equal(t, 0, count(t, store.State().Get()))

	title, ok := store.Actions().Value("title")
	require.True(t, ok)
	assert.Equal(t, "arbor demo", title)
}

func TestDemo_Todos(t *testing.T) {
	store := arbor.CreateState(demo.Tree(nil), "test.demo.todos", arbor.WithBus(bus.New()))
	defer store.Close()

	require.NoError(t, store.Call("todos.add", "one"))
	require.NoError(t, store.Call("todos.add", "two"))
	require.NoError(t, store.Call("todos.add", "  "))
	require.NoError(t, store.Call("todos.toggle", 1))
	require.NoError(t, store.Call("todos.remove", float64(2)))

	assert.Equal(t, []demo.Todo{{ID: 1, Text: "one", Done: true}}, todos(t, store.State().Get()))
}

func TestDemo_DeferredLoad(t *testing.T) {
	store := arbor.CreateState(demo.Tree(fixedFetch("a", "b")), "test.demo.load", arbor.WithBus(bus.New()))

	require.NoError(t, store.Call("todos.add", "first"))
	require.NoError(t, store.Call("todos.load"))
	store.Close()

	assert.Equal(t, []demo.Todo{
		{ID: 1, Text: "first"},
		{ID: 2, Text: "a"},
		{ID: 3, Text: "b"},
	}, todos(t, store.State().Get()))
}

func TestDemo_LoadFailure(t *testing.T) {
	var got error
	store := arbor.CreateState(
		demo.Tree(func(ctx context.Context) ([]string, error) { return nil, errors.New("offline") }),
		"test.demo.loadfail",
		arbor.WithBus(bus.New()),
		arbor.WithErrorHandler(func(path []string, err error) { got = err }),
	)

	require.NoError(t, store.Call("todos.load"))
	store.Close()

	require.Error(t, got)
	assert.Contains(t, got.Error(), "offline")
}

func TestDemo_SurvivesJSONRoundTrip(t *testing.T) {
	storage := memory.NewStore()
	ns := "test.demo.roundtrip"

	first := arbor.CreateState(demo.Tree(nil), ns, arbor.WithBus(bus.New()), arbor.WithStorage(storage))
	require.NoError(t, first.Call("todos.add", "persisted"))
	require.NoError(t, first.Call("counter.add", 3))
	first.Close()

	raw, err := storage.Load(context.Background(), ns)
	require.NoError(t, err)
	assert.True(t, json.Valid(raw))

	second := arbor.CreateState(demo.Tree(nil), ns, arbor.WithBus(bus.New()), arbor.WithStorage(storage))
	defer second.Close()

	require.NoError(t, second.Call("todos.add", "again"))
	require.NoError(t, second.Call("counter.increment"))

	assert.Equal(t, 4, count(t, second.State().Get()))
	assert.Equal(t, []demo.Todo{
		{ID: 1, Text: "persisted"},
		{ID: 2, Text: "again"},
	}, todos(t, second.State().Get()))
}
