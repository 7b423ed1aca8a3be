package arbor_test

import (
	"fmt"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/bus"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/tree"
)

// ExampleCreateState builds a counter, subscribes to its state and action
// stream, and calls an action.
func ExampleCreateState() {
	counter := &tree.Branch{
		Initial: domain.State{"count": 0},
		Children: map[string]tree.Node{
			"add": tree.Leaf(func(args ...any) tree.Result {
				by := args[0].(int)
				return tree.Immediate(func(s domain.State) domain.State {
					return s.With(s["count"].(int)+by, "count")
				})
			}),
		},
	}

	store := arbor.CreateState(counter, "example.counter", arbor.WithBus(bus.New()))
	defer store.Close()

	store.State().Subscribe(func(s domain.State) {
		fmt.Println("count:", s["count"])
	})
	store.Actions().Stream().Subscribe(func(ev domain.ActionEvent) {
		fmt.Println("action:", tree.JoinPath(ev.Path), ev.Payload)
	})

	_ = store.Call("add", 2)
	_ = store.Call("add", 3)

	// Output:
	// count: 0
	// count: 2
	// action: add [2]
	// count: 5
	// action: add [3]
}

// ExampleStore_Attach extends a running store with a new branch.
func ExampleStore_Attach() {
	store := arbor.CreateState(&tree.Branch{Initial: domain.State{"a": 1}}, "example.attach", arbor.WithBus(bus.New()))
	defer store.Close()

	store.Attach("b.c", &tree.Branch{Initial: domain.State{"x": 0}})

	fmt.Println(store.Actions().Initial())
	fmt.Println(store.State().Get())

	// Output:
	// map[a:1 b:map[c:map[x:0]]]
	// map[a:1 b:map[c:map[x:0]]]
}
