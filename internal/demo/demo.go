// Package demo provides the sample action tree served by the arbor CLI.
package demo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/tree"
)

// Todo is one entry of the todos branch.
type Todo struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}

type todoList struct {
	Items  []Todo `json:"items"`
	NextID int    `json:"nextId"`
}

// Fetcher supplies the todos loaded by todos.load.
type Fetcher func(ctx context.Context) ([]string, error)

// Tree returns a counter and a todo list.
// todos.load is deferred: it resolves through fetch, which may be nil.
func Tree(fetch Fetcher) *tree.Branch {
	if fetch == nil {
		fetch = slowFetch
	}

	return &tree.Branch{
		Children: map[string]tree.Node{
			"counter": &tree.Branch{
				Initial: domain.State{"count": 0},
				Children: map[string]tree.Node{
					"increment": tree.Leaf(func(args ...any) tree.Result {
						return addToCount(1)
					}),
					"decrement": tree.Leaf(func(args ...any) tree.Result {
						return addToCount(-1)
					}),
					"add": tree.Leaf(func(args ...any) tree.Result {
						var n int
						if len(args) == 0 || domain.Decode(args[0], &n) != nil {
							return tree.Result{}
						}
						return addToCount(n)
					}),
					"reset": tree.Leaf(func(args ...any) tree.Result {
						return tree.Immediate(func(s domain.State) domain.State {
							return s.With(0, "counter", "count")
						})
					}),
				},
			},
			"todos": &tree.Branch{
				Initial: domain.State{"items": []Todo{}, "nextId": 1},
				Children: map[string]tree.Node{
					"add": tree.Leaf(func(args ...any) tree.Result {
						text := firstString(args)
						if text == "" {
							return tree.Result{}
						}
						return updateTodos(func(l todoList) todoList {
							return l.add(text)
						})
					}),
					"toggle": tree.Leaf(func(args ...any) tree.Result {
						id, ok := firstInt(args)
						if !ok {
							return tree.Result{}
						}
						return updateTodos(func(l todoList) todoList {
							items := make([]Todo, len(l.Items))
							for i, t := range l.Items {
								if t.ID == id {
									t.Done = !t.Done
								}
								items[i] = t
							}
							l.Items = items
							return l
						})
					}),
					"remove": tree.Leaf(func(args ...any) tree.Result {
						id, ok := firstInt(args)
						if !ok {
							return tree.Result{}
						}
						return updateTodos(func(l todoList) todoList {
							items := make([]Todo, 0, len(l.Items))
							for _, t := range l.Items {
								if t.ID != id {
									items = append(items, t)
								}
							}
							l.Items = items
							return l
						})
					}),
					"load": tree.Leaf(func(args ...any) tree.Result {
						return tree.Deferred(func(ctx context.Context) (domain.Reducer[domain.State], error) {
							texts, err := fetch(ctx)
							if err != nil {
								return nil, fmt.Errorf("failed to load todos: %w", err)
							}
							return todosReducer(func(l todoList) todoList {
								for _, text := range texts {
									l = l.add(text)
								}
								return l
							}), nil
						})
					}),
				},
			},
			"title": tree.Value{V: "arbor demo"},
		},
	}
}

func addToCount(n int) tree.Result {
	return tree.Immediate(func(s domain.State) domain.State {
		var c struct {
			Count int `json:"count"`
		}
		_ = domain.Decode(s.Branch("counter"), &c)
		return s.With(c.Count+n, "counter", "count")
	})
}

func updateTodos(fn func(todoList) todoList) tree.Result {
	return tree.Immediate(todosReducer(fn))
}

func todosReducer(fn func(todoList) todoList) domain.Reducer[domain.State] {
	return func(s domain.State) domain.State {
		l := todoList{NextID: 1}
		_ = domain.Decode(s.Branch("todos"), &l)
		if l.NextID < 1 {
			l.NextID = 1
		}
		l = fn(l)
		return s.
			With(l.Items, "todos", "items").
			With(l.NextID, "todos", "nextId")
	}
}

func (l todoList) add(text string) todoList {
	items := make([]Todo, len(l.Items), len(l.Items)+1)
	copy(items, l.Items)
	l.Items = append(items, Todo{ID: l.NextID, Text: text})
	l.NextID++
	return l
}

func firstString(args []any) string {
	if len(args) == 0 {
		return ""
	}
	s, _ := args[0].(string)
	return strings.TrimSpace(s)
}

func firstInt(args []any) (int, bool) {
	if len(args) == 0 {
		return 0, false
	}
	var n int
	if err := domain.Decode(args[0], &n); err != nil {
		return 0, false
	}
	return n, true
}

func slowFetch(ctx context.Context) ([]string, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(200 * time.Millisecond):
		return []string{"water the plants", "read the docs"}, nil
	}
}
