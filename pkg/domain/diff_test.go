package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name     string
		old      State
		new      State
		wantDiff *StateDiff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new:  State{"a": 1},
			wantDiff: &StateDiff{
				Namespace: "ns",
				Changes:   map[string]any{"a": 1},
			},
		},
		{
			name:     "No Changes",
			old:      State{"a": 1, "b": State{"c": true}},
			new:      State{"a": 1, "b": State{"c": true}},
			wantDiff: nil,
		},
		{
			name: "Modified Nested Branch",
			old:  State{"a": 1, "b": State{"c": true}},
			new:  State{"a": 1, "b": State{"c": false}},
			wantDiff: &StateDiff{
				Namespace: "ns",
				Changes:   map[string]any{"b": State{"c": false}},
			},
		},
		{
			name: "Added and Deleted",
			old:  State{"gone": 1},
			new:  State{"fresh": 2},
			wantDiff: &StateDiff{
				Namespace: "ns",
				Changes:   map[string]any{"gone": nil, "fresh": 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff("ns", tt.old, tt.new)
			assert.Equal(t, tt.wantDiff, got)
			if tt.wantDiff == nil {
				assert.True(t, got.IsEmpty())
			}
		})
	}
}

func TestDiff_JSONShape(t *testing.T) {
	diff := Diff("ns", State{"gone": 1}, State{})

	data, err := json.Marshal(diff)
	require.NoError(t, err)
	assert.JSONEq(t, `{"namespace":"ns","changes":{"gone":null}}`, string(data))
}
