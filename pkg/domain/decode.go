package domain

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Decode copies the tree-shaped state (or one of its branches) into a typed
// struct. Field names are matched using `json` tags, so the same struct can be
// used for persistence and for typed reads.
//
//	var todos struct {
//		Items []string `json:"items"`
//	}
//	err := domain.Decode(state.Branch("todos"), &todos)
func Decode(in any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to build state decoder: %w", err)
	}
	if err := dec.Decode(in); err != nil {
		return fmt.Errorf("failed to decode state: %w", err)
	}
	return nil
}
