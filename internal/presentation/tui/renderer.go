package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// If the terminal renderer cannot be built, markdown is returned as is.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return PlainRenderer
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// PlainRenderer returns markdown unchanged, for pipes and files.
func PlainRenderer(markdown string) (string, error) {
	return markdown, nil
}

// StateMarkdown describes a persisted snapshot as markdown.
func StateMarkdown(namespace string, state any) (string, error) {
	body, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal state: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", namespace))
	if m, ok := state.(map[string]any); ok {
		sb.WriteString(fmt.Sprintf("%d top-level keys\n\n", len(m)))
	}
	sb.WriteString("```json\n")
	sb.Write(body)
	sb.WriteString("\n```\n")
	return sb.String(), nil
}

// ListMarkdown renders stored namespaces as a bullet list.
func ListMarkdown(keys []string) string {
	if len(keys) == 0 {
		return "_No stored state._\n"
	}
	var sb strings.Builder
	sb.WriteString("# Stored namespaces\n\n")
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("- `%s`\n", k))
	}
	return sb.String()
}
