package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/tree"
)

// Overlay marks invocations on the rendered tree.
type Overlay struct {
	// Invoked holds dotted action paths that ran at least once.
	Invoked []string
	// Last is the dotted path of the most recent invocation.
	Last string
}

// GenerateMermaid renders an adapted tree as a Mermaid flowchart.
// Shapes:
// - Root: ((Circle))
// - Branch: [Rectangle]
// - Action: [[Subroutine]]
// - Value: [/Parallelogram/]
func GenerateMermaid(t *tree.Tree, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	rootID := "root"
	if len(t.Path()) > 0 {
		rootID = sanitizeMermaidID(tree.JoinPath(t.Path()))
	}
	sb.WriteString(fmt.Sprintf("    %s((\"%s\"))\n", rootID, t.Namespace()))
	writeBranch(&sb, t, rootID)

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps labels readable on both themes.
		sb.WriteString("    classDef invoked fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef last fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, p := range overlay.Invoked {
			id := sanitizeMermaidID(p)
			if id != "" && !seen[id] {
				seen[id] = true
				sb.WriteString(fmt.Sprintf("    class %s invoked;\n", id))
			}
		}
		if overlay.Last != "" {
			sb.WriteString(fmt.Sprintf("    class %s last;\n", sanitizeMermaidID(overlay.Last)))
		}
	}

	return sb.String()
}

func writeBranch(sb *strings.Builder, t *tree.Tree, parentID string) {
	for _, key := range t.Keys() {
		full := tree.JoinPath(append(t.Path(), key))
		id := sanitizeMermaidID(full)

		if sub, ok := t.Branch(key); ok {
			sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", id, key))
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", parentID, id))
			writeBranch(sb, sub, id)
			continue
		}
		if _, ok := t.Action(key); ok {
			sb.WriteString(fmt.Sprintf("    %s[[\"%s\"]]\n", id, key))
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", parentID, id))
			continue
		}
		if _, ok := t.Value(key); ok {
			sb.WriteString(fmt.Sprintf("    %s[/\"%s\"/]\n", id, key))
			sb.WriteString(fmt.Sprintf("    %s -.- %s\n", parentID, id))
		}
	}
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
