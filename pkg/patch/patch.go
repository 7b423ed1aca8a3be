package patch

import "strings"

// ParsePath splits a dot-delimited path into its keys.
// Empty segments are dropped, so "a..b" and ".a.b." both yield ["a", "b"].
func ParsePath(path string) []string {
	if path == "" {
		return []string{}
	}
	parts := strings.Split(path, ".")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			keys = append(keys, p)
		}
	}
	return keys
}

// JoinPath is the inverse of ParsePath.
func JoinPath(keys []string) string {
	return strings.Join(keys, ".")
}

// Set returns a copy of root with value placed at path.
// Missing intermediate keys, and intermediate values that are not maps, are
// replaced by fresh maps of type M. An empty path returns value itself when it
// is a map, otherwise root is returned unchanged.
func Set[M ~map[string]any](root M, path []string, value any) M {
	if len(path) == 0 {
		if m, ok := asMap[M](value); ok {
			return m
		}
		return root
	}

	out := make(M, len(root)+1)
	for k, v := range root {
		out[k] = v
	}

	key := path[0]
	if len(path) == 1 {
		out[key] = value
		return out
	}

	child, _ := asMap[M](root[key])
	out[key] = Set(child, path[1:], value)
	return out
}

// Get returns the value stored at path and whether every segment resolved.
func Get[M ~map[string]any](root M, path []string) (any, bool) {
	var current any = root
	for _, key := range path {
		m, ok := asMap[M](current)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Delete returns a copy of root without the value at path.
// If the path does not resolve, root is returned as is.
func Delete[M ~map[string]any](root M, path []string) M {
	if len(path) == 0 {
		return root
	}
	if _, ok := Get(root, path); !ok {
		return root
	}

	out := make(M, len(root))
	for k, v := range root {
		out[k] = v
	}
	if len(path) == 1 {
		delete(out, path[0])
		return out
	}
	child, _ := asMap[M](root[path[0]])
	out[path[0]] = Delete(child, path[1:])
	return out
}

// Clone deep-copies the map structure of root. Leaf values are shared.
// Nested maps keep their concrete type.
func Clone[M ~map[string]any](root M) M {
	if root == nil {
		return nil
	}
	out := make(M, len(root))
	for k, v := range root {
		switch m := v.(type) {
		case M:
			out[k] = Clone(m)
		case map[string]any:
			out[k] = Clone(m)
		default:
			out[k] = v
		}
	}
	return out
}

// asMap accepts both M and a plain map[string]any, which is what JSON decoding
// produces for nested objects.
func asMap[M ~map[string]any](v any) (M, bool) {
	switch m := v.(type) {
	case M:
		return m, true
	case map[string]any:
		return M(m), true
	default:
		return nil, false
	}
}
