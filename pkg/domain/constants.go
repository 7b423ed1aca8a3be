package domain

// DefaultNamespace is used whenever a caller supplies an empty namespace.
// A namespace names both the notification channel and the persistence key.
const DefaultNamespace = "state.changes"

// KeyInitial is the reserved branch key carrying an initial state fragment.
// It is never treated as an action or a nested branch.
const KeyInitial = "initial"

// NamespaceOrDefault returns ns, or DefaultNamespace when ns is empty.
func NamespaceOrDefault(ns string) string {
	if ns == "" {
		return DefaultNamespace
	}
	return ns
}
