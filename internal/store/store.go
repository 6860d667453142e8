// Package store defines the hierarchical key-value collaborator the
// reconciler publishes into, plus a Badger-backed implementation and an
// in-memory double for tests. Paths are slash-separated; values are
// JSON-encoded.
package store

// StateStore is the capability set the reconciler needs: idempotent node
// creation, change-detecting writes, prefix listing, and recursive
// deletion.
type StateStore interface {
	// EnsureNode creates an empty marker at path if absent. Idempotent.
	EnsureNode(path string) error

	// WriteValue JSON-encodes value and stores it at path, but only
	// issues a mutation if the stored bytes differ. Reports whether a
	// write happened.
	WriteValue(path string, value any) (bool, error)

	// List returns every key under prefix (the prefix key itself
	// included, if present).
	List(prefix string) ([]string, error)

	// DeleteTree removes the key at path and everything below it,
	// returning the number of deleted keys.
	DeleteTree(path string) (int, error)
}
