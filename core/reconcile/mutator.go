package reconcile

import "context"

// Mutator applies a plan to the outside world.
// The catalog writer and the file-tree patcher together implement it; tests use a mock.
type Mutator interface {
	// DeleteNodes removes the reverted nodes from the modified catalog and persists it.
	// It returns the number of nodes actually removed.
	DeleteNodes(ctx context.Context, reverts []Revert) (int, error)

	// PatchReferences rewrites references to the reverted ids across the file tree.
	PatchReferences(ctx context.Context, replacements ReplacementMap) error
}
