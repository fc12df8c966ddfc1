package reconcile

import "sort"

// Entry is one content-bearing element of a catalog.
type Entry struct {
	// ID is the contentuid of the entry.
	ID string `json:"id"`

	// Version is the version attribute; empty when the attribute is missing.
	Version string `json:"version"`

	// Text is the translated string. Nil means the element has no text at all,
	// which is distinct from an empty string.
	Text *string `json:"text,omitempty"`
}

// HasText reports whether the entry carries text (possibly empty).
func (e Entry) HasText() bool {
	return e.Text != nil
}

// Source is anything that exposes catalog entries in document order.
type Source interface {
	// Name identifies the source in logs and reports (usually the file path).
	Name() string

	// Items returns every entry in document order, duplicates included.
	Items() []Entry
}

// Replacement describes how references to one contentuid are rewritten.
// OldID always equals NewID: only the version is reverted, never the identity.
type Replacement struct {
	OldID   string `json:"old_id"`
	NewID   string `json:"new_id"`
	Version string `json:"version"`
}

// ReplacementMap maps a contentuid to its replacement. It is built once before
// dispatch and shared read-only by every worker.
type ReplacementMap map[string]Replacement

// IDs returns the keys of the map in sorted order.
func (m ReplacementMap) IDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Revert identifies one node of the modified catalog that must be removed.
type Revert struct {
	// ID is the contentuid of the node.
	ID string `json:"id"`

	// Position is the index of the node in the modified catalog's Items().
	Position int `json:"position"`

	// FromVersion is the version found in the modified catalog.
	FromVersion string `json:"from_version"`

	// ToVersion is the version of the original catalog.
	ToVersion string `json:"to_version"`
}

// Decision is the output of Reconcile.
type Decision struct {
	// ToRevert is the sorted set of ids whose version change is spurious.
	ToRevert []string `json:"to_revert"`

	// ToKeep is the sorted set of ids whose version and text both changed.
	ToKeep []string `json:"to_keep"`

	// Reverts lists every node of the modified catalog to remove.
	Reverts []Revert `json:"reverts"`

	// Replacements carries the original version of every reverted id.
	Replacements ReplacementMap `json:"replacements"`

	// OriginalEntries is the number of entries read from the original catalog.
	OriginalEntries int `json:"original_entries"`

	// ModifiedEntries is the number of entries read from the modified catalog.
	ModifiedEntries int `json:"modified_entries"`

	// Shared is the number of modified entries whose id exists in the original.
	Shared int `json:"shared"`
}

// ActionType represents the type of mutation action.
type ActionType string

const (
	// ActionDeleteNode removes a reverted node from the modified catalog.
	ActionDeleteNode ActionType = "delete_node"
	// ActionPatchReferences rewrites references to a reverted id across the file tree.
	ActionPatchReferences ActionType = "patch_references"
)

// Action represents a planned mutation operation.
type Action struct {
	// Type specifies the action to perform.
	Type ActionType `json:"type"`

	// Key is the contentuid the action applies to.
	Key string `json:"key"`

	// Reason explains why this action is needed.
	Reason string `json:"reason"`

	// Revert is populated for ActionDeleteNode.
	Revert *Revert `json:"-"`
}

// Plan contains the reconciliation decision and planned actions.
type Plan struct {
	// Decision is the raw reconciliation output.
	Decision *Decision `json:"decision"`

	// Actions contains planned mutation operations, node deletions first.
	Actions []Action `json:"actions"`

	// Summary provides aggregate counts.
	Summary PlanSummary `json:"summary"`
}

// PlanSummary provides aggregate statistics for a plan.
type PlanSummary struct {
	// OriginalEntries is the number of entries in the original catalog.
	OriginalEntries int `json:"original_entries"`

	// ModifiedEntries is the number of entries in the modified catalog.
	ModifiedEntries int `json:"modified_entries"`

	// Shared counts modified entries whose id exists in the original.
	Shared int `json:"shared"`

	// Reverted counts ids planned for revert.
	Reverted int `json:"reverted"`

	// Kept counts ids with a legitimate content change.
	Kept int `json:"kept"`

	// DeleteActions counts planned node deletions.
	DeleteActions int `json:"delete_actions"`

	// PatchActions counts planned reference patches.
	PatchActions int `json:"patch_actions"`
}

// Options controls plan execution.
type Options struct {
	// DryRun prevents execution of any mutations if true.
	DryRun bool

	// Confirmed indicates the user has confirmed destructive actions.
	// If false, mutations will not execute regardless of DryRun.
	Confirmed bool

	// Backup requests a `.backup` copy before any file is rewritten.
	Backup bool
}
