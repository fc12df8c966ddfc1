package reconcile

import "sort"

// Reconcile compares modified against original and returns which entries to revert.
//
// For every entry of modified whose id also exists in original:
//   - equal versions: nothing happens, whatever the text says;
//   - different versions and byte-identical text: the entry is reverted;
//   - different versions and different text: the entry is kept.
//
// Text comparison is exact: a nil text only equals another nil text.
// When an id occurs several times, the original is indexed last-wins, and any
// occurrence in modified that must be kept cancels all reverts of that id.
func Reconcile(original, modified Source) *Decision {
	originalItems := original.Items()
	modifiedItems := modified.Items()

	index := make(map[string]Entry, len(originalItems))
	for _, e := range originalItems {
		index[e.ID] = e
	}

	decision := &Decision{
		Replacements:    make(ReplacementMap),
		OriginalEntries: len(originalItems),
		ModifiedEntries: len(modifiedItems),
	}

	revertIDs := make(map[string]struct{})
	keepIDs := make(map[string]struct{})
	var reverts []Revert

	for pos, e := range modifiedItems {
		orig, ok := index[e.ID]
		if !ok {
			continue
		}
		decision.Shared++

		if e.Version == orig.Version {
			continue
		}

		if sameText(e, orig) {
			revertIDs[e.ID] = struct{}{}
			reverts = append(reverts, Revert{
				ID:          e.ID,
				Position:    pos,
				FromVersion: e.Version,
				ToVersion:   orig.Version,
			})
			continue
		}

		keepIDs[e.ID] = struct{}{}
	}

	// A kept id must never be reverted, even if another occurrence qualified
	for id := range keepIDs {
		delete(revertIDs, id)
	}

	for _, r := range reverts {
		if _, ok := revertIDs[r.ID]; !ok {
			continue
		}
		decision.Reverts = append(decision.Reverts, r)
		decision.Replacements[r.ID] = Replacement{
			OldID:   r.ID,
			NewID:   r.ID,
			Version: r.ToVersion,
		}
	}

	decision.ToRevert = sortedKeys(revertIDs)
	decision.ToKeep = sortedKeys(keepIDs)

	return decision
}

func sameText(a, b Entry) bool {
	if !a.HasText() || !b.HasText() {
		return a.HasText() == b.HasText()
	}
	return *a.Text == *b.Text
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
