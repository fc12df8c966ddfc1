package reconcile

import (
	"context"
	"fmt"
)

// BuildPlan turns a decision into ordered actions.
// Node deletions come first so the catalog is consistent before references are patched.
func BuildPlan(decision *Decision, opts Options) *Plan {
	plan := &Plan{
		Decision: decision,
		Summary: PlanSummary{
			OriginalEntries: decision.OriginalEntries,
			ModifiedEntries: decision.ModifiedEntries,
			Shared:          decision.Shared,
			Reverted:        len(decision.ToRevert),
			Kept:            len(decision.ToKeep),
		},
	}

	for i := range decision.Reverts {
		r := decision.Reverts[i]
		plan.Actions = append(plan.Actions, Action{
			Type:   ActionDeleteNode,
			Key:    r.ID,
			Reason: fmt.Sprintf("text unchanged, version %q -> %q", r.FromVersion, r.ToVersion),
			Revert: &r,
		})
		plan.Summary.DeleteActions++
	}

	for _, id := range decision.Replacements.IDs() {
		rep := decision.Replacements[id]
		plan.Actions = append(plan.Actions, Action{
			Type:   ActionPatchReferences,
			Key:    id,
			Reason: fmt.Sprintf("restore version %q in referencing files", rep.Version),
		})
		plan.Summary.PatchActions++
	}

	return plan
}

// ApplyPlan executes the actions in a plan through the mutator.
// Returns the number of catalog nodes deleted and any error encountered.
// Requires opts.Confirmed=true and opts.DryRun=false to actually execute.
func ApplyPlan(ctx context.Context, plan *Plan, mutator Mutator, opts Options) (deleted int, err error) {
	// Safety check: do not execute if not confirmed or dry-run
	if !opts.Confirmed || opts.DryRun {
		return 0, nil
	}
	if mutator == nil {
		return 0, fmt.Errorf("no mutator configured")
	}

	var reverts []Revert
	for _, action := range plan.Actions {
		if action.Type == ActionDeleteNode && action.Revert != nil {
			reverts = append(reverts, *action.Revert)
		}
	}

	if len(reverts) > 0 {
		deleted, err = mutator.DeleteNodes(ctx, reverts)
		if err != nil {
			return deleted, fmt.Errorf("failed to delete catalog nodes: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return deleted, err
	}

	if plan.Summary.PatchActions > 0 {
		if err := mutator.PatchReferences(ctx, plan.Decision.Replacements); err != nil {
			return deleted, fmt.Errorf("failed to patch references: %w", err)
		}
	}

	return deleted, nil
}
