// Package reconcile compares two versions of a localization catalog and decides which
// entries of the newer catalog carry a spurious version bump.
//
// An entry is reverted only when it exists in both catalogs under the same contentuid,
// its text is byte-identical, and its version differs. An entry whose text changed is a
// legitimate update and is never reverted, whatever its version says.
//
// # Architecture
//
// The package consists of three parts:
//
// 1. Engine: Reconcile walks the modified catalog against an index of the original one and
// produces a Decision (ids to revert, ids to keep, and the ReplacementMap carrying each
// original version).
//
// 2. Plan: BuildPlan turns a Decision into ordered Actions with a PlanSummary. ApplyPlan
// executes them through a Mutator, and refuses to mutate anything unless the caller
// confirmed the run and it is not a dry run.
//
// 3. Cache: CatalogCache deduplicates concurrent loads of the same catalog file with
// singleflight, keyed on path, size and modification time.
//
// # Usage Example
//
//	decision := reconcile.Reconcile(original, modified)
//	plan := reconcile.BuildPlan(decision, reconcile.Options{Backup: true})
//
//	deleted, err := reconcile.ApplyPlan(ctx, plan, mutator, reconcile.Options{Confirmed: true})
package reconcile
