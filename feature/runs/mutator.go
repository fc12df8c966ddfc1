package runs

import (
	"context"

	"locafix/core/backup"
	"locafix/core/reconcile"
	"locafix/feature/catalog"
	"locafix/feature/dispatch"
	"locafix/feature/patcher"
)

// fileMutator applies a reconcile plan to the modified catalog and the search tree.
// In dry-run mode both stages only simulate their writes.
type fileMutator struct {
	catalog    *catalog.Catalog
	ledger     *backup.Ledger
	backup     bool
	dryRun     bool
	patcher    *patcher.Patcher
	dispatcher *dispatch.Dispatcher
	root       string
	recursive  *bool
	reporter   dispatch.Reporter

	outcome *dispatch.Outcome
}

var _ reconcile.Mutator = (*fileMutator)(nil)

func (m *fileMutator) DeleteNodes(_ context.Context, reverts []reconcile.Revert) (int, error) {
	return catalog.Apply(m.catalog, reverts, catalog.ApplyOptions{
		Backup: m.backup,
		Ledger: m.ledger,
		DryRun: m.dryRun,
	})
}

func (m *fileMutator) PatchReferences(ctx context.Context, replacements reconcile.ReplacementMap) error {
	work := func(_ context.Context, path string) dispatch.Unit {
		res := m.patcher.Patch(path, replacements)
		unit := dispatch.Unit{Path: path, Modified: res.Modified, Err: res.Err, Detail: res}
		switch {
		case res.Err != nil:
			unit.State = dispatch.UnitError
		case res.Skipped != "":
			unit.State = dispatch.UnitSkipped
		default:
			unit.State = dispatch.UnitDone
		}
		return unit
	}

	outcome, err := m.dispatcher.Run(ctx, m.root, work, dispatch.RunOptions{
		Reporter:  m.reporter,
		Recursive: m.recursive,
	})
	m.outcome = outcome
	return err
}
