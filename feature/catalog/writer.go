package catalog

import (
	"fmt"

	"locafix/core/backup"
	"locafix/core/reconcile"
	"locafix/core/utils"

	"github.com/beevik/etree"
)

// ApplyOptions controls how a catalog is rewritten.
type ApplyOptions struct {
	// Backup requests a `.backup` copy before the catalog is overwritten.
	Backup bool
	// Ledger tracks backups for the current run. A nil ledger creates a private one.
	Ledger *backup.Ledger
	// DryRun counts removable nodes without touching the document or the file.
	DryRun bool
}

// Apply removes the reverted nodes from cat and writes the result back to cat.Path.
// It returns the number of nodes removed. When nothing is removed the file is left untouched.
func Apply(cat *Catalog, reverts []reconcile.Revert, opts ApplyOptions) (int, error) {
	targets, err := cat.resolve(reverts)
	if err != nil {
		return 0, err
	}
	if len(targets) == 0 || opts.DryRun {
		return len(targets), nil
	}

	deleted := 0
	for _, el := range targets {
		if removeNode(cat.doc, el) {
			deleted++
		}
	}
	if deleted == 0 {
		return 0, nil
	}

	data, err := cat.Bytes()
	if err != nil {
		return 0, fmt.Errorf("failed to serialize catalog %s: %w", cat.Path, err)
	}

	if opts.Backup {
		ledger := opts.Ledger
		if ledger == nil {
			ledger = backup.NewLedger()
		}
		if _, _, err := ledger.Ensure(cat.Path, nil); err != nil {
			return 0, err
		}
	}

	if err := utils.WriteFileAtomic(cat.Path, data, utils.FileMode(cat.Path)); err != nil {
		return 0, fmt.Errorf("failed to write catalog %s: %w", cat.Path, err)
	}

	cat.forget(targets)
	return deleted, nil
}

// Bytes serializes the document, adding an XML declaration when the source had none.
func (c *Catalog) Bytes() ([]byte, error) {
	ensureDeclaration(c.doc)
	c.doc.WriteSettings.CanonicalText = true
	c.doc.WriteSettings.CanonicalAttrVal = true
	data, err := c.doc.WriteToBytes()
	if err != nil || c.charset == nil {
		return data, err
	}
	return c.charset.NewEncoder().Bytes(data)
}

// resolve maps reverts to document nodes, deduplicating repeated positions.
func (c *Catalog) resolve(reverts []reconcile.Revert) ([]*etree.Element, error) {
	seen := make(map[int]struct{}, len(reverts))
	targets := make([]*etree.Element, 0, len(reverts))
	for _, r := range reverts {
		if r.Position < 0 || r.Position >= len(c.nodes) || c.Entries[r.Position].ID != r.ID {
			return nil, fmt.Errorf("%w: %s at %d in %s", ErrStaleRevert, r.ID, r.Position, c.Path)
		}
		if _, dup := seen[r.Position]; dup {
			continue
		}
		seen[r.Position] = struct{}{}
		targets = append(targets, c.nodes[r.Position])
	}
	return targets, nil
}

// forget drops removed nodes from the entry list so the catalog reflects the written file.
func (c *Catalog) forget(removed []*etree.Element) {
	gone := make(map[*etree.Element]struct{}, len(removed))
	for _, el := range removed {
		gone[el] = struct{}{}
	}

	entries := c.Entries[:0]
	nodes := c.nodes[:0]
	for i, el := range c.nodes {
		if _, ok := gone[el]; ok {
			continue
		}
		entries = append(entries, c.Entries[i])
		nodes = append(nodes, el)
	}
	c.Entries = entries
	c.nodes = nodes
}

// removeNode detaches el from its parent together with the whitespace that follows it.
// The document root is never removed.
func removeNode(doc *etree.Document, el *etree.Element) bool {
	parent := el.Parent()
	if parent == nil || parent == &doc.Element {
		return false
	}
	idx := el.Index()
	parent.RemoveChildAt(idx)
	if idx < len(parent.Child) {
		if cd, ok := parent.Child[idx].(*etree.CharData); ok && cd.IsWhitespace() {
			parent.RemoveChildAt(idx)
		}
	}
	return true
}

func ensureDeclaration(doc *etree.Document) {
	for _, tok := range doc.Child {
		if pi, ok := tok.(*etree.ProcInst); ok && pi.Target == "xml" {
			return
		}
	}
	doc.InsertChildAt(0, etree.NewProcInst("xml", `version="1.0" encoding="utf-8"`))
	doc.InsertChildAt(1, etree.NewText("\n"))
}
