// Package catalog reads and rewrites localization catalogs.
//
// A catalog is an XML document whose content elements carry a contentuid, an
// optional version and the translated text:
//
//	<contentList>
//	    <content contentuid="h100" version="1">Hello</content>
//	</contentList>
//
// # Loading
//
// Load parses a catalog into an ordered entry list while keeping the document
// tree, so untouched nodes are serialized back as they were read. Elements
// without the id attribute are ignored. Text is the character data before the
// first child element; an element with no character data has no text at all.
// A catalog declaring a non-UTF-8 encoding is decoded on load and written
// back in that encoding.
//
// # Writing
//
// Apply removes reverted nodes through their parent and persists the document
// in a single atomic write, creating a backup first through the run's ledger.
// A catalog with nothing removed is never rewritten.
//
// # Usage
//
//	cat, err := catalog.Load("Localization/English/english.xml", cfg.Catalog)
//	deleted, err := catalog.Apply(cat, decision.Reverts, catalog.ApplyOptions{Backup: true, Ledger: ledger})
package catalog
