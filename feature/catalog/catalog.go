package catalog

import (
	"fmt"
	"io"
	"os"
	"sort"

	"locafix/core/reconcile"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// Catalog is a parsed localization catalog.
// It implements reconcile.Source.
type Catalog struct {
	// Path is the file the catalog was read from.
	Path string
	// Entries holds every content entry in document order.
	Entries []reconcile.Entry
	// Duplicates lists ids that occur more than once, sorted.
	Duplicates []string

	doc   *etree.Document
	nodes []*etree.Element
	// charset is the declared non-UTF-8 encoding, nil for UTF-8 documents.
	charset encoding.Encoding
}

// Name returns the catalog path.
func (c *Catalog) Name() string {
	return c.Path
}

// Items returns the entries in document order.
func (c *Catalog) Items() []reconcile.Entry {
	return c.Entries
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.Entries)
}

// Load reads and parses the catalog at path.
func Load(path string, cfg Config) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return Parse(path, data, cfg)
}

// Parse builds a catalog from raw document bytes. name is used as the catalog path.
func Parse(name string, data []byte, cfg Config) (*Catalog, error) {
	cfg = cfg.withDefaults()
	if !cfg.IsValidDuplicates() {
		return nil, fmt.Errorf("unknown duplicate policy %q", cfg.Duplicates)
	}

	var declared encoding.Encoding
	doc := etree.NewDocument()
	doc.ReadSettings.PreserveCData = true
	doc.ReadSettings.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		enc, err := lookupCharset(label)
		if err != nil {
			return nil, err
		}
		declared = enc
		return enc.NewDecoder().Reader(input), nil
	}
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, &ParseError{Path: name, Err: err}
	}
	root := doc.Root()
	if root == nil {
		return nil, &ParseError{Path: name, Err: ErrNoRoot}
	}

	cat := &Catalog{Path: name, doc: doc, charset: declared}
	seen := make(map[string]int)

	for _, el := range collect(root, cfg.Element) {
		attr := el.SelectAttr(cfg.IDAttr)
		if attr == nil {
			continue
		}
		seen[attr.Value]++
		if seen[attr.Value] == 2 {
			if cfg.Duplicates == DuplicatesError {
				return nil, &ParseError{Path: name, Err: fmt.Errorf("%w: %s", ErrDuplicateID, attr.Value)}
			}
			cat.Duplicates = append(cat.Duplicates, attr.Value)
		}

		cat.Entries = append(cat.Entries, reconcile.Entry{
			ID:      attr.Value,
			Version: el.SelectAttrValue(cfg.VersionAttr, ""),
			Text:    leadingText(el),
		})
		cat.nodes = append(cat.nodes, el)
	}

	sort.Strings(cat.Duplicates)
	return cat, nil
}

// collect returns every element named tag in document order, root included.
func collect(root *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		if el.Tag == tag {
			out = append(out, el)
		}
		for _, child := range el.ChildElements() {
			walk(child)
		}
	}
	walk(root)
	return out
}

// leadingText returns the character data before the first child element.
// Comments are transparent. Nil means the element has no character data there.
func leadingText(el *etree.Element) *string {
	var text string
	found := false
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			text += t.Data
			found = true
		case *etree.Comment:
			continue
		default:
			if found {
				return &text
			}
			return nil
		}
	}
	if !found {
		return nil
	}
	return &text
}

// lookupCharset resolves a declared encoding label.
func lookupCharset(label string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCharset, label)
	}
	return enc, nil
}
