package patterns

import (
	"path/filepath"
	"strings"
)

// Category identifies which rule table applies to a file.
type Category string

const (
	// CategoryGeneric files only get the quoted-identifier rule.
	CategoryGeneric Category = "generic"
	// CategoryMarkup is the human-readable markup format.
	CategoryMarkup Category = "category-a"
	// CategoryStructured is the JSON-like sibling format.
	CategoryStructured Category = "category-b"
)

var extensions = map[string]Category{
	".lsx": CategoryMarkup,
	".xml": CategoryMarkup,
	".lsj": CategoryStructured,
}

// Classify returns the category of path based on its extension.
func Classify(path string) Category {
	if c, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return c
	}
	return CategoryGeneric
}
