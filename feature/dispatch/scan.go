package dispatch

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"locafix/core/backup"
	"locafix/core/utils"

	"github.com/bmatcuk/doublestar/v4"
)

// ScanOptions controls which files a scan returns.
type ScanOptions struct {
	Recursive    bool
	ExcludeDirs  []string
	Ignore       []string
	ReservedName string
	// Match, when set, keeps only paths for which it returns true.
	Match func(path string) bool
	// OnError receives entries below root that could not be read. They are skipped.
	OnError func(path string, err error)
}

// walkDir is replaced in tests to inject unreadable entries.
var walkDir = filepath.WalkDir

// Scan lists the regular files under root in lexical order.
func Scan(ctx context.Context, root string, opts ScanOptions) ([]string, error) {
	for _, pattern := range opts.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid ignore pattern %q", pattern)
		}
	}

	excluded := utils.StringSet(opts.ExcludeDirs, false)
	reserved := strings.ToLower(opts.ReservedName)

	var files []string
	err := walkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			if opts.OnError != nil {
				opts.OnError(path, err)
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := excluded[d.Name()]; skip || !opts.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		name := strings.ToLower(d.Name())
		if reserved != "" && name == reserved {
			return nil
		}
		if strings.HasSuffix(name, backup.Suffix) {
			return nil
		}
		if ignored(root, path, opts.Ignore) {
			return nil
		}
		if opts.Match != nil && !opts.Match(path) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return files, err
	}
	return files, nil
}

func ignored(root, path string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
