// Package backup creates the `<path>.backup` artifacts written before any file is modified.
//
// A Ledger is scoped to a single run and guarantees that a backup, once created for a
// path, is never overwritten again within that run, even when two stages (the catalog
// writer and the file patcher) touch the same file.
package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"locafix/core/utils"
)

// Suffix is appended to a file path to form its backup path.
const Suffix = ".backup"

// PathFor returns the backup path of path.
func PathFor(path string) string {
	return path + Suffix
}

// Ledger records which paths already received a backup during one run.
// It is safe for concurrent use by many workers.
type Ledger struct {
	mu      sync.Mutex
	written map[string]string
}

// NewLedger creates an empty ledger for one run.
func NewLedger() *Ledger {
	return &Ledger{written: make(map[string]string)}
}

// Ensure writes the backup of path exactly once per run.
// If original is nil the current file content is copied; otherwise original is written
// verbatim, which lets callers back up the exact bytes they read.
// It returns the backup path and whether this call created it.
func (l *Ledger) Ensure(path string, original []byte) (string, bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.written[abs]; ok {
		return existing, false, nil
	}

	data := original
	if data == nil {
		data, err = os.ReadFile(path)
		if err != nil {
			return "", false, fmt.Errorf("read %s for backup: %w", path, err)
		}
	}

	target := PathFor(path)
	if err := utils.WriteFileAtomic(target, data, utils.FileMode(path)); err != nil {
		return "", false, fmt.Errorf("write backup %s: %w", target, err)
	}

	l.written[abs] = target
	return target, true, nil
}

// Len returns the number of backups created in this run.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.written)
}

// Paths returns the backup paths created in this run.
func (l *Ledger) Paths() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	paths := make([]string, 0, len(l.written))
	for _, p := range l.written {
		paths = append(paths, p)
	}
	return paths
}
