package dispatch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// StateDir is the tool storage directory skipped by scans.
const StateDir = ".locafix"

// ErrRunLocked is returned when another run holds the tree.
var ErrRunLocked = errors.New("another run is already processing this directory")

// LockDir holds the run lock files. The processed tree itself is never written.
var LockDir = filepath.Join(os.TempDir(), "locafix", "locks")

// LockPath returns the lock file for root, keyed by its absolute path.
func LockPath(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", root, err)
	}
	key := uuid.NewSHA1(uuid.NameSpaceURL, []byte(filepath.Clean(abs)))
	return filepath.Join(LockDir, key.String()+".lock"), nil
}

// Lock takes the per-tree run lock. The returned function releases it.
func Lock(root string) (func() error, error) {
	path, err := LockPath(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}

	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrRunLocked
	}
	return lock.Unlock, nil
}
