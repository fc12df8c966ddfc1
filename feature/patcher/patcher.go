package patcher

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"locafix/core/backup"
	"locafix/core/reconcile"
	"locafix/core/utils"
	"locafix/feature/patterns"
)

// SkipReason explains why a file was not patched.
type SkipReason string

const (
	SkipVCS      SkipReason = "vcs"
	SkipBinary   SkipReason = "binary"
	SkipReserved SkipReason = "reserved"
	SkipBackup   SkipReason = "backup_artifact"
	SkipEncoding SkipReason = "encoding"
)

// Result is the outcome of patching one file.
type Result struct {
	Path          string     `json:"path"`
	Modified      bool       `json:"modified"`
	MatchedIDs    []string   `json:"matched_ids,omitempty"`
	FiredPatterns []string   `json:"fired_patterns,omitempty"`
	Skipped       SkipReason `json:"skipped,omitempty"`
	Encoding      string     `json:"encoding,omitempty"`
	BackupPath    string     `json:"backup_path,omitempty"`
	Err           error      `json:"-"`
}

// Options controls side effects of a patcher.
type Options struct {
	// Ledger records backups for the current run. Required when backups are enabled.
	Ledger *backup.Ledger
	// DryRun computes results without backups or writes.
	DryRun bool
}

// Patcher rewrites references in files. It is safe for concurrent use.
type Patcher struct {
	codecs   []codec
	binary   map[string]struct{}
	vcs      map[string]struct{}
	reserved string
	backup   bool
	ledger   *backup.Ledger
	dryRun   bool
	rules    *patterns.Cache
}

// New creates a patcher from configuration.
func New(cfg Config, opts Options) (*Patcher, error) {
	codecs, err := resolveCodecs(cfg.Encodings)
	if err != nil {
		return nil, err
	}

	ledger := opts.Ledger
	if ledger == nil {
		ledger = backup.NewLedger()
	}

	return &Patcher{
		codecs:   codecs,
		binary:   utils.StringSet(cfg.BinaryExtensions, true),
		vcs:      utils.StringSet(cfg.VCSDirs, false),
		reserved: strings.ToLower(cfg.ReservedName),
		backup:   cfg.Backup,
		ledger:   ledger,
		dryRun:   opts.DryRun,
		rules:    patterns.NewCache(),
	}, nil
}

// SkipReason reports whether path is excluded before its content is read.
func (p *Patcher) SkipReason(path string) SkipReason {
	if utils.HasSegment(path, p.vcs) {
		return SkipVCS
	}
	if _, ok := p.binary[strings.ToLower(filepath.Ext(path))]; ok {
		return SkipBinary
	}
	base := strings.ToLower(filepath.Base(path))
	if p.reserved != "" && base == p.reserved {
		return SkipReserved
	}
	if strings.HasSuffix(base, backup.Suffix) {
		return SkipBackup
	}
	return ""
}

// Patch applies replacements to the file at path.
func (p *Patcher) Patch(path string, replacements reconcile.ReplacementMap) (res Result) {
	res.Path = path

	defer func() {
		if r := recover(); r != nil {
			res.Modified = false
			res.Err = fmt.Errorf("panic while patching %s: %v", path, r)
		}
	}()

	if reason := p.SkipReason(path); reason != "" {
		res.Skipped = reason
		return res
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		res.Err = fmt.Errorf("failed to read %s: %w", path, err)
		return res
	}

	c, content, err := decode(p.codecs, raw)
	if err != nil {
		res.Skipped = SkipEncoding
		return res
	}
	res.Encoding = c.name

	for _, id := range replacements.IDs() {
		if bytes.Contains(raw, []byte(id)) {
			res.MatchedIDs = append(res.MatchedIDs, id)
		}
	}
	if len(res.MatchedIDs) == 0 {
		return res
	}

	category := patterns.Classify(path)
	updated := content
	for _, id := range res.MatchedIDs {
		var fired []patterns.Firing
		updated, fired = p.rules.Apply(category, updated, id, replacements[id].Version)
		for _, f := range fired {
			res.FiredPatterns = append(res.FiredPatterns, f.String())
		}
	}

	if updated == content {
		return res
	}

	encoded, err := c.encode(updated)
	if err != nil {
		res.Err = err
		return res
	}

	if p.dryRun {
		res.Modified = true
		return res
	}

	if p.backup {
		backupPath, _, err := p.ledger.Ensure(path, raw)
		if err != nil {
			res.Err = err
			return res
		}
		res.BackupPath = backupPath
	}

	if err := utils.WriteFileAtomic(path, encoded, utils.FileMode(path)); err != nil {
		res.Err = fmt.Errorf("failed to write %s: %w", path, err)
		return res
	}

	res.Modified = true
	return res
}
