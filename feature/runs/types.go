package runs

import (
	"errors"
	"fmt"

	"locafix/core/utils"
	"locafix/feature/catalog"
	"locafix/feature/convert"
	"locafix/feature/dispatch"
	"locafix/feature/patcher"
)

var (
	// ErrRunNotFound is returned for unknown run ids.
	ErrRunNotFound = errors.New("run not found")
	// ErrNotConfirmed is returned when a mutating run was not confirmed.
	ErrNotConfirmed = errors.New("run must be confirmed or started as a dry run")
)

// ValidationError reports an invalid request before any work starts.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Config groups the settings a run needs.
type Config struct {
	Catalog  catalog.Config
	Patch    patcher.Config
	Dispatch dispatch.Config
	Convert  convert.Config
	// KeepReports bounds archived reports; 0 keeps everything.
	KeepReports int
}

// ReconcileRequest starts a reconcile run.
type ReconcileRequest struct {
	Original  string `json:"original"`
	Modified  string `json:"modified"`
	Dir       string `json:"dir"`
	Recursive *bool  `json:"recursive,omitempty"`
	NoBackup  bool   `json:"no_backup"`
	DryRun    bool   `json:"dry_run"`
	Confirmed bool   `json:"confirmed"`
}

// Validate checks paths and confirmation.
func (r ReconcileRequest) Validate() error {
	if err := r.ValidatePaths(); err != nil {
		return err
	}
	if !r.DryRun && !r.Confirmed {
		return ErrNotConfirmed
	}
	return nil
}

// ValidatePaths checks that both catalogs are files and the search root is a directory.
func (r ReconcileRequest) ValidatePaths() error {
	if !utils.IsFile(r.Original) {
		return &ValidationError{Field: "original", Reason: fmt.Sprintf("%q is not a file", r.Original)}
	}
	if !utils.IsFile(r.Modified) {
		return &ValidationError{Field: "modified", Reason: fmt.Sprintf("%q is not a file", r.Modified)}
	}
	if !utils.IsDir(r.Dir) {
		return &ValidationError{Field: "dir", Reason: fmt.Sprintf("%q is not a directory", r.Dir)}
	}
	return nil
}

// ConvertRequest starts a conversion run.
type ConvertRequest struct {
	Dir            string `json:"dir"`
	To             string `json:"to"`
	Recursive      *bool  `json:"recursive,omitempty"`
	DeleteOriginal bool   `json:"delete_original"`
}

// Validate checks the directory and target format.
func (r ConvertRequest) Validate() (convert.Format, error) {
	if !utils.IsDir(r.Dir) {
		return "", &ValidationError{Field: "dir", Reason: fmt.Sprintf("%q is not a directory", r.Dir)}
	}
	to, err := convert.ParseFormat(r.To)
	if err != nil {
		return "", &ValidationError{Field: "to", Reason: err.Error()}
	}
	return to, nil
}

// ReconcileSummary is the result of a reconcile run. All counts are always present.
type ReconcileSummary struct {
	NodesDeleted  int      `json:"nodes_deleted"`
	Replacements  int      `json:"replacements"`
	Kept          int      `json:"kept"`
	FilesModified int      `json:"files_modified"`
	FilesSkipped  int      `json:"files_skipped"`
	FilesErrored  int      `json:"files_errored"`
	TotalScanned  int      `json:"total_scanned"`
	ErrorFiles    []string `json:"error_files"`
	Backups       int      `json:"backups"`
	CatalogBackup string   `json:"catalog_backup,omitempty"`
	DryRun        bool     `json:"dry_run"`
}
