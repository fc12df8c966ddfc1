package history

import "time"

// Run kinds.
const (
	KindReconcile = "reconcile"
	KindConvert   = "convert"
)

// Record is one journal row.
type Record struct {
	ID         string    `gorm:"column:id;primaryKey;size:36" json:"id"`
	Kind       string    `gorm:"column:kind;size:16;index" json:"kind"`
	State      string    `gorm:"column:state;size:16" json:"state"`
	Root       string    `gorm:"column:root;size:1024" json:"root"`
	DryRun     bool      `gorm:"column:dry_run" json:"dry_run"`
	Summary    string    `gorm:"column:summary;type:text" json:"summary"`
	Error      string    `gorm:"column:error;type:text" json:"error,omitempty"`
	StartedAt  time.Time `gorm:"column:started_at;index" json:"started_at"`
	FinishedAt time.Time `gorm:"column:finished_at" json:"finished_at"`
}

// TableName overrides the GORM table name.
func (Record) TableName() string {
	return "locafix_runs"
}

// Duration returns how long the run took.
func (r Record) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

var recordColumns = []string{"id", "kind", "state", "root", "dry_run", "summary", "error", "started_at", "finished_at"}
