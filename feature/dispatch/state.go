package dispatch

// State is the lifecycle state of a run.
type State string

const (
	StateIdle        State = "idle"
	StateScanning    State = "scanning"
	StateDispatching State = "dispatching"
	StateAggregating State = "aggregating"
	StateCompleted   State = "completed"
	StateCanceled    State = "canceled"
)

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCanceled
}

// UnitState is the lifecycle state of one file.
type UnitState string

const (
	UnitPending UnitState = "pending"
	UnitRunning UnitState = "running"
	UnitDone    UnitState = "done"
	UnitSkipped UnitState = "skipped"
	UnitError   UnitState = "error"
)

// Unit is the result of processing one file.
type Unit struct {
	Path     string
	State    UnitState
	Modified bool
	Err      error
	// Detail carries the work-specific result (a patch or conversion record).
	Detail any
}
