package runs

import (
	"context"
	"sync"
	"time"

	"locafix/feature/dispatch"
	"locafix/feature/history"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// State is the lifecycle state of a run as seen by callers.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateCanceled  State = "canceled"
	StateAborted   State = "aborted"
)

// Terminal reports whether the run has finished.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCanceled || s == StateAborted
}

// MaxMessages bounds the status messages kept per run.
const MaxMessages = 200

// Run is one reconcile or conversion invocation. It implements dispatch.Reporter.
type Run struct {
	ID     string
	Kind   string
	Root   string
	DryRun bool

	mu         sync.RWMutex
	state      State
	phase      dispatch.State
	percent    int
	messages   []string
	result     any
	err        error
	startedAt  time.Time
	finishedAt time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// Snapshot is a point-in-time copy of a run.
type Snapshot struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"`
	Root       string         `json:"root"`
	DryRun     bool           `json:"dry_run"`
	State      State          `json:"state"`
	Phase      dispatch.State `json:"phase,omitempty"`
	Percent    int            `json:"percent"`
	Messages   []string       `json:"messages"`
	Result     any            `json:"result,omitempty"`
	Error      string         `json:"error,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}

func newRun(kind, root string, dryRun bool) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Kind:      kind,
		Root:      root,
		DryRun:    dryRun,
		state:     StatePending,
		messages:  []string{},
		startedAt: time.Now(),
		cancel:    func() {},
		done:      make(chan struct{}),
	}
}

// Status records a status message.
func (r *Run) Status(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	if over := len(r.messages) - MaxMessages; over > 0 {
		r.messages = append(r.messages[:0:0], r.messages[over:]...)
	}
}

// Progress records the completion percentage. It never moves backwards.
func (r *Run) Progress(percent int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if percent > r.percent {
		r.percent = min(percent, 100)
	}
}

// State records the dispatcher phase.
func (r *Run) State(phase dispatch.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phase = phase
}

// Cancel requests cooperative cancellation.
func (r *Run) Cancel() {
	r.cancel()
}

// Done is closed once the run reaches a terminal state.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Result returns the summary and the error of a finished run.
func (r *Run) Result() (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.result, r.err
}

// Snapshot returns a copy safe to serialize.
func (r *Run) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Snapshot{
		ID:        r.ID,
		Kind:      r.Kind,
		Root:      r.Root,
		DryRun:    r.DryRun,
		State:     r.state,
		Phase:     r.phase,
		Percent:   r.percent,
		Messages:  append([]string{}, r.messages...),
		Result:    r.result,
		StartedAt: r.startedAt,
	}
	if r.err != nil {
		s.Error = r.err.Error()
	}
	if !r.finishedAt.IsZero() {
		finished := r.finishedAt
		s.FinishedAt = &finished
	}
	return s
}

func (r *Run) start(cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = StateRunning
	r.cancel = cancel
}

// finish moves the run to its terminal state. Only the first call has an effect.
// Done is closed separately by release once the run is journaled.
func (r *Run) finish(state State, result any, err error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state.Terminal() {
		return false
	}
	r.state = state
	r.result = result
	r.err = err
	r.finishedAt = time.Now()
	if state == StateCompleted {
		r.percent = 100
	}
	return true
}

// release wakes up everyone waiting on Done.
func (r *Run) release() {
	close(r.done)
}

// record converts the run into a journal row.
func (r *Run) record() *history.Record {
	snap := r.Snapshot()
	rec := &history.Record{
		ID:        snap.ID,
		Kind:      snap.Kind,
		State:     string(snap.State),
		Root:      snap.Root,
		DryRun:    snap.DryRun,
		Error:     snap.Error,
		StartedAt: snap.StartedAt,
	}
	if snap.FinishedAt != nil {
		rec.FinishedAt = *snap.FinishedAt
	}
	if snap.Result != nil {
		if data, err := json.Marshal(snap.Result); err == nil {
			rec.Summary = string(data)
		}
	}
	return rec
}
