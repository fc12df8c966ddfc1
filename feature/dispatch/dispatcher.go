package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Work processes one file. It must not panic; panics are recovered anyway.
type Work func(ctx context.Context, path string) Unit

// Outcome aggregates the units of a run.
type Outcome struct {
	State        State    `json:"state"`
	TotalScanned int      `json:"total_scanned"`
	Processed    int      `json:"processed"`
	Done         int      `json:"done"`
	Modified     int      `json:"modified"`
	Skipped      int      `json:"skipped"`
	Errored      int      `json:"errored"`
	ErrorFiles   []string `json:"error_files"`
}

// RunOptions carries per-run hooks.
type RunOptions struct {
	// Reporter receives status and progress. Defaults to NopReporter.
	Reporter Reporter
	// Match filters scanned files.
	Match func(path string) bool
	// OnUnit is called for every finished unit, serialized on the aggregator goroutine.
	OnUnit func(Unit)
	// Recursive overrides the configured recursion when set.
	Recursive *bool
}

// Dispatcher runs work over a file tree.
type Dispatcher struct {
	cfg    Config
	logger *zap.Logger
}

// New creates a dispatcher.
func New(cfg Config, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 2048
	}
	return &Dispatcher{cfg: cfg, logger: logger}
}

// Workers returns the effective worker count.
func (d *Dispatcher) Workers() int {
	return d.cfg.Workers
}

// Run scans root and applies work to every file.
// A canceled context is not an error: the partial outcome is returned with StateCanceled.
func (d *Dispatcher) Run(ctx context.Context, root string, work Work, opts RunOptions) (*Outcome, error) {
	reporter := opts.Reporter
	if reporter == nil {
		reporter = NopReporter{}
	}
	setState := func(s State) {
		if sr, ok := reporter.(StateReporter); ok {
			sr.State(s)
		}
	}

	outcome := &Outcome{State: StateIdle, ErrorFiles: []string{}}
	setState(StateIdle)

	recursive := d.cfg.Recursive
	if opts.Recursive != nil {
		recursive = *opts.Recursive
	}

	outcome.State = StateScanning
	setState(StateScanning)
	if recursive {
		reporter.Status(fmt.Sprintf("Scanning directory recursively: %s", root))
	} else {
		reporter.Status(fmt.Sprintf("Scanning directory: %s", root))
	}

	var unreadable []string
	files, err := Scan(ctx, root, ScanOptions{
		Recursive:    recursive,
		ExcludeDirs:  d.cfg.ExcludeDirs,
		Ignore:       d.cfg.Ignore,
		ReservedName: d.cfg.ReservedName,
		Match:        opts.Match,
		OnError: func(path string, err error) {
			d.logger.Warn("skipping unreadable entry", zap.String("path", path), zap.Error(err))
			unreadable = append(unreadable, path)
		},
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			outcome.State = StateCanceled
			setState(StateCanceled)
			reporter.Status("Operation canceled.")
			return outcome, nil
		}
		return outcome, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	// Unreadable entries count as scanned units that failed.
	for _, path := range unreadable {
		outcome.TotalScanned++
		outcome.add(Unit{Path: path, State: UnitError})
	}
	outcome.TotalScanned += len(files)
	reporter.Status(fmt.Sprintf("Found %d files to process.", len(files)))

	if len(files) == 0 {
		outcome.State = StateCompleted
		setState(StateCompleted)
		reporter.Progress(100)
		return outcome, nil
	}

	outcome.State = StateDispatching
	setState(StateDispatching)

	results := make(chan Unit, d.cfg.Workers)
	var aggregated sync.WaitGroup
	aggregated.Add(1)
	go func() {
		defer aggregated.Done()
		lastPercent := -1
		for u := range results {
			outcome.add(u)
			if opts.OnUnit != nil {
				opts.OnUnit(u)
			}
			if percent := outcome.Processed * 100 / outcome.TotalScanned; percent > lastPercent {
				lastPercent = percent
				reporter.Progress(percent)
			}
		}
	}()

	d.dispatch(ctx, files, work, results)
	close(results)

	outcome.State = StateAggregating
	setState(StateAggregating)
	aggregated.Wait()

	if outcome.Processed < outcome.TotalScanned {
		outcome.State = StateCanceled
		setState(StateCanceled)
		reporter.Status("Operation canceled.")
		d.logger.Info("run canceled",
			zap.Int("processed", outcome.Processed),
			zap.Int("total", outcome.TotalScanned))
		return outcome, nil
	}

	outcome.State = StateCompleted
	setState(StateCompleted)
	return outcome, nil
}

// dispatch submits files in chunks. The context is checked before each unit starts.
func (d *Dispatcher) dispatch(ctx context.Context, files []string, work Work, results chan<- Unit) {
	for start := 0; start < len(files); start += d.cfg.ChunkSize {
		if ctx.Err() != nil {
			return
		}
		end := min(start+d.cfg.ChunkSize, len(files))

		g := new(errgroup.Group)
		g.SetLimit(d.cfg.Workers)
		for _, path := range files[start:end] {
			if ctx.Err() != nil {
				break
			}
			path := path
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				results <- runUnit(ctx, work, path)
				return nil
			})
		}
		_ = g.Wait()
	}
}

func runUnit(ctx context.Context, work Work, path string) (u Unit) {
	defer func() {
		if r := recover(); r != nil {
			u = Unit{Path: path, State: UnitError, Err: fmt.Errorf("panic while processing %s: %v", path, r)}
		}
	}()

	u = work(ctx, path)
	u.Path = path
	if u.State == "" || u.State == UnitPending || u.State == UnitRunning {
		u.State = UnitDone
	}
	if u.Err != nil {
		u.State = UnitError
	}
	return u
}

func (o *Outcome) add(u Unit) {
	o.Processed++
	switch u.State {
	case UnitError:
		o.Errored++
		o.ErrorFiles = append(o.ErrorFiles, u.Path)
	case UnitSkipped:
		o.Skipped++
	default:
		o.Done++
		if u.Modified {
			o.Modified++
		}
	}
}
