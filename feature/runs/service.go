package runs

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"locafix/core/backup"
	"locafix/core/logger"
	"locafix/core/reconcile"
	"locafix/feature/archive"
	"locafix/feature/catalog"
	"locafix/feature/convert"
	"locafix/feature/dispatch"
	"locafix/feature/history"
	"locafix/feature/patcher"

	"go.uber.org/zap"
)

// Service executes runs and keeps track of them.
type Service struct {
	cfg        Config
	logger     *zap.Logger
	dispatcher *dispatch.Dispatcher
	converter  *convert.Converter
	cache      *reconcile.CatalogCache
	history    *history.Store
	publisher  *archive.Publisher

	mu   sync.RWMutex
	runs map[string]*Run
	wg   sync.WaitGroup
}

// Option configures a service.
type Option func(*Service)

// WithHistory journals finished runs to store.
func WithHistory(store *history.Store) Option {
	return func(s *Service) {
		s.history = store
	}
}

// WithPublisher archives reports and catalog backups.
func WithPublisher(p *archive.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithConverter replaces the conversion tool client.
func WithConverter(c *convert.Converter) Option {
	return func(s *Service) {
		s.converter = c
	}
}

// NewService creates a run service.
func NewService(cfg Config, log *zap.Logger, opts ...Option) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if !cfg.Catalog.IsValidDuplicates() {
		return nil, fmt.Errorf("invalid duplicates policy %q", cfg.Catalog.Duplicates)
	}

	s := &Service{
		cfg:        cfg,
		logger:     log,
		dispatcher: dispatch.New(cfg.Dispatch, log),
		runs:       make(map[string]*Run),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.converter == nil {
		c, err := convert.New(cfg.Convert, convert.WithLogger(log))
		if err != nil {
			return nil, err
		}
		s.converter = c
	}

	ttl := time.Duration(cfg.Catalog.CacheTTLSeconds) * time.Second
	s.cache = reconcile.NewCatalogCache(func(path string) (reconcile.Source, error) {
		return catalog.Load(path, s.cfg.Catalog)
	}, ttl)

	return s, nil
}

// Reconcile runs a reconcile synchronously. extra receives progress in addition
// to the run itself and may be nil.
func (s *Service) Reconcile(ctx context.Context, req ReconcileRequest, extra dispatch.Reporter) (*Run, error) {
	run, unlock, err := s.prepare(history.KindReconcile, req.Dir, req.DryRun, req.Validate)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	run.start(cancel)

	s.execute(ctx, run, unlock, s.reconcileFunc(req), extra)
	_, runErr := run.Result()
	return run, runErr
}

// StartReconcile validates req, takes the tree lock and runs in the background.
func (s *Service) StartReconcile(req ReconcileRequest) (*Run, error) {
	run, unlock, err := s.prepare(history.KindReconcile, req.Dir, req.DryRun, req.Validate)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	run.start(cancel)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.execute(ctx, run, unlock, s.reconcileFunc(req), nil)
	}()
	return run, nil
}

// Convert runs a conversion synchronously.
func (s *Service) Convert(ctx context.Context, req ConvertRequest, extra dispatch.Reporter) (*Run, error) {
	to, err := req.Validate()
	if err != nil {
		return nil, err
	}
	run, unlock, err := s.prepare(history.KindConvert, req.Dir, false, nil)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	run.start(cancel)

	s.execute(ctx, run, unlock, s.convertFunc(req, to), extra)
	_, runErr := run.Result()
	return run, runErr
}

// StartConvert validates req, takes the tree lock and converts in the background.
func (s *Service) StartConvert(req ConvertRequest) (*Run, error) {
	to, err := req.Validate()
	if err != nil {
		return nil, err
	}
	run, unlock, err := s.prepare(history.KindConvert, req.Dir, false, nil)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	run.start(cancel)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.execute(ctx, run, unlock, s.convertFunc(req, to), nil)
	}()
	return run, nil
}

// Get returns a tracked run.
func (s *Service) Get(id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return run, nil
}

// Journaled loads a finished run from the journal. Runs of a previous process
// are only reachable this way.
func (s *Service) Journaled(ctx context.Context, id string) (*history.Record, error) {
	if s.history == nil {
		return nil, ErrRunNotFound
	}
	rec, err := s.history.Get(ctx, id)
	if errors.Is(err, history.ErrNotFound) {
		return nil, ErrRunNotFound
	}
	return rec, err
}

// Cancel requests cancellation of a run. Canceling a finished run is a no-op.
func (s *Service) Cancel(id string) (*Run, error) {
	run, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	run.Cancel()
	return run, nil
}

// Recent returns the latest runs, newest first. Without a journal the runs
// tracked by this process are returned.
func (s *Service) Recent(ctx context.Context, limit int) ([]history.Record, error) {
	if s.history != nil {
		return s.history.Recent(ctx, limit)
	}

	s.mu.RLock()
	records := make([]history.Record, 0, len(s.runs))
	for _, run := range s.runs {
		records = append(records, *run.record())
	}
	s.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Wait blocks until background runs have finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Shutdown cancels every active run and waits for them.
func (s *Service) Shutdown() {
	s.mu.RLock()
	for _, run := range s.runs {
		run.Cancel()
	}
	s.mu.RUnlock()
	s.Wait()
}

type validateFunc func() error

type runFunc func(ctx context.Context, reporter dispatch.Reporter) (any, error)

// prepare validates, locks the tree and registers a pending run.
func (s *Service) prepare(kind, root string, dryRun bool, validate validateFunc) (*Run, func() error, error) {
	if validate != nil {
		if err := validate(); err != nil {
			return nil, nil, err
		}
	}

	unlock, err := dispatch.Lock(root)
	if err != nil {
		return nil, nil, err
	}

	run := newRun(kind, root, dryRun)
	s.mu.Lock()
	s.runs[run.ID] = run
	s.mu.Unlock()
	return run, unlock, nil
}

func (s *Service) execute(ctx context.Context, run *Run, unlock func() error, fn runFunc, extra dispatch.Reporter) {
	l := logger.WithRun(s.logger, run.ID)
	defer run.release()

	reporter := dispatch.MultiReporter{run, dispatch.LogReporter{Logger: l}}
	if extra != nil {
		reporter = append(reporter, extra)
	}

	l.Info("Run started",
		zap.String("kind", run.Kind),
		zap.String("root", run.Root),
		zap.Bool("dry_run", run.DryRun),
		zap.Int("workers", s.dispatcher.Workers()))

	result, err := s.safeRun(ctx, fn, reporter)
	if unlockErr := unlock(); unlockErr != nil {
		l.Warn("Failed to release run lock", zap.Error(unlockErr))
	}

	state := StateCompleted
	switch {
	case err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		state, err = StateCanceled, nil
	case err != nil:
		state = StateAborted
	}

	run.finish(state, result, err)
	if err != nil {
		l.Error("Run aborted", zap.Error(err))
	} else {
		l.Info("Run finished", zap.String("state", string(state)))
	}

	s.journal(run, l)
}

func (s *Service) safeRun(ctx context.Context, fn runFunc, reporter dispatch.Reporter) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("run panicked: %v", r)
		}
	}()
	return fn(ctx, reporter)
}

// journal records the run in history and the archive. Failures are logged only.
func (s *Service) journal(run *Run, l *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if s.history != nil {
		if err := s.history.Create(ctx, run.record()); err != nil {
			l.Warn("Failed to journal run", zap.Error(err))
		}
	}

	if s.publisher == nil {
		return
	}
	if _, err := s.publisher.PublishReport(ctx, run.ID, run.Snapshot()); err != nil {
		l.Warn("Failed to archive run report", zap.Error(err))
		return
	}
	result, _ := run.Result()
	if summary, ok := result.(*ReconcileSummary); ok && summary.CatalogBackup != "" {
		if _, err := s.publisher.PublishFile(ctx, run.ID, summary.CatalogBackup); err != nil {
			l.Warn("Failed to archive catalog backup", zap.String("path", summary.CatalogBackup), zap.Error(err))
		}
	}
	if s.cfg.KeepReports > 0 {
		if _, err := s.publisher.Prune(ctx, s.cfg.KeepReports); err != nil {
			l.Warn("Failed to prune archived reports", zap.Error(err))
		}
	}
}

func (s *Service) reconcileFunc(req ReconcileRequest) runFunc {
	return func(ctx context.Context, reporter dispatch.Reporter) (any, error) {
		summary, err := s.reconcile(ctx, req, reporter)
		if summary == nil {
			return nil, err
		}
		return summary, err
	}
}

func (s *Service) convertFunc(req ConvertRequest, to convert.Format) runFunc {
	return func(ctx context.Context, reporter dispatch.Reporter) (any, error) {
		summary, err := s.convert(ctx, req, to, reporter)
		if summary == nil {
			return nil, err
		}
		return summary, err
	}
}

func (s *Service) reconcile(ctx context.Context, req ReconcileRequest, reporter dispatch.Reporter) (*ReconcileSummary, error) {
	summary := &ReconcileSummary{ErrorFiles: []string{}, DryRun: req.DryRun}

	reporter.Status("Reading original catalog...")
	original, err := s.cache.Get(ctx, req.Original)
	if err != nil {
		return nil, err
	}

	// The modified catalog is rewritten in place, so it is never served from the cache.
	reporter.Status("Reading modified catalog...")
	modified, err := catalog.Load(req.Modified, s.cfg.Catalog)
	if err != nil {
		return nil, err
	}
	reporter.Status(fmt.Sprintf("Found %d content nodes in original and %d in modified catalog.",
		len(original.Items()), modified.Len()))

	decision := reconcile.Reconcile(original, modified)
	reporter.Status(fmt.Sprintf("Identified %d nodes to delete.", len(decision.ToRevert)))

	backupEnabled := s.cfg.Patch.Backup && !req.NoBackup
	opts := reconcile.Options{Confirmed: true, Backup: backupEnabled}
	plan := reconcile.BuildPlan(decision, opts)
	summary.Replacements = len(decision.Replacements)
	summary.Kept = len(decision.ToKeep)

	ledger := backup.NewLedger()
	patchCfg := s.cfg.Patch
	patchCfg.Backup = backupEnabled
	p, err := patcher.New(patchCfg, patcher.Options{Ledger: ledger, DryRun: req.DryRun})
	if err != nil {
		return nil, err
	}

	m := &fileMutator{
		catalog:    modified,
		ledger:     ledger,
		backup:     backupEnabled,
		dryRun:     req.DryRun,
		patcher:    p,
		dispatcher: s.dispatcher,
		root:       req.Dir,
		recursive:  req.Recursive,
		reporter:   reporter,
	}

	if len(plan.Actions) > 0 {
		reporter.Status("Patching references...")
	}
	deleted, err := reconcile.ApplyPlan(ctx, plan, m, opts)
	summary.NodesDeleted = deleted
	summary.Backups = ledger.Len()
	if catalogBackup := backup.PathFor(req.Modified); slices.Contains(ledger.Paths(), catalogBackup) {
		summary.CatalogBackup = catalogBackup
	}
	if err == nil && m.outcome != nil && m.outcome.State == dispatch.StateCanceled {
		err = context.Canceled
	}
	if m.outcome != nil {
		summary.FilesModified = m.outcome.Modified
		summary.FilesSkipped = m.outcome.Skipped
		summary.FilesErrored = m.outcome.Errored
		summary.TotalScanned = m.outcome.TotalScanned
		summary.ErrorFiles = append(summary.ErrorFiles, m.outcome.ErrorFiles...)
	} else if err == nil {
		reporter.Progress(100)
	}
	if deleted > 0 && !req.DryRun {
		s.cache.Invalidate(req.Modified)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return summary, err
		}
		return nil, err
	}

	reporter.Status(fmt.Sprintf("Deleted %d nodes, modified %d files.", summary.NodesDeleted, summary.FilesModified))
	return summary, nil
}

func (s *Service) convert(ctx context.Context, req ConvertRequest, to convert.Format, reporter dispatch.Reporter) (*convert.Summary, error) {
	summary, outcome, err := s.converter.Run(ctx, s.dispatcher, req.Dir, to, req.DeleteOriginal, dispatch.RunOptions{
		Reporter:  reporter,
		Recursive: req.Recursive,
	})
	if err != nil {
		return nil, err
	}
	if outcome != nil && outcome.State == dispatch.StateCanceled {
		return summary, context.Canceled
	}
	return summary, nil
}

