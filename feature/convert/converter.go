package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"locafix/core/utils"
	"locafix/feature/dispatch"

	"go.uber.org/zap"
)

// Format is a resource serialization format.
type Format string

const (
	FormatLSX Format = "lsx"
	FormatLSJ Format = "lsj"
)

// ParseFormat validates a target format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimPrefix(s, "."))) {
	case FormatLSX:
		return FormatLSX, nil
	case FormatLSJ:
		return FormatLSJ, nil
	default:
		return "", fmt.Errorf("unknown format %q (expected lsx or lsj)", s)
	}
}

// Source returns the format converted from when targeting f.
func (f Format) Source() Format {
	if f == FormatLSJ {
		return FormatLSX
	}
	return FormatLSJ
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// Result is the outcome of converting one file.
type Result struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Converted   bool   `json:"converted"`
	Skipped     bool   `json:"skipped"`
	Deleted     bool   `json:"deleted"`
	Err         error  `json:"-"`
}

// Summary is the result contract of a conversion run.
type Summary struct {
	ConvertedFiles int      `json:"converted_files"`
	SkippedFiles   int      `json:"skipped_files"`
	ErrorFiles     []string `json:"error_files"`
	TotalScanned   int      `json:"total_scanned"`
}

// Option configures the converter.
type Option func(*Converter)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Converter) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Converter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Converter runs the external tool.
type Converter struct {
	cfg     Config
	exec    Executor
	logger  *zap.Logger
	meta    map[string]struct{}
	timeout time.Duration
}

// New constructs a converter.
func New(cfg Config, opts ...Option) (*Converter, error) {
	cfg.Tool = strings.TrimSpace(cfg.Tool)
	if cfg.Tool == "" {
		return nil, errors.New("conversion tool required")
	}
	if cfg.Game == "" {
		cfg.Game = "bg3"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "error"
	}

	c := &Converter{
		cfg:     cfg,
		exec:    commandExecutor{},
		logger:  zap.NewNop(),
		meta:    utils.StringSet(cfg.MetaFiles, true),
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Args builds the tool arguments for one conversion.
func (c *Converter) Args(src, dst string) []string {
	return []string{
		"--action", "convert-resource",
		"--game", c.cfg.Game,
		"--source", src,
		"--destination", dst,
		"--loglevel", c.cfg.LogLevel,
	}
}

// Matcher keeps files in the source format of to.
func Matcher(to Format) func(path string) bool {
	ext := to.Source().Ext()
	return func(path string) bool {
		return strings.EqualFold(filepath.Ext(path), ext)
	}
}

// IsMeta reports whether path is a reserved metadata file.
func (c *Converter) IsMeta(path string) bool {
	_, ok := c.meta[strings.ToLower(filepath.Base(path))]
	return ok
}

// Convert converts one file to the target format.
// Running conversions are not interrupted by cancellation of ctx, only by the per-file timeout.
func (c *Converter) Convert(ctx context.Context, src string, to Format, deleteOriginal bool) Result {
	dst := utils.SwapExtension(src, to.Ext())
	res := Result{Source: src, Destination: dst}

	if c.IsMeta(src) {
		res.Skipped = true
		return res
	}

	runCtx := context.WithoutCancel(ctx)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, c.timeout)
		defer cancel()
	}

	output, code, err := c.exec.Run(runCtx, c.cfg.Tool, c.Args(src, dst))
	if err != nil || code != 0 {
		res.Err = &ToolError{Path: src, ExitCode: code, Output: output, Err: err}
		c.logger.Warn("conversion failed",
			zap.String("source", src),
			zap.Int("exit_code", code),
			zap.String("output", strings.TrimSpace(output)))
		return res
	}
	res.Converted = true

	if deleteOriginal {
		if err := os.Remove(src); err != nil {
			res.Err = fmt.Errorf("converted but failed to delete %s: %w", src, err)
			return res
		}
		res.Deleted = true
	}
	return res
}

// Work adapts Convert to the dispatcher.
func (c *Converter) Work(to Format, deleteOriginal bool) dispatch.Work {
	return func(ctx context.Context, path string) dispatch.Unit {
		res := c.Convert(ctx, path, to, deleteOriginal)
		unit := dispatch.Unit{Path: path, Modified: res.Converted, Err: res.Err, Detail: res}
		switch {
		case res.Err != nil:
			unit.State = dispatch.UnitError
		case res.Skipped:
			unit.State = dispatch.UnitSkipped
		default:
			unit.State = dispatch.UnitDone
		}
		return unit
	}
}

// Run converts every source-format file under root.
func (c *Converter) Run(ctx context.Context, d *dispatch.Dispatcher, root string, to Format, deleteOriginal bool, opts dispatch.RunOptions) (*Summary, *dispatch.Outcome, error) {
	opts.Match = Matcher(to)
	outcome, err := d.Run(ctx, root, c.Work(to, deleteOriginal), opts)
	if err != nil {
		return nil, outcome, err
	}
	return SummaryFrom(outcome), outcome, nil
}

// SummaryFrom builds the conversion result contract from a dispatcher outcome.
func SummaryFrom(o *dispatch.Outcome) *Summary {
	s := &Summary{ErrorFiles: []string{}}
	if o == nil {
		return s
	}
	s.ConvertedFiles = o.Modified
	s.SkippedFiles = o.Skipped
	s.TotalScanned = o.TotalScanned
	s.ErrorFiles = append(s.ErrorFiles, o.ErrorFiles...)
	return s
}
