package convert

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Executor abstracts command execution for testability.
type Executor interface {
	// Run executes binary and returns its combined output and exit code.
	// err is non-nil only when the process could not be run at all.
	Run(ctx context.Context, binary string, args []string) (output string, exitCode int, err error)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) (string, int, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	out, err := cmd.CombinedOutput()
	if err == nil {
		return string(out), 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return string(out), exitErr.ExitCode(), nil
	}
	return string(out), -1, fmt.Errorf("start %s: %w", binary, err)
}

// ToolError reports a failed conversion of one file.
type ToolError struct {
	Path     string
	ExitCode int
	Output   string
	Err      error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("conversion of %s failed", e.Path)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	} else {
		msg += fmt.Sprintf(" with exit code %d", e.ExitCode)
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *ToolError) Unwrap() error {
	return e.Err
}
