package cmd

import (
	"fmt"
	"io"
	"os"
	"sync"

	"locafix/feature/dispatch"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// terminalReporter draws a progress bar and prints status lines above it.
type terminalReporter struct {
	mu  sync.Mutex
	out io.Writer
	bar *progressbar.ProgressBar
}

// newTerminalReporter returns a progress bar reporter when stderr is a terminal
// and nil otherwise, leaving progress to the log output.
func newTerminalReporter(description string) dispatch.Reporter {
	fd := os.Stderr.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return nil
	}
	return &terminalReporter{
		out: os.Stderr,
		bar: progressbar.NewOptions(100,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription(description),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionClearOnFinish(),
		),
	}
}

func (r *terminalReporter) Status(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.bar.Clear()
	fmt.Fprintln(r.out, message)
	_ = r.bar.RenderBlank()
}

func (r *terminalReporter) Progress(percent int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.bar.Set(percent)
}

func (r *terminalReporter) State(state dispatch.State) {
	if !state.Terminal() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.bar.Finish()
}

