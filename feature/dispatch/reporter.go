package dispatch

import (
	"go.uber.org/zap"
)

// Reporter receives human-readable status messages and progress percentages.
// Calls come from a single goroutine at a time.
type Reporter interface {
	Status(message string)
	Progress(percent int)
}

// StateReporter is optionally implemented by reporters that track run state.
type StateReporter interface {
	State(state State)
}

// NopReporter discards everything.
type NopReporter struct{}

func (NopReporter) Status(string) {}
func (NopReporter) Progress(int)  {}

// LogReporter writes status messages to a zap logger.
type LogReporter struct {
	Logger *zap.Logger
}

func (r LogReporter) Status(message string) {
	r.Logger.Info(message)
}

func (r LogReporter) Progress(percent int) {
	r.Logger.Debug("progress", zap.Int("percent", percent))
}

func (r LogReporter) State(state State) {
	r.Logger.Debug("run state changed", zap.String("state", string(state)))
}

// MultiReporter fans out to several reporters.
type MultiReporter []Reporter

func (m MultiReporter) Status(message string) {
	for _, r := range m {
		r.Status(message)
	}
}

func (m MultiReporter) Progress(percent int) {
	for _, r := range m {
		r.Progress(percent)
	}
}

func (m MultiReporter) State(state State) {
	for _, r := range m {
		if sr, ok := r.(StateReporter); ok {
			sr.State(state)
		}
	}
}
