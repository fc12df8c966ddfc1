// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments (development vs production)
// and integrates with the Fiber web framework used by the `serve` command.
//
// # Context Awareness
//
// Two helpers scope a logger to a unit of work:
//   - WithRayID extracts the RayID from a Fiber context so all logs of one HTTP request correlate.
//   - WithRun attaches the run identifier so all logs of one reconcile or conversion run correlate.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Encoding: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info", Format: "console"})
//	log.Info("Run started")
//
//	runLog := logger.WithRun(log, runID)
//	runLog.Warn("File skipped", zap.String("path", p))
package logger
