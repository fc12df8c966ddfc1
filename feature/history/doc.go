// Package history keeps a journal of finished runs in the database.
//
// Every reconcile or conversion run that reaches a terminal state is recorded
// with its kind, final state, root directory and the JSON result summary, so
// the CLI and the HTTP API can list past runs.
package history
