// Package runs drives reconcile and conversion runs end to end.
//
// A Run tracks one invocation: its lifecycle state, the dispatcher phase, progress,
// the most recent status messages and the final summary. The Service validates
// requests, takes the per-tree lock, executes the run and records the outcome in the
// history journal and the report archive when those are configured.
//
// # Entry points
//
//   - Reconcile / Convert run synchronously (CLI).
//   - StartReconcile / StartConvert run in the background (HTTP API) and return the
//     Run immediately. Validation and locking still happen before they return.
//
// # HTTP
//
//	POST   /runs          start a reconcile run
//	POST   /runs/convert  start a conversion run
//	GET    /runs          recent runs
//	GET    /runs/:id      run snapshot
//	DELETE /runs/:id      cancel a run
package runs
