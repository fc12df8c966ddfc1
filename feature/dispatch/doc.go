// Package dispatch scans a file tree and runs one unit of work per file on a
// bounded worker pool.
//
// A run moves through idle, scanning, dispatching and aggregating before it
// ends completed or canceled. Files are submitted in chunks to an errgroup
// whose limit is the worker count; results flow through a single aggregator
// goroutine so counters and progress need no locking. Progress is reported
// only when the integer percentage advances.
//
// Cancellation is cooperative: the context is checked before each unit
// starts, units already running finish, and the partial outcome is returned
// with the canceled state.
package dispatch
