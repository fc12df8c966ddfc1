// Package patcher applies a replacement map to a single file.
//
// Patch never returns an error: everything that goes wrong with one file,
// panics included, is reported in its Result so a batch of hundreds of
// thousands of files is never aborted by one bad file.
//
// Files are skipped, in this order, when:
//  1. a path segment is a version-control directory,
//  2. the extension is on the binary deny-list,
//  3. the file name is the reserved authoritative catalog (case-insensitive),
//  4. the content cannot be decoded by any configured encoding,
//  5. no replacement id occurs in the raw bytes (not reported as a skip).
//
// A changed file is backed up through the run's ledger, re-encoded with the
// encoding it was read with and written atomically.
package patcher
