// Package queue provides persistent storage for the capture upload queue.
//
// Entries are stored in SQLite with WAL mode enabled. Each entry carries its
// full lifecycle state: status, retry bookkeeping, upload progress, and the
// remote identifiers recorded as each submission step completes. The image
// payload lives in the same row but is excluded from list queries and loaded
// on demand at dispatch time.
package queue
