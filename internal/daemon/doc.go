// Package daemon wraps the dispatch engine in a long-running process:
// single-instance locking, preflight checks, and lifecycle management.
package daemon
