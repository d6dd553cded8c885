// Package api defines transport-friendly views of queue state for the CLI
// and any future HTTP surface.
package api
