// Package services provides the shared error taxonomy and context annotation
// helpers used across the capture engine and its collaborators.
package services
