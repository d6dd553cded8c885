package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks bad caller input. Never retried and never enqueued.
	ErrValidation = errors.New("validation error")
	// ErrAuthorization marks an invalid session. Fails the dispatch cycle fast
	// instead of consuming retry budget.
	ErrAuthorization = errors.New("authorization error")
	// ErrTransient marks connectivity-shaped failures that the retry policy owns.
	ErrTransient = errors.New("transient failure")
	// ErrTimeout marks a bounded operation that ran out of time.
	ErrTimeout = errors.New("timeout")
	// ErrConfiguration marks missing or inconsistent configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks a lookup miss.
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsAuthorization reports whether the error chain carries the authorization marker.
func IsAuthorization(err error) bool {
	return errors.Is(err, ErrAuthorization)
}

// IsValidation reports whether the error chain carries the validation marker.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// Retryable reports whether a submission failure should re-enter the backoff
// schedule. Validation and authorization failures are excluded; everything else
// (including unclassified errors) is treated as transient.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	return !IsValidation(err) && !IsAuthorization(err)
}

// Kind returns a short string classification used in structured logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrAuthorization):
		return "authorization"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "transient"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
