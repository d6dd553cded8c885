package services_test

import (
	"errors"
	"strings"
	"testing"

	"fieldcap/internal/services"
)

func TestWrapTagsMarkerAndDetail(t *testing.T) {
	cause := errors.New("connection refused")
	err := services.Wrap(services.ErrTransient, "remote", "upload image", "step B failed", cause)

	if !errors.Is(err, services.ErrTransient) {
		t.Fatal("expected transient marker in chain")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause preserved in chain")
	}
	for _, want := range []string{"remote", "upload image", "step B failed", "connection refused"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in error text, got %q", want, err.Error())
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "engine", "dispatch", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatal("expected nil marker to default to transient")
	}
}

func TestRetryableClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
		kind      string
	}{
		{"transient", services.Wrap(services.ErrTransient, "remote", "create record", "", nil), true, "transient"},
		{"timeout", services.Wrap(services.ErrTimeout, "refdata", "create supplier", "", nil), true, "timeout"},
		{"unclassified", errors.New("boom"), true, "transient"},
		{"validation", services.Wrap(services.ErrValidation, "engine", "enqueue", "price", nil), false, "validation"},
		{"authorization", services.Wrap(services.ErrAuthorization, "session", "validate", "", nil), false, "authorization"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.Retryable(tc.err); got != tc.retryable {
				t.Fatalf("Retryable = %v, want %v", got, tc.retryable)
			}
			if got := services.Kind(tc.err); got != tc.kind {
				t.Fatalf("Kind = %q, want %q", got, tc.kind)
			}
		})
	}
}

func TestRetryableNil(t *testing.T) {
	if services.Retryable(nil) {
		t.Fatal("nil error must not be retryable")
	}
	if services.Kind(nil) != "" {
		t.Fatal("nil error must have empty kind")
	}
}
