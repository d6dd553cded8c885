package testsupport

import (
	"context"
	"testing"

	"fieldcap/internal/config"
	"fieldcap/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewCapture admits a capture for tests with sensible defaults. The supplier
// name doubles as a label for assertions.
func NewCapture(t testing.TB, store *queue.Store, supplierName string) *queue.Entry {
	t.Helper()

	entry, err := store.NewCapture(context.Background(), queue.NewCaptureParams{
		SupplierID:   "sup-" + supplierName,
		SupplierName: supplierName,
		Price:        12000,
		Currency:     "KRW",
		Quantity:     1,
		Image:        []byte("test-image-bytes"),
	})
	if err != nil {
		t.Fatalf("store.NewCapture: %v", err)
	}
	return entry
}
