package refdata_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"fieldcap/internal/logging"
	"fieldcap/internal/refdata"
	"fieldcap/internal/services"
	"fieldcap/internal/testsupport"
)

type fakeCreator struct {
	supplierCalls int
	modelCalls    int
	err           error
}

func (f *fakeCreator) CreateSupplier(ctx context.Context, orgID, name string) (string, error) {
	f.supplierCalls++
	if f.err != nil {
		return "", f.err
	}
	return "remote-sup-" + name, nil
}

func (f *fakeCreator) CreateModel(ctx context.Context, orgID, supplierID, name string) (string, error) {
	f.modelCalls++
	if f.err != nil {
		return "", f.err
	}
	return "remote-mod-" + name, nil
}

func mustOpenRefStore(t *testing.T) *refdata.Store {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store, err := refdata.Open(cfg)
	if err != nil {
		t.Fatalf("refdata.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNormalizeEquivalence(t *testing.T) {
	cases := []struct {
		a, b string
	}{
		{"  Acme Co ", "acme co"},
		{"ACME\tCo", "acme co"},
		{"Ｗｉｄｇｅｔ", "widget"},
	}
	for _, tc := range cases {
		if got, want := refdata.Normalize(tc.a), refdata.Normalize(tc.b); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.a, got, want)
		}
	}
	if refdata.Normalize("   ") != "" {
		t.Fatal("expected blank name to normalize to empty key")
	}
}

func TestResolveSupplierCreatesThenReuses(t *testing.T) {
	store := mustOpenRefStore(t)
	creator := &fakeCreator{}
	resolver := refdata.NewResolver(store, creator, time.Second, logging.NewNop())

	ctx := context.Background()
	first, err := resolver.ResolveSupplier(ctx, "org-1", "  Acme Co ")
	if err != nil {
		t.Fatalf("ResolveSupplier failed: %v", err)
	}
	if first.ID == "" || first.Name != "Acme Co" {
		t.Fatalf("unexpected supplier: %#v", first)
	}
	if !first.Synced || first.RemoteID != "remote-sup-Acme Co" {
		t.Fatalf("expected synced supplier, got %#v", first)
	}

	second, err := resolver.ResolveSupplier(ctx, "org-1", "acme co")
	if err != nil {
		t.Fatalf("ResolveSupplier failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected cache hit to reuse id %s, got %s", first.ID, second.ID)
	}
	if creator.supplierCalls != 1 {
		t.Fatalf("expected one remote create, got %d", creator.supplierCalls)
	}
}

func TestResolveSupplierSurvivesRemoteFailure(t *testing.T) {
	store := mustOpenRefStore(t)
	creator := &fakeCreator{err: errors.New("connection refused")}
	resolver := refdata.NewResolver(store, creator, time.Second, logging.NewNop())

	supplier, err := resolver.ResolveSupplier(context.Background(), "org-1", "Acme Co")
	if err != nil {
		t.Fatalf("ResolveSupplier failed: %v", err)
	}
	if supplier == nil || supplier.ID == "" {
		t.Fatal("expected local supplier despite remote failure")
	}
	if supplier.Synced || supplier.RemoteID != "" {
		t.Fatalf("expected unsynced supplier, got %#v", supplier)
	}
}

func TestResolveSupplierScopedToOrganization(t *testing.T) {
	store := mustOpenRefStore(t)
	resolver := refdata.NewResolver(store, nil, time.Second, logging.NewNop())

	ctx := context.Background()
	a, err := resolver.ResolveSupplier(ctx, "org-a", "Acme")
	if err != nil {
		t.Fatalf("ResolveSupplier failed: %v", err)
	}
	b, err := resolver.ResolveSupplier(ctx, "org-b", "Acme")
	if err != nil {
		t.Fatalf("ResolveSupplier failed: %v", err)
	}
	if a.ID == b.ID {
		t.Fatal("expected distinct suppliers per organization")
	}
}

func TestResolveSupplierRejectsBlankName(t *testing.T) {
	store := mustOpenRefStore(t)
	resolver := refdata.NewResolver(store, nil, time.Second, logging.NewNop())

	_, err := resolver.ResolveSupplier(context.Background(), "org-1", "   ")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResolveModelCreatesAndSyncs(t *testing.T) {
	store := mustOpenRefStore(t)
	creator := &fakeCreator{}
	resolver := refdata.NewResolver(store, creator, time.Second, logging.NewNop())

	ctx := context.Background()
	model, err := resolver.ResolveModel(ctx, "org-1", "sup-1", "Widget  X")
	if err != nil {
		t.Fatalf("ResolveModel failed: %v", err)
	}
	if model.Name != "Widget X" || model.SupplierID != "sup-1" {
		t.Fatalf("unexpected model: %#v", model)
	}
	if !model.Synced || model.RemoteID != "remote-mod-Widget X" {
		t.Fatalf("expected synced model, got %#v", model)
	}

	again, err := resolver.ResolveModel(ctx, "org-1", "sup-1", "widget x")
	if err != nil {
		t.Fatalf("ResolveModel failed: %v", err)
	}
	if again.ID != model.ID || creator.modelCalls != 1 {
		t.Fatalf("expected cache hit, got %#v calls=%d", again, creator.modelCalls)
	}
}

func TestInsertSupplierDetectsDuplicate(t *testing.T) {
	store := mustOpenRefStore(t)
	ctx := context.Background()

	first := &refdata.Supplier{ID: "id-1", OrgID: "org-1", Name: "Acme", NormalizedName: "acme"}
	if err := store.InsertSupplier(ctx, first); err != nil {
		t.Fatalf("InsertSupplier failed: %v", err)
	}
	dup := &refdata.Supplier{ID: "id-2", OrgID: "org-1", Name: "ACME", NormalizedName: "acme"}
	if err := store.InsertSupplier(ctx, dup); !errors.Is(err, refdata.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestListSuppliers(t *testing.T) {
	store := mustOpenRefStore(t)
	resolver := refdata.NewResolver(store, nil, time.Second, logging.NewNop())

	ctx := context.Background()
	for _, name := range []string{"Zenith", "Acme"} {
		if _, err := resolver.ResolveSupplier(ctx, "org-1", name); err != nil {
			t.Fatalf("ResolveSupplier failed: %v", err)
		}
	}

	suppliers, err := store.ListSuppliers(ctx, "org-1")
	if err != nil {
		t.Fatalf("ListSuppliers failed: %v", err)
	}
	if len(suppliers) != 2 || suppliers[0].Name != "Acme" {
		t.Fatalf("unexpected suppliers: %#v", suppliers)
	}
}
