package session_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fieldcap/internal/services"
	"fieldcap/internal/session"
	"fieldcap/internal/testsupport"
)

func TestStaticProviderMintsAndReusesDeviceID(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	first, err := session.NewStaticProvider(cfg)
	if err != nil {
		t.Fatalf("NewStaticProvider failed: %v", err)
	}
	identity, err := first.Identity(context.Background())
	if err != nil {
		t.Fatalf("Identity failed: %v", err)
	}
	if identity.DeviceID == "" {
		t.Fatal("expected device id to be minted")
	}
	if identity.OrganizationID != "org-test" || identity.UserID != "user-test" {
		t.Fatalf("unexpected identity: %#v", identity)
	}

	second, err := session.NewStaticProvider(cfg)
	if err != nil {
		t.Fatalf("NewStaticProvider failed: %v", err)
	}
	again, err := second.Identity(context.Background())
	if err != nil {
		t.Fatalf("Identity failed: %v", err)
	}
	if again.DeviceID != identity.DeviceID {
		t.Fatalf("expected device id reuse, got %s then %s", identity.DeviceID, again.DeviceID)
	}
}

func TestDeviceIDFilePermissions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := session.NewStaticProvider(cfg); err != nil {
		t.Fatalf("NewStaticProvider failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(cfg.Paths.DataDir, session.DeviceIDFileName))
	if err != nil {
		t.Fatalf("stat device id file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 permissions, got %o", perm)
	}
}

func TestValidateRequiresIdentityFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Session.UserID = ""

	provider, err := session.NewStaticProvider(cfg)
	if err != nil {
		t.Fatalf("NewStaticProvider failed: %v", err)
	}
	err = provider.Validate(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, err := provider.Identity(context.Background()); err == nil {
		t.Fatal("expected Identity to fail on incomplete config")
	}
}
