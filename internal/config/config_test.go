package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fieldcap/internal/config"
)

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	loaded, _, exists, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load with missing file failed: %v", err)
	}
	if exists {
		t.Fatal("expected missing config file to be reported as absent")
	}
	if loaded.Queue.Concurrency != 3 {
		t.Fatalf("expected default concurrency 3, got %d", loaded.Queue.Concurrency)
	}
	if got := loaded.Queue.BackoffSeconds; len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 4 {
		t.Fatalf("unexpected default backoff table: %v", got)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[remote]",
		`base_url = "https://api.example.test/v1/"`,
		`api_token = " token "`,
		"[session]",
		`organization_id = " org-1 "`,
		"[queue]",
		"concurrency = 2",
		`currency = "usd"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %s to be used, got %s (exists=%v)", path, resolved, exists)
	}
	if cfg.Remote.BaseURL != "https://api.example.test/v1" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Remote.BaseURL)
	}
	if cfg.Remote.APIToken != "token" {
		t.Fatalf("expected token trimmed, got %q", cfg.Remote.APIToken)
	}
	if cfg.Session.OrganizationID != "org-1" {
		t.Fatalf("expected organization trimmed, got %q", cfg.Session.OrganizationID)
	}
	if cfg.Queue.Concurrency != 2 {
		t.Fatalf("expected concurrency override 2, got %d", cfg.Queue.Concurrency)
	}
	if cfg.Queue.Currency != "USD" {
		t.Fatalf("expected currency upper-cased, got %q", cfg.Queue.Currency)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad log format", "[logging]\nformat = \"xml\""},
		{"bad log level", "[logging]\nlevel = \"verbose\""},
		{"bad backoff", "[queue]\nbackoff_seconds = [1, -2]"},
		{"bad currency", "[queue]\ncurrency = \"WONS\""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, _, _, err := config.Load(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCreateSampleWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[queue]") {
		t.Fatal("expected sample to contain a [queue] section")
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config should load cleanly: %v", err)
	}
	if cfg.Queue.MaxRetries != 3 {
		t.Fatalf("expected sample max_retries 3, got %d", cfg.Queue.MaxRetries)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s to exist", dir)
		}
	}
}
