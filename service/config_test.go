package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var envNames = []string{
	"VECBOOT_BACKEND", "VECBOOT_PERSIST_DIRECTORY", "VECBOOT_DSN", "VECBOOT_SECRET",
	"VECBOOT_LOCK_TIMEOUT_SECONDS", "VECBOOT_COMPRESS", "VECBOOT_COLLECTIONS",
}

// clearEnv unsets VECBOOT_* variables for the test; t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range envNames {
		t.Setenv(name, "")
		_ = os.Unsetenv(name)
	}
}

func TestDefaultConfig(t *testing.T) {
	clearEnv(t)
	cfg := DefaultConfig()
	if cfg.Store.Backend != "sqlite+vec" {
		t.Fatalf("unexpected backend: %v", cfg.Store.Backend)
	}
	if cfg.Store.PersistDirectory != "./data" {
		t.Fatalf("unexpected persist directory: %v", cfg.Store.PersistDirectory)
	}
	if len(cfg.Collections) != 1 || cfg.Collections[0].Name != "call_docs" {
		t.Fatalf("unexpected collections: %+v", cfg.Collections)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "vecboot.yaml")
	content := `store:
  backend: badger
  persistDirectory: /var/lib/vecboot
collections:
  - name: call_docs
    metadata:
      description: call transcripts
  - name: sms_docs
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Store.Backend != "badger" || cfg.Store.PersistDirectory != "/var/lib/vecboot" {
		t.Fatalf("unexpected store config: %+v", cfg.Store)
	}
	if cfg.Store.LockTimeoutSeconds != DefaultLockTimeoutSeconds {
		t.Fatalf("expected default lock timeout, got %d", cfg.Store.LockTimeoutSeconds)
	}
	if len(cfg.Collections) != 2 || cfg.Collections[0].Metadata["description"] != "call transcripts" {
		t.Fatalf("unexpected collections: %+v", cfg.Collections)
	}
}

func TestLoadConfig_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(t.TempDir(), "vecboot.yaml")
	if err := os.WriteFile(path, []byte("store:\n  persistDirectory: ~/vecdata\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Store.PersistDirectory != filepath.Join(home, "vecdata") {
		t.Fatalf("unexpected persist directory: %v", cfg.Store.PersistDirectory)
	}
}

func TestApplyEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("VECBOOT_BACKEND", "chromem")
	t.Setenv("VECBOOT_PERSIST_DIRECTORY", "/tmp/chroma")
	t.Setenv("VECBOOT_LOCK_TIMEOUT_SECONDS", "0")
	t.Setenv("VECBOOT_COLLECTIONS", "call_docs, sms_docs")
	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.Store.Backend != "chromem" || cfg.Store.PersistDirectory != "/tmp/chroma" {
		t.Fatalf("unexpected store config: %+v", cfg.Store)
	}
	if cfg.Store.LockTimeoutSeconds != 0 {
		t.Fatalf("expected lock timeout override, got %d", cfg.Store.LockTimeoutSeconds)
	}
	if len(cfg.Collections) != 2 || cfg.Collections[1].Name != "sms_docs" {
		t.Fatalf("unexpected collections: %+v", cfg.Collections)
	}
}

func TestApplyEnv_KeepsUnsetValues(t *testing.T) {
	clearEnv(t)
	cfg := DefaultConfig()
	cfg.Store.Backend = "badger"
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.Store.Backend != "badger" || cfg.Store.LockTimeoutSeconds != DefaultLockTimeoutSeconds {
		t.Fatalf("unset env overrode config: %+v", cfg.Store)
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := &Config{
		Store:       StoreConfig{Backend: "postgres"},
		Collections: []CollectionConfig{{Name: "x"}, {Name: "call_docs"}, {Name: "call_docs"}},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, fragment := range []string{"store.dsn", "collections[0]", "duplicate name"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected %q in %v", fragment, err)
		}
	}
	cfg = &Config{Store: StoreConfig{Backend: "cassandra"}, Collections: []CollectionConfig{{Name: "call_docs"}}}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "store.backend") {
		t.Fatalf("expected backend error, got %v", err)
	}
	cfg = &Config{Store: StoreConfig{Backend: "sqlite+vec"}, Collections: []CollectionConfig{{Name: "call_docs"}}}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "store.persistDirectory") {
		t.Fatalf("expected persist directory error, got %v", err)
	}
}

func TestExpandDSNWithSecret(t *testing.T) {
	ctx := context.Background()
	got, err := ExpandDSNWithSecret(ctx, "postgres://app@db/vec", "  ")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if got != "postgres://app@db/vec" {
		t.Fatalf("expected dsn unchanged, got %q", got)
	}
	if _, err := ExpandDSNWithSecret(ctx, " ", "gcp://secretmanager/projects/p/secrets/db"); err == nil {
		t.Fatalf("expected error for secret without dsn")
	}
}
