package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/viant/scy/cred/secret"
	"github.com/viant/vecboot/schema"
	"github.com/viant/vecboot/vectordb"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultPersistDirectory is used when no persist directory is configured.
	DefaultPersistDirectory = "./data"
	// DefaultCollection is the collection ensured by default.
	DefaultCollection = "call_docs"
	// DefaultLockTimeoutSeconds bounds the wait for a busy persist directory.
	DefaultLockTimeoutSeconds = 30
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "VECBOOT_"
)

// Config defines the bootstrap settings.
type Config struct {
	Store       StoreConfig        `yaml:"store"`
	Collections []CollectionConfig `yaml:"collections"`
}

// StoreConfig defines vector store settings.
type StoreConfig struct {
	Backend          string `yaml:"backend"`
	PersistDirectory string `yaml:"persistDirectory"`
	DSN              string `yaml:"dsn,omitempty"`
	Secret           string `yaml:"secret,omitempty"`
	// LockTimeoutSeconds: 0 fails fast on a busy directory, negative waits indefinitely.
	LockTimeoutSeconds int  `yaml:"lockTimeoutSeconds"`
	Compress           bool `yaml:"compress,omitempty"`
}

// CollectionConfig defines a collection to ensure.
type CollectionConfig struct {
	Name     string            `yaml:"name"`
	Metadata map[string]string `yaml:"metadata,omitempty"`
}

type envConfig struct {
	Backend            string   `env:"BACKEND"`
	PersistDirectory   string   `env:"PERSIST_DIRECTORY"`
	DSN                string   `env:"DSN"`
	Secret             string   `env:"SECRET"`
	LockTimeoutSeconds *int     `env:"LOCK_TIMEOUT_SECONDS"`
	Compress           *bool    `env:"COMPRESS"`
	Collections        []string `env:"COLLECTIONS" envSeparator:","`
}

// DefaultConfig returns the configuration used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:            string(vectordb.DefaultBackend),
			PersistDirectory:   DefaultPersistDirectory,
			LockTimeoutSeconds: DefaultLockTimeoutSeconds,
		},
		Collections: []CollectionConfig{{Name: DefaultCollection}},
	}
}

// LoadConfig reads a yaml config on top of DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	path, err := expandUserPath(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if cfg.Store.PersistDirectory, err = expandUserPath(cfg.Store.PersistDirectory); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with VECBOOT_* environment variables that are set.
func (c *Config) ApplyEnv() error {
	var e envConfig
	if err := env.ParseWithOptions(&e, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if e.Backend != "" {
		c.Store.Backend = e.Backend
	}
	if e.PersistDirectory != "" {
		dir, err := expandUserPath(e.PersistDirectory)
		if err != nil {
			return err
		}
		c.Store.PersistDirectory = dir
	}
	if e.DSN != "" {
		c.Store.DSN = e.DSN
	}
	if e.Secret != "" {
		c.Store.Secret = e.Secret
	}
	if e.LockTimeoutSeconds != nil {
		c.Store.LockTimeoutSeconds = *e.LockTimeoutSeconds
	}
	if e.Compress != nil {
		c.Store.Compress = *e.Compress
	}
	if names := ParseCSV(strings.Join(e.Collections, ",")); len(names) > 0 {
		c.SetCollections(names)
	}
	return nil
}

// SetCollections replaces the configured collections, keeping metadata of retained names.
func (c *Config) SetCollections(names []string) {
	existing := make(map[string]CollectionConfig, len(c.Collections))
	for _, item := range c.Collections {
		existing[item.Name] = item
	}
	c.Collections = c.Collections[:0]
	for _, name := range names {
		item, ok := existing[name]
		if !ok {
			item = CollectionConfig{Name: name}
		}
		c.Collections = append(c.Collections, item)
	}
}

// Validate reports every missing or invalid setting.
func (c *Config) Validate() error {
	var problems []string
	backend, err := vectordb.ParseBackend(c.Store.Backend)
	if err != nil {
		problems = append(problems, fmt.Sprintf("store.backend: %v", err))
	}
	if err == nil {
		switch {
		case backend.Persistent() && strings.TrimSpace(c.Store.PersistDirectory) == "":
			problems = append(problems, "missing required setting: store.persistDirectory")
		case backend.Remote() && strings.TrimSpace(c.Store.DSN) == "":
			problems = append(problems, "missing required setting: store.dsn")
		}
	}
	if len(c.Collections) == 0 {
		problems = append(problems, "missing required setting: collections")
	}
	seen := map[string]bool{}
	for i, item := range c.Collections {
		if err := schema.ValidateName(item.Name); err != nil {
			problems = append(problems, fmt.Sprintf("collections[%d]: %v", i, err))
			continue
		}
		if seen[item.Name] {
			problems = append(problems, fmt.Sprintf("collections[%d]: duplicate name %q", i, item.Name))
		}
		seen[item.Name] = true
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ParseCSV splits a comma separated list, dropping empty items.
func ParseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func expandUserPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed[0] != '~' {
		return path, nil
	}
	if trimmed != "~" && !strings.HasPrefix(trimmed, "~/") {
		return "", fmt.Errorf("config: unsupported ~user path: %s", path)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if trimmed == "~" {
		return home, nil
	}
	return filepath.Join(home, trimmed[2:]), nil
}

// ExpandDSNWithSecret loads a secret and expands placeholders in the DSN.
func ExpandDSNWithSecret(ctx context.Context, dsn, secretRef string) (string, error) {
	secretRef = strings.TrimSpace(secretRef)
	if secretRef == "" {
		return dsn, nil
	}
	if strings.TrimSpace(dsn) == "" {
		return "", fmt.Errorf("secret %q provided but dsn is empty", secretRef)
	}
	svc := secret.New()
	sec, err := svc.Lookup(ctx, secret.Resource(secretRef))
	if err != nil {
		return "", err
	}
	return sec.Expand(dsn), nil
}
