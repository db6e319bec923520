package vectordb

import (
	"fmt"
	"strings"
)

// Backend selects the storage engine behind a Store.
type Backend string

const (
	BackendSQLiteVec Backend = "sqlite+vec"
	BackendBadger    Backend = "badger"
	BackendChromem   Backend = "chromem"
	BackendMem       Backend = "mem"
	BackendMySQL     Backend = "mysql"
	BackendPostgres  Backend = "postgres"

	// DefaultBackend is used when no backend is configured.
	DefaultBackend = BackendSQLiteVec
	// LegacyBackend is the combined key-value plus columnar engine selector of
	// earlier deployments; it maps to DefaultBackend.
	LegacyBackend = "duckdb+parquet"
)

// ParseBackend normalizes a backend selector.
func ParseBackend(value string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return DefaultBackend, nil
	case string(BackendSQLiteVec), "sqlite", "sqlite-vec", LegacyBackend:
		return BackendSQLiteVec, nil
	case string(BackendBadger):
		return BackendBadger, nil
	case string(BackendChromem), "chromem-go":
		return BackendChromem, nil
	case string(BackendMem), "memory":
		return BackendMem, nil
	case string(BackendMySQL), "mariadb":
		return BackendMySQL, nil
	case string(BackendPostgres), "postgresql", "pg":
		return BackendPostgres, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownBackend, value)
}

// Remote reports whether the backend keeps its state outside the persist directory.
func (b Backend) Remote() bool {
	return b == BackendMySQL || b == BackendPostgres
}

// Persistent reports whether the backend needs a persist directory.
func (b Backend) Persistent() bool {
	switch b {
	case BackendSQLiteVec, BackendBadger, BackendChromem:
		return true
	}
	return false
}
