package sqliteutil

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// DefaultBusyTimeoutMS is the busy timeout applied to file databases.
	DefaultBusyTimeoutMS = 5000
)

// EnsurePragmas appends SQLite pragmas to the DSN when missing.
// It is a no-op for in-memory databases.
func EnsurePragmas(dsn string, wal bool, busyTimeoutMS int) string {
	if dsn == "" {
		return dsn
	}
	lower := strings.ToLower(dsn)
	if IsMemory(dsn) {
		return dsn
	}
	if wal && !strings.Contains(lower, "_pragma=journal_mode") {
		dsn = addPragma(dsn, "journal_mode(WAL)")
	}
	if busyTimeoutMS > 0 && !strings.Contains(lower, "_pragma=busy_timeout") {
		dsn = addPragma(dsn, fmt.Sprintf("busy_timeout(%d)", busyTimeoutMS))
	}
	return dsn
}

// IsMemory reports whether dsn addresses an in-memory database.
func IsMemory(dsn string) bool {
	lower := strings.ToLower(dsn)
	return dsn == ":memory:" || strings.HasPrefix(lower, "file::memory:")
}

// FileDSN builds a DSN for a database file in dir with WAL and busy timeout set.
func FileDSN(dir, name string) string {
	return EnsurePragmas(filepath.Join(dir, name), true, DefaultBusyTimeoutMS)
}

func addPragma(dsn, pragma string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=" + pragma
}
