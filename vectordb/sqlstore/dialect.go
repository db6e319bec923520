package sqlstore

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect identifies the SQL flavour of a registry database.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

// ResolveDialect maps a driver name to a Dialect; unknown drivers use sqlite.
func ResolveDialect(driver string) Dialect {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "mysql", "mariadb":
		return DialectMySQL
	case "postgres", "postgresql", "pg", "pgx":
		return DialectPostgres
	default:
		return DialectSQLite
	}
}

// DriverName returns the database/sql driver name for the dialect.
func (d Dialect) DriverName() string {
	switch d {
	case DialectMySQL:
		return "mysql"
	case DialectPostgres:
		return "postgres"
	}
	return "sqlite"
}

// Rebind rewrites ? placeholders for dialects using positional parameters.
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	quoted := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		if c == '\'' {
			quoted = !quoted
		}
		if c == '?' && !quoted {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func (d Dialect) schemaDDL(table string) []string {
	switch d {
	case DialectMySQL:
		return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			dataset_id    VARCHAR(255) PRIMARY KEY,
			collection_id VARCHAR(64)  NOT NULL,
			description   TEXT,
			source_uri    TEXT,
			metadata      TEXT,
			created_at    VARCHAR(64)  NOT NULL,
			last_scn      BIGINT       NOT NULL DEFAULT 0
		)`, table)}
	case DialectPostgres:
		return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			dataset_id    TEXT PRIMARY KEY,
			collection_id TEXT   NOT NULL,
			description   TEXT,
			source_uri    TEXT,
			metadata      TEXT,
			created_at    TEXT   NOT NULL,
			last_scn      BIGINT NOT NULL DEFAULT 0
		)`, table)}
	}
	return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			dataset_id    TEXT PRIMARY KEY,
			collection_id TEXT    NOT NULL,
			description   TEXT,
			source_uri    TEXT,
			metadata      TEXT,
			created_at    TEXT    NOT NULL,
			last_scn      INTEGER NOT NULL DEFAULT 0
		);`, table)}
}

func (d Dialect) insertIfAbsent(table string) string {
	const columns = "(dataset_id, collection_id, description, source_uri, metadata, created_at, last_scn) VALUES(?,?,?,?,?,?,0)"
	var query string
	switch d {
	case DialectMySQL:
		query = fmt.Sprintf("INSERT IGNORE INTO %s%s", table, columns)
	case DialectPostgres:
		query = fmt.Sprintf("INSERT INTO %s%s ON CONFLICT (dataset_id) DO NOTHING", table, columns)
	default:
		query = fmt.Sprintf("INSERT OR IGNORE INTO %s%s", table, columns)
	}
	return d.Rebind(query)
}
