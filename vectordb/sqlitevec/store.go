package sqlitevec

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/viant/sqlite-vec/engine"
	"github.com/viant/sqlite-vec/vec"
	"github.com/viant/vecboot/db/sqliteutil"
	"github.com/viant/vecboot/schema"
	"github.com/viant/vecboot/vectordb/meta"
	"github.com/viant/vecboot/vectordb/sqlstore"
)

// FileName is the database file created in the persist directory.
const FileName = "vecboot.sqlite"

// vtable is the vec virtual table holding collection documents.
const vtable = "emb_docs"

// shadow is the table backing the vec virtual table.
const shadow = "_vec_" + vtable

// Store is a sqlite-vec backed collection store.
type Store struct {
	*sqlstore.Store
	db  *sql.DB
	dsn string
}

// Option configures the sqlite-vec store.
type Option func(*Store)

// WithDirectory opens the database file inside dir.
func WithDirectory(dir string) Option {
	return func(s *Store) { s.dsn = sqliteutil.FileDSN(dir, FileName) }
}

// NewStore opens/initializes a sqlite-vec Store.
func NewStore(ctx context.Context, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	if s.dsn == "" {
		return nil, fmt.Errorf("sqlitevec: dsn required")
	}
	db, err := engine.Open(s.dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s.db = db
	if err := vec.Register(s.db); err != nil {
		s.closeDB()
		return nil, err
	}
	if err := s.ensureSchema(ctx); err != nil {
		s.closeDB()
		return nil, err
	}
	registry, err := sqlstore.New(ctx, s.db, sqlstore.DialectSQLite, sqlstore.WithCreateHook(s.registerRoot))
	if err != nil {
		s.closeDB()
		return nil, err
	}
	s.Store = registry
	return s, nil
}

// Close closes the registry and the underlying DB.
func (s *Store) Close() error {
	if err := s.Store.Close(); err != nil {
		return err
	}
	return s.closeDB()
}

// DB exposes the underlying sql.DB.
func (s *Store) DB() *sql.DB { return s.db }

// CountDocuments returns the number of live rows stored for a collection.
func (s *Store) CountDocuments(ctx context.Context, name string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+shadow+` WHERE dataset_id = ? AND archived = 0`, name).Scan(&n)
	return n, err
}

func (s *Store) closeDB() error {
	if s.db != nil {
		db := s.db
		s.db = nil
		return db.Close()
	}
	return nil
}

// registerRoot records the collection as an embedding root in the creating transaction.
func (s *Store) registerRoot(ctx context.Context, tx *sql.Tx, c *schema.Collection) error {
	_, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO emb_root(dataset_id, source_uri, description, last_indexed_at, last_scn) VALUES(?,?,?,?,0)`,
		c.Name,
		meta.GetString(c.Metadata, meta.Source),
		meta.GetString(c.Metadata, meta.Description),
		c.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlitevec: register root %s: %w", c.Name, err)
	}
	return nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS vector_storage (
			shadow_table_name TEXT NOT NULL,
			dataset_id        TEXT NOT NULL DEFAULT '',
			"index"           BLOB,
			PRIMARY KEY (shadow_table_name, dataset_id)
		);`,
		`CREATE TABLE IF NOT EXISTS emb_root (
			dataset_id      TEXT PRIMARY KEY,
			source_uri      TEXT,
			description     TEXT,
			last_indexed_at TIMESTAMP,
			last_scn        INTEGER NOT NULL DEFAULT 0
		);`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			dataset_id       TEXT NOT NULL,
			id               TEXT NOT NULL,
			asset_id         TEXT NOT NULL,
			content          TEXT,
			meta             TEXT,
			embedding        BLOB,
			embedding_model  TEXT,
			scn              INTEGER NOT NULL,
			archived         INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (dataset_id, id)
		);`, shadow),
		fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec(doc_id);`, vtable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_asset ON %s(dataset_id, asset_id);`, vtable, shadow),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_archived ON %s(dataset_id, archived);`, vtable, shadow),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlitevec: ensure schema: %w", err)
		}
	}
	return nil
}
