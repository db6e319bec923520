package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/viant/vecboot/schema"
	"github.com/viant/vecboot/vectordb"
	"github.com/viant/vecboot/vectordb/meta"
)

// DefaultTable holds one row per collection.
const DefaultTable = "vec_dataset"

// CreateHook runs inside the creating transaction after a collection row was inserted.
type CreateHook func(ctx context.Context, tx *sql.Tx, collection *schema.Collection) error

// Store is a SQL backed collection registry.
type Store struct {
	db       *sql.DB
	dialect  Dialect
	table    string
	onCreate CreateHook
	now      func() time.Time
	ownsDB   bool
	closed   atomic.Bool
}

// Option configures the Store.
type Option func(*Store)

// WithCreateHook sets a hook executed when a collection is first created.
func WithCreateHook(hook CreateHook) Option {
	return func(s *Store) { s.onCreate = hook }
}

// WithClock overrides the creation time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithOwnedDB makes Close close the underlying DB.
func WithOwnedDB(owned bool) Option {
	return func(s *Store) { s.ownsDB = owned }
}

// New creates a Store over an existing DB handle.
func New(ctx context.Context, db *sql.DB, dialect Dialect, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: db required")
	}
	s := &Store{
		db:      db,
		dialect: dialect,
		table:   DefaultTable,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Open connects to a remote SQL database and returns a Store owning the connection.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlstore: dsn required")
	}
	dialect := ResolveDialect(driver)
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlstore: ping %s: %w", dialect, err)
	}
	s, err := New(ctx, db, dialect, append(opts, WithOwnedDB(true))...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the registry table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range s.dialect.schemaDDL(s.table) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlstore: ensure schema: %w", err)
		}
	}
	return nil
}

// GetOrCreateCollection inserts the collection row when absent and returns the stored row.
func (s *Store) GetOrCreateCollection(ctx context.Context, name string, metadata map[string]string) (*schema.Collection, error) {
	if s.closed.Load() {
		return nil, vectordb.ErrClosed
	}
	if err := schema.ValidateName(name); err != nil {
		return nil, err
	}
	metaJSON, err := encodeMetadata(metadata)
	if err != nil {
		return nil, err
	}
	candidate := &schema.Collection{
		ID:        uuid.NewString(),
		Name:      name,
		Metadata:  metadata,
		CreatedAt: s.now().UTC(),
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	res, err := tx.ExecContext(ctx, s.dialect.insertIfAbsent(s.table),
		candidate.Name,
		candidate.ID,
		nullString(meta.GetString(metadata, meta.Description)),
		nullString(meta.GetString(metadata, meta.Source)),
		metaJSON,
		candidate.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: insert %s: %w", name, err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if inserted > 0 && s.onCreate != nil {
		if err := s.onCreate(ctx, tx, candidate); err != nil {
			return nil, err
		}
	}
	ret, err := s.get(ctx, tx, name)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return ret, nil
}

// GetCollection returns the named collection.
func (s *Store) GetCollection(ctx context.Context, name string) (*schema.Collection, error) {
	if s.closed.Load() {
		return nil, vectordb.ErrClosed
	}
	return s.get(ctx, s.db, name)
}

// ListCollections returns all collections ordered by name.
func (s *Store) ListCollections(ctx context.Context) ([]*schema.Collection, error) {
	if s.closed.Load() {
		return nil, vectordb.ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT dataset_id, collection_id, metadata, created_at FROM %s ORDER BY dataset_id`, s.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*schema.Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Close closes the DB when the Store opened it.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.ownsDB && s.db != nil {
		return s.db.Close()
	}
	return nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) get(ctx context.Context, q queryRower, name string) (*schema.Collection, error) {
	query := s.dialect.Rebind(fmt.Sprintf(`SELECT dataset_id, collection_id, metadata, created_at FROM %s WHERE dataset_id = ?`, s.table))
	c, err := scanCollection(q.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", vectordb.ErrCollectionNotFound, name)
	}
	return c, err
}

func scanCollection(row scanner) (*schema.Collection, error) {
	var (
		c         schema.Collection
		metaJSON  sql.NullString
		createdAt string
	)
	if err := row.Scan(&c.Name, &c.ID, &metaJSON, &createdAt); err != nil {
		return nil, err
	}
	if metaJSON.Valid && metaJSON.String != "" {
		if err := json.Unmarshal([]byte(metaJSON.String), &c.Metadata); err != nil {
			return nil, fmt.Errorf("sqlstore: decode metadata of %s: %w", c.Name, err)
		}
	}
	if createdAt != "" {
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: decode created_at of %s: %w", c.Name, err)
		}
		c.CreatedAt = ts
	}
	return &c, nil
}

func encodeMetadata(metadata map[string]string) (sql.NullString, error) {
	if len(metadata) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
