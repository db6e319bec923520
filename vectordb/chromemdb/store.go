package chromemdb

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"
	"github.com/viant/vecboot/schema"
	"github.com/viant/vecboot/vectordb"
)

// DirName is the chromem data directory created in the persist directory.
const DirName = "chromem"

// namespace derives stable collection IDs; chromem does not assign them.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("vecboot/chromem"))

// Store is a chromem-go backed collection store.
type Store struct {
	db       *chromem.DB
	path     string
	compress bool
	closed   atomic.Bool
}

// Option configures the chromem store.
type Option func(*Store)

// WithDirectory stores chromem files under dir/chromem.
func WithDirectory(dir string) Option {
	return func(s *Store) { s.path = filepath.Join(dir, DirName) }
}

// WithCompress enables gzip compression of persisted files.
func WithCompress(enabled bool) Option {
	return func(s *Store) { s.compress = enabled }
}

// NewStore opens a chromem store; without a directory the DB lives in memory.
func NewStore(opts ...Option) (*Store, error) {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	if s.path == "" {
		s.db = chromem.NewDB()
		return s, nil
	}
	db, err := chromem.NewPersistentDB(s.path, s.compress)
	if err != nil {
		return nil, fmt.Errorf("chromemdb: open %s: %w", s.path, err)
	}
	s.db = db
	return s, nil
}

// GetOrCreateCollection delegates to chromem's own get-or-create.
// chromem keeps collection metadata private, so none is returned.
func (s *Store) GetOrCreateCollection(_ context.Context, name string, metadata map[string]string) (*schema.Collection, error) {
	if s.closed.Load() {
		return nil, vectordb.ErrClosed
	}
	if err := schema.ValidateName(name); err != nil {
		return nil, err
	}
	c, err := s.db.GetOrCreateCollection(name, metadata, nil)
	if err != nil {
		return nil, fmt.Errorf("chromemdb: get or create %s: %w", name, err)
	}
	return toCollection(c), nil
}

// GetCollection returns the named collection.
func (s *Store) GetCollection(_ context.Context, name string) (*schema.Collection, error) {
	if s.closed.Load() {
		return nil, vectordb.ErrClosed
	}
	c := s.db.GetCollection(name, nil)
	if c == nil {
		return nil, fmt.Errorf("%w: %s", vectordb.ErrCollectionNotFound, name)
	}
	return toCollection(c), nil
}

// ListCollections returns all collections ordered by name.
func (s *Store) ListCollections(_ context.Context) ([]*schema.Collection, error) {
	if s.closed.Load() {
		return nil, vectordb.ErrClosed
	}
	items := s.db.ListCollections()
	out := make([]*schema.Collection, 0, len(items))
	for _, c := range items {
		out = append(out, toCollection(c))
	}
	vectordb.SortCollections(out)
	return out, nil
}

// Count returns the number of documents in the named collection.
func (s *Store) Count(name string) (int, error) {
	c := s.db.GetCollection(name, nil)
	if c == nil {
		return 0, fmt.Errorf("%w: %s", vectordb.ErrCollectionNotFound, name)
	}
	return c.Count(), nil
}

// Close marks the store closed; chromem persists on every write.
func (s *Store) Close() error {
	s.closed.Store(true)
	return nil
}

func toCollection(c *chromem.Collection) *schema.Collection {
	return &schema.Collection{
		ID:   uuid.NewSHA1(namespace, []byte(c.Name)).String(),
		Name: c.Name,
	}
}
