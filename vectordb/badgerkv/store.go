package badgerkv

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/viant/vecboot/schema"
	"github.com/viant/vecboot/vectordb"
)

// DirName is the badger data directory created in the persist directory.
const DirName = "badger"

const (
	collectionPrefix  = "collection/"
	defaultMaxRetries = 5
)

// Store is a BadgerDB backed collection store.
type Store struct {
	db         *badger.DB
	dir        string
	inMemory   bool
	maxRetries int
	logf       func(format string, args ...any)
	now        func() time.Time
	closed     atomic.Bool
}

// Option configures the badger store.
type Option func(*Store)

// WithDirectory stores badger files under dir/badger.
func WithDirectory(dir string) Option {
	return func(s *Store) { s.dir = filepath.Join(dir, DirName) }
}

// WithInMemory runs badger without disk persistence.
func WithInMemory(enabled bool) Option {
	return func(s *Store) { s.inMemory = enabled }
}

// WithMaxRetries sets how many times a conflicting transaction is retried.
func WithMaxRetries(n int) Option {
	return func(s *Store) { s.maxRetries = n }
}

// WithLogf routes badger warnings and errors to logf.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(s *Store) { s.logf = logf }
}

// NewStore opens a badger store.
func NewStore(opts ...Option) (*Store, error) {
	s := &Store{maxRetries: defaultMaxRetries, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if !s.inMemory && s.dir == "" {
		return nil, errors.New("badgerkv: directory is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(s.dir)
	if s.inMemory {
		dbOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	dbOpts = dbOpts.WithLogger(logger{logf: s.logf})
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("badgerkv: open %s: %w", s.dir, err)
	}
	s.db = db
	return s, nil
}

// GetOrCreateCollection stores the collection record when absent.
func (s *Store) GetOrCreateCollection(_ context.Context, name string, metadata map[string]string) (*schema.Collection, error) {
	if s.closed.Load() {
		return nil, vectordb.ErrClosed
	}
	if err := schema.ValidateName(name); err != nil {
		return nil, err
	}
	key := collectionKey(name)
	var ret *schema.Collection
	var err error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		err = s.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(key)
			switch {
			case err == nil:
				data, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				ret, err = vectordb.DecodeCollection(data)
				return err
			case !errors.Is(err, badger.ErrKeyNotFound):
				return err
			}
			candidate := &schema.Collection{
				ID:        uuid.NewString(),
				Name:      name,
				Metadata:  metadata,
				CreatedAt: s.now().UTC(),
			}
			data, err := vectordb.EncodeCollection(candidate)
			if err != nil {
				return err
			}
			if err := txn.Set(key, data); err != nil {
				return err
			}
			ret = candidate.Clone()
			return nil
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("badgerkv: get or create %s: %w", name, err)
	}
	return ret, nil
}

// GetCollection returns the named collection.
func (s *Store) GetCollection(_ context.Context, name string) (*schema.Collection, error) {
	if s.closed.Load() {
		return nil, vectordb.ErrClosed
	}
	var ret *schema.Collection
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(collectionKey(name))
		if err != nil {
			return err
		}
		data, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		ret, err = vectordb.DecodeCollection(data)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", vectordb.ErrCollectionNotFound, name)
	}
	return ret, err
}

// ListCollections returns all collections ordered by name.
func (s *Store) ListCollections(_ context.Context) ([]*schema.Collection, error) {
	if s.closed.Load() {
		return nil, vectordb.ErrClosed
	}
	prefix := []byte(collectionPrefix)
	var out []*schema.Collection
	err := s.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		it := txn.NewIterator(iterOpts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			data, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			c, err := vectordb.DecodeCollection(data)
			if err != nil {
				return err
			}
			out = append(out, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	vectordb.SortCollections(out)
	return out, nil
}

// Close closes the badger database.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.db.Close()
}

func collectionKey(name string) []byte {
	return []byte(collectionPrefix + name)
}

// logger bridges badger logs to logf, dropping info and debug messages.
type logger struct {
	logf func(format string, args ...any)
}

func (l logger) Errorf(f string, v ...interface{}) {
	if l.logf != nil {
		l.logf("[badger] ERROR: "+f, v...)
	}
}

func (l logger) Warningf(f string, v ...interface{}) {
	if l.logf != nil {
		l.logf("[badger] WARN: "+f, v...)
	}
}

func (logger) Infof(string, ...interface{})  {}
func (logger) Debugf(string, ...interface{}) {}
