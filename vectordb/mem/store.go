package mem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/vecboot/schema"
	"github.com/viant/vecboot/vectordb"
)

// Store keeps collections in memory, optionally persisting them under baseURL.
type Store struct {
	baseURL     string
	fs          afs.Service
	collections map[string]*schema.Collection
	now         func() time.Time
	loaded      bool
	closed      bool
	sync.RWMutex
}

// NewStore creates a memory store; previously persisted collections are loaded lazily.
func NewStore(options ...StoreOption) *Store {
	ret := &Store{
		collections: make(map[string]*schema.Collection),
		now:         time.Now,
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.fs == nil {
		ret.fs = afs.New()
	}
	return ret
}

func (s *Store) GetOrCreateCollection(ctx context.Context, name string, metadata map[string]string) (*schema.Collection, error) {
	if err := schema.ValidateName(name); err != nil {
		return nil, err
	}
	s.RWMutex.Lock()
	defer s.RWMutex.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	if c, ok := s.collections[name]; ok {
		return c.Clone(), nil
	}
	c := &schema.Collection{
		ID:        uuid.NewString(),
		Name:      name,
		Metadata:  metadata,
		CreatedAt: s.now().UTC(),
	}
	s.collections[name] = c.Clone()
	if err := s.persist(ctx); err != nil {
		delete(s.collections, name)
		return nil, fmt.Errorf("mem: persist %s: %w", name, err)
	}
	return c, nil
}

func (s *Store) GetCollection(ctx context.Context, name string) (*schema.Collection, error) {
	s.RWMutex.Lock()
	defer s.RWMutex.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", vectordb.ErrCollectionNotFound, name)
	}
	return c.Clone(), nil
}

func (s *Store) ListCollections(ctx context.Context) ([]*schema.Collection, error) {
	s.RWMutex.Lock()
	defer s.RWMutex.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	out := make([]*schema.Collection, 0, len(s.collections))
	for _, c := range s.collections {
		out = append(out, c.Clone())
	}
	vectordb.SortCollections(out)
	return out, nil
}

// Close forbids further use of the store.
func (s *Store) Close() error {
	s.RWMutex.Lock()
	defer s.RWMutex.Unlock()
	s.closed = true
	return nil
}

func (s *Store) ensureLoaded(ctx context.Context) error {
	if s.closed {
		return vectordb.ErrClosed
	}
	if s.loaded {
		return nil
	}
	if err := s.load(ctx); err != nil {
		return fmt.Errorf("mem: load %s: %w", s.assetURL(), err)
	}
	s.loaded = true
	return nil
}
