package service

import (
	"context"
	"io"
	"os"

	"github.com/viant/afs"
	"github.com/viant/vecboot/manifest"
	"github.com/viant/vecboot/vectordb"
)

// Option configures the Service.
type Option func(*Service)

// WithConfig sets the bootstrap configuration.
func WithConfig(cfg *Config) Option {
	return func(s *Service) { s.config = cfg }
}

// WithStore sets a pre-opened store; the Service does not close it and skips
// persist directory handling.
func WithStore(store vectordb.Store) Option {
	return func(s *Service) { s.store = store }
}

// WithOutput sets where readiness lines are written (default: stdout).
func WithOutput(w io.Writer) Option {
	return func(s *Service) { s.output = w }
}

// WithLogf sets the diagnostic logger.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(s *Service) { s.logf = logf }
}

// WithFS sets the storage service used for persist directories, manifests and
// the mem backend.
func WithFS(fs afs.Service) Option {
	return func(s *Service) { s.fs = fs }
}

// Service ensures the configured collections exist in the configured store.
type Service struct {
	config    *Config
	store     vectordb.Store
	output    io.Writer
	logf      func(format string, args ...any)
	fs        afs.Service
	manifests *manifest.Service
	open      func(ctx context.Context, cfg StoreConfig) (vectordb.Store, error)
}

// NewService creates a new Service.
func NewService(opts ...Option) (*Service, error) {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if s.output == nil {
		s.output = os.Stdout
	}
	if s.fs == nil {
		s.fs = afs.New()
	}
	s.manifests = manifest.New(manifest.WithFS(s.fs))
	s.open = func(ctx context.Context, cfg StoreConfig) (vectordb.Store, error) {
		return OpenStore(ctx, cfg, s.fs, s.logf)
	}
	return s, nil
}

// Config returns the service configuration.
func (s *Service) Config() *Config { return s.config }

func (s *Service) log(format string, args ...any) {
	if s.logf != nil {
		s.logf(format, args...)
	}
}
