package mem

import (
	"time"

	"github.com/viant/afs"
)

type StoreOption func(s *Store)

// WithBaseURL persists collections under baseURL (local path or afs URL).
func WithBaseURL(baseURL string) StoreOption {
	return func(s *Store) {
		s.baseURL = baseURL
	}
}

// WithFS sets the storage service used for persistence.
func WithFS(fs afs.Service) StoreOption {
	return func(s *Store) {
		s.fs = fs
	}
}

// WithClock overrides the creation time source.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}
