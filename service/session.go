package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/viant/afs/file"
	"github.com/viant/vecboot/vectordb"
	"github.com/viant/vecboot/vectordb/dirlock"
)

// session holds the resources of one run: the directory lock and the store client.
type session struct {
	store vectordb.Store
	lock  *dirlock.Lock
	owned bool
}

func (s *session) close() error {
	var err error
	if s.owned && s.store != nil {
		err = s.store.Close()
	}
	if s.lock != nil {
		err = errors.Join(err, s.lock.Release())
	}
	return err
}

// openSession prepares the persist directory and opens the store.
// With create unset the directory must already hold a manifest and nothing is written
// before the lock is taken.
func (s *Service) openSession(ctx context.Context, create bool) (*session, error) {
	if s.store != nil {
		return &session{store: s.store}, nil
	}
	cfg := s.config.Store
	backend, err := vectordb.ParseBackend(cfg.Backend)
	if err != nil {
		return nil, err
	}
	ret := &session{owned: true}
	if dir := cfg.PersistDirectory; dir != "" && !backend.Remote() {
		location := dir
		if isLocal(dir) {
			location = localPath(dir)
		}
		if err := s.preparePersistDirectory(ctx, location, create); err != nil {
			return nil, fmt.Errorf("prepare persist directory %s: %w", dir, err)
		}
		if !create {
			existing, err := s.manifests.Verify(ctx, location, backend)
			if err != nil {
				return nil, fmt.Errorf("check manifest: %w", err)
			}
			if existing == nil {
				return nil, fmt.Errorf("%w: %s", vectordb.ErrNotInitialized, dir)
			}
		}
		if isLocal(dir) {
			if ret.lock, err = s.acquireLock(ctx, location, cfg.LockTimeoutSeconds); err != nil {
				return nil, fmt.Errorf("lock persist directory %s: %w", dir, err)
			}
		}
		if create {
			if _, err = s.manifests.Ensure(ctx, location, backend); err != nil {
				_ = ret.close()
				return nil, fmt.Errorf("check manifest: %w", err)
			}
		}
	}
	s.log("opening %s store at %s", backend, describeLocation(cfg, backend))
	store, err := s.open(ctx, cfg)
	if err != nil {
		_ = ret.close()
		return nil, fmt.Errorf("open %s store: %w", backend, err)
	}
	ret.store = store
	return ret, nil
}

func (s *Service) preparePersistDirectory(ctx context.Context, location string, create bool) error {
	ok, err := s.fs.Exists(ctx, location)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if !create {
		return fmt.Errorf("does not exist")
	}
	s.log("creating persist directory %s", location)
	return s.fs.Create(ctx, location, file.DefaultDirOsMode, true)
}

func (s *Service) acquireLock(ctx context.Context, dir string, timeoutSeconds int) (*dirlock.Lock, error) {
	switch {
	case timeoutSeconds < 0:
		return dirlock.Wait(ctx, dir)
	case timeoutSeconds == 0:
		return dirlock.Acquire(ctx, dir, dirlock.Options{})
	}
	return dirlock.Acquire(ctx, dir, dirlock.Options{
		Blocking: true,
		Timeout:  time.Duration(timeoutSeconds) * time.Second,
	})
}

func describeLocation(cfg StoreConfig, backend vectordb.Backend) string {
	if backend.Remote() {
		return string(backend) + " dsn"
	}
	if cfg.PersistDirectory == "" {
		return "memory"
	}
	return cfg.PersistDirectory
}
