package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/vecboot/vectordb"
	"github.com/viant/vecboot/vectordb/badgerkv"
	"github.com/viant/vecboot/vectordb/chromemdb"
	"github.com/viant/vecboot/vectordb/mem"
	"github.com/viant/vecboot/vectordb/sqlitevec"
	"github.com/viant/vecboot/vectordb/sqlstore"
)

// OpenStore constructs the store client for the configured backend.
// Persist directories must already exist. fs backs the mem backend; nil uses afs.New().
func OpenStore(ctx context.Context, cfg StoreConfig, fs afs.Service, logf func(format string, args ...any)) (vectordb.Store, error) {
	backend, err := vectordb.ParseBackend(cfg.Backend)
	if err != nil {
		return nil, err
	}
	switch backend {
	case vectordb.BackendSQLiteVec:
		store, err := sqlitevec.NewStore(ctx, sqlitevec.WithDirectory(localPath(cfg.PersistDirectory)))
		if err != nil {
			return nil, err
		}
		return store, nil
	case vectordb.BackendBadger:
		store, err := badgerkv.NewStore(badgerkv.WithDirectory(localPath(cfg.PersistDirectory)), badgerkv.WithLogf(logf))
		if err != nil {
			return nil, err
		}
		return store, nil
	case vectordb.BackendChromem:
		store, err := chromemdb.NewStore(chromemdb.WithDirectory(localPath(cfg.PersistDirectory)), chromemdb.WithCompress(cfg.Compress))
		if err != nil {
			return nil, err
		}
		return store, nil
	case vectordb.BackendMem:
		opts := []mem.StoreOption{mem.WithBaseURL(memLocation(cfg.PersistDirectory))}
		if fs != nil {
			opts = append(opts, mem.WithFS(fs))
		}
		return mem.NewStore(opts...), nil
	case vectordb.BackendMySQL, vectordb.BackendPostgres:
		dsn, err := ExpandDSNWithSecret(ctx, cfg.DSN, cfg.Secret)
		if err != nil {
			return nil, fmt.Errorf("expand dsn: %w", err)
		}
		store, err := sqlstore.Open(ctx, string(backend), dsn)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("%w: %s", vectordb.ErrUnknownBackend, backend)
}

// memLocation keeps remote URLs and resolves local directories; empty stays in memory.
func memLocation(dir string) string {
	if dir == "" || !isLocal(dir) {
		return dir
	}
	return localPath(dir)
}

// isLocal reports whether dir addresses the local file system.
func isLocal(dir string) bool {
	if !strings.Contains(dir, "://") {
		return true
	}
	return strings.HasPrefix(dir, "file://")
}

// localPath converts a local persist directory to an absolute file path.
func localPath(dir string) string {
	dir = strings.TrimPrefix(dir, "file://localhost")
	dir = strings.TrimPrefix(dir, "file://")
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

