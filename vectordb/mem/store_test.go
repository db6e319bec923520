package mem

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/vecboot/vectordb"
)

func TestStore_Ephemeral(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	first, err := store.GetOrCreateCollection(ctx, "call_docs", nil)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	second, err := store.GetOrCreateCollection(ctx, "call_docs", nil)
	if err != nil {
		t.Fatalf("second get or create: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same id, got %v and %v", first.ID, second.ID)
	}
	if _, err := store.GetCollection(ctx, "other_docs"); !errors.Is(err, vectordb.ErrCollectionNotFound) {
		t.Fatalf("expected ErrCollectionNotFound, got %v", err)
	}
}

func TestStore_PersistsUnderBaseURL(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewStore(WithBaseURL(dir))
	created, err := store.GetOrCreateCollection(ctx, "call_docs", map[string]string{"description": "calls"})
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if _, err := store.GetOrCreateCollection(ctx, "sms_docs", nil); err != nil {
		t.Fatalf("get or create: %v", err)
	}
	_ = store.Close()
	if _, err := os.Stat(filepath.Join(dir, AssetName)); err != nil {
		t.Fatalf("expected %v: %v", AssetName, err)
	}

	reopened := NewStore(WithBaseURL(dir))
	got, err := reopened.GetCollection(ctx, "call_docs")
	if err != nil {
		t.Fatalf("get collection: %v", err)
	}
	if got.ID != created.ID || got.Metadata["description"] != "calls" {
		t.Fatalf("unexpected collection: %+v", got)
	}
	items, err := reopened.ListCollections(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || items[0].Name != "call_docs" || items[1].Name != "sms_docs" {
		t.Fatalf("unexpected collections: %v", items)
	}
}

func TestStore_Closed(t *testing.T) {
	store := NewStore()
	_ = store.Close()
	if _, err := store.GetOrCreateCollection(context.Background(), "call_docs", nil); !errors.Is(err, vectordb.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

type flakyFS struct {
	afs.Service
	existsErr error
	uploads   int
}

func (f *flakyFS) Exists(ctx context.Context, URL string, options ...storage.Option) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.Service.Exists(ctx, URL, options...)
}

func (f *flakyFS) Upload(ctx context.Context, URL string, mode os.FileMode, reader io.Reader, options ...storage.Option) error {
	f.uploads++
	return f.Service.Upload(ctx, URL, mode, reader, options...)
}

func TestStore_LoadFailureKeepsPersistedCollections(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	seed := NewStore(WithBaseURL(dir))
	if _, err := seed.GetOrCreateCollection(ctx, "call_docs", nil); err != nil {
		t.Fatalf("seed: %v", err)
	}

	fs := &flakyFS{Service: afs.New(), existsErr: errors.New("transient")}
	store := NewStore(WithBaseURL(dir), WithFS(fs))
	if _, err := store.GetOrCreateCollection(ctx, "sms_docs", nil); err == nil {
		t.Fatalf("expected load error")
	}
	if fs.uploads != 0 {
		t.Fatalf("expected no upload after failed load, got %d", fs.uploads)
	}

	fs.existsErr = nil
	if _, err := store.GetOrCreateCollection(ctx, "sms_docs", nil); err != nil {
		t.Fatalf("get or create after recovery: %v", err)
	}
	items, err := NewStore(WithBaseURL(dir)).ListCollections(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || items[0].Name != "call_docs" || items[1].Name != "sms_docs" {
		t.Fatalf("unexpected collections: %v", items)
	}
}

func TestStore_CreatedAtUsesClock(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	dir := t.TempDir()
	store := NewStore(WithBaseURL(dir), WithClock(func() time.Time { return at }))
	created, err := store.GetOrCreateCollection(ctx, "call_docs", nil)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if !created.CreatedAt.Equal(at) {
		t.Fatalf("expected %v, got %v", at, created.CreatedAt)
	}
	got, err := NewStore(WithBaseURL(dir)).GetCollection(ctx, "call_docs")
	if err != nil {
		t.Fatalf("get collection: %v", err)
	}
	if !got.CreatedAt.Equal(at) {
		t.Fatalf("expected persisted %v, got %v", at, got.CreatedAt)
	}
}
