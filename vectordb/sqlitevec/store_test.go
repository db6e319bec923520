package sqlitevec

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestStore_CollectionPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewStore(ctx, WithDirectory(dir))
	if err != nil {
		t.Fatalf("store init: %v", err)
	}
	created, err := store.GetOrCreateCollection(ctx, "call_docs", map[string]string{"description": "call transcripts"})
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, FileName)); err != nil {
		t.Fatalf("expected database file: %v", err)
	}

	reopened, err := NewStore(ctx, WithDirectory(dir))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.GetCollection(ctx, "call_docs")
	if err != nil {
		t.Fatalf("get collection: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("expected id %v, got %v", created.ID, got.ID)
	}
	again, err := reopened.GetOrCreateCollection(ctx, "call_docs", nil)
	if err != nil {
		t.Fatalf("second get or create: %v", err)
	}
	if again.ID != created.ID {
		t.Fatalf("get or create created a duplicate: %v", again.ID)
	}

	var roots int
	if err := reopened.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM emb_root WHERE dataset_id = ?`, "call_docs").Scan(&roots); err != nil {
		t.Fatalf("count roots: %v", err)
	}
	if roots != 1 {
		t.Fatalf("expected 1 root row, got %d", roots)
	}
	docs, err := reopened.CountDocuments(ctx, "call_docs")
	if err != nil {
		t.Fatalf("count documents: %v", err)
	}
	if docs != 0 {
		t.Fatalf("expected empty collection, got %d", docs)
	}
}

func TestStore_RequiresDSN(t *testing.T) {
	if _, err := NewStore(context.Background()); err == nil {
		t.Fatalf("expected error without dsn")
	}
}
