package badgerkv

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/viant/vecboot/vectordb"
)

func TestStore_GetOrCreatePersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewStore(WithDirectory(dir))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	created, err := store.GetOrCreateCollection(ctx, "call_docs", map[string]string{"source": "calls"})
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(WithDirectory(dir))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.GetOrCreateCollection(ctx, "call_docs", nil)
	if err != nil {
		t.Fatalf("second get or create: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("expected id %v, got %v", created.ID, got.ID)
	}
	if got.Metadata["source"] != "calls" {
		t.Fatalf("metadata lost: %v", got.Metadata)
	}
}

func TestStore_ConcurrentGetOrCreate(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(WithInMemory(true), WithMaxRetries(50))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	const workers = 8
	ids := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := store.GetOrCreateCollection(ctx, "call_docs", nil)
			errs[i] = err
			if c != nil {
				ids[i] = c.ID
			}
		}(i)
	}
	wg.Wait()
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("worker %d saw id %v, want %v", i, ids[i], ids[0])
		}
	}
	items, err := store.ListCollections(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 collection, got %d", len(items))
	}
}

func TestStore_GetCollectionNotFound(t *testing.T) {
	store, err := NewStore(WithInMemory(true))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()
	if _, err := store.GetCollection(context.Background(), "missing"); !errors.Is(err, vectordb.ErrCollectionNotFound) {
		t.Fatalf("expected ErrCollectionNotFound, got %v", err)
	}
}

func TestNewStore_RequiresDirectory(t *testing.T) {
	if _, err := NewStore(); err == nil {
		t.Fatalf("expected error without directory")
	}
}
