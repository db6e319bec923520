package vectordb

import (
	"context"

	"github.com/viant/vecboot/schema"
)

// Store manages named collections in a vector store.
type Store interface {
	// GetOrCreateCollection returns the named collection, creating it when absent.
	// Repeated calls return the same collection.
	GetOrCreateCollection(ctx context.Context, name string, metadata map[string]string) (*schema.Collection, error)
	// GetCollection returns ErrCollectionNotFound when the collection does not exist.
	GetCollection(ctx context.Context, name string) (*schema.Collection, error)
	// ListCollections returns all collections sorted by name.
	ListCollections(ctx context.Context) ([]*schema.Collection, error)
	Close() error
}
