package vectordb

import "errors"

var (
	// ErrCollectionNotFound indicates the requested collection does not exist.
	ErrCollectionNotFound = errors.New("vectordb: collection not found")
	// ErrClosed indicates the store was already closed.
	ErrClosed = errors.New("vectordb: store closed")
	// ErrIncompatibleFormat indicates persisted data written by another backend or format version.
	ErrIncompatibleFormat = errors.New("vectordb: incompatible persisted format")
	// ErrNotInitialized indicates a persist directory that was never bootstrapped.
	ErrNotInitialized = errors.New("vectordb: persist directory not initialized")
	// ErrUnknownBackend indicates an unsupported backend selector.
	ErrUnknownBackend = errors.New("vectordb: unknown backend")
)
