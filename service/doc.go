// Package service prepares a vector store for use: it resolves configuration,
// opens the selected backend and ensures the configured collections exist.
//
// This package is intended for embedding the bootstrap step into other programs
// without shelling out to the CLI.
package service
