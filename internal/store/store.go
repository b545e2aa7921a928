// Package store persists and restores the serialized request graph.
// Every backend speaks the same two-method contract: a store knows
// nothing about graphs, nodes, or requests, only about a single blob
// of bytes.
package store

import "context"

// Store loads and saves the tracker's entire serialized state as an
// opaque blob. Backends do no internal locking of their own:
// concurrent Save calls on one Store are not coordinated.
type Store interface {
	// Load returns the last saved blob, or (nil, nil) if nothing has
	// been saved yet.
	Load(ctx context.Context) ([]byte, error)
	// Save persists blob, replacing whatever was previously stored.
	Save(ctx context.Context, blob []byte) error
	// Close releases any resources (connections, file handles) held
	// by the backend.
	Close() error
}
