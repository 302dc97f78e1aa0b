// Package snapshot defines the common interface for captured-state stores.
// These stores give provider state captures a durable home so a provider can
// be reconstructed across process boundaries.
package snapshot

import "context"

// Store persists named state captures. Implementations exist for the local
// file system and Google Cloud Storage.
type Store interface {
	// Save persists state under name, replacing any previous capture.
	Save(ctx context.Context, name string, state []byte) error

	// Load retrieves the capture persisted under name.
	Load(ctx context.Context, name string) ([]byte, error)

	// Delete removes the capture persisted under name, if present.
	Delete(ctx context.Context, name string) error

	// List returns the names of all persisted captures.
	List(ctx context.Context) ([]string, error)
}
