package store

import (
	"context"
	"encoding/json"
)

// BlobStore persists opaque JSON collections (bookmarks, notes, feedback)
// keyed by name. Collections are read and written wholesale; concurrent
// writers race with last-write-wins semantics, which is acceptable for a
// single-user tool.
type BlobStore interface {
	// Get returns the blob and whether the key exists.
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)

	// Set stores the blob, replacing any previous value.
	Set(ctx context.Context, key string, blob json.RawMessage) error

	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
