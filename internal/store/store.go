// Package store implements ChunkStore: an asynchronous durable key to
// voxel-volume map with a companion single-record meta store, batched
// writes, and a known-keys index warmed at open.
package store

import (
	"context"

	"chunkworld/internal/voxel"
)

// Meta is the single caller-attached record persisted alongside chunk
// data: at minimum the world seed, plus an opaque blob the core never
// interprets (observer pose, inventory, ...).
type Meta struct {
	Seed    int64
	Blob    []byte
	HasBlob bool
}

// Store is the durable K->volume map described in §4.D. Implementations
// must make save_batch atomic-per-key and durable before returning, and
// must let a Load concurrent with a SaveBatch of the same key observe
// either the prior or the new value, never a partial write.
type Store interface {
	// Open initializes the durable store, returning ErrStoreUnavailable
	// on failure.
	Open(ctx context.Context) error

	// Load fetches one chunk's volume. ok is false if the key has never
	// been saved.
	Load(ctx context.Context, key voxel.ChunkKey) (vol voxel.Volume, ok bool, err error)

	// SaveBatch durably writes every entry in batch. On partial or total
	// failure it returns a *PersistFailedError naming the keys that did
	// not commit.
	SaveBatch(ctx context.Context, batch map[voxel.ChunkKey]voxel.Volume) error

	// Delete removes one chunk's persisted volume, if present.
	Delete(ctx context.Context, key voxel.ChunkKey) error

	// ListKeys returns every chunk key known to the store, used once at
	// open to warm the known-keys set.
	ListKeys(ctx context.Context) ([]voxel.ChunkKey, error)

	// LoadMeta / SaveMeta persist the single meta record.
	LoadMeta(ctx context.Context) (Meta, bool, error)
	SaveMeta(ctx context.Context, meta Meta) error

	// Clear drops both the chunks and meta stores ("new world").
	Clear(ctx context.Context) error

	// Close releases any held resources.
	Close() error
}
