package store

import (
	"errors"
	"fmt"

	"chunkworld/internal/voxel"
)

// ErrStoreUnavailable is returned by Open when the durable store cannot
// be initialized (§7 StoreUnavailable).
var ErrStoreUnavailable = errors.New("store: unavailable")

// PersistFailedError reports a save_batch that did not fully commit
// (§7 PersistFailed{keys}). Keys lists the subset that did not commit;
// callers are expected to keep those keys in their dirty set and retry.
type PersistFailedError struct {
	Keys []voxel.ChunkKey
	Err  error
}

func (e *PersistFailedError) Error() string {
	return fmt.Sprintf("store: persist failed for %d key(s): %v", len(e.Keys), e.Err)
}

func (e *PersistFailedError) Unwrap() error { return e.Err }
