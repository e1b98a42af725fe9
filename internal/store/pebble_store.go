package store

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"

	"chunkworld/internal/voxel"
)

// PebbleStore is the disk-backed Store implementation: a single LSM-tree
// database holding both the "chunks" and "meta" logical stores, keyed by
// a namespace prefix so both can live in one pebble.DB.
type PebbleStore struct {
	path string

	mu sync.Mutex
	db *pebble.DB
}

const (
	chunkKeyPrefix = "c/"
	metaKey        = "m/player"
)

// NewPebbleStore constructs a store rooted at path. Open must be called
// before use.
func NewPebbleStore(path string) *PebbleStore {
	return &PebbleStore{path: path}
}

func (s *PebbleStore) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := pebble.Open(s.path, &pebble.Options{})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	s.db = db
	return nil
}

func chunkDBKey(key voxel.ChunkKey) []byte {
	return []byte(chunkKeyPrefix + key.Key())
}

func (s *PebbleStore) Load(ctx context.Context, key voxel.ChunkKey) (voxel.Volume, bool, error) {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return nil, false, ErrStoreUnavailable
	}

	value, closer, err := db.Get(chunkDBKey(key))
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", key, err)
	}
	defer closer.Close()

	payload := append([]byte(nil), value...)
	vol, err := decodeVolume(payload)
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", key, err)
	}
	return vol, true, nil
}

// SaveBatch writes every entry as one pebble batch, committed with a
// sync write option so the batch is durable before SaveBatch returns
// (§4.D consistency contract). A failure to encode or commit reports
// every key in the batch as unsaved via PersistFailedError.
func (s *PebbleStore) SaveBatch(ctx context.Context, batch map[voxel.ChunkKey]voxel.Volume) error {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return &PersistFailedError{Keys: keysOf(batch), Err: ErrStoreUnavailable}
	}
	if len(batch) == 0 {
		return nil
	}

	wb := db.NewBatch()
	defer wb.Close()

	for key, vol := range batch {
		payload, err := encodeVolume(vol)
		if err != nil {
			return &PersistFailedError{Keys: keysOf(batch), Err: err}
		}
		if err := wb.Set(chunkDBKey(key), payload, nil); err != nil {
			return &PersistFailedError{Keys: keysOf(batch), Err: err}
		}
	}

	if err := wb.Commit(pebble.Sync); err != nil {
		return &PersistFailedError{Keys: keysOf(batch), Err: err}
	}
	return nil
}

func keysOf(batch map[voxel.ChunkKey]voxel.Volume) []voxel.ChunkKey {
	keys := make([]voxel.ChunkKey, 0, len(batch))
	for k := range batch {
		keys = append(keys, k)
	}
	return keys
}

func (s *PebbleStore) Delete(ctx context.Context, key voxel.ChunkKey) error {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return ErrStoreUnavailable
	}
	if err := db.Delete(chunkDBKey(key), pebble.Sync); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *PebbleStore) ListKeys(ctx context.Context) ([]voxel.ChunkKey, error) {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return nil, ErrStoreUnavailable
	}

	lower := []byte(chunkKeyPrefix)
	upper := append([]byte(chunkKeyPrefix), 0xFF)
	iter, err := db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer iter.Close()

	var keys []voxel.ChunkKey
	for iter.First(); iter.Valid(); iter.Next() {
		raw := string(iter.Key())[len(chunkKeyPrefix):]
		key, err := voxel.ParseChunkKey(raw)
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	return keys, iter.Error()
}

type metaRecord struct {
	Seed    int64
	Blob    []byte
	HasBlob bool
}

func (s *PebbleStore) LoadMeta(ctx context.Context) (Meta, bool, error) {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return Meta{}, false, ErrStoreUnavailable
	}

	value, closer, err := db.Get([]byte(metaKey))
	if err == pebble.ErrNotFound {
		return Meta{}, false, nil
	}
	if err != nil {
		return Meta{}, false, fmt.Errorf("load meta: %w", err)
	}
	defer closer.Close()

	var rec metaRecord
	if err := gob.NewDecoder(bytes.NewReader(value)).Decode(&rec); err != nil {
		return Meta{}, false, fmt.Errorf("decode meta: %w", err)
	}
	return Meta{Seed: rec.Seed, Blob: rec.Blob, HasBlob: rec.HasBlob}, true, nil
}

func (s *PebbleStore) SaveMeta(ctx context.Context, meta Meta) error {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return ErrStoreUnavailable
	}

	var buf bytes.Buffer
	rec := metaRecord{Seed: meta.Seed, Blob: meta.Blob, HasBlob: meta.HasBlob}
	if err := gob.NewEncoder(&buf).Encode(&rec); err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	if err := db.Set([]byte(metaKey), buf.Bytes(), pebble.Sync); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	return nil
}

func (s *PebbleStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return ErrStoreUnavailable
	}

	lower := []byte(chunkKeyPrefix)
	upper := append([]byte(chunkKeyPrefix), 0xFF)
	if err := db.DeleteRange(lower, upper, pebble.Sync); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}
	if err := db.Delete([]byte(metaKey), pebble.Sync); err != nil && err != pebble.ErrNotFound {
		return fmt.Errorf("clear meta: %w", err)
	}
	return nil
}

func (s *PebbleStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
