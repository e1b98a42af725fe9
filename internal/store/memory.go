package store

import (
	"context"
	"sync"

	"chunkworld/internal/voxel"
)

// MemoryStore is an in-process Store backed by a mutex-protected map. It
// is used in tests and as the degraded fallback when no disk path is
// configured, mirroring the teacher's memory storage provider.
type MemoryStore struct {
	mu     sync.RWMutex
	chunks map[voxel.ChunkKey]voxel.Volume
	meta   Meta
	hasMeta bool
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{chunks: make(map[voxel.ChunkKey]voxel.Volume)}
}

func (s *MemoryStore) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chunks == nil {
		s.chunks = make(map[voxel.ChunkKey]voxel.Volume)
	}
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, key voxel.ChunkKey) (voxel.Volume, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vol, ok := s.chunks[key]
	if !ok {
		return nil, false, nil
	}
	return vol.Clone(), true, nil
}

func (s *MemoryStore) SaveBatch(ctx context.Context, batch map[voxel.ChunkKey]voxel.Volume) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, vol := range batch {
		s.chunks[key] = vol.Clone()
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key voxel.ChunkKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chunks, key)
	return nil
}

func (s *MemoryStore) ListKeys(ctx context.Context) ([]voxel.ChunkKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]voxel.ChunkKey, 0, len(s.chunks))
	for k := range s.chunks {
		keys = append(keys, k)
	}
	return keys, nil
}

func (s *MemoryStore) LoadMeta(ctx context.Context) (Meta, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasMeta {
		return Meta{}, false, nil
	}
	return s.meta, true, nil
}

func (s *MemoryStore) SaveMeta(ctx context.Context, meta Meta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta = meta
	s.hasMeta = true
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = make(map[voxel.ChunkKey]voxel.Volume)
	s.meta = Meta{}
	s.hasMeta = false
	return nil
}

func (s *MemoryStore) Close() error { return nil }
