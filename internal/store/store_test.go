package store

import (
	"context"
	"path/filepath"
	"testing"

	"chunkworld/internal/voxel"
)

func sampleVolume(fill voxel.BlockID) voxel.Volume {
	vol := voxel.NewVolume()
	for i := range vol {
		vol[i] = fill
	}
	return vol
}

func TestEncodeDecodeVolumeRoundTrip(t *testing.T) {
	vol := sampleVolume(voxel.Stone)
	vol[100] = voxel.CoalOre
	vol[101] = voxel.CoalOre
	vol[5000] = voxel.Air

	payload, err := encodeVolume(vol)
	if err != nil {
		t.Fatalf("encodeVolume: %v", err)
	}
	got, err := decodeVolume(payload)
	if err != nil {
		t.Fatalf("decodeVolume: %v", err)
	}
	if len(got) != voxel.VolumeLen {
		t.Fatalf("decoded length %d, want %d", len(got), voxel.VolumeLen)
	}
	for i := range vol {
		if got[i] != vol[i] {
			t.Fatalf("byte %d differs: got %d want %d", i, got[i], vol[i])
		}
	}
}

func TestMemoryStoreSaveLoad(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.Open(ctx); err != nil {
		t.Fatalf("Open: %v", err)
	}

	key := voxel.ChunkCoord{CX: 1, CZ: -2}
	vol := sampleVolume(voxel.Dirt)

	if err := s.SaveBatch(ctx, map[voxel.ChunkKey]voxel.Volume{key: vol}); err != nil {
		t.Fatalf("SaveBatch: %v", err)
	}

	got, ok, err := s.Load(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	for i := range vol {
		if got[i] != vol[i] {
			t.Fatalf("round trip mismatch at %d", i)
		}
	}

	keys, err := s.ListKeys(ctx)
	if err != nil || len(keys) != 1 || keys[0] != key {
		t.Fatalf("ListKeys = %v, err=%v", keys, err)
	}
}

func TestMemoryStoreClear(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.Open(ctx)

	key := voxel.ChunkCoord{CX: 0, CZ: 0}
	_ = s.SaveBatch(ctx, map[voxel.ChunkKey]voxel.Volume{key: sampleVolume(voxel.Stone)})
	_ = s.SaveMeta(ctx, Meta{Seed: 7})

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if _, ok, _ := s.Load(ctx, key); ok {
		t.Fatalf("expected no chunk after clear")
	}
	if _, ok, _ := s.LoadMeta(ctx); ok {
		t.Fatalf("expected no meta after clear")
	}
}

func TestPebbleStoreSaveLoadMeta(t *testing.T) {
	dir := t.TempDir()
	s := NewPebbleStore(filepath.Join(dir, "chunks.pebble"))
	ctx := context.Background()

	if err := s.Open(ctx); err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	key := voxel.ChunkCoord{CX: 3, CZ: 4}
	vol := sampleVolume(voxel.Stone)
	vol[0] = voxel.Bedrock

	if err := s.SaveBatch(ctx, map[voxel.ChunkKey]voxel.Volume{key: vol}); err != nil {
		t.Fatalf("SaveBatch: %v", err)
	}
	got, ok, err := s.Load(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if got[0] != voxel.Bedrock {
		t.Fatalf("byte 0 = %v, want BEDROCK", got[0])
	}

	if err := s.SaveMeta(ctx, Meta{Seed: 1234567}); err != nil {
		t.Fatalf("SaveMeta: %v", err)
	}
	meta, ok, err := s.LoadMeta(ctx)
	if err != nil || !ok || meta.Seed != 1234567 {
		t.Fatalf("LoadMeta = %+v ok=%v err=%v", meta, ok, err)
	}

	keys, err := s.ListKeys(ctx)
	if err != nil || len(keys) != 1 || keys[0] != key {
		t.Fatalf("ListKeys = %v err=%v", keys, err)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := s.Load(ctx, key); ok {
		t.Fatalf("expected no chunk after clear")
	}
}
