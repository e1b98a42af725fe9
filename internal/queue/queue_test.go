package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"chunkworld/internal/noise"
	"chunkworld/internal/store"
	"chunkworld/internal/voxel"
	"chunkworld/internal/worker"
)

func waitFor(t *testing.T, q *Queue, want int, timeout time.Duration) map[voxel.ChunkKey]bool {
	t.Helper()
	got := make(map[voxel.ChunkKey]bool)
	deadline := time.Now().Add(timeout)
	for len(got) < want && time.Now().Before(deadline) {
		var mu sync.Mutex
		q.Process(context.Background(), func(key voxel.ChunkKey, vol voxel.Volume, dirty bool) {
			mu.Lock()
			got[key] = dirty
			mu.Unlock()
		})
		if len(got) < want {
			time.Sleep(time.Millisecond)
		}
	}
	return got
}

func TestQueueSynchronousFallback(t *testing.T) {
	st := store.NewMemoryStore()
	_ = st.Open(context.Background())
	q := New(nil, st, 1234567, noise.DefaultParams())

	q.Enqueue(voxel.ChunkCoord{CX: 0, CZ: 0}, 0)
	got := waitFor(t, q, 1, time.Second)

	dirty, ok := got[voxel.ChunkCoord{CX: 0, CZ: 0}]
	if !ok {
		t.Fatalf("chunk (0,0) never resolved")
	}
	if !dirty {
		t.Fatalf("freshly generated chunk should be dirty")
	}
}

func TestQueueKnownKeyLoadsFromStore(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	_ = st.Open(ctx)

	key := voxel.ChunkCoord{CX: 2, CZ: 2}
	vol := voxel.NewVolume()
	vol[0] = voxel.Bedrock
	_ = st.SaveBatch(ctx, map[voxel.ChunkKey]voxel.Volume{key: vol})

	q := New(nil, st, 1, noise.DefaultParams())
	q.SetKnownKeys([]voxel.ChunkKey{key})
	q.Enqueue(key, 0)

	got := waitFor(t, q, 1, time.Second)
	dirty, ok := got[key]
	if !ok {
		t.Fatalf("key never resolved")
	}
	if dirty {
		t.Fatalf("loaded chunk should not be marked dirty")
	}
}

func TestQueueDedupAgainstPendingAndInFlight(t *testing.T) {
	st := store.NewMemoryStore()
	_ = st.Open(context.Background())
	q := New(nil, st, 1, noise.DefaultParams())

	key := voxel.ChunkCoord{CX: 9, CZ: 9}
	q.Enqueue(key, 5)
	q.Enqueue(key, 1) // duplicate: must not be added twice

	if q.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", q.Pending())
	}

	// Admit it: the key moves to in-flight and stays there until drained.
	q.admit(context.Background())
	q.Enqueue(key, 0) // in flight: must not be re-queued
	if q.Pending() != 0 {
		t.Fatalf("Pending() = %d after re-enqueue of in-flight key, want 0", q.Pending())
	}
}

func TestQueueWithWorkerPool(t *testing.T) {
	st := store.NewMemoryStore()
	_ = st.Open(context.Background())
	pool := worker.New(2, noise.DefaultParams())
	defer pool.Terminate()

	q := New(pool, st, 777, noise.DefaultParams())
	for i := 0; i < 5; i++ {
		q.Enqueue(voxel.ChunkCoord{CX: i, CZ: 0}, i)
	}

	got := waitFor(t, q, 5, 5*time.Second)
	if len(got) != 5 {
		t.Fatalf("resolved %d/5 chunks", len(got))
	}
}

func TestQueueAdmissionCap(t *testing.T) {
	st := store.NewMemoryStore()
	_ = st.Open(context.Background())
	q := New(nil, st, 1, noise.DefaultParams())

	for i := 0; i < 10; i++ {
		q.Enqueue(voxel.ChunkCoord{CX: i, CZ: 0}, i)
	}
	q.admit(context.Background())
	if q.InFlight() > DefaultAdmission {
		t.Fatalf("InFlight() = %d, want <= %d", q.InFlight(), DefaultAdmission)
	}
}
