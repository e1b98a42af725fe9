// Package queue implements GenerationQueue: a priority-ordered pending
// set, deduped against both pending and in-flight keys, that drives the
// WorkerPool or falls back to synchronous generation, with a
// known-keys fast path to the durable store.
package queue

import (
	"container/heap"
	"context"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/singleflight"

	"chunkworld/internal/noise"
	"chunkworld/internal/store"
	"chunkworld/internal/terrain"
	"chunkworld/internal/voxel"
	"chunkworld/internal/worker"
)

// DefaultAdmission is W_max from §6: the per-tick concurrent-generation
// admission cap, distinct from the WorkerPool's own worker count.
const DefaultAdmission = 2

// OnChunk is invoked once per resolved key, from Process, on the calling
// goroutine's tick. dirty is true for a freshly generated chunk, false
// for one loaded from the store.
type OnChunk func(key voxel.ChunkKey, vol voxel.Volume, dirty bool)

type outcome struct {
	key    voxel.ChunkKey
	vol    voxel.Volume
	loaded bool
	err    error
}

type resolution struct {
	vol    voxel.Volume
	loaded bool
}

// Queue is the GenerationQueue described in §4.F.
type Queue struct {
	pool   *worker.Pool // nil selects the synchronous fallback path
	store  store.Store
	params noise.Params

	admission int

	mu         sync.Mutex
	pendingSet map[voxel.ChunkKey]struct{}
	heapData   priorityHeap
	inFlight   map[voxel.ChunkKey]struct{}
	knownKeys  map[voxel.ChunkKey]struct{}
	seed       int64

	sf   singleflight.Group
	done chan outcome
}

// New constructs a Queue. pool may be nil, selecting the degraded
// synchronous fallback for every task. params configures the terrain
// sampler used by that fallback.
func New(pool *worker.Pool, st store.Store, seed int64, params noise.Params) *Queue {
	return &Queue{
		pool:       pool,
		store:      st,
		params:     params,
		admission:  DefaultAdmission,
		pendingSet: make(map[voxel.ChunkKey]struct{}),
		inFlight:   make(map[voxel.ChunkKey]struct{}),
		knownKeys:  make(map[voxel.ChunkKey]struct{}),
		seed:       seed,
		done:       make(chan outcome, 64),
	}
}

// SetKnownKeys replaces the known-keys set, normally warmed once from
// store.ListKeys at open.
func (q *Queue) SetKnownKeys(keys []voxel.ChunkKey) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.knownKeys = make(map[voxel.ChunkKey]struct{}, len(keys))
	for _, k := range keys {
		q.knownKeys[k] = struct{}{}
	}
}

// MarkKnown records that key is now known to be present in the store
// (called after a chunk's first successful save).
func (q *Queue) MarkKnown(key voxel.ChunkKey) {
	q.mu.Lock()
	q.knownKeys[key] = struct{}{}
	q.mu.Unlock()
}

// Admission sets W_max, the per-tick concurrent-generation admission
// cap (§6). n <= 0 is ignored.
func (q *Queue) Admission(n int) {
	if n <= 0 {
		return
	}
	q.mu.Lock()
	q.admission = n
	q.mu.Unlock()
}

// SetSeed updates the seed carried on every task dispatched from here
// on; tasks already in flight keep the seed they were dispatched with
// (§4.E: seed travels with the task, not as global state).
func (q *Queue) SetSeed(seed int64) {
	q.mu.Lock()
	q.seed = seed
	q.mu.Unlock()
}

// Enqueue adds key at priority if it is not already pending or
// in-flight (dedup per §3's "pending/in-flight union disjoint with
// residency" and §4.F's dedup contract).
func (q *Queue) Enqueue(key voxel.ChunkKey, priority int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.pendingSet[key]; ok {
		return
	}
	if _, ok := q.inFlight[key]; ok {
		return
	}
	q.pendingSet[key] = struct{}{}
	heap.Push(&q.heapData, &entry{key: key, priority: priority})
}

// Pending reports the current pending-set size.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pendingSet)
}

// InFlight reports the current in-flight-set size.
func (q *Queue) InFlight() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.inFlight)
}

// Process admits pending keys up to the admission cap, dispatches each
// to the store (known-keys fast path) or the worker pool, then drains
// any results that have completed since the last call and invokes
// onChunk for each. It does not wait for anything it dispatches: every
// dispatch, the synchronous-generation fallback included, runs on its
// own goroutine, so its result reaches onChunk in a later Process call.
func (q *Queue) Process(ctx context.Context, onChunk OnChunk) {
	q.admit(ctx)
	q.drain(onChunk)
}

func (q *Queue) admit(ctx context.Context) {
	q.mu.Lock()
	seed := q.seed
	for len(q.inFlight) < q.admission && q.heapData.Len() > 0 {
		e := heap.Pop(&q.heapData).(*entry)
		delete(q.pendingSet, e.key)
		q.inFlight[e.key] = struct{}{}
		_, known := q.knownKeys[e.key]
		q.mu.Unlock()
		q.dispatch(ctx, e.key, seed, known)
		q.mu.Lock()
	}
	q.mu.Unlock()
}

func (q *Queue) dispatch(ctx context.Context, key voxel.ChunkKey, seed int64, known bool) {
	go func() {
		r, err, _ := q.sf.Do(key.Key(), func() (any, error) {
			if known {
				vol, ok, err := q.store.Load(ctx, key)
				if err != nil {
					return nil, fmt.Errorf("load %s: %w", key, err)
				}
				if ok {
					return resolution{vol: vol, loaded: true}, nil
				}
				log.Printf("chunkworld: known key %s missing on load, regenerating", key)
			}
			return resolution{vol: q.generate(key, seed), loaded: false}, nil
		})

		if err != nil {
			q.done <- outcome{key: key, err: err}
			return
		}
		res := r.(resolution)
		q.done <- outcome{key: key, vol: res.vol, loaded: res.loaded}
	}()
}

func (q *Queue) generate(key voxel.ChunkKey, seed int64) voxel.Volume {
	if q.pool == nil {
		return q.synchronousGenerate(key, seed)
	}

	fut, err := q.pool.Generate(key, seed)
	if err != nil {
		log.Printf("chunkworld: worker pool unavailable for %s, falling back to sync: %v", key, err)
		return q.synchronousGenerate(key, seed)
	}

	res := <-fut
	if res.Err != nil {
		log.Printf("chunkworld: %v, falling back to sync", res.Err)
		return q.synchronousGenerate(key, seed)
	}
	return res.Volume
}

func (q *Queue) synchronousGenerate(key voxel.ChunkKey, seed int64) voxel.Volume {
	vol := voxel.NewVolume()
	src := noise.New(seed, q.params)
	terrain.FillTerrain(vol, key.CX, key.CZ, src)
	rng := noise.NewChunkRNG(key.CX, key.CZ, seed)
	terrain.Decorate(vol, key.CX, key.CZ, src, rng)
	return vol
}

func (q *Queue) drain(onChunk OnChunk) {
	for {
		select {
		case o := <-q.done:
			q.mu.Lock()
			delete(q.inFlight, o.key)
			q.mu.Unlock()

			if o.err != nil {
				log.Printf("chunkworld: generation task for %s failed: %v", o.key, o.err)
				continue
			}
			onChunk(o.key, o.vol, !o.loaded)
		default:
			return
		}
	}
}
