// Package residency implements VoxelResidency: the in-memory map of
// chunk key to volume, with dirty tracking and distance-based eviction.
package residency

import (
	"sort"
	"sync"

	"chunkworld/internal/noise"
	"chunkworld/internal/terrain"
	"chunkworld/internal/voxel"
)

// DefaultSoftCap and DefaultEvictBatch are the residency size thresholds
// from §6, used when a caller does not override them via config.
const (
	DefaultSoftCap    = 500
	DefaultEvictBatch = 50
)

// record is the in-memory chunk record of §3: volume, dirty flag, and
// whether a mesh is currently attached for it.
type record struct {
	volume       voxel.Volume
	dirty        bool
	meshAttached bool
}

// Residency owns every resident volume. All accessors translate global
// block coordinates to chunk-local ones internally.
type Residency struct {
	mu       sync.RWMutex
	chunks   map[voxel.ChunkKey]*record
	dirtySet map[voxel.ChunkKey]struct{}

	terrainSeed   int64
	terrainParams noise.Params
	terrainSrc    *noise.Source

	softCap    int
	evictBatch int
}

// New constructs an empty Residency. seed and params feed only the
// top_y fallback formula on ungenerated columns (§4.G). softCap and
// evictBatch are the eviction thresholds of §6; softCap <= 0 or
// evictBatch <= 0 fall back to DefaultSoftCap/DefaultEvictBatch.
func New(seed int64, params noise.Params, softCap, evictBatch int) *Residency {
	if softCap <= 0 {
		softCap = DefaultSoftCap
	}
	if evictBatch <= 0 {
		evictBatch = DefaultEvictBatch
	}
	return &Residency{
		chunks:        make(map[voxel.ChunkKey]*record),
		dirtySet:      make(map[voxel.ChunkKey]struct{}),
		terrainSeed:   seed,
		terrainParams: params,
		terrainSrc:    noise.New(seed, params),
		softCap:       softCap,
		evictBatch:    evictBatch,
	}
}

// SetSeed updates the fallback terrain sampler used by TopY when a
// column's chunk is not resident.
func (r *Residency) SetSeed(seed int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.terrainSeed = seed
	r.terrainSrc = noise.New(seed, r.terrainParams)
}

// Get returns a chunk's volume, if resident.
func (r *Residency) Get(key voxel.ChunkKey) (voxel.Volume, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.chunks[key]
	if !ok {
		return nil, false
	}
	return rec.volume, true
}

// Has reports whether key is resident.
func (r *Residency) Has(key voxel.ChunkKey) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.chunks[key]
	return ok
}

// Put installs or replaces a chunk's volume. dirty marks it as differing
// from the persisted copy (true for freshly generated chunks, false for
// ones just loaded from the store).
func (r *Residency) Put(key voxel.ChunkKey, vol voxel.Volume, dirty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunks[key] = &record{volume: vol, dirty: dirty}
	if dirty {
		r.dirtySet[key] = struct{}{}
	} else {
		delete(r.dirtySet, key)
	}
}

// Remove drops key from residency. The caller is responsible for
// persisting it first if it was dirty (§4.G).
func (r *Residency) Remove(key voxel.ChunkKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.chunks, key)
	delete(r.dirtySet, key)
}

// MarkMeshAttached records that a mesh currently exists for key.
func (r *Residency) MarkMeshAttached(key voxel.ChunkKey, attached bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.chunks[key]; ok {
		rec.meshAttached = attached
	}
}

// MeshAttached reports whether key currently has an attached mesh.
func (r *Residency) MeshAttached(key voxel.ChunkKey) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.chunks[key]
	return ok && rec.meshAttached
}

// Len reports the current resident chunk count.
func (r *Residency) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.chunks)
}

// DirtyKeys returns a snapshot of the current dirty set.
func (r *Residency) DirtyKeys() []voxel.ChunkKey {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]voxel.ChunkKey, 0, len(r.dirtySet))
	for k := range r.dirtySet {
		keys = append(keys, k)
	}
	return keys
}

// ClearDirty removes key from the dirty set (called after a successful
// save).
func (r *Residency) ClearDirty(key voxel.ChunkKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.dirtySet, key)
	if rec, ok := r.chunks[key]; ok {
		rec.dirty = false
	}
}

// Clear drops all in-memory state (§4.I "clear").
func (r *Residency) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunks = make(map[voxel.ChunkKey]*record)
	r.dirtySet = make(map[voxel.ChunkKey]struct{})
}

func local(x, y, z int) (voxel.ChunkKey, int, int, int) {
	bc := voxel.BlockCoord{X: x, Y: y, Z: z}
	return bc.ChunkOf()
}

// GetBlock returns the block at global coordinates, or AIR/false if the
// owning chunk is not resident or y is out of [0,H).
func (r *Residency) GetBlock(x, y, z int) (voxel.BlockID, bool) {
	if y < 0 || y >= voxel.Height {
		return voxel.Air, false
	}
	key, lx, ly, lz := local(x, y, z)

	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.chunks[key]
	if !ok {
		return voxel.Air, false
	}
	return rec.volume.At(lx, ly, lz)
}

// HasBlock reports whether the block at global coordinates is resident
// and non-air.
func (r *Residency) HasBlock(x, y, z int) bool {
	id, ok := r.GetBlock(x, y, z)
	return ok && !voxel.IsAir(id)
}

// SetBlock writes a block at global coordinates and marks the owning
// chunk dirty. It is a no-op, returning false, if the chunk is not
// resident or y is out of range (§4.G).
func (r *Residency) SetBlock(x, y, z int, t voxel.BlockID) bool {
	if y < 0 || y >= voxel.Height {
		return false
	}
	key, lx, ly, lz := local(x, y, z)

	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.chunks[key]
	if !ok {
		return false
	}
	if !rec.volume.Set(lx, ly, lz, t) {
		return false
	}
	rec.dirty = true
	r.dirtySet[key] = struct{}{}
	return true
}

// TopY scans column (x,z) downward for the first non-air block. If the
// owning chunk is not resident, it falls back to the terrain formula so
// callers querying ungenerated ground still get a plausible height
// (§4.G).
func (r *Residency) TopY(x, z int) int {
	key, lx, _, lz := local(x, 0, z)

	r.mu.RLock()
	rec, ok := r.chunks[key]
	src := r.terrainSrc
	r.mu.RUnlock()

	if ok {
		return rec.volume.TopY(lx, lz)
	}
	return terrain.SurfaceHeight(float64(x), float64(z), src)
}

// candidate is one resident chunk scored for eviction.
type candidate struct {
	key       voxel.ChunkKey
	dirty     bool
	distSq    int
}

// EvictionPlan lists the chunks an eviction pass selected, split by
// whether they must be persisted before removal.
type EvictionPlan struct {
	Dirty []voxel.ChunkKey
	Clean []voxel.ChunkKey
}

// PlanEviction selects up to evictBatch resident chunks farthest from
// observer for eviction, if the residency size exceeds softCap (both
// set at construction, §6). Dirty chunks are returned separately so the
// caller can persist them before calling Remove (§3 invariant 7:
// eviction never drops a dirty chunk without saving it first).
func (r *Residency) PlanEviction(observer voxel.ChunkKey) EvictionPlan {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.chunks) <= r.softCap {
		return EvictionPlan{}
	}

	candidates := make([]candidate, 0, len(r.chunks))
	for key, rec := range r.chunks {
		dx := key.CX - observer.CX
		dz := key.CZ - observer.CZ
		candidates = append(candidates, candidate{key: key, dirty: rec.dirty, distSq: dx*dx + dz*dz})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].distSq > candidates[j].distSq
	})

	batch := candidates
	if len(batch) > r.evictBatch {
		batch = batch[:r.evictBatch]
	}

	plan := EvictionPlan{}
	for _, c := range batch {
		if c.dirty {
			plan.Dirty = append(plan.Dirty, c.key)
		} else {
			plan.Clean = append(plan.Clean, c.key)
		}
	}
	return plan
}
