// Package coordinator implements ChunkCoordinator: the facade external
// collaborators call. It owns the sliding active-set window around an
// observer, drives load/unload through GenerationQueue and
// VoxelResidency, batches mesh rebuilds after edits, and periodically
// evicts and saves.
package coordinator

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"chunkworld/internal/config"
	"chunkworld/internal/mesh"
	"chunkworld/internal/noise"
	"chunkworld/internal/queue"
	"chunkworld/internal/residency"
	"chunkworld/internal/store"
	"chunkworld/internal/voxel"
	"chunkworld/internal/worker"
)

// OnChunkMesh is invoked once per rebuilt chunk with the flat attribute
// arrays described in §6's mesh emission contract.
type OnChunkMesh func(cx, cz int, m *mesh.Mesh)

// OnChunkUnload is invoked once per evicted chunk.
type OnChunkUnload func(cx, cz int)

// Coordinator is the ChunkCoordinator of §4.I.
type Coordinator struct {
	cfg   *config.Config
	store store.Store
	pool  *worker.Pool
	res   *residency.Residency
	q     *queue.Queue

	onMesh   OnChunkMesh
	onUnload OnChunkUnload

	mu             sync.Mutex
	seed           int64
	rebuildPending map[voxel.ChunkKey]struct{}
	lastObserver   voxel.ChunkKey
	haveObserver   bool
	tick           int
}

// Options configures callbacks a Coordinator reports progress through.
// Both may be nil.
type Options struct {
	OnChunkMesh   OnChunkMesh
	OnChunkUnload OnChunkUnload
}

// New constructs a Coordinator. Call Open before any other method.
func New(cfg *config.Config, opts Options) *Coordinator {
	return &Coordinator{
		cfg:            cfg,
		onMesh:         opts.OnChunkMesh,
		onUnload:       opts.OnChunkUnload,
		rebuildPending: make(map[voxel.ChunkKey]struct{}),
	}
}

func newStore(cfg *config.Config) store.Store {
	switch cfg.Store.Kind {
	case "pebble":
		return store.NewPebbleStore(cfg.Store.Path)
	default:
		return store.NewMemoryStore()
	}
}

// Open opens the store, warms the known-keys set, reads a persisted
// seed if present (otherwise uses the configured seed, minting a random
// 31-bit one when that is 0),
// and initializes WorkerPool, VoxelResidency, GenerationQueue and the
// mesh rebuild bookkeeping (§4.I).
func (c *Coordinator) Open(ctx context.Context) error {
	c.store = newStore(c.cfg)
	if err := c.store.Open(ctx); err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	keys, err := c.store.ListKeys(ctx)
	if err != nil {
		return fmt.Errorf("list keys: %w", err)
	}

	seed := c.cfg.World.Seed
	if meta, ok, err := c.store.LoadMeta(ctx); err == nil && ok {
		seed = meta.Seed
	} else if seed == 0 {
		seed = randomSeed()
	}
	c.seed = seed

	params := noise.Params{
		Octaves:     c.cfg.Terrain.Octaves,
		Frequency:   c.cfg.Terrain.Frequency,
		Persistence: c.cfg.Terrain.Persistence,
		Lacunarity:  c.cfg.Terrain.Lacunarity,
	}

	c.pool = worker.New(c.cfg.Worker.Count, params)
	c.res = residency.New(seed, params, c.cfg.Residency.SoftCap, c.cfg.Residency.EvictBatch)
	c.q = queue.New(c.pool, c.store, seed, params)
	c.q.SetKnownKeys(keys)
	c.q.Admission(c.cfg.Queue.Admission)

	return nil
}

func randomSeed() int64 {
	return int64(rand.Int31())
}

// Seed returns the world seed currently in effect.
func (c *Coordinator) Seed() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seed
}

// SetSeed changes the seed used for future generation (§6 set_seed).
func (c *Coordinator) SetSeed(seed int64) {
	c.mu.Lock()
	c.seed = seed
	c.mu.Unlock()
	c.q.SetSeed(seed)
	c.res.SetSeed(seed)
}

func observerChunk(x, z float64) (int, int) {
	return int(floorDiv(x, voxel.EdgeSize)), int(floorDiv(z, voxel.EdgeSize))
}

func floorDiv(v float64, size int) int {
	fv := v / float64(size)
	i := int(fv)
	if fv < 0 && float64(i) != fv {
		i--
	}
	return i
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Update is the per-tick driver (§4.I). It computes the active window
// around observer, enqueues missing keys by Manhattan-distance priority,
// drains completed generation/load results into residency, batches mesh
// rebuilds every RebuildTicks calls, and evicts every EvictionTicks
// calls (or immediately on a chunk-boundary crossing).
func (c *Coordinator) Update(ctx context.Context, observerX, observerY, observerZ float64) {
	cx, cz := observerChunk(observerX, observerZ)
	observerKey := voxel.ChunkCoord{CX: cx, CZ: cz}
	R := c.cfg.World.ActiveRadius

	crossedBoundary := !c.haveObserver || c.lastObserver != observerKey
	c.haveObserver = true
	c.lastObserver = observerKey

	for x := cx - R; x <= cx+R; x++ {
		for z := cz - R; z <= cz+R; z++ {
			key := voxel.ChunkCoord{CX: x, CZ: z}
			if c.res.Has(key) {
				continue
			}
			priority := absInt(x-cx) + absInt(z-cz)
			c.q.Enqueue(key, priority)
		}
	}

	c.q.Process(ctx, func(key voxel.ChunkKey, vol voxel.Volume, dirty bool) {
		c.res.Put(key, vol, dirty)
		c.mu.Lock()
		c.rebuildPending[key] = struct{}{}
		c.mu.Unlock()
	})

	c.mu.Lock()
	c.tick++
	doRebuild := c.tick%c.cfg.World.RebuildTicks == 0
	doEvict := crossedBoundary || c.tick%c.cfg.World.EvictionTicks == 0
	c.mu.Unlock()

	if doRebuild {
		c.processRebuilds()
	}
	if doEvict {
		c.evict(ctx, observerKey)
	}
}

func (c *Coordinator) neighborFor(wx, wy, wz int) (voxel.BlockID, bool) {
	return c.res.GetBlock(wx, wy, wz)
}

func (c *Coordinator) processRebuilds() {
	c.mu.Lock()
	pending := c.rebuildPending
	c.rebuildPending = make(map[voxel.ChunkKey]struct{})
	c.mu.Unlock()

	for key := range pending {
		vol, ok := c.res.Get(key)
		if !ok {
			continue // evicted before its rebuild ran
		}
		m := mesh.Build(vol, key.CX, key.CZ, c.neighborFor)
		c.res.MarkMeshAttached(key, true)
		if c.onMesh != nil {
			c.onMesh(key.CX, key.CZ, m)
		}
	}
}

func (c *Coordinator) evict(ctx context.Context, observer voxel.ChunkKey) {
	plan := c.res.PlanEviction(observer)
	if len(plan.Dirty) == 0 && len(plan.Clean) == 0 {
		return
	}

	if len(plan.Dirty) > 0 {
		batch := make(map[voxel.ChunkKey]voxel.Volume, len(plan.Dirty))
		for _, key := range plan.Dirty {
			if vol, ok := c.res.Get(key); ok {
				batch[key] = vol
			}
		}
		if err := c.store.SaveBatch(ctx, batch); err != nil {
			// Invariant 7: never drop a dirty chunk without persisting it
			// first. Leave these resident and dirty; try again next pass.
			return
		}
		for key := range batch {
			c.res.ClearDirty(key)
			c.q.MarkKnown(key)
		}
	}

	for _, key := range append(append([]voxel.ChunkKey{}, plan.Dirty...), plan.Clean...) {
		c.res.Remove(key)
		c.mu.Lock()
		delete(c.rebuildPending, key)
		c.mu.Unlock()
		if c.onUnload != nil {
			c.onUnload(key.CX, key.CZ)
		}
	}
}

// SetBlock writes a block and schedules the owning chunk (and any
// cross-boundary neighbours touched) for the next rebuild pass (§4.I).
func (c *Coordinator) SetBlock(x, y, z int, t voxel.BlockID) bool {
	if !c.res.SetBlock(x, y, z, t) {
		return false
	}

	bc := voxel.BlockCoord{X: x, Y: y, Z: z}
	key, lx, _, lz := bc.ChunkOf()

	c.mu.Lock()
	c.rebuildPending[key] = struct{}{}
	if lx == 0 {
		c.rebuildPending[voxel.ChunkCoord{CX: key.CX - 1, CZ: key.CZ}] = struct{}{}
	}
	if lx == voxel.EdgeSize-1 {
		c.rebuildPending[voxel.ChunkCoord{CX: key.CX + 1, CZ: key.CZ}] = struct{}{}
	}
	if lz == 0 {
		c.rebuildPending[voxel.ChunkCoord{CX: key.CX, CZ: key.CZ - 1}] = struct{}{}
	}
	if lz == voxel.EdgeSize-1 {
		c.rebuildPending[voxel.ChunkCoord{CX: key.CX, CZ: key.CZ + 1}] = struct{}{}
	}
	c.mu.Unlock()

	return true
}

// GetBlock, HasBlock and TopY delegate directly to VoxelResidency.
func (c *Coordinator) GetBlock(x, y, z int) voxel.BlockID {
	id, _ := c.res.GetBlock(x, y, z)
	return id
}

func (c *Coordinator) HasBlock(x, y, z int) bool {
	return c.res.HasBlock(x, y, z)
}

func (c *Coordinator) TopY(x, z int) int {
	return c.res.TopY(x, z)
}

// SaveDirty snapshots the current dirty volumes and issues a durable
// save_batch, clearing the dirty set for every key that committed.
// metaBlob is the caller's opaque payload (observer pose, inventory)
// persisted alongside the seed.
func (c *Coordinator) SaveDirty(ctx context.Context, metaBlob []byte) error {
	keys := c.res.DirtyKeys()
	batch := make(map[voxel.ChunkKey]voxel.Volume, len(keys))
	for _, key := range keys {
		if vol, ok := c.res.Get(key); ok {
			batch[key] = vol
		}
	}

	if err := c.store.SaveBatch(ctx, batch); err != nil {
		return err // keys remain dirty, retried on the next save
	}
	for key := range batch {
		c.res.ClearDirty(key)
		c.q.MarkKnown(key)
	}

	return c.store.SaveMeta(ctx, store.Meta{Seed: c.Seed(), Blob: metaBlob, HasBlob: metaBlob != nil})
}

// EnsureLoaded blocks (processing the queue itself) until key is
// resident, used at observer spawn (§6 ensure_loaded).
func (c *Coordinator) EnsureLoaded(ctx context.Context, cx, cz int) {
	key := voxel.ChunkCoord{CX: cx, CZ: cz}
	if c.res.Has(key) {
		return
	}
	c.q.Enqueue(key, 0)
	for !c.res.Has(key) {
		c.q.Process(ctx, func(k voxel.ChunkKey, vol voxel.Volume, dirty bool) {
			c.res.Put(k, vol, dirty)
			c.mu.Lock()
			c.rebuildPending[k] = struct{}{}
			c.mu.Unlock()
		})
	}
}

// Clear drops all in-memory state, clears the durable store, and mints
// a new seed (§4.I "clear").
func (c *Coordinator) Clear(ctx context.Context) error {
	c.res.Clear()
	c.mu.Lock()
	c.rebuildPending = make(map[voxel.ChunkKey]struct{})
	c.haveObserver = false
	c.tick = 0
	c.mu.Unlock()

	if err := c.store.Clear(ctx); err != nil {
		return err
	}

	c.SetSeed(randomSeed())
	return nil
}

// Close releases the worker pool and store.
func (c *Coordinator) Close() error {
	c.pool.Terminate()
	return c.store.Close()
}
