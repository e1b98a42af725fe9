// Package worker implements the parallel executor that offloads terrain
// synthesis and decoration (TerrainSynth + StructureDecorator) onto a
// fixed pool of long-lived workers, each carrying its own NoiseSource.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"chunkworld/internal/noise"
	"chunkworld/internal/terrain"
	"chunkworld/internal/voxel"
)

// ErrCancelled is delivered to a task's future when clear_queue or
// terminate discards it before a worker picks it up (§7 Cancelled).
var ErrCancelled = errors.New("worker: cancelled")

// WorkerFailedError reports a task that a worker could not complete
// (§7 WorkerFailed{key,reason}).
type WorkerFailedError struct {
	Key    voxel.ChunkKey
	Reason error
}

func (e *WorkerFailedError) Error() string {
	return fmt.Sprintf("worker: task for %s failed: %v", e.Key, e.Reason)
}

func (e *WorkerFailedError) Unwrap() error { return e.Reason }

// Result is delivered on a task's future channel exactly once.
type Result struct {
	Key    voxel.ChunkKey
	Volume voxel.Volume
	Err    error
}

type task struct {
	key      voxel.ChunkKey
	seed     int64
	resultCh chan Result
}

// Pool is a fixed-size pool of long-lived workers. Per §4.E, W =
// min(hardware concurrency, 4). Each worker rebuilds its NoiseSource for
// every task from the seed carried on that task, never from shared
// state, so a mid-flight set_seed only affects tasks dispatched after it.
type Pool struct {
	size   int
	params noise.Params

	mu      sync.Mutex
	tasks   chan task
	closed  bool
	closeCh chan struct{}

	group *errgroup.Group
}

// New constructs and starts a Pool with w workers, each sampling terrain
// with params. w <= 0 selects min(runtime.GOMAXPROCS(0), 4).
func New(w int, params noise.Params) *Pool {
	if w <= 0 {
		w = runtime.GOMAXPROCS(0)
		if w > 4 {
			w = 4
		}
		if w < 1 {
			w = 1
		}
	}

	p := &Pool{
		size:    w,
		params:  params,
		tasks:   make(chan task, w*4),
		closeCh: make(chan struct{}),
	}

	group, _ := errgroup.WithContext(context.Background())
	p.group = group
	for i := 0; i < w; i++ {
		group.Go(p.runWorker)
	}
	return p
}

func (p *Pool) runWorker() error {
	for {
		select {
		case <-p.closeCh:
			return nil
		case t, ok := <-p.tasks:
			if !ok {
				return nil
			}
			t.resultCh <- p.executeTask(t)
		}
	}
}

func (p *Pool) executeTask(t task) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{Key: t.key, Err: &WorkerFailedError{Key: t.key, Reason: fmt.Errorf("panic: %v", r)}}
		}
	}()

	vol := voxel.NewVolume()
	src := noise.New(t.seed, p.params)
	terrain.FillTerrain(vol, t.key.CX, t.key.CZ, src)

	rng := noise.NewChunkRNG(t.key.CX, t.key.CZ, t.seed)
	terrain.Decorate(vol, t.key.CX, t.key.CZ, src, rng)

	return Result{Key: t.key, Volume: vol}
}

// Generate enqueues a task and returns a future (a receive-only,
// single-delivery channel) for its result, per §4.E's
// generate(cx,cz,priority) -> future<volume>. Priority is accepted by
// the caller's queue layer (§4.F); the pool itself makes no ordering
// guarantee between tasks.
func (p *Pool) Generate(key voxel.ChunkKey, seed int64) (<-chan Result, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, errors.New("worker: pool terminated")
	}
	resultCh := make(chan Result, 1)
	select {
	case p.tasks <- task{key: key, seed: seed, resultCh: resultCh}:
		p.mu.Unlock()
		return resultCh, nil
	default:
		p.mu.Unlock()
	}
	// Buffer momentarily full: block the enqueue itself, not the caller's
	// future, so callers still get single-delivery semantics.
	p.tasks <- task{key: key, seed: seed, resultCh: resultCh}
	return resultCh, nil
}

// ClearQueue discards every task still sitting in the buffer (not yet
// picked up by a worker), resolving each with ErrCancelled. In-flight
// tasks run to completion and deliver their result on their future as
// usual.
func (p *Pool) ClearQueue() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		select {
		case t := <-p.tasks:
			t.resultCh <- Result{Key: t.key, Err: ErrCancelled}
		default:
			return
		}
	}
}

// Terminate stops accepting new tasks and waits for in-flight workers to
// drain. Calls after the first are no-ops that return nil.
func (p *Pool) Terminate() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.closeCh)
	p.mu.Unlock()

	p.ClearQueue()
	return p.group.Wait()
}

// Size reports the configured worker count.
func (p *Pool) Size() int { return p.size }
