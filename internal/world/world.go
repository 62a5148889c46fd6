package world

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"terrainstream/internal/camera"
	"terrainstream/internal/config"
	"terrainstream/internal/profiling"
	"terrainstream/internal/terrain"
)

var (
	// ErrChunkExists is returned when adding a chunk at an occupied coordinate.
	ErrChunkExists = errors.New("chunk already exists")
	// ErrChunkMissing is returned when removing a chunk that is not loaded.
	ErrChunkMissing = errors.New("chunk not loaded")
	// ErrCornerCount is returned when a chunk does not have width*width corners.
	ErrCornerCount = errors.New("wrong corner count")
	// ErrNoTerrainType is returned for a corner without any terrain weight.
	ErrNoTerrainType = errors.New("corner has no terrain type")
)

// origin is the committed reference point the scene is laid out around.
type origin struct {
	chunk  terrain.ChunkCoord
	height uint32
}

// World streams chunks in and out of a scene around a camera. It is driven
// by Tick on the foreground goroutine and is not safe for concurrent use.
type World struct {
	env   *env
	store *ChunkStore
	scene Scene

	camera       *camera.Camera
	policy       LodPolicy
	viewDistance int

	live          ViewArea
	pending       ViewArea
	origin        origin
	pendingOrigin origin
	dirty         bool
	storeMods     uint64

	now func() time.Time
}

// Option configures a World.
type Option func(*World)

// WithRand sets the random source used for LOD cache eviction.
func WithRand(r *rand.Rand) Option {
	return func(w *World) { w.env.rng = r }
}

// WithLodPolicy replaces the distance to LOD mapping.
func WithLodPolicy(p LodPolicy) Option {
	return func(w *World) { w.policy = p }
}

// WithClock replaces the clock the tick budget is measured with.
func WithClock(now func() time.Time) Option {
	return func(w *World) { w.now = now }
}

// New creates an empty world.
func New(opts terrain.Options, runner TaskRunner, scene Scene, loader ResourceLoader, options ...Option) (*World, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	store := NewChunkStore()
	w := &World{
		env: &env{
			opts:   opts,
			store:  store,
			runner: runner,
			loader: loader,
			rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		},
		store:        store,
		scene:        scene,
		policy:       LinearLodPolicy(config.GetLodDistanceStep(), opts.MaxLod()),
		viewDistance: config.GetViewDistance(),
		now:          time.Now,
	}
	for _, o := range options {
		o(w)
	}
	return w, nil
}

// Options returns the options the world was created with.
func (w *World) Options() terrain.Options {
	return w.env.opts
}

// Store returns the chunk store.
func (w *World) Store() *ChunkStore {
	return w.store
}

// SetCamera sets the viewer the view area follows, adopts its view
// distance and re-parents it to the committed origin.
func (w *World) SetCamera(c *camera.Camera) {
	w.camera = c
	if c != nil {
		w.viewDistance = max(c.ViewDistance, 0)
		if w.live == nil {
			o := c.Origin()
			w.origin = origin{chunk: o.Chunk, height: o.BaseHeight}
		}
		c.Reparent(w.origin.chunk, w.origin.height)
	}
	w.dirty = true
}

// Camera returns the current viewer, or nil.
func (w *World) Camera() *camera.Camera {
	return w.camera
}

// SetViewDistance sets the view radius in chunks.
func (w *World) SetViewDistance(chunks int) {
	chunks = max(chunks, 0)
	if w.camera != nil {
		w.camera.ViewDistance = chunks
	}
	if chunks != w.viewDistance {
		w.viewDistance = chunks
		w.dirty = true
	}
}

// ViewDistance returns the view radius in chunks.
func (w *World) ViewDistance() int {
	return w.viewDistance
}

// Origin returns the committed origin chunk and base height.
func (w *World) Origin() (terrain.ChunkCoord, uint32) {
	return w.origin.chunk, w.origin.height
}

// Live returns a copy of the committed view area.
func (w *World) Live() ViewArea {
	out := make(ViewArea, len(w.live))
	for k, v := range w.live {
		out[k] = v
	}
	return out
}

// HasPending reports whether a view area is waiting to be committed.
func (w *World) HasPending() bool {
	return w.pending != nil
}

// Chunk returns the chunk at coord, or nil.
func (w *World) Chunk(coord terrain.ChunkCoord) *Chunk {
	return w.store.Get(coord)
}

// ChunkCount returns the number of loaded chunks.
func (w *World) ChunkCount() int {
	return w.store.Len()
}

// AddChunk loads a chunk from width*width row-major corners. The corners
// are copied.
func (w *World) AddChunk(coord terrain.ChunkCoord, corners []terrain.Corner) error {
	want := w.env.opts.CornersPerChunk()
	if len(corners) != want {
		return fmt.Errorf("add chunk %v: %d corners, want %d: %w", coord, len(corners), want, ErrCornerCount)
	}
	for i := range corners {
		if !corners[i].HasTerrain() {
			return fmt.Errorf("add chunk %v: corner %d: %w", coord, i, ErrNoTerrainType)
		}
	}
	if w.store.HasChunk(coord) {
		return fmt.Errorf("add chunk %v: %w", coord, ErrChunkExists)
	}
	w.store.add(newChunk(w.env, coord, corners))
	return nil
}

// RemoveChunk hides and unloads a chunk, draining its task. Any pending
// view area is discarded and recomputed on the next tick.
func (w *World) RemoveChunk(coord terrain.ChunkCoord) error {
	chunk := w.store.remove(coord)
	if chunk == nil {
		return fmt.Errorf("remove chunk %v: %w", coord, ErrChunkMissing)
	}
	chunk.destroy()
	delete(w.live, coord)
	w.pending = nil
	return nil
}

// Tick advances the pending view area within the frame budget, commits it
// once every chunk in it is ready, and recomputes it when the view moved.
func (w *World) Tick() {
	defer profiling.Track("world.Tick")()

	if w.pending != nil {
		w.advancePending()
	}
	if w.camera == nil {
		return
	}
	if w.camera.FixIfOutsideOrigin() {
		w.dirty = true
	}
	if mods := w.store.GetModCount(); mods != w.storeMods {
		w.storeMods = mods
		w.dirty = true
	}
	if !w.dirty {
		return
	}
	o := w.camera.Origin()
	w.pendingOrigin = origin{chunk: o.Chunk, height: o.BaseHeight}
	w.pending = ComputeViewArea(w.store, o.Chunk, w.viewDistance, w.policy)
	w.dirty = false
}

// advancePending prepares pending chunks nearest first until the budget
// runs out, and commits when all of them are ready in one pass.
func (w *World) advancePending() {
	budget := config.GetTickBudget()
	start := w.now()
	ready := true
	for _, coord := range w.pending.NearestFirst(w.pendingOrigin.chunk) {
		if w.now().Sub(start) > budget {
			return
		}
		chunk := w.store.Get(coord)
		if chunk == nil {
			panic(fmt.Sprintf("world: pending chunk %v is not loaded", coord))
		}
		if !chunk.PrepareForLod(w.pending[coord]) {
			ready = false
		}
	}
	if ready {
		w.commit()
	}
}

func (w *World) commit() {
	o := w.pendingOrigin
	for _, coord := range w.live.NearestFirst(w.origin.chunk) {
		if _, ok := w.pending[coord]; ok {
			continue
		}
		if chunk := w.store.Get(coord); chunk != nil {
			chunk.Hide()
		}
	}
	for _, coord := range w.pending.NearestFirst(o.chunk) {
		chunk := w.store.Get(coord)
		relHeight := int(chunk.BaseHeight()) - int(o.height)
		chunk.Show(w.scene, coord.Sub(o.chunk), relHeight, w.pending[coord])
	}
	w.live = w.pending
	w.origin = o
	w.pending = nil
	if w.camera != nil {
		w.camera.Reparent(o.chunk, o.height)
	}
	log.Printf("view area committed: %d chunks around %v", len(w.live), o.chunk)
}

// Close unloads every chunk, waiting for in-flight tasks.
func (w *World) Close() {
	for _, coord := range w.store.Coords() {
		if chunk := w.store.remove(coord); chunk != nil {
			chunk.destroy()
		}
	}
	w.live = nil
	w.pending = nil
}
