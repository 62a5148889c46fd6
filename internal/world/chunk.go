package world

import (
	"math/rand"
	"slices"

	"terrainstream/internal/config"
	"terrainstream/internal/meshing"
	"terrainstream/internal/profiling"
	"terrainstream/internal/terrain"

	"github.com/go-gl/mathgl/mgl32"
)

// env is what chunks share with the world that owns them.
type env struct {
	opts   terrain.Options
	store  *ChunkStore
	runner TaskRunner
	loader ResourceLoader
	rng    *rand.Rand
}

// lodTask is the one tessellation a chunk may have in flight. mesh is
// written by the job and only read after the handle reports completion.
type lodTask struct {
	lod    uint8
	handle TaskHandle
	mesh   *meshing.LodMesh
}

// TaskState is how far a chunk is with a given LOD.
type TaskState uint8

const (
	// StateIdle: the LOD is neither cached nor being built.
	StateIdle TaskState = iota
	// StateBuilding: a task for the LOD is in flight or awaiting materialization.
	StateBuilding
	// StateReady: the LOD is cached and can be shown.
	StateReady
)

func (s TaskState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBuilding:
		return "building"
	case StateReady:
		return "ready"
	}
	return "unknown"
}

// Chunk is a width x width block of corners together with its LOD cache,
// its material and at most one in-flight tessellation.
type Chunk struct {
	Coord   terrain.ChunkCoord
	corners []terrain.Corner

	baseHeight   uint16
	lowestHeight uint16

	env      *env
	lods     map[uint8]*LodModel
	material *Material
	task     *lodTask

	// Scene attachment.
	scene    Scene
	shown    bool
	shownLod uint8
	shownPos mgl32.Vec3
}

func newChunk(e *env, coord terrain.ChunkCoord, corners []terrain.Corner) *Chunk {
	c := &Chunk{
		Coord:   coord,
		corners: make([]terrain.Corner, len(corners)),
		env:     e,
		lods:    make(map[uint8]*LodModel),
	}
	var sum uint64
	lowest := uint16(0xFFFF)
	for i, corner := range corners {
		c.corners[i] = corner.Clone()
		sum += uint64(corner.Height)
		lowest = min(lowest, corner.Height)
	}
	c.baseHeight = uint16(sum / uint64(len(corners)))
	c.lowestHeight = lowest
	return c
}

// BaseHeight is the floor of the average corner height.
func (c *Chunk) BaseHeight() uint16 {
	return c.baseHeight
}

// LowestHeight is the smallest corner height.
func (c *Chunk) LowestHeight() uint16 {
	return c.lowestHeight
}

// Corner returns the corner at column x, row z.
func (c *Chunk) Corner(x, z int) terrain.Corner {
	return c.corners[z*c.env.opts.ChunkWidth+x]
}

// Lod returns the cached model of a LOD, if built.
func (c *Chunk) Lod(lod uint8) (*LodModel, bool) {
	m, ok := c.lods[lod]
	return m, ok
}

// CachedLods returns the cached LODs in ascending order.
func (c *Chunk) CachedLods() []uint8 {
	out := make([]uint8, 0, len(c.lods))
	for l := range c.lods {
		out = append(out, l)
	}
	slices.Sort(out)
	return out
}

// Building returns the LOD of the in-flight task, if any.
func (c *Chunk) Building() (uint8, bool) {
	if c.task == nil {
		return 0, false
	}
	return c.task.lod, true
}

// Material returns the chunk material, nil until the first LOD is built.
func (c *Chunk) Material() *Material {
	return c.material
}

// State reports the chunk's progress towards lod without changing it.
func (c *Chunk) State(lod uint8) TaskState {
	if _, ok := c.lods[lod]; ok {
		return StateReady
	}
	if c.task != nil && c.task.lod == lod {
		return StateBuilding
	}
	return StateIdle
}

// PrepareForLod drives the chunk towards having lod cached. It never
// blocks and returns true only once the LOD is ready to show.
func (c *Chunk) PrepareForLod(lod uint8) bool {
	defer profiling.Track("world.PrepareForLod")()

	if _, ok := c.lods[lod]; ok {
		return true
	}

	if t := c.task; t != nil {
		if t.lod == lod && t.handle.Cancelled() {
			// Revoked by the runner itself, e.g. a pool shutting down.
			c.task = nil
			c.startTask(lod)
			return false
		}
		if t.lod == lod {
			if !t.handle.Completed() {
				return false
			}
			if !c.materialize(t.mesh) {
				return false
			}
			c.task = nil
			return true
		}
		// Wrong LOD in flight: revoke it, or drop its result if it already
		// finished. A running job is left alone and asked again next time.
		if !t.handle.Completed() && !c.env.runner.Cancel(t.handle) {
			return false
		}
		c.task = nil
	}

	c.startTask(lod)
	return false
}

func (c *Chunk) startTask(lod uint8) {
	corners, ok := c.snapshot()
	if !ok {
		return
	}
	mode := meshing.OccluderLattice
	if config.GetPrismOccluders() {
		mode = meshing.OccluderPrism
	}
	job := &meshing.LodJob{
		Corners:             corners,
		Lod:                 lod,
		BaseHeight:          c.baseHeight,
		CalculateBlendImage: c.material == nil,
		Options:             c.env.opts,
		Occluder:            mode,
	}
	t := &lodTask{lod: lod}
	t.handle = c.env.runner.Submit(func() {
		t.mesh = meshing.BuildLod(job)
	})
	c.task = t
}

// snapshot copies the chunk and the border rings the tessellator needs out
// of the live neighbours: one ring south/west and two rings north/east.
func (c *Chunk) snapshot() ([]terrain.Corner, bool) {
	w := c.env.opts.ChunkWidth
	side := w + 3

	var nb [3][3]*Chunk
	for dz := -1; dz <= 1; dz++ {
		for dx := -1; dx <= 1; dx++ {
			ch := c.env.store.Get(c.Coord.Add(terrain.ChunkCoord{X: dx, Z: dz}))
			if ch == nil {
				return nil, false
			}
			nb[dz+1][dx+1] = ch
		}
	}

	out := make([]terrain.Corner, side*side)
	for sy := 0; sy < side; sy++ {
		cz, lz := split(sy-1, w)
		for sx := 0; sx < side; sx++ {
			cx, lx := split(sx-1, w)
			src := nb[cz+1][cx+1]
			out[sy*side+sx] = src.corners[lz*w+lx].Clone()
		}
	}
	return out, true
}

// split maps a local coordinate in [-1, w+1] to a neighbour offset and the
// coordinate inside that neighbour.
func split(l, w int) (int, int) {
	switch {
	case l < 0:
		return -1, l + w
	case l >= w:
		return 1, l - w
	}
	return 0, l
}

// materialize turns a finished mesh into a cached model. It returns false
// while the material textures are not available yet.
func (c *Chunk) materialize(mesh *meshing.LodMesh) bool {
	if c.material == nil {
		m, ok := buildMaterial(c.env.opts, c.env.loader, mesh)
		if !ok {
			return false
		}
		c.material = m
	}
	c.insertLod(newLodModel(c.env.opts, mesh, c.material))
	return true
}

// insertLod caches a model and evicts a random other LOD over capacity.
func (c *Chunk) insertLod(m *LodModel) {
	c.lods[m.Lod] = m
	capacity := config.GetLodCacheCapacity()
	for len(c.lods) > capacity {
		candidates := make([]uint8, 0, len(c.lods)-1)
		for l := range c.lods {
			if l != m.Lod {
				candidates = append(candidates, l)
			}
		}
		slices.Sort(candidates)
		delete(c.lods, candidates[c.env.rng.Intn(len(candidates))])
	}
}

// Show attaches the chunk to a scene at lod. rel is the chunk offset from
// the world origin and relHeight its base height minus the origin height.
// Showing the same LOD at the same place again is a no-op.
func (c *Chunk) Show(scene Scene, rel terrain.ChunkCoord, relHeight int, lod uint8) {
	model, ok := c.lods[lod]
	if !ok {
		panic("world: showing a LOD that is not cached")
	}
	ww := c.env.opts.ChunkWorldWidth()
	pos := mgl32.Vec3{
		float32(rel.X) * ww,
		float32(relHeight) * c.env.opts.HeightStep,
		float32(rel.Z) * ww,
	}
	if c.shown && c.scene == scene && c.shownLod == lod && c.shownPos == pos {
		return
	}
	if c.shown && c.scene != scene {
		c.scene.Hide(c.Coord)
	}
	scene.Reveal(c.Coord, model, pos)
	c.scene = scene
	c.shown = true
	c.shownLod = lod
	c.shownPos = pos
}

// Hide detaches the chunk from its scene.
func (c *Chunk) Hide() {
	if !c.shown {
		return
	}
	c.scene.Hide(c.Coord)
	c.shown = false
}

// Shown returns the LOD the chunk is displayed at, if any.
func (c *Chunk) Shown() (uint8, bool) {
	return c.shownLod, c.shown
}

// destroy hides the chunk and drains its task. A job that cannot be
// revoked is waited for and its result dropped.
func (c *Chunk) destroy() {
	c.Hide()
	if t := c.task; t != nil {
		if !t.handle.Completed() && !c.env.runner.Cancel(t.handle) {
			t.handle.Wait()
		}
		c.task = nil
	}
	clear(c.lods)
	c.material = nil
}
