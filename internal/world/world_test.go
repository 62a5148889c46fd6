package world

import (
	"errors"
	"testing"
	"time"

	"terrainstream/internal/config"
	"terrainstream/internal/terrain"

	"github.com/go-gl/mathgl/mgl32"
)

func TestTickCommitsNeighbourCompleteDisc(t *testing.T) {
	e := newTestEnv(t, true)
	e.addGrid(t, origin0, 2, flatGrid)
	e.attachCamera(origin0, 100, 2)

	e.tickUntilCommitted(t, 5)

	live := e.world.Live()
	if len(live) != 9 {
		t.Fatalf("live has %d chunks, want the 9 with complete neighbourhoods", len(live))
	}
	for coord := range live {
		if coord.X < -1 || coord.X > 1 || coord.Z < -1 || coord.Z > 1 {
			t.Fatalf("%v is live but misses a neighbour", coord)
		}
		if !e.world.Store().NeighbourhoodComplete(coord) {
			t.Fatalf("%v is live but not neighbour-complete", coord)
		}
		if _, ok := e.scene.visible[coord]; !ok {
			t.Fatalf("%v is live but not in the scene", coord)
		}
	}
	if len(e.scene.visible) != 9 {
		t.Fatalf("scene shows %d chunks, want 9", len(e.scene.visible))
	}

	// Nothing moved: further ticks change nothing.
	reveals := e.scene.reveals
	e.world.Tick()
	if e.world.HasPending() || e.scene.reveals != reveals {
		t.Fatalf("idle tick recomputed or re-revealed the view")
	}

	// A rejected add leaves the store untouched.
	if err := e.world.AddChunk(origin0, flatGrid(origin0)); err == nil {
		t.Fatalf("duplicate add accepted")
	}
	e.world.Tick()
	if e.world.HasPending() {
		t.Fatalf("rejected add recomputed the view")
	}

	if err := e.world.AddChunk(terrain.ChunkCoord{X: 9, Z: 9}, flatGrid(origin0)); err != nil {
		t.Fatal(err)
	}
	e.world.Tick()
	if !e.world.HasPending() {
		t.Fatalf("store change did not recompute the view")
	}
}

func TestStoreModCount(t *testing.T) {
	e := newTestEnv(t, false)
	store := e.world.Store()
	if store.GetModCount() != 0 {
		t.Fatalf("fresh store mod count = %d", store.GetModCount())
	}
	if err := e.world.AddChunk(origin0, flatGrid(origin0)); err != nil {
		t.Fatal(err)
	}
	_ = e.world.AddChunk(origin0, flatGrid(origin0))
	if store.GetModCount() != 1 {
		t.Fatalf("mod count after one add = %d, want 1", store.GetModCount())
	}
	if err := e.world.RemoveChunk(origin0); err != nil {
		t.Fatal(err)
	}
	_ = e.world.RemoveChunk(origin0)
	if store.GetModCount() != 2 {
		t.Fatalf("mod count after remove = %d, want 2", store.GetModCount())
	}
}

func TestDiscExcludesCorners(t *testing.T) {
	e := newTestEnv(t, true)
	e.addGrid(t, origin0, 3, flatGrid)
	e.attachCamera(origin0, 100, 2)
	e.tickUntilCommitted(t, 5)

	live := e.world.Live()
	if len(live) != 13 {
		t.Fatalf("radius 2 disc has %d chunks, want 13", len(live))
	}
	if _, ok := live[terrain.ChunkCoord{X: 2, Z: 2}]; ok {
		t.Fatalf("corner outside the disc is live")
	}
	if _, ok := live[terrain.ChunkCoord{X: 2, Z: 0}]; !ok {
		t.Fatalf("edge of the disc is missing")
	}
}

func TestCommitPlacesChunksAroundOrigin(t *testing.T) {
	e := newTestEnv(t, true)
	e.addGrid(t, origin0, 2, func(c terrain.ChunkCoord) []terrain.Corner {
		return flatCorners(4, uint16(100+10*c.X), 0)
	})
	e.attachCamera(origin0, 100, 1)
	e.tickUntilCommitted(t, 5)

	east := e.scene.visible[terrain.ChunkCoord{X: 1, Z: 0}]
	// One chunk east, 10 steps higher at 0.25 units per step.
	if east.pos != (mgl32.Vec3{4, 2.5, 0}) {
		t.Fatalf("east chunk at %v, want (4,2.5,0)", east.pos)
	}
	if e.scene.visible[origin0].pos != (mgl32.Vec3{}) {
		t.Fatalf("origin chunk not at the origin")
	}
}

func TestCameraMoveRebasesOrigin(t *testing.T) {
	e := newTestEnv(t, true)
	e.addGrid(t, origin0, 3, flatGrid)
	cam := e.attachCamera(origin0, 100, 1)
	e.tickUntilCommitted(t, 5)

	// Past one and a half half-widths east: the origin moves one chunk.
	cam.ApplyAbsoluteMovement(mgl32.Vec3{5, 0, 0})
	e.tickUntilCommitted(t, 5)

	chunk, height := e.world.Origin()
	if chunk != (terrain.ChunkCoord{X: 1}) || height != 100 {
		t.Fatalf("origin = %v/%d, want {1 0}/100", chunk, height)
	}
	if got := cam.LocalPosition(); got != (mgl32.Vec3{1, 0, 0}) {
		t.Fatalf("camera not re-parented: local position %v", got)
	}
	if _, ok := e.scene.visible[terrain.ChunkCoord{X: -1}]; ok {
		t.Fatalf("chunk that left the view is still shown")
	}
	if got := e.scene.visible[terrain.ChunkCoord{X: 1}].pos; got != (mgl32.Vec3{}) {
		t.Fatalf("new origin chunk at %v, want the origin", got)
	}
	if got := e.scene.visible[terrain.ChunkCoord{X: 2}].pos; got != (mgl32.Vec3{4, 0, 0}) {
		t.Fatalf("chunk east of the new origin at %v", got)
	}
}

func TestViewWaitsForEveryChunk(t *testing.T) {
	e := newTestEnv(t, false)
	e.addGrid(t, origin0, 2, flatGrid)
	e.attachCamera(origin0, 100, 1)

	for range 4 {
		e.world.Tick()
	}
	if !e.world.HasPending() || len(e.world.Live()) != 0 {
		t.Fatalf("view committed before any task ran")
	}
	if len(e.runner.tasks) != 5 {
		t.Fatalf("got %d tasks, want one per chunk in view", len(e.runner.tasks))
	}

	// All but one finished: still nothing shown.
	for _, task := range e.runner.tasks[:4] {
		task.finish()
	}
	e.world.Tick()
	if len(e.scene.visible) != 0 {
		t.Fatalf("partial view area was shown")
	}
	e.runner.runAll()
	e.world.Tick()
	if len(e.scene.visible) != 5 {
		t.Fatalf("scene shows %d chunks after commit, want 5", len(e.scene.visible))
	}
}

func TestTickBudgetStopsScan(t *testing.T) {
	var now time.Time
	var step time.Duration
	clock := func() time.Time {
		now = now.Add(step)
		return now
	}
	e := newTestEnv(t, false, WithClock(clock))
	e.addGrid(t, origin0, 2, flatGrid)
	e.attachCamera(origin0, 100, 1)
	e.world.Tick()

	// Every clock read costs a whole budget: one chunk per tick.
	step = config.GetTickBudget()
	e.world.Tick()
	if len(e.runner.tasks) != 1 {
		t.Fatalf("over-budget tick started %d tasks, want 1", len(e.runner.tasks))
	}
	if _, ok := e.world.Chunk(origin0).Building(); !ok {
		t.Fatalf("nearest chunk was not prepared first")
	}
	e.runner.runAll()
	for range 10 {
		e.world.Tick()
	}
	if len(e.world.Live()) != 0 {
		t.Fatalf("view committed although no tick finished its scan")
	}

	step = 0
	e.runner.immediate = true
	e.tickUntilCommitted(t, 5)
	if len(e.world.Live()) != 5 {
		t.Fatalf("live has %d chunks, want 5", len(e.world.Live()))
	}
}

func TestRemoveChunk(t *testing.T) {
	e := newTestEnv(t, true)
	e.addGrid(t, origin0, 2, flatGrid)
	e.attachCamera(origin0, 100, 1)
	e.tickUntilCommitted(t, 5)

	e.world.Tick()
	if err := e.world.RemoveChunk(terrain.ChunkCoord{X: 9, Z: 9}); !errors.Is(err, ErrChunkMissing) {
		t.Fatalf("got %v, want ErrChunkMissing", err)
	}
	if e.world.ChunkCount() != 25 || len(e.world.Live()) != 5 {
		t.Fatalf("failed remove changed the world")
	}

	east := terrain.ChunkCoord{X: 1}
	if err := e.world.RemoveChunk(east); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok := e.scene.visible[east]; ok {
		t.Fatalf("removed chunk still shown")
	}
	if _, ok := e.world.Live()[east]; ok {
		t.Fatalf("removed chunk still live")
	}
	if e.world.HasPending() || e.world.Chunk(east) != nil {
		t.Fatalf("remove left pending view or the chunk behind")
	}

	// The view is recomputed without the hole's neighbours.
	e.tickUntilCommitted(t, 5)
	for coord := range e.world.Live() {
		if !e.world.Store().NeighbourhoodComplete(coord) {
			t.Fatalf("%v live next to the removed chunk", coord)
		}
	}
}

func TestRemoveChunkDrainsRunningTask(t *testing.T) {
	e := newTestEnv(t, false)
	e.addGrid(t, origin0, 1, flatGrid)
	c := e.world.Chunk(origin0)
	c.PrepareForLod(0)
	task := e.runner.last()
	task.state = fakeRunning

	if err := e.world.RemoveChunk(origin0); err != nil {
		t.Fatal(err)
	}
	if !task.Completed() {
		t.Fatalf("remove did not wait for the running task")
	}
	if _, ok := c.Building(); ok {
		t.Fatalf("destroyed chunk kept its task")
	}
}

func TestCloseUnloadsEverything(t *testing.T) {
	e := newTestEnv(t, true)
	e.addGrid(t, origin0, 2, flatGrid)
	e.attachCamera(origin0, 100, 1)
	e.tickUntilCommitted(t, 5)

	e.world.Close()
	if e.world.ChunkCount() != 0 || len(e.scene.visible) != 0 || len(e.world.Live()) != 0 {
		t.Fatalf("close left %d chunks, %d visible", e.world.ChunkCount(), len(e.scene.visible))
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	opts := testOptions()
	opts.ChunkWidth = 1
	if _, err := New(opts, &fakeRunner{}, newFakeScene(), &fakeLoader{}); !errors.Is(err, terrain.ErrInvalidOptions) {
		t.Fatalf("got %v, want ErrInvalidOptions", err)
	}
}
