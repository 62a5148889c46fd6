package world

import (
	"testing"
	"time"

	"terrainstream/internal/camera"
	"terrainstream/internal/terrain"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	fakeQueued = iota
	fakeRunning
	fakeDone
	fakeCancelled
)

type fakeTask struct {
	fn    func()
	state int
}

func (t *fakeTask) Completed() bool { return t.state == fakeDone }

func (t *fakeTask) Cancelled() bool { return t.state == fakeCancelled }

// Wait finishes a queued or running task inline.
func (t *fakeTask) Wait() {
	if t.state == fakeQueued || t.state == fakeRunning {
		t.finish()
	}
}

func (t *fakeTask) finish() {
	t.fn()
	t.state = fakeDone
}

// fakeRunner records tasks and runs them when told to, or at once when
// immediate is set.
type fakeRunner struct {
	immediate bool
	tasks     []*fakeTask
}

func (r *fakeRunner) Submit(fn func()) TaskHandle {
	t := &fakeTask{fn: fn}
	r.tasks = append(r.tasks, t)
	if r.immediate {
		t.finish()
	}
	return t
}

func (r *fakeRunner) Cancel(h TaskHandle) bool {
	t := h.(*fakeTask)
	if t.state == fakeCancelled {
		return true
	}
	if t.state != fakeQueued {
		return false
	}
	t.state = fakeCancelled
	return true
}

func (r *fakeRunner) runAll() {
	for _, t := range r.tasks {
		if t.state == fakeQueued || t.state == fakeRunning {
			t.finish()
		}
	}
}

func (r *fakeRunner) last() *fakeTask {
	return r.tasks[len(r.tasks)-1]
}

type shown struct {
	model *LodModel
	pos   mgl32.Vec3
}

type fakeScene struct {
	visible map[terrain.ChunkCoord]shown
	reveals int
	hides   int
}

func newFakeScene() *fakeScene {
	return &fakeScene{visible: make(map[terrain.ChunkCoord]shown)}
}

func (s *fakeScene) Reveal(coord terrain.ChunkCoord, model *LodModel, pos mgl32.Vec3) {
	s.visible[coord] = shown{model: model, pos: pos}
	s.reveals++
}

func (s *fakeScene) Hide(coord terrain.ChunkCoord) {
	delete(s.visible, coord)
	s.hides++
}

type fakeTexture string

func (t fakeTexture) Name() string { return string(t) }

// fakeLoader serves every texture except the ones marked missing.
type fakeLoader struct {
	missing map[string]bool
	loads   int
}

func (l *fakeLoader) Texture(name string) (Texture, bool) {
	if l.missing[name] {
		return nil, false
	}
	l.loads++
	return fakeTexture(name), true
}

type testEnv struct {
	world  *World
	runner *fakeRunner
	scene  *fakeScene
	loader *fakeLoader
}

func testOptions() terrain.Options {
	opts := terrain.DefaultOptions()
	opts.ChunkWidth = 4
	return opts
}

func newTestEnv(t testing.TB, immediate bool, options ...Option) *testEnv {
	t.Helper()
	e := &testEnv{
		runner: &fakeRunner{immediate: immediate},
		scene:  newFakeScene(),
		loader: &fakeLoader{missing: make(map[string]bool)},
	}
	frozen := time.Unix(0, 0)
	options = append([]Option{WithClock(func() time.Time { return frozen })}, options...)
	w, err := New(testOptions(), e.runner, e.scene, e.loader, options...)
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	e.world = w
	return e
}

func flatCorners(width int, height uint16, ttype uint8) []terrain.Corner {
	corners := make([]terrain.Corner, width*width)
	for i := range corners {
		corners[i] = terrain.NewCorner(height, ttype)
	}
	return corners
}

// addGrid loads every chunk within the square of radius r around center.
func (e *testEnv) addGrid(t testing.TB, center terrain.ChunkCoord, r int, corners func(terrain.ChunkCoord) []terrain.Corner) {
	t.Helper()
	for dz := -r; dz <= r; dz++ {
		for dx := -r; dx <= r; dx++ {
			coord := center.Add(terrain.ChunkCoord{X: dx, Z: dz})
			if err := e.world.AddChunk(coord, corners(coord)); err != nil {
				t.Fatalf("add %v: %v", coord, err)
			}
		}
	}
}

func (e *testEnv) attachCamera(chunk terrain.ChunkCoord, baseHeight uint32, viewDistance int) *camera.Camera {
	c := camera.New(e.world.Options(), camera.Origin{Chunk: chunk, BaseHeight: baseHeight}, viewDistance)
	e.world.SetCamera(c)
	return c
}

// tickUntilCommitted ticks until no view area is pending, at most n times.
func (e *testEnv) tickUntilCommitted(t testing.TB, n int) {
	t.Helper()
	for range n {
		e.world.Tick()
		if !e.world.HasPending() {
			return
		}
	}
	t.Fatalf("view area still pending after %d ticks", n)
}
