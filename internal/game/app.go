package game

import (
	"log"
	"time"

	"terrainstream/internal/camera"
	"terrainstream/internal/config"
	"terrainstream/internal/graphics"
	"terrainstream/internal/input"
	"terrainstream/internal/meshing"
	"terrainstream/internal/profiling"
	"terrainstream/internal/world"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// Loaded chunks handed to the world per frame.
	pumpPerFrame  = 32
	evictInterval = 750 * time.Millisecond
	slowFrame     = 16 * time.Millisecond
)

// Deps are the pieces the viewer drives. Font may be nil.
type Deps struct {
	Window   *glfw.Window
	Input    *input.InputManager
	Camera   *camera.Camera
	World    *world.World
	Streamer *world.ChunkStreamer
	Pool     *meshing.WorkerPool
	Scene    *graphics.TerrainScene
	Font     *graphics.FontRenderer
}

// App is the viewer main loop.
type App struct {
	Deps

	paused      bool
	wireframe   bool
	showOverlay bool

	fpsLimiter *FPSLimiter
	lastTime   time.Time
	lastEvict  time.Time

	frames    int
	fps       int
	fpsWindow time.Time
}

// NewApp wires input callbacks and points the world at the camera.
func NewApp(d Deps) *App {
	now := time.Now()
	a := &App{
		Deps:        d,
		showOverlay: d.Font != nil,
		fpsLimiter:  NewFPSLimiter(),
		lastTime:    now,
		lastEvict:   now,
		fpsWindow:   now,
	}
	d.World.SetCamera(d.Camera)
	SetupInputHandlers(a)
	return a
}

// Run ticks until the window is asked to close.
func (a *App) Run() {
	for !a.Window.ShouldClose() {
		a.tick()
	}
}

func (a *App) tick() {
	profiling.ResetFrame()
	start := time.Now()
	dt := start.Sub(a.lastTime).Seconds()
	a.lastTime = start

	func() { defer profiling.Track("glfw.PollEvents")(); glfw.PollEvents() }()

	a.handleInput(dt)
	a.stream(start)
	a.World.Tick()
	a.render()

	func() { defer profiling.Track("glfw.SwapBuffers")(); a.Window.SwapBuffers() }()

	if d := time.Since(start); d > slowFrame {
		log.Printf("Slow frame: %v. Top tasks: %s", d, profiling.TopN(5))
	}

	a.frames++
	if time.Since(a.fpsWindow) >= time.Second {
		a.fps = a.frames
		a.frames = 0
		a.fpsWindow = time.Now()
	}

	a.Input.PostUpdate()
	a.fpsLimiter.Wait(a.paused)
}

func (a *App) handleInput(dt float64) {
	im := a.Input
	if im.JustPressed(input.ActionQuit) {
		a.Window.SetShouldClose(true)
	}
	if im.JustPressed(input.ActionPause) {
		a.setPaused(!a.paused)
	}
	if im.JustPressed(input.ActionToggleOverlay) && a.Font != nil {
		a.showOverlay = !a.showOverlay
	}
	if im.JustPressed(input.ActionToggleWireframe) {
		a.wireframe = !a.wireframe
	}
	if d := viewDistanceChange(im); d != 0 {
		config.SetViewDistance(config.GetViewDistance() + d)
		vd := config.GetViewDistance()
		a.World.SetViewDistance(vd)
		a.Camera.FarPlane = float32(vd+2) * a.World.Options().ChunkWorldWidth()
		log.Printf("view distance %d", vd)
	}
	if a.paused {
		return
	}
	a.Camera.Look(look(im))
	a.Camera.ApplyRelativeMovement(movement(im, dt))
}

func (a *App) setPaused(paused bool) {
	a.paused = paused
	if paused {
		a.Window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	} else {
		a.Window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	}
	a.Input.ResetCursor()
}

// stream keeps the chunk set around the camera loaded.
func (a *App) stream(now time.Time) {
	center := a.Camera.Origin().Chunk
	a.Streamer.StreamAround(center, config.GetChunkLoadRadius())
	a.Streamer.Pump(a.World, pumpPerFrame)
	if now.Sub(a.lastEvict) > evictInterval {
		a.Streamer.EvictFarChunks(a.World, center, config.GetChunkEvictRadius())
		a.lastEvict = now
	}
}

func (a *App) render() {
	fog := a.Scene.FogColor
	gl.ClearColor(fog.X(), fog.Y(), fog.Z(), 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	fbw, fbh := a.Window.GetFramebufferSize()
	if fbw == 0 || fbh == 0 {
		return
	}
	a.Scene.FogEnd = a.Camera.FarPlane
	if a.wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	}
	a.Scene.Render(a.Camera.ViewMatrix(), a.Camera.ProjectionMatrix(float32(fbw)/float32(fbh)))
	if a.wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}

	if a.showOverlay {
		a.Font.RenderLines(a.stats().lines(), 8, 20, 1, mgl32.Vec3{1, 1, 1})
	}
}

func (a *App) stats() frameStats {
	o := a.Camera.Origin()
	rs := a.Scene.Stats()
	return frameStats{
		FPS:          a.fps,
		Chunks:       a.World.ChunkCount(),
		Live:         rs.Shown,
		Drawn:        rs.Drawn,
		Triangles:    rs.Triangles,
		Occluders:    rs.Occluders,
		Streaming:    a.Streamer.Pending(),
		Queued:       a.Pool.QueueLength(),
		Committing:   a.World.HasPending(),
		ViewDistance: a.World.ViewDistance(),
		Chunk:        o.Chunk,
		BaseHeight:   o.BaseHeight,
		Position:     o.Offset,
		Profile:      profiling.TopN(3),
	}
}
