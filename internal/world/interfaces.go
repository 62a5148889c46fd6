package world

import (
	"terrainstream/internal/meshing"
	"terrainstream/internal/terrain"

	"github.com/go-gl/mathgl/mgl32"
)

// TaskHandle is a background job a chunk can poll.
type TaskHandle interface {
	// Completed reports whether the job function has returned.
	Completed() bool
	// Cancelled reports whether the job was revoked before it ran.
	Cancelled() bool
	// Wait blocks until the job has finished or was cancelled.
	Wait()
}

// TaskRunner runs tessellation jobs off the foreground goroutine.
type TaskRunner interface {
	Submit(fn func()) TaskHandle
	// Cancel revokes a job that has not started. It returns false for a
	// job that is running or already done.
	Cancel(h TaskHandle) bool
}

// Scene displays LOD models. Reveal replaces whatever was shown for coord.
type Scene interface {
	Reveal(coord terrain.ChunkCoord, model *LodModel, position mgl32.Vec3)
	Hide(coord terrain.ChunkCoord)
}

// Texture is an opaque, loaded terrain texture.
type Texture interface {
	Name() string
}

// ResourceLoader hands out terrain textures. A false result means the
// texture is not available yet and the caller retries later.
type ResourceLoader interface {
	Texture(name string) (Texture, bool)
}

type poolRunner struct {
	pool *meshing.WorkerPool
}

// NewPoolRunner adapts a meshing worker pool to a TaskRunner.
func NewPoolRunner(pool *meshing.WorkerPool) TaskRunner {
	return poolRunner{pool: pool}
}

func (r poolRunner) Submit(fn func()) TaskHandle {
	return r.pool.Submit(fn)
}

func (r poolRunner) Cancel(h TaskHandle) bool {
	t, ok := h.(*meshing.Task)
	return ok && r.pool.Cancel(t)
}
