package game

import (
	"fmt"

	"terrainstream/internal/input"
	"terrainstream/internal/terrain"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// World units per second.
	moveSpeed      = 24
	fastMultiplier = 6
	// Degrees per pixel.
	mouseSensitivity = 0.1
)

// movement returns the camera-space translation for this frame: X right,
// Y up, Z backwards.
func movement(im *input.InputManager, dt float64) mgl32.Vec3 {
	var d mgl32.Vec3
	axis := func(pos, neg input.Action) float32 {
		var v float32
		if im.IsActive(pos) {
			v++
		}
		if im.IsActive(neg) {
			v--
		}
		return v
	}
	d[0] = axis(input.ActionMoveRight, input.ActionMoveLeft)
	d[1] = axis(input.ActionMoveUp, input.ActionMoveDown)
	d[2] = axis(input.ActionMoveBackward, input.ActionMoveForward)
	if d.Len() == 0 {
		return d
	}
	speed := float32(moveSpeed * dt)
	if im.IsActive(input.ActionFast) {
		speed *= fastMultiplier
	}
	return d.Normalize().Mul(speed)
}

// look converts the accumulated mouse movement into yaw and pitch deltas.
func look(im *input.InputManager) (float32, float32) {
	dx, dy := im.MouseDelta()
	return float32(dx) * mouseSensitivity, float32(-dy) * mouseSensitivity
}

// viewDistanceChange returns -1, 0 or 1 from the view distance keys.
func viewDistanceChange(im *input.InputManager) int {
	d := 0
	if im.JustPressed(input.ActionViewFarther) {
		d++
	}
	if im.JustPressed(input.ActionViewNearer) {
		d--
	}
	return d
}

// frameStats is what the overlay shows.
type frameStats struct {
	FPS          int
	Chunks       int
	Live         int
	Drawn        int
	Triangles    int
	Occluders    int
	Streaming    int
	Queued       int
	Committing   bool
	ViewDistance int
	Chunk        terrain.ChunkCoord
	BaseHeight   uint32
	Position     mgl32.Vec3
	Profile      string
}

func (s frameStats) lines() []string {
	state := "idle"
	if s.Committing {
		state = "building"
	}
	out := []string{
		fmt.Sprintf("%d fps", s.FPS),
		fmt.Sprintf("chunk %d,%d  base %d  pos %.1f %.1f %.1f", s.Chunk.X, s.Chunk.Z, s.BaseHeight, s.Position.X(), s.Position.Y(), s.Position.Z()),
		fmt.Sprintf("view %d  loaded %d  live %d  drawn %d  tris %d  occluders %d", s.ViewDistance, s.Chunks, s.Live, s.Drawn, s.Triangles, s.Occluders),
		fmt.Sprintf("streaming %d  meshing queue %d  %s", s.Streaming, s.Queued, state),
	}
	if s.Profile != "" {
		out = append(out, s.Profile)
	}
	return out
}
