package camera

import (
	"math"

	"terrainstream/internal/terrain"

	"github.com/go-gl/mathgl/mgl32"
)

// heightRebaseSteps is the height shift, in steps, applied when the camera
// drifts too far above or below its base height.
const heightRebaseSteps = 500

// Origin places the camera in the unbounded world: a chunk, a base height
// in steps and a local offset in world units from that chunk's centre.
type Origin struct {
	Chunk      terrain.ChunkCoord
	BaseHeight uint32
	Offset     mgl32.Vec3
}

// Camera is a free-flying viewer whose position is kept small by re-basing
// onto the chunk it is over.
type Camera struct {
	origin Origin

	// Committed origin of the world the camera is rendered in.
	parentChunk  terrain.ChunkCoord
	parentHeight uint32

	Yaw   float32 // degrees, 0 looks towards -Z
	Pitch float32 // degrees, clamped to ±89
	Roll  float32 // degrees

	FOV       float32
	NearPlane float32
	FarPlane  float32

	chunkWidth float32
	heightStep float32

	ViewDistance int // in chunks
}

// New creates a camera at origin for a world built with opts.
func New(opts terrain.Options, origin Origin, viewDistance int) *Camera {
	return &Camera{
		origin:       origin,
		parentChunk:  origin.Chunk,
		parentHeight: origin.BaseHeight,
		FOV:          60.0,
		NearPlane:    0.1,
		FarPlane:     float32(viewDistance+2) * opts.ChunkWorldWidth(),
		chunkWidth:   opts.ChunkWorldWidth(),
		heightStep:   opts.HeightStep,
		ViewDistance: viewDistance,
	}
}

// Origin returns the camera's current origin.
func (c *Camera) Origin() Origin {
	return c.origin
}

// FixIfOutsideOrigin moves the origin to the chunk the camera is over once
// it strays more than one and a half half-widths away, and shifts the base
// height once the camera is more than 500 steps above or below it. It
// reports whether the origin changed.
func (c *Camera) FixIfOutsideOrigin() bool {
	changed := false
	threshold := 1.5 * c.chunkWidth / 2

	if off := c.origin.Offset.X(); abs32(off) > threshold {
		n := int(math.Round(float64(off / c.chunkWidth)))
		c.origin.Chunk.X += n
		c.origin.Offset[0] -= float32(n) * c.chunkWidth
		changed = true
	}
	if off := c.origin.Offset.Z(); abs32(off) > threshold {
		n := int(math.Round(float64(off / c.chunkWidth)))
		c.origin.Chunk.Z += n
		c.origin.Offset[2] -= float32(n) * c.chunkWidth
		changed = true
	}

	band := heightRebaseSteps * c.heightStep
	if off := c.origin.Offset.Y(); abs32(off) > band {
		steps := int64(off/band) * heightRebaseSteps
		base := max(int64(c.origin.BaseHeight)+steps, 0)
		shift := base - int64(c.origin.BaseHeight)
		if shift != 0 {
			c.origin.BaseHeight = uint32(base)
			c.origin.Offset[1] -= float32(shift) * c.heightStep
			changed = true
		}
	}
	return changed
}

// Reparent makes the camera relative to a new committed world origin.
func (c *Camera) Reparent(chunk terrain.ChunkCoord, baseHeight uint32) {
	c.parentChunk = chunk
	c.parentHeight = baseHeight
}

// LocalPosition returns the camera position relative to the committed
// world origin, in world units.
func (c *Camera) LocalPosition() mgl32.Vec3 {
	d := c.origin.Chunk.Sub(c.parentChunk)
	return mgl32.Vec3{
		float32(d.X)*c.chunkWidth + c.origin.Offset.X(),
		float32(int64(c.origin.BaseHeight)-int64(c.parentHeight))*c.heightStep + c.origin.Offset.Y(),
		float32(d.Z)*c.chunkWidth + c.origin.Offset.Z(),
	}
}

// Rotation returns the camera orientation: yaw about Y, then pitch about
// X, then roll about Z.
func (c *Camera) Rotation() mgl32.Quat {
	yaw := mgl32.QuatRotate(mgl32.DegToRad(-c.Yaw), mgl32.Vec3{0, 1, 0})
	pitch := mgl32.QuatRotate(mgl32.DegToRad(c.Pitch), mgl32.Vec3{1, 0, 0})
	roll := mgl32.QuatRotate(mgl32.DegToRad(c.Roll), mgl32.Vec3{0, 0, 1})
	return yaw.Mul(pitch).Mul(roll)
}

// Front returns the unit view direction.
func (c *Camera) Front() mgl32.Vec3 {
	return c.Rotation().Rotate(mgl32.Vec3{0, 0, -1})
}

// Look applies a mouse delta in degrees and clamps the pitch.
func (c *Camera) Look(dYaw, dPitch float32) {
	c.Yaw += dYaw
	c.Pitch = min(max(c.Pitch+dPitch, -89), 89)
}

// ApplyRelativeMovement moves in camera space: X right, Y up, Z backwards.
func (c *Camera) ApplyRelativeMovement(delta mgl32.Vec3) {
	c.ApplyAbsoluteMovement(c.Rotation().Rotate(delta))
}

// ApplyAbsoluteMovement moves along world axes.
func (c *Camera) ApplyAbsoluteMovement(delta mgl32.Vec3) {
	c.origin.Offset = c.origin.Offset.Add(delta)
}

// ViewMatrix returns the view matrix relative to the committed world origin.
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	pos := c.LocalPosition()
	return c.Rotation().Conjugate().Mat4().Mul4(mgl32.Translate3D(-pos.X(), -pos.Y(), -pos.Z()))
}

// ProjectionMatrix returns the perspective projection for an aspect ratio.
func (c *Camera) ProjectionMatrix(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), aspect, c.NearPlane, c.FarPlane)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
