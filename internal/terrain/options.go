package terrain

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrInvalidOptions is returned by Options.Validate.
var ErrInvalidOptions = errors.New("invalid world options")

// Options are the world-wide constants every chunk and mesh shares.
type Options struct {
	// Corners per chunk side.
	ChunkWidth int
	// World units per grid cell.
	SquareWidth float32
	// World units per height step.
	HeightStep float32
	// How many times a single terrain texture repeats across one chunk.
	TextureRepeats float32
	// Texture identifiers indexed by terrain type id.
	TerrainTextures []string
}

// DefaultOptions returns the settings the viewer starts with.
func DefaultOptions() Options {
	return Options{
		ChunkWidth:     16,
		SquareWidth:    1,
		HeightStep:     0.25,
		TextureRepeats: 4,
	}
}

// Validate checks the construction preconditions.
func (o Options) Validate() error {
	if o.ChunkWidth < 2 {
		return fmt.Errorf("%w: chunk width %d < 2", ErrInvalidOptions, o.ChunkWidth)
	}
	if o.ChunkWidth > 1<<15 {
		return fmt.Errorf("%w: chunk width %d too large", ErrInvalidOptions, o.ChunkWidth)
	}
	if !(o.SquareWidth > 0) {
		return fmt.Errorf("%w: square width %v must be positive", ErrInvalidOptions, o.SquareWidth)
	}
	if !(o.HeightStep > 0) {
		return fmt.Errorf("%w: height step %v must be positive", ErrInvalidOptions, o.HeightStep)
	}
	if len(o.TerrainTextures) > 256 {
		return fmt.Errorf("%w: %d terrain textures, at most 256 type ids exist", ErrInvalidOptions, len(o.TerrainTextures))
	}
	return nil
}

// ChunkWorldWidth is the side length of one chunk in world units.
func (o Options) ChunkWorldWidth() float32 {
	return float32(o.ChunkWidth) * o.SquareWidth
}

// CornersPerChunk is the number of corners a chunk owns.
func (o Options) CornersPerChunk() int {
	return o.ChunkWidth * o.ChunkWidth
}

// MaxLod is the first LOD whose stride covers the whole chunk.
func (o Options) MaxLod() uint8 {
	return uint8(bits.Len(uint(o.ChunkWidth - 1)))
}
