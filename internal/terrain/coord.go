package terrain

import "math"

// ChunkCoord identifies a chunk on the infinite grid. X grows east, Z grows north.
type ChunkCoord struct {
	X, Z int
}

// Add returns c offset by o.
func (c ChunkCoord) Add(o ChunkCoord) ChunkCoord {
	return ChunkCoord{X: c.X + o.X, Z: c.Z + o.Z}
}

// Sub returns c - o.
func (c ChunkCoord) Sub(o ChunkCoord) ChunkCoord {
	return ChunkCoord{X: c.X - o.X, Z: c.Z - o.Z}
}

// Length is the Euclidean length of c seen as an offset.
func (c ChunkCoord) Length() float64 {
	return math.Sqrt(float64(c.X*c.X + c.Z*c.Z))
}

// Neighbors lists the eight surrounding offsets, starting south-west and
// going counter-clockwise.
var Neighbors = [8]ChunkCoord{
	{X: -1, Z: -1},
	{X: 0, Z: -1},
	{X: 1, Z: -1},
	{X: 1, Z: 0},
	{X: 1, Z: 1},
	{X: 0, Z: 1},
	{X: -1, Z: 1},
	{X: -1, Z: 0},
}
