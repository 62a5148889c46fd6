package terrain

import "math"

// Terrain type ids the procedural generator paints with.
const (
	TypeSand uint8 = iota
	TypeGrass
	TypeDirt
	TypeRock
	TypeSnow
)

// Generator produces deterministic corner grids from layered value noise.
// Neighbouring chunks sample one continuous field, so shared edges agree.
type Generator struct {
	Seed      int64
	Width     int
	MinHeight uint16
	// Height range in steps covered by the noise.
	Amplitude float64
	// Corners per noise lattice cell of the first octave.
	Scale float64
	Octaves   int
}

// NewGenerator returns a generator with hilly defaults for the given chunk width.
func NewGenerator(seed int64, width int) *Generator {
	return &Generator{
		Seed:      seed,
		Width:     width,
		MinHeight: 200,
		Amplitude: 600,
		Scale:     48,
		Octaves:   5,
	}
}

// Corners returns the width*width corner grid of a chunk.
func (g *Generator) Corners(coord ChunkCoord) []Corner {
	out := make([]Corner, g.Width*g.Width)
	for row := 0; row < g.Width; row++ {
		for col := 0; col < g.Width; col++ {
			gx := int64(coord.X*g.Width + col)
			gz := int64(coord.Z*g.Width + row)
			out[row*g.Width+col] = g.CornerAt(gx, gz)
		}
	}
	return out
}

// HeightAt returns the height of a global grid point.
func (g *Generator) HeightAt(gx, gz int64) uint16 {
	return g.cornerHeight(g.elevation(gx, gz))
}

func (g *Generator) elevation(gx, gz int64) float64 {
	scale := g.Scale
	if scale <= 0 {
		scale = 1
	}
	e := octaveNoise2D(float64(gx)/scale, float64(gz)/scale, g.Seed, g.Octaves, 0.5, 2.0)
	// Sharpen valleys and widen ridges a little.
	return e * e * (3 - 2*e)
}

func (g *Generator) cornerHeight(e float64) uint16 {
	h := float64(g.MinHeight) + e*g.Amplitude
	return uint16(math.Max(0, math.Min(h, math.MaxUint16)))
}

// CornerAt returns the corner of a global grid point.
func (g *Generator) CornerAt(gx, gz int64) Corner {
	e := g.elevation(gx, gz)
	c := Corner{Height: g.cornerHeight(e)}

	// Band boundaries jitter with a second noise layer so transitions blend.
	jitter := (valueNoise2D(float64(gx)/7, float64(gz)/7, g.Seed+7919) - 0.5) * 0.08
	e += jitter

	bands := [...]struct {
		ttype  uint8
		center float64
	}{
		{TypeSand, 0.12},
		{TypeGrass, 0.35},
		{TypeDirt, 0.55},
		{TypeRock, 0.72},
		{TypeSnow, 0.92},
	}
	const halfWidth = 0.14
	total := 0.0
	var raw [len(bands)]float64
	for i, b := range bands {
		d := math.Abs(e-b.center) / halfWidth
		if d < 1 {
			raw[i] = 1 - d
			total += raw[i]
		}
	}
	if total == 0 {
		// Outside every band: clamp to the nearest extreme.
		if e < bands[0].center {
			return NewCorner(c.Height, bands[0].ttype)
		}
		return NewCorner(c.Height, bands[len(bands)-1].ttype)
	}
	for i, b := range bands {
		if raw[i] > 0 {
			c.SetWeight(b.ttype, float32(raw[i]/total))
		}
	}
	return c
}

func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// hash2 is a SplitMix64 style lattice hash, stable for equal inputs.
func hash2(x, z, seed int64) uint64 {
	v := uint64(x)*0x9E3779B97F4A7C15 + uint64(z)*0x517CC1B727220A95 + uint64(seed)
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	return v ^ (v >> 31)
}

func latticeValue(x, z, seed int64) float64 {
	return float64(hash2(x, z, seed)&0xFFFFFFFF) / float64(0xFFFFFFFF)
}

func valueNoise2D(x, z float64, seed int64) float64 {
	x0 := math.Floor(x)
	z0 := math.Floor(z)
	fx := fade(x - x0)
	fz := fade(z - z0)
	ix, iz := int64(x0), int64(z0)

	i0 := lerp(latticeValue(ix, iz, seed), latticeValue(ix+1, iz, seed), fx)
	i1 := lerp(latticeValue(ix, iz+1, seed), latticeValue(ix+1, iz+1, seed), fx)
	return lerp(i0, i1, fz)
}

func octaveNoise2D(x, z float64, seed int64, octaves int, persistence, lacunarity float64) float64 {
	amplitude, frequency := 1.0, 1.0
	sum, norm := 0.0, 0.0
	for i := range octaves {
		sum += valueNoise2D(x*frequency, z*frequency, seed+int64(i*131)) * amplitude
		norm += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}
