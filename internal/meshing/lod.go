package meshing

import (
	"fmt"
	"image"

	"terrainstream/internal/profiling"
	"terrainstream/internal/terrain"

	"github.com/go-gl/mathgl/mgl32"
)

// VertexStride is number of float32 per vertex (pos.xyz + normal.xyz + uv)
const VertexStride = 8

// OccluderMode selects how the low-poly occluder is shaped.
type OccluderMode uint8

const (
	// OccluderLattice simplifies the surface on a coarse fixed lattice.
	OccluderLattice OccluderMode = iota
	// OccluderPrism drops a box from the four chunk corners.
	OccluderPrism
)

// LodJob is the self-contained input of one tessellation. Corners holds a
// (width+3)x(width+3) grid: one ring south/west of the chunk and two rings
// north/east of it, copied out of the live chunks before dispatch.
type LodJob struct {
	Corners    []terrain.Corner
	Lod        uint8
	BaseHeight uint16
	// Set when the chunk has no material yet and the blend image is wanted.
	CalculateBlendImage bool
	Options             terrain.Options
	Occluder            OccluderMode
}

// AABB is an axis aligned bounding box in chunk-local space.
type AABB struct {
	Min, Max mgl32.Vec3
}

func emptyAABB() AABB {
	const inf = float32(3.4e38)
	return AABB{Min: mgl32.Vec3{inf, inf, inf}, Max: mgl32.Vec3{-inf, -inf, -inf}}
}

func (b *AABB) merge(p mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		b.Min[i] = min(b.Min[i], p[i])
		b.Max[i] = max(b.Max[i], p[i])
	}
}

// Occluder is a conservative low-poly stand-in used for visibility culling.
type Occluder struct {
	Vertices []mgl32.Vec3
	Indices  []uint32
}

// LodMesh is the output of one tessellation.
type LodMesh struct {
	Lod uint8
	// Interleaved, VertexStride floats per vertex.
	Vertices []float32
	Indices  []uint32
	Bounds   AABB
	// Terrain types the material must bind, in blend channel order.
	// Nil when the blend image was not requested for a multi-type chunk.
	UsedTypes []uint8
	// Per-corner normalized weights of UsedTypes, nil on the single type path.
	BlendImage *image.NRGBA
	// True when UVs were pre-multiplied for a single repeating texture.
	SingleTexture bool
	// Nil means the render mesh itself is the occluder.
	Occluder *Occluder
}

// VertexCount returns the number of vertices in the mesh.
func (m *LodMesh) VertexCount() int {
	return len(m.Vertices) / VertexStride
}

// TriangleCount returns the number of triangles in the mesh.
func (m *LodMesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// grid is the position lattice of a job in chunk-local space. Index (x, y)
// addresses the snapshot, so the chunk interior is 1..width+1 on both axes.
type grid struct {
	width   int
	side    int
	heights []uint16
	pos     []mgl32.Vec3
	uvScale float32
}

func (g *grid) at(x, y int) int {
	return y*g.side + x
}

// Interior coordinates are offset by one into the snapshot.
func (g *grid) height(ix, iy int) uint16 {
	return g.heights[g.at(ix+1, iy+1)]
}

func (g *grid) position(ix, iy int) mgl32.Vec3 {
	return g.pos[g.at(ix+1, iy+1)]
}

// BuildLod tessellates a job. It only reads the job and never touches
// shared state, so it is safe to run on any goroutine.
func BuildLod(job *LodJob) *LodMesh {
	defer profiling.Track("meshing.BuildLod")()

	opts := job.Options
	width := opts.ChunkWidth
	side := width + 3
	if len(job.Corners) != side*side {
		panic(fmt.Sprintf("meshing: snapshot has %d corners, want %d", len(job.Corners), side*side))
	}

	out := &LodMesh{Lod: job.Lod}
	g := buildGrid(job, out)

	classifyTerrain(job, g, out)

	normals := computeNormals(g)

	step := lodStep(width, job.Lod)
	lattice := latticeCoords(width, step)

	emitVertices(g, normals, lattice, out)
	emitIndices(g, lattice, out)
	if job.Lod > 0 {
		stitchSeams(g, normals, lattice, out)
	}

	out.Occluder = buildOccluder(g, job.Occluder, step)
	return out
}

func buildGrid(job *LodJob, out *LodMesh) *grid {
	opts := job.Options
	width := opts.ChunkWidth
	side := width + 3
	half := opts.ChunkWorldWidth() / 2

	g := &grid{
		width:   width,
		side:    side,
		heights: make([]uint16, side*side),
		pos:     make([]mgl32.Vec3, side*side),
	}
	out.Bounds = emptyAABB()
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			i := g.at(x, y)
			h := job.Corners[i].Height
			g.heights[i] = h
			p := mgl32.Vec3{
				float32(x-1)*opts.SquareWidth - half,
				float32(int(h)-int(job.BaseHeight)) * opts.HeightStep,
				float32(y-1)*opts.SquareWidth - half,
			}
			g.pos[i] = p
			// Border rings only feed normals and stitching.
			if x >= 1 && x <= width+1 && y >= 1 && y <= width+1 {
				out.Bounds.merge(p)
			}
		}
	}
	return g
}

// lodStep returns the lattice stride of a LOD, capped at the chunk width.
func lodStep(width int, lod uint8) int {
	if lod >= 31 {
		return width
	}
	return min(width, 1<<lod)
}

// latticeCoords lists the interior grid coordinates a stride visits.
// The far edge is always included so odd widths still close the chunk.
func latticeCoords(width, step int) []int {
	coords := make([]int, 0, width/step+2)
	for c := 0; c < width; c += step {
		coords = append(coords, c)
	}
	return append(coords, width)
}

// computeNormals returns one normal per interior grid point, row-major over
// (width+1)x(width+1).
func computeNormals(g *grid) []mgl32.Vec3 {
	w1 := g.width + 1
	normals := make([]mgl32.Vec3, w1*w1)
	for iy := 0; iy < w1; iy++ {
		for ix := 0; ix < w1; ix++ {
			i := g.at(ix+1, iy+1)
			p := g.pos[i]
			north := g.pos[i+g.side].Sub(p).Normalize()
			south := g.pos[i-g.side].Sub(p).Normalize()
			east := g.pos[i+1].Sub(p).Normalize()
			west := g.pos[i-1].Sub(p).Normalize()
			n := west.Cross(north).Add(east.Cross(south)).Normalize()
			if !(n.Y() > 0) {
				panic(fmt.Sprintf("meshing: normal %v at (%d,%d) does not point up", n, ix, iy))
			}
			normals[iy*w1+ix] = n
		}
	}
	return normals
}

func appendVertex(out *LodMesh, g *grid, normals []mgl32.Vec3, ix, iy int) uint32 {
	idx := uint32(out.VertexCount())
	p := g.position(ix, iy)
	n := normals[iy*(g.width+1)+ix]
	u := float32(ix) / float32(g.width) * g.uvScale
	v := float32(iy) / float32(g.width) * g.uvScale
	out.Vertices = append(out.Vertices, p[0], p[1], p[2], n[0], n[1], n[2], u, v)
	return idx
}

func emitVertices(g *grid, normals []mgl32.Vec3, lattice []int, out *LodMesh) {
	n := len(lattice)
	out.Vertices = make([]float32, 0, n*n*VertexStride)
	for _, iy := range lattice {
		for _, ix := range lattice {
			appendVertex(out, g, normals, ix, iy)
		}
	}
	if out.VertexCount() != n*n {
		panic(fmt.Sprintf("meshing: emitted %d vertices, want %d", out.VertexCount(), n*n))
	}
}

// Diagonal is the quad split a tessellation chose.
type Diagonal uint8

const (
	// DiagonalSWNE splits a quad along its south-west to north-east corners.
	DiagonalSWNE Diagonal = iota
	// DiagonalNWSE splits a quad along its north-west to south-east corners.
	DiagonalNWSE
)

// ChooseDiagonal picks the diagonal whose end heights differ least.
// Ties go to south-west/north-east.
func ChooseDiagonal(sw, nw, ne, se uint16) Diagonal {
	if absDiff(nw, se) < absDiff(sw, ne) {
		return DiagonalNWSE
	}
	return DiagonalSWNE
}

func absDiff(a, b uint16) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}

func emitIndices(g *grid, lattice []int, out *LodMesh) {
	n := len(lattice)
	quads := n - 1
	out.Indices = make([]uint32, 0, quads*quads*6)
	for qy := 0; qy < quads; qy++ {
		for qx := 0; qx < quads; qx++ {
			sw := uint32(qy*n + qx)
			se := sw + 1
			nw := sw + uint32(n)
			ne := nw + 1

			x0, x1 := lattice[qx], lattice[qx+1]
			y0, y1 := lattice[qy], lattice[qy+1]
			d := ChooseDiagonal(g.height(x0, y0), g.height(x0, y1), g.height(x1, y1), g.height(x1, y0))
			if d == DiagonalSWNE {
				out.Indices = append(out.Indices, sw, ne, se, sw, nw, ne)
			} else {
				out.Indices = append(out.Indices, sw, nw, se, nw, ne, se)
			}
		}
	}
	if len(out.Indices) != quads*quads*6 {
		panic(fmt.Sprintf("meshing: emitted %d indices, want %d", len(out.Indices), quads*quads*6))
	}
}
