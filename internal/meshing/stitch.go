package meshing

import "github.com/go-gl/mathgl/mgl32"

// seamEdge describes one chunk border in lattice terms. point maps a grid
// coordinate along the edge to interior (ix, iy); vertex maps a lattice
// position along the edge to its vertex index. endFirst orders the filler
// triangle so it faces away from the chunk.
type seamEdge struct {
	name     string
	point    func(t int) (int, int)
	vertex   func(k int) uint32
	endFirst bool
}

func seamEdges(width, n int) [4]seamEdge {
	last := uint32(n - 1)
	un := uint32(n)
	return [4]seamEdge{
		{
			name:     "south",
			point:    func(t int) (int, int) { return t, 0 },
			vertex:   func(k int) uint32 { return uint32(k) },
			endFirst: true,
		},
		{
			name:     "east",
			point:    func(t int) (int, int) { return width, t },
			vertex:   func(k int) uint32 { return uint32(k)*un + last },
			endFirst: true,
		},
		{
			name:     "north",
			point:    func(t int) (int, int) { return t, width },
			vertex:   func(k int) uint32 { return last*un + uint32(k) },
			endFirst: false,
		},
		{
			name:     "west",
			point:    func(t int) (int, int) { return 0, t },
			vertex:   func(k int) uint32 { return uint32(k) * un },
			endFirst: false,
		},
	}
}

// stitchSeams closes the cracks a coarse border leaves against a finer
// neighbour. For every strided border segment whose true midpoint lies
// below the straight edge, the midpoint becomes an extra vertex and a
// filler triangle spans begin, mid and end.
func stitchSeams(g *grid, normals []mgl32.Vec3, lattice []int, out *LodMesh) {
	n := len(lattice)
	for _, edge := range seamEdges(g.width, n) {
		for k := 0; k+1 < n; k++ {
			a, b := lattice[k], lattice[k+1]
			if b-a < 2 {
				continue
			}
			m := (a + b) / 2
			bx, by := edge.point(a)
			ex, ey := edge.point(b)
			mx, my := edge.point(m)
			hBegin := int(g.height(bx, by))
			hEnd := int(g.height(ex, ey))
			hMid := int(g.height(mx, my))
			if 2*hMid >= hBegin+hEnd {
				continue
			}
			mid := appendVertex(out, g, normals, mx, my)
			begin, end := edge.vertex(k), edge.vertex(k+1)
			if edge.endFirst {
				out.Indices = append(out.Indices, begin, end, mid)
			} else {
				out.Indices = append(out.Indices, begin, mid, end)
			}
		}
	}
}
