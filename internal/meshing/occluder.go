package meshing

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// prismDepth is how far below the lowered corners the prism floor sits,
// in chunk widths.
const prismDepth = 1.0

// occluderStep is the fixed coarse stride of the lattice occluder.
func occluderStep(width int) int {
	return max(width/4, 1)
}

func buildOccluder(g *grid, mode OccluderMode, renderStep int) *Occluder {
	if mode == OccluderPrism {
		if renderStep >= g.width {
			return nil
		}
		return prismOccluder(g, renderStep)
	}
	step := occluderStep(g.width)
	if step <= renderStep {
		return nil
	}
	return latticeOccluder(g, step, renderStep)
}

func latticeOccluder(g *grid, step, renderStep int) *Occluder {
	occ := latticeCoords(g.width, step)
	render := latticeCoords(g.width, renderStep)
	margin := dipMargin(g, func(ix, iy int) float32 { return surfaceHeight(g, occ, ix, iy) }, render)

	n := len(occ)
	o := &Occluder{
		Vertices: make([]mgl32.Vec3, 0, n*n),
		Indices:  make([]uint32, 0, (n-1)*(n-1)*6),
	}
	for _, iy := range occ {
		for _, ix := range occ {
			p := g.position(ix, iy)
			p[1] -= margin
			o.Vertices = append(o.Vertices, p)
		}
	}
	for qy := 0; qy+1 < n; qy++ {
		for qx := 0; qx+1 < n; qx++ {
			sw := uint32(qy*n + qx)
			se, nw := sw+1, sw+uint32(n)
			ne := nw + 1
			x0, x1 := occ[qx], occ[qx+1]
			y0, y1 := occ[qy], occ[qy+1]
			if ChooseDiagonal(g.height(x0, y0), g.height(x0, y1), g.height(x1, y1), g.height(x1, y0)) == DiagonalSWNE {
				o.Indices = append(o.Indices, sw, ne, se, sw, nw, ne)
			} else {
				o.Indices = append(o.Indices, sw, nw, se, nw, ne, se)
			}
		}
	}
	return o
}

func prismOccluder(g *grid, renderStep int) *Occluder {
	w := g.width
	corners := latticeCoords(w, w)
	margin := dipMargin(g, func(ix, iy int) float32 { return surfaceHeight(g, corners, ix, iy) }, latticeCoords(w, renderStep))

	depth := float32(w) * (g.pos[1].X() - g.pos[0].X()) * prismDepth
	top := [4]mgl32.Vec3{g.position(0, 0), g.position(w, 0), g.position(0, w), g.position(w, w)}
	o := &Occluder{Vertices: make([]mgl32.Vec3, 0, 8)}
	for _, p := range top {
		p[1] -= margin
		o.Vertices = append(o.Vertices, p)
	}
	for _, p := range top {
		p[1] -= margin + depth
		o.Vertices = append(o.Vertices, p)
	}
	// 0 sw, 1 se, 2 nw, 3 ne; +4 below.
	if ChooseDiagonal(g.height(0, 0), g.height(0, w), g.height(w, w), g.height(w, 0)) == DiagonalSWNE {
		o.Indices = []uint32{0, 3, 1, 0, 2, 3}
	} else {
		o.Indices = []uint32{0, 2, 1, 2, 3, 1}
	}
	o.Indices = append(o.Indices,
		0, 1, 5, 0, 5, 4, // south
		1, 3, 7, 1, 7, 5, // east
		3, 2, 6, 3, 6, 7, // north
		2, 0, 4, 2, 4, 6, // west
	)
	return o
}

// dipMargin returns how far the rendered surface dips below the occluder
// surface at worst, sampled at every interior grid point. Never negative.
func dipMargin(g *grid, occluderAt func(ix, iy int) float32, render []int) float32 {
	var margin float32
	for iy := 0; iy <= g.width; iy++ {
		for ix := 0; ix <= g.width; ix++ {
			d := occluderAt(ix, iy) - surfaceHeight(g, render, ix, iy)
			margin = max(margin, d)
		}
	}
	return margin
}

// surfaceHeight evaluates the triangulated surface a lattice produces at an
// interior grid point, honouring the diagonal each quad was split along.
func surfaceHeight(g *grid, lattice []int, ix, iy int) float32 {
	qx := cellOf(lattice, ix)
	qy := cellOf(lattice, iy)
	x0, x1 := lattice[qx], lattice[qx+1]
	y0, y1 := lattice[qy], lattice[qy+1]
	fx := float32(ix-x0) / float32(x1-x0)
	fy := float32(iy-y0) / float32(y1-y0)

	hsw := g.position(x0, y0).Y()
	hse := g.position(x1, y0).Y()
	hnw := g.position(x0, y1).Y()
	hne := g.position(x1, y1).Y()

	if ChooseDiagonal(g.height(x0, y0), g.height(x0, y1), g.height(x1, y1), g.height(x1, y0)) == DiagonalSWNE {
		if fx >= fy {
			return hsw + fx*(hse-hsw) + fy*(hne-hse)
		}
		return hsw + fy*(hnw-hsw) + fx*(hne-hnw)
	}
	if fx+fy <= 1 {
		return hsw + fx*(hse-hsw) + fy*(hnw-hsw)
	}
	return hne + (1-fx)*(hnw-hne) + (1-fy)*(hse-hne)
}

// cellOf returns the lattice cell index containing c.
func cellOf(lattice []int, c int) int {
	i := sort.SearchInts(lattice, c+1) - 1
	return min(max(i, 0), len(lattice)-2)
}
