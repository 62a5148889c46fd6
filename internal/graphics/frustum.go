package graphics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type plane struct {
	a, b, c, d float32
}

// Frustum holds the six clip planes of a projection*view matrix in the
// order left, right, bottom, top, near, far. Normals point inwards.
type Frustum [6]plane

// NewFrustum extracts the planes of clip = projection * view.
func NewFrustum(clip mgl32.Mat4) Frustum {
	row := func(i int) plane {
		// mgl32 matrices are column-major.
		return plane{clip[i], clip[4+i], clip[8+i], clip[12+i]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)
	add := func(p, q plane) plane { return plane{p.a + q.a, p.b + q.b, p.c + q.c, p.d + q.d} }
	sub := func(p, q plane) plane { return plane{p.a - q.a, p.b - q.b, p.c - q.c, p.d - q.d} }
	return Frustum{
		normalizePlane(add(r3, r0)),
		normalizePlane(sub(r3, r0)),
		normalizePlane(add(r3, r1)),
		normalizePlane(sub(r3, r1)),
		normalizePlane(add(r3, r2)),
		normalizePlane(sub(r3, r2)),
	}
}

func normalizePlane(p plane) plane {
	l := float32(math.Sqrt(float64(p.a*p.a + p.b*p.b + p.c*p.c)))
	if l == 0 {
		return p
	}
	return plane{p.a / l, p.b / l, p.c / l, p.d / l}
}

// IntersectsAABB reports whether the box is at least partly inside. The
// test is conservative: boxes near a frustum corner may pass.
func (f *Frustum) IntersectsAABB(lo, hi mgl32.Vec3) bool {
	for _, p := range f {
		// Positive vertex: the box corner farthest along the plane normal.
		px, py, pz := hi.X(), hi.Y(), hi.Z()
		if p.a < 0 {
			px = lo.X()
		}
		if p.b < 0 {
			py = lo.Y()
		}
		if p.c < 0 {
			pz = lo.Z()
		}
		if p.a*px+p.b*py+p.c*pz+p.d < 0 {
			return false
		}
	}
	return true
}
