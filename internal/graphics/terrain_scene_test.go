package graphics

import (
	"reflect"
	"testing"

	"terrainstream/internal/meshing"
	"terrainstream/internal/terrain"

	"github.com/go-gl/mathgl/mgl32"
)

func TestOccluderVerticesArePacked(t *testing.T) {
	o := &meshing.Occluder{
		Vertices: []mgl32.Vec3{{1, 2, 3}, {-4, 5, -6}},
		Indices:  []uint32{0, 1, 0},
	}
	want := []float32{1, 2, 3, -4, 5, -6}
	if got := occluderVertices(o); !reflect.DeepEqual(got, want) {
		t.Fatalf("packed = %v, want %v", got, want)
	}
}

func TestBuiltOccluderUploadsAsTriangles(t *testing.T) {
	opts := terrain.DefaultOptions()
	opts.ChunkWidth = 8
	side := opts.ChunkWidth + 3
	corners := make([]terrain.Corner, side*side)
	for i := range corners {
		corners[i] = terrain.NewCorner(uint16(100+i%7), 0)
	}
	mesh := meshing.BuildLod(&meshing.LodJob{
		Corners:    corners,
		BaseHeight: 100,
		Options:    opts,
		Occluder:   meshing.OccluderPrism,
	})
	if mesh.Occluder == nil {
		t.Fatalf("prism occluder not built")
	}
	verts := occluderVertices(mesh.Occluder)
	if len(verts) != 3*len(mesh.Occluder.Vertices) {
		t.Fatalf("%d floats for %d vertices", len(verts), len(mesh.Occluder.Vertices))
	}
	if len(mesh.Occluder.Indices)%3 != 0 {
		t.Fatalf("occluder indices are not triangles")
	}
	for _, i := range mesh.Occluder.Indices {
		if int(i) >= len(mesh.Occluder.Vertices) {
			t.Fatalf("index %d out of range", i)
		}
	}
}

func TestOccluderShaderIsEmbedded(t *testing.T) {
	for _, name := range []string{"shaders/occluder.vert", "shaders/occluder.frag"} {
		if _, err := shaderFS.ReadFile(name); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}
}
