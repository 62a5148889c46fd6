package meshing

import (
	"reflect"
	"testing"

	"terrainstream/internal/terrain"
)

func paint(job *LodJob, width, ix, iy int, ttype uint8) {
	job.Corners[interior(width, ix, iy)] = terrain.NewCorner(job.Corners[interior(width, ix, iy)].Height, ttype)
}

func pixel(mesh *LodMesh, ix, iy int) [4]uint8 {
	off := mesh.BlendImage.PixOffset(ix, iy)
	var px [4]uint8
	copy(px[:], mesh.BlendImage.Pix[off:off+4])
	return px
}

func TestBlendDropsLightestType(t *testing.T) {
	const width = 4
	job := flatJob(width, 0, 10)
	// Type 0 covers the rest; totals are 1: 3, 2: 3, 3: 2, 4: 1 corners.
	paint(job, width, 0, 1, 1)
	paint(job, width, 1, 1, 1)
	paint(job, width, 2, 1, 1)
	paint(job, width, 0, 2, 2)
	paint(job, width, 1, 2, 2)
	paint(job, width, 2, 2, 2)
	paint(job, width, 0, 3, 3)
	paint(job, width, 1, 3, 3)
	paint(job, width, 4, 4, 4)

	mesh := BuildLod(job)
	if mesh.SingleTexture {
		t.Fatalf("multi-type chunk took the single texture path")
	}
	if want := []uint8{0, 1, 2, 3}; !reflect.DeepEqual(mesh.UsedTypes, want) {
		t.Fatalf("used types = %v, want %v", mesh.UsedTypes, want)
	}
	if b := mesh.BlendImage.Bounds(); b.Dx() != width+1 || b.Dy() != width+1 {
		t.Fatalf("blend image is %dx%d, want %dx%d", b.Dx(), b.Dy(), width+1, width+1)
	}
	cases := []struct {
		ix, iy int
		want   [4]uint8
	}{
		{0, 0, [4]uint8{255, 0, 0, 0}},
		{1, 1, [4]uint8{0, 255, 0, 0}},
		{2, 2, [4]uint8{0, 0, 255, 0}},
		{0, 3, [4]uint8{0, 0, 0, 255}},
		// Only the dropped type: falls back to the first channel.
		{4, 4, [4]uint8{255, 0, 0, 0}},
	}
	for _, c := range cases {
		if got := pixel(mesh, c.ix, c.iy); got != c.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", c.ix, c.iy, got, c.want)
		}
	}
}

func TestBlendNormalizesKeptWeights(t *testing.T) {
	const width = 2
	job := flatJob(width, 0, 10)
	c := &job.Corners[interior(width, 1, 1)]
	*c = terrain.Corner{Height: 10}
	c.SetWeight(0, 0.25)
	c.SetWeight(2, 0.25)

	mesh := BuildLod(job)
	if want := []uint8{0, 2}; !reflect.DeepEqual(mesh.UsedTypes, want) {
		t.Fatalf("used types = %v, want %v", mesh.UsedTypes, want)
	}
	if got, want := pixel(mesh, 1, 1), [4]uint8{128, 128, 0, 0}; got != want {
		t.Fatalf("mixed pixel = %v, want %v", got, want)
	}
	if got, want := pixel(mesh, 0, 0), [4]uint8{255, 0, 0, 0}; got != want {
		t.Fatalf("pure pixel = %v, want %v", got, want)
	}
}

func TestSelectBlendTypesTieBreak(t *testing.T) {
	present := []uint8{0, 1, 2, 3, 4}
	totals := make([]uint32, 256)
	for _, p := range present {
		totals[p] = 100
	}
	if got, want := selectBlendTypes(present, totals), []uint8{0, 1, 2, 3}; !reflect.DeepEqual(got, want) {
		t.Fatalf("equal totals: got %v, want %v", got, want)
	}
	totals[0] = 10
	if got, want := selectBlendTypes(present, totals), []uint8{1, 2, 3, 4}; !reflect.DeepEqual(got, want) {
		t.Fatalf("light type 0: got %v, want %v", got, want)
	}
}

func TestBlendImageSkippedWhenNotRequested(t *testing.T) {
	const width = 4
	job := flatJob(width, 0, 10)
	paint(job, width, 2, 2, 3)
	job.CalculateBlendImage = false

	mesh := BuildLod(job)
	if mesh.SingleTexture {
		t.Fatalf("multi-type chunk took the single texture path")
	}
	if mesh.UsedTypes != nil || mesh.BlendImage != nil {
		t.Fatalf("blend output computed although not requested: %v", mesh.UsedTypes)
	}
	last := mesh.Vertices[len(mesh.Vertices)-VertexStride:]
	if last[6] != 1 || last[7] != 1 {
		t.Fatalf("blended uv = (%v,%v), want (1,1)", last[6], last[7])
	}
}

func TestSingleTypeKeepsItsId(t *testing.T) {
	const width = 4
	job := flatJob(width, 0, 10)
	for iy := 0; iy <= width; iy++ {
		for ix := 0; ix <= width; ix++ {
			paint(job, width, ix, iy, 3)
		}
	}
	mesh := BuildLod(job)
	if !mesh.SingleTexture || !reflect.DeepEqual(mesh.UsedTypes, []uint8{3}) {
		t.Fatalf("got single=%v types=%v, want single type 3", mesh.SingleTexture, mesh.UsedTypes)
	}
}
