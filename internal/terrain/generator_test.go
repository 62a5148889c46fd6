package terrain

import "testing"

// TestHash2Deterministic verifies hash2 produces identical results for same inputs
func TestHash2Deterministic(t *testing.T) {
	first := hash2(10, 20, 42)
	for i := 0; i < 100; i++ {
		if h := hash2(10, 20, 42); h != first {
			t.Fatalf("hash2 not deterministic: %d != %d", h, first)
		}
	}
	if hash2(1, 2, 42) == hash2(2, 1, 42) {
		t.Errorf("hash2 should not be symmetric in x and z")
	}
	if hash2(1, 1, 100) == hash2(1, 1, 200) {
		t.Errorf("hash2 should differ for different seeds")
	}
}

func TestValueNoiseRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		x := float64(i) * 0.37
		z := float64(i) * -1.13
		v := octaveNoise2D(x, z, 5, 4, 0.5, 2)
		if v < 0 || v > 1 {
			t.Fatalf("noise out of range at (%v,%v): %v", x, z, v)
		}
	}
}

func TestGeneratorCornersValid(t *testing.T) {
	g := NewGenerator(3, 16)
	corners := g.Corners(ChunkCoord{X: -4, Z: 9})
	if len(corners) != 16*16 {
		t.Fatalf("got %d corners, want 256", len(corners))
	}
	for i, c := range corners {
		if !c.HasTerrain() {
			t.Fatalf("corner %d has no terrain type", i)
		}
		for _, tw := range c.Weights {
			if tw.Weight == 0 {
				t.Fatalf("corner %d stores a zero weight", i)
			}
		}
	}
}

func TestGeneratorContinuousAcrossChunks(t *testing.T) {
	g := NewGenerator(99, 8)
	a := g.Corners(ChunkCoord{X: 0, Z: 0})
	// The east neighbour's first column continues the same field.
	for row := 0; row < 8; row++ {
		want := g.HeightAt(8, int64(row))
		b := g.Corners(ChunkCoord{X: 1, Z: 0})
		if b[row*8].Height != want {
			t.Fatalf("row %d: neighbour height %d, want %d", row, b[row*8].Height, want)
		}
		if a[row*8].Height != g.HeightAt(0, int64(row)) {
			t.Fatalf("row %d: height mismatch in origin chunk", row)
		}
	}
}
