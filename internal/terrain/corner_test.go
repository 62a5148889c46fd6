package terrain

import (
	"errors"
	"testing"
)

func TestWeightToByteRoundsHalfUp(t *testing.T) {
	cases := []struct {
		in   float32
		want uint8
	}{
		{0, 0},
		{1, 255},
		{0.5, 128}, // 127.5 rounds up
		{-0.2, 0},
		{1.7, 255},
		{1.0 / 255, 1},
	}
	for _, c := range cases {
		if got := WeightToByte(c.in); got != c.want {
			t.Errorf("WeightToByte(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestSetWeightZeroRemovesEntry(t *testing.T) {
	c := NewCorner(10, 3)
	c.SetWeight(5, 0.5)
	if len(c.Weights) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(c.Weights))
	}
	c.SetWeight(3, 0)
	if len(c.Weights) != 1 || c.Weights[0].Type != 5 {
		t.Fatalf("expected only type 5 left, got %+v", c.Weights)
	}
	c.SetWeight(5, 0)
	if c.HasTerrain() {
		t.Fatalf("expected no terrain left, got %+v", c.Weights)
	}
	// Setting zero on an absent type never stores an entry.
	c.SetWeight(9, 0.001)
	if c.HasTerrain() {
		t.Fatalf("zero-rounded weight must not be stored, got %+v", c.Weights)
	}
}

func TestSetWeightOverwrites(t *testing.T) {
	c := NewCorner(0, 1)
	c.SetWeight(1, 0.25)
	if got := c.WeightByte(1); got != 64 {
		t.Fatalf("weight byte = %d, want 64", got)
	}
	if got := c.Weight(7); got != 0 {
		t.Fatalf("absent weight = %v, want 0", got)
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	c := NewCorner(4, 1)
	d := c.Clone()
	d.Weights[0].Weight = 7
	if c.Weights[0].Weight != 255 {
		t.Fatalf("clone shares weight storage with original")
	}
}

func TestOptionsValidate(t *testing.T) {
	ok := DefaultOptions()
	if err := ok.Validate(); err != nil {
		t.Fatalf("default options rejected: %v", err)
	}
	bad := []Options{
		{ChunkWidth: 1, SquareWidth: 1, HeightStep: 1},
		{ChunkWidth: 16, SquareWidth: 0, HeightStep: 1},
		{ChunkWidth: 16, SquareWidth: 1, HeightStep: -1},
	}
	for i, o := range bad {
		if err := o.Validate(); !errors.Is(err, ErrInvalidOptions) {
			t.Errorf("case %d: expected ErrInvalidOptions, got %v", i, err)
		}
	}
}

func TestMaxLod(t *testing.T) {
	cases := map[int]uint8{2: 1, 16: 4, 32: 5, 20: 5}
	for width, want := range cases {
		o := Options{ChunkWidth: width}
		if got := o.MaxLod(); got != want {
			t.Errorf("MaxLod(width=%d) = %d, want %d", width, got, want)
		}
	}
}

func TestZeroWeightEntriesCountAsAbsent(t *testing.T) {
	c := Corner{Height: 3, Weights: []TerrainWeight{{Type: 1, Weight: 0}, {Type: 4, Weight: 0}}}
	if c.HasTerrain() {
		t.Fatalf("corner with only zero weights reports terrain")
	}
	if d := c.Clone(); d.Weights != nil {
		t.Fatalf("clone kept zero entries: %+v", d.Weights)
	}

	c.Weights = append(c.Weights, TerrainWeight{Type: 2, Weight: 90})
	if !c.HasTerrain() {
		t.Fatalf("corner with a non-zero weight reports no terrain")
	}
	d := c.Clone()
	if len(d.Weights) != 1 || d.Weights[0] != (TerrainWeight{Type: 2, Weight: 90}) {
		t.Fatalf("clone = %+v, want only type 2", d.Weights)
	}
}
