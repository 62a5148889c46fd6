package terrain

import (
	"errors"
	"os"
	"reflect"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	corners := []Corner{NewCorner(1, 0), NewCorner(2, 1), NewCorner(3, 2), NewCorner(65535, 3)}
	corners[1].SetWeight(4, 0.5)
	coord := ChunkCoord{X: -3, Z: 7}
	if err := s.Save(coord, corners); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.LoadCorners(coord)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, corners) {
		t.Fatalf("loaded %v, want %v", got, corners)
	}
}

func TestFileStoreFallsBackToGenerator(t *testing.T) {
	dir := t.TempDir()
	gen := NewGenerator(3, 4)
	s, err := NewFileStore(dir, 4, gen)
	if err != nil {
		t.Fatal(err)
	}
	coord := ChunkCoord{X: 1, Z: 2}
	got, err := s.LoadCorners(coord)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, gen.Corners(coord)) {
		t.Fatalf("fallback corners differ from the generator")
	}
	if _, err := os.Stat(s.path(coord)); err != nil {
		t.Fatalf("generated chunk was not written back: %v", err)
	}
}

func TestFileStoreTruncatedFile(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	coord := ChunkCoord{}
	if err := os.WriteFile(s.path(coord), []byte{1, 0, 1, 0}, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadCorners(coord); !errors.Is(err, ErrShortData) {
		t.Fatalf("got %v, want ErrShortData", err)
	}
	if _, err := s.LoadCorners(ChunkCoord{X: 9}); err == nil {
		t.Fatalf("missing chunk without fallback must fail")
	}
}
