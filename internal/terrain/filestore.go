package terrain

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LoadCorners returns the generated corner grid of a chunk. It never fails.
func (g *Generator) LoadCorners(coord ChunkCoord) ([]Corner, error) {
	return g.Corners(coord), nil
}

// FileStore persists corner grids as one file per chunk. Chunks without a
// file are taken from Fallback and written back, when Fallback is set.
type FileStore struct {
	Dir      string
	Width    int
	Fallback *Generator
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string, width int, fallback *Generator) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create corner store: %w", err)
	}
	return &FileStore{Dir: dir, Width: width, Fallback: fallback}, nil
}

func (s *FileStore) path(coord ChunkCoord) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%d_%d.corners", coord.X, coord.Z))
}

// LoadCorners reads a chunk's corners, falling back to the generator.
func (s *FileStore) LoadCorners(coord ChunkCoord) ([]Corner, error) {
	f, err := os.Open(s.path(coord))
	if errors.Is(err, fs.ErrNotExist) && s.Fallback != nil {
		corners := s.Fallback.Corners(coord)
		if err := s.Save(coord, corners); err != nil {
			return nil, err
		}
		return corners, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load chunk %v: %w", coord, err)
	}
	defer f.Close()

	corners, err := DecodeCorners(f, s.Width*s.Width)
	if err != nil {
		return nil, fmt.Errorf("load chunk %v: %w", coord, err)
	}
	return corners, nil
}

// Save writes a chunk's corners. The file is replaced atomically.
func (s *FileStore) Save(coord ChunkCoord, corners []Corner) error {
	if len(corners) != s.Width*s.Width {
		return fmt.Errorf("save chunk %v: %d corners, want %d", coord, len(corners), s.Width*s.Width)
	}
	tmp, err := os.CreateTemp(s.Dir, "chunk-*.tmp")
	if err != nil {
		return fmt.Errorf("save chunk %v: %w", coord, err)
	}
	defer os.Remove(tmp.Name())

	if err := EncodeCorners(tmp, corners); err != nil {
		tmp.Close()
		return fmt.Errorf("save chunk %v: %w", coord, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save chunk %v: %w", coord, err)
	}
	if err := os.Rename(tmp.Name(), s.path(coord)); err != nil {
		return fmt.Errorf("save chunk %v: %w", coord, err)
	}
	return nil
}
