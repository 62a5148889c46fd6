package world

import (
	"sort"
	"sync"

	"terrainstream/internal/profiling"
	"terrainstream/internal/terrain"
)

// ChunkStore manages the storage and retrieval of chunks. Lookups are safe
// from any goroutine; chunks themselves belong to the foreground.
type ChunkStore struct {
	chunks   map[terrain.ChunkCoord]*Chunk
	mu       sync.RWMutex
	modCount uint64 // bumped on every add and remove; World.Tick watches it
}

// NewChunkStore creates a new chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		chunks: make(map[terrain.ChunkCoord]*Chunk),
	}
}

// Get returns the chunk at coord, or nil.
func (cs *ChunkStore) Get(coord terrain.ChunkCoord) *Chunk {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.chunks[coord]
}

// HasChunk checks if a chunk exists.
func (cs *ChunkStore) HasChunk(coord terrain.ChunkCoord) bool {
	cs.mu.RLock()
	_, exists := cs.chunks[coord]
	cs.mu.RUnlock()
	return exists
}

// add stores a chunk. It returns false when the coordinate is taken.
func (cs *ChunkStore) add(chunk *Chunk) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if _, ok := cs.chunks[chunk.Coord]; ok {
		return false
	}
	cs.chunks[chunk.Coord] = chunk
	cs.modCount++
	return true
}

// remove drops and returns the chunk at coord.
func (cs *ChunkStore) remove(coord terrain.ChunkCoord) *Chunk {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	chunk, ok := cs.chunks[coord]
	if !ok {
		return nil
	}
	delete(cs.chunks, coord)
	cs.modCount++
	return chunk
}

// Len returns the number of stored chunks.
func (cs *ChunkStore) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.chunks)
}

// GetModCount returns the current modification count of the chunk map.
func (cs *ChunkStore) GetModCount() uint64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.modCount
}

// NeighbourhoodComplete reports whether coord and all 8 chunks around it
// are loaded.
func (cs *ChunkStore) NeighbourhoodComplete(coord terrain.ChunkCoord) bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	if _, ok := cs.chunks[coord]; !ok {
		return false
	}
	for _, off := range terrain.Neighbors {
		if _, ok := cs.chunks[coord.Add(off)]; !ok {
			return false
		}
	}
	return true
}

// Coords returns every stored coordinate sorted by Z, then X.
func (cs *ChunkStore) Coords() []terrain.ChunkCoord {
	cs.mu.RLock()
	out := make([]terrain.ChunkCoord, 0, len(cs.chunks))
	for coord := range cs.chunks {
		out = append(out, coord)
	}
	cs.mu.RUnlock()
	sortCoords(out)
	return out
}

// AppendCoordsOutsideRadius appends every stored coordinate farther than
// radius chunks from center into dst and returns the resulting slice.
func (cs *ChunkStore) AppendCoordsOutsideRadius(center terrain.ChunkCoord, radius int, dst []terrain.ChunkCoord) []terrain.ChunkCoord {
	defer profiling.Track("world.AppendCoordsOutsideRadius")()
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	for coord := range cs.chunks {
		dx := coord.X - center.X
		dz := coord.Z - center.Z
		if dx*dx+dz*dz > radius*radius {
			dst = append(dst, coord)
		}
	}
	return dst
}

func sortCoords(coords []terrain.ChunkCoord) {
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].Z != coords[j].Z {
			return coords[i].Z < coords[j].Z
		}
		return coords[i].X < coords[j].X
	})
}
