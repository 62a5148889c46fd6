package world

import (
	"errors"
	"log"
	"sync"

	"terrainstream/internal/profiling"
	"terrainstream/internal/terrain"
)

// CornerSource produces the corner grid of a chunk. It is called from
// background goroutines.
type CornerSource interface {
	LoadCorners(coord terrain.ChunkCoord) ([]terrain.Corner, error)
}

type loadedChunk struct {
	coord   terrain.ChunkCoord
	corners []terrain.Corner
	err     error
}

// ChunkStreamer loads chunks around the viewer in the background and hands
// them to the world on the foreground.
type ChunkStreamer struct {
	jobs       chan terrain.ChunkCoord
	results    chan loadedChunk
	done       chan struct{}
	wg         sync.WaitGroup
	pending    map[terrain.ChunkCoord]struct{}
	pendingMu  sync.Mutex
	maxPending int

	maxJobsPerCall int

	// Dependencies
	store *ChunkStore
	src   CornerSource
}

// NewChunkStreamer creates a new chunk streamer with the given number of
// loader goroutines.
func NewChunkStreamer(store *ChunkStore, src CornerSource, workers int) *ChunkStreamer {
	cs := &ChunkStreamer{
		jobs:           make(chan terrain.ChunkCoord, 1024),
		results:        make(chan loadedChunk, 256),
		done:           make(chan struct{}),
		pending:        make(map[terrain.ChunkCoord]struct{}),
		maxJobsPerCall: 256,
		maxPending:     2048,
		store:          store,
		src:            src,
	}

	for range max(workers, 1) {
		cs.wg.Add(1)
		go cs.worker()
	}

	return cs
}

// Close stops the loader goroutines. Chunks loaded but not pumped are dropped.
func (cs *ChunkStreamer) Close() {
	close(cs.done)
	close(cs.jobs)
	cs.wg.Wait()
}

func (cs *ChunkStreamer) worker() {
	defer cs.wg.Done()
	for coord := range cs.jobs {
		select {
		case <-cs.done:
			return
		default:
		}
		if cs.store.HasChunk(coord) {
			cs.clearPending(coord)
			continue
		}
		corners, err := cs.src.LoadCorners(coord)
		select {
		case cs.results <- loadedChunk{coord: coord, corners: corners, err: err}:
		case <-cs.done:
			return
		}
	}
}

func (cs *ChunkStreamer) clearPending(coord terrain.ChunkCoord) {
	cs.pendingMu.Lock()
	delete(cs.pending, coord)
	cs.pendingMu.Unlock()
}

// Pending returns the number of chunks queued or loaded but not yet pumped.
func (cs *ChunkStreamer) Pending() int {
	cs.pendingMu.Lock()
	defer cs.pendingMu.Unlock()
	return len(cs.pending)
}

// Pump adds up to limit loaded chunks to w. It never blocks and returns
// the number of chunks added.
func (cs *ChunkStreamer) Pump(w *World, limit int) int {
	defer profiling.Track("world.ChunkStreamer.Pump")()
	added := 0
	for added < limit {
		select {
		case res := <-cs.results:
			cs.clearPending(res.coord)
			if res.err != nil {
				log.Printf("chunk %v: %v", res.coord, res.err)
				continue
			}
			if err := w.AddChunk(res.coord, res.corners); err != nil {
				if !errors.Is(err, ErrChunkExists) {
					log.Printf("chunk %v rejected: %v", res.coord, err)
				}
				continue
			}
			added++
		default:
			return added
		}
	}
	return added
}

// StreamAround queues the chunks within radius of center in rings, nearest
// ring first.
func (cs *ChunkStreamer) StreamAround(center terrain.ChunkCoord, radius int) {
	defer profiling.Track("world.ChunkStreamer.StreamAround")()
	cx, cz := center.X, center.Z

	jobsPushed := 0

	for r := 0; r <= radius; r++ {
		if jobsPushed >= cs.maxJobsPerCall {
			break
		}

		if r == 0 {
			if cs.request(center) {
				jobsPushed++
			}
			continue
		}

		x0 := cx - r
		x1 := cx + r
		z0 := cz - r
		z1 := cz + r

		ring := make([]terrain.ChunkCoord, 0, 8*r)
		for xk := x0; xk <= x1; xk++ {
			ring = append(ring, terrain.ChunkCoord{X: xk, Z: z0})
		}
		for zk := z0 + 1; zk <= z1-1; zk++ {
			ring = append(ring, terrain.ChunkCoord{X: x1, Z: zk})
		}
		for xk := x1; xk >= x0; xk-- {
			ring = append(ring, terrain.ChunkCoord{X: xk, Z: z1})
		}
		for zk := z1 - 1; zk >= z0+1; zk-- {
			ring = append(ring, terrain.ChunkCoord{X: x0, Z: zk})
		}
		for _, coord := range ring {
			if cs.request(coord) {
				jobsPushed++
			}
			if jobsPushed >= cs.maxJobsPerCall {
				return
			}
		}
	}
}

// request respects the pending cap and returns true if enqueued.
func (cs *ChunkStreamer) request(coord terrain.ChunkCoord) bool {
	if cs.store.HasChunk(coord) {
		return false
	}

	cs.pendingMu.Lock()
	if _, ok := cs.pending[coord]; ok {
		cs.pendingMu.Unlock()
		return false
	}
	if cs.maxPending > 0 && len(cs.pending) >= cs.maxPending {
		cs.pendingMu.Unlock()
		return false
	}
	cs.pending[coord] = struct{}{}
	cs.pendingMu.Unlock()

	select {
	case cs.jobs <- coord:
		return true
	default:
		// queue full: rollback
		cs.clearPending(coord)
		return false
	}
}

// EvictFarChunks removes chunks farther than radius from center and returns
// how many were removed.
func (cs *ChunkStreamer) EvictFarChunks(w *World, center terrain.ChunkCoord, radius int) int {
	defer profiling.Track("world.ChunkStreamer.EvictFarChunks")()
	removed := 0
	for _, coord := range w.Store().AppendCoordsOutsideRadius(center, radius, nil) {
		if err := w.RemoveChunk(coord); err == nil {
			removed++
		}
	}
	return removed
}
