package config

import (
	"runtime"
	"sync"
	"time"
)

// ViewSettings holds streaming and render configuration
type ViewSettings struct {
	mu               sync.RWMutex
	viewDistance     int     // in chunks
	lodDistanceStep  float64 // chunks per LOD level
	lodCacheCapacity int
	tickBudget       time.Duration
	workers          int
	fpsLimit         int
	prismOccluders   bool
}

var globalViewSettings = &ViewSettings{
	viewDistance:     8,
	lodDistanceStep:  2,
	lodCacheCapacity: 2,
	tickBudget:       time.Second / 120,
	workers:          max(runtime.NumCPU()-1, 1),
	fpsLimit:         144,
}

// GetViewDistance returns the view distance in chunks
func GetViewDistance() int {
	globalViewSettings.mu.RLock()
	defer globalViewSettings.mu.RUnlock()
	return globalViewSettings.viewDistance
}

// SetViewDistance sets the view distance in chunks
func SetViewDistance(distance int) {
	globalViewSettings.mu.Lock()
	defer globalViewSettings.mu.Unlock()
	globalViewSettings.viewDistance = min(max(distance, 1), 64)
}

// GetChunkLoadRadius returns radius for chunk loading. One extra ring keeps
// the edge of the view disc neighbour-complete.
func GetChunkLoadRadius() int {
	return GetViewDistance() + 1
}

// GetChunkEvictRadius returns radius for chunk eviction (larger than load radius)
func GetChunkEvictRadius() int {
	return GetViewDistance() * 2
}

// GetLodDistanceStep returns how many chunks of distance make one LOD level
func GetLodDistanceStep() float64 {
	globalViewSettings.mu.RLock()
	defer globalViewSettings.mu.RUnlock()
	return globalViewSettings.lodDistanceStep
}

// SetLodDistanceStep sets the distance per LOD level, at least half a chunk
func SetLodDistanceStep(step float64) {
	globalViewSettings.mu.Lock()
	defer globalViewSettings.mu.Unlock()
	globalViewSettings.lodDistanceStep = max(step, 0.5)
}

// GetLodCacheCapacity returns how many built LODs a chunk keeps
func GetLodCacheCapacity() int {
	globalViewSettings.mu.RLock()
	defer globalViewSettings.mu.RUnlock()
	return globalViewSettings.lodCacheCapacity
}

// SetLodCacheCapacity sets the per-chunk LOD cache size
func SetLodCacheCapacity(n int) {
	globalViewSettings.mu.Lock()
	defer globalViewSettings.mu.Unlock()
	globalViewSettings.lodCacheCapacity = min(max(n, 1), 8)
}

// GetTickBudget returns the time one tick may spend preparing chunks
func GetTickBudget() time.Duration {
	globalViewSettings.mu.RLock()
	defer globalViewSettings.mu.RUnlock()
	return globalViewSettings.tickBudget
}

// SetTickBudget sets the per-tick prepare budget
func SetTickBudget(d time.Duration) {
	globalViewSettings.mu.Lock()
	defer globalViewSettings.mu.Unlock()
	globalViewSettings.tickBudget = min(max(d, 100*time.Microsecond), 100*time.Millisecond)
}

// GetWorkers returns the number of tessellation workers
func GetWorkers() int {
	globalViewSettings.mu.RLock()
	defer globalViewSettings.mu.RUnlock()
	return globalViewSettings.workers
}

// SetWorkers sets the number of tessellation workers
func SetWorkers(n int) {
	globalViewSettings.mu.Lock()
	defer globalViewSettings.mu.Unlock()
	globalViewSettings.workers = min(max(n, 1), 64)
}

// GetFPSLimit returns the frame cap, 0 means unlimited
func GetFPSLimit() int {
	globalViewSettings.mu.RLock()
	defer globalViewSettings.mu.RUnlock()
	return globalViewSettings.fpsLimit
}

// SetFPSLimit sets the frame cap, 0 means unlimited
func SetFPSLimit(fps int) {
	globalViewSettings.mu.Lock()
	defer globalViewSettings.mu.Unlock()
	globalViewSettings.fpsLimit = max(fps, 0)
}

// GetPrismOccluders reports whether occluders are built as corner prisms
func GetPrismOccluders() bool {
	globalViewSettings.mu.RLock()
	defer globalViewSettings.mu.RUnlock()
	return globalViewSettings.prismOccluders
}

// SetPrismOccluders selects prism occluders instead of the coarse lattice
func SetPrismOccluders(enabled bool) {
	globalViewSettings.mu.Lock()
	defer globalViewSettings.mu.Unlock()
	globalViewSettings.prismOccluders = enabled
}
