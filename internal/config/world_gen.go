package config

import "sync"

// WorldGenSettings holds procedural terrain configuration
type WorldGenSettings struct {
	mu        sync.RWMutex
	seed      int64
	minHeight int     // in height steps
	amplitude float64 // in height steps
}

var globalWorldGenSettings = &WorldGenSettings{
	seed:      1337,
	minHeight: 200,
	amplitude: 600,
}

// GetSeed returns the terrain seed
func GetSeed() int64 {
	globalWorldGenSettings.mu.RLock()
	defer globalWorldGenSettings.mu.RUnlock()
	return globalWorldGenSettings.seed
}

// SetSeed sets the terrain seed
func SetSeed(seed int64) {
	globalWorldGenSettings.mu.Lock()
	defer globalWorldGenSettings.mu.Unlock()
	globalWorldGenSettings.seed = seed
}

// GetMinHeight returns the lowest generated height in steps
func GetMinHeight() int {
	globalWorldGenSettings.mu.RLock()
	defer globalWorldGenSettings.mu.RUnlock()
	return globalWorldGenSettings.minHeight
}

// SetMinHeight sets the lowest generated height, clamped to the height range
func SetMinHeight(h int) {
	globalWorldGenSettings.mu.Lock()
	defer globalWorldGenSettings.mu.Unlock()
	globalWorldGenSettings.minHeight = min(max(h, 0), 60000)
}

// GetAmplitude returns the generated height range in steps
func GetAmplitude() float64 {
	globalWorldGenSettings.mu.RLock()
	defer globalWorldGenSettings.mu.RUnlock()
	return globalWorldGenSettings.amplitude
}

// SetAmplitude sets the generated height range in steps
func SetAmplitude(a float64) {
	globalWorldGenSettings.mu.Lock()
	defer globalWorldGenSettings.mu.Unlock()
	globalWorldGenSettings.amplitude = min(max(a, 0), 5000)
}
