package game

import (
	"time"

	"terrainstream/internal/config"
)

// pausedFPS caps the frame rate while the viewer is paused.
const pausedFPS = 30

// FPSLimiter paces frames to the configured limit with a sleep then spin
// wait.
type FPSLimiter struct {
	next time.Time
}

// NewFPSLimiter creates a new FPS limiter
func NewFPSLimiter() *FPSLimiter {
	return &FPSLimiter{}
}

// Wait blocks until the next frame is due. A limit of zero disables pacing.
func (f *FPSLimiter) Wait(paused bool) {
	limit := config.GetFPSLimit()
	if paused && (limit == 0 || limit > pausedFPS) {
		limit = pausedFPS
	}
	if limit <= 0 {
		f.next = time.Time{}
		return
	}

	target := time.Second / time.Duration(limit)
	if f.next.IsZero() {
		f.next = time.Now().Add(target)
	} else {
		f.next = f.next.Add(target)
	}

	for {
		remaining := time.Until(f.next)
		if remaining <= 0 {
			break
		}
		if remaining > 200*time.Microsecond {
			time.Sleep(remaining - 200*time.Microsecond)
		}
	}

	// Resync after a hitch instead of racing to catch up.
	if late := -time.Until(f.next); late > target {
		f.next = time.Now().Add(target)
	}
}
