package profiling

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Per-frame CPU time tracking. Background tessellation reports into the
// same totals, so a frame also shows what the workers spent meanwhile.

// Sample is the accumulated time and call count of one tracked name.
type Sample struct {
	Name  string
	Total time.Duration
	Calls int
}

var (
	mu     sync.Mutex
	frame  = make(map[string]*Sample)
	frames int
)

// Track returns a stop function that records the elapsed time under name.
// Usage: defer profiling.Track("world.Tick")()
func Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		mu.Lock()
		s, ok := frame[name]
		if !ok {
			s = &Sample{Name: name}
			frame[name] = s
		}
		s.Total += d
		s.Calls++
		mu.Unlock()
	}
}

// ResetFrame clears the current totals. Call at the start of each frame.
func ResetFrame() {
	mu.Lock()
	clear(frame)
	frames++
	mu.Unlock()
}

// Frames returns how many times ResetFrame has been called.
func Frames() int {
	mu.Lock()
	defer mu.Unlock()
	return frames
}

// Snapshot returns the current totals sorted by descending time, then name.
func Snapshot() []Sample {
	mu.Lock()
	out := make([]Sample, 0, len(frame))
	for _, s := range frame {
		out = append(out, *s)
	}
	mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TopN formats the n most expensive entries of the current frame.
// Example: "world.Tick:4.2ms, meshing.BuildLod:2.1ms(x3)"
func TopN(n int) string {
	list := Snapshot()
	n = min(n, len(list))
	parts := make([]string, 0, n)
	for _, s := range list[:n] {
		parts = append(parts, formatSample(s))
	}
	return strings.Join(parts, ", ")
}

func formatSample(s Sample) string {
	ms := float64(s.Total.Microseconds()) / 1000.0
	out := s.Name + ":" + formatMs(ms)
	if s.Calls > 1 {
		out += fmt.Sprintf("(x%d)", s.Calls)
	}
	return out
}

// formatMs keeps one decimal and drops a trailing ".0".
func formatMs(ms float64) string {
	return strings.TrimSuffix(fmt.Sprintf("%.1f", ms), ".0") + "ms"
}
