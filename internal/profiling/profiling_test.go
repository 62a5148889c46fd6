package profiling

import (
	"strings"
	"testing"
	"time"
)

func TestTrackAccumulatesPerFrame(t *testing.T) {
	ResetFrame()
	for range 3 {
		Track("test.Loop")()
	}
	stop := Track("test.Slow")
	time.Sleep(2 * time.Millisecond)
	stop()

	snap := Snapshot()
	if len(snap) != 2 {
		t.Fatalf("got %d samples, want 2", len(snap))
	}
	if snap[0].Name != "test.Slow" {
		t.Fatalf("slowest sample is %q, want test.Slow", snap[0].Name)
	}
	if snap[1].Calls != 3 {
		t.Fatalf("test.Loop calls = %d, want 3", snap[1].Calls)
	}

	top := TopN(5)
	if !strings.HasPrefix(top, "test.Slow:") || !strings.Contains(top, "test.Loop:") || !strings.Contains(top, "(x3)") {
		t.Fatalf("unexpected report %q", top)
	}

	before := Frames()
	ResetFrame()
	if len(Snapshot()) != 0 || Frames() != before+1 {
		t.Fatalf("ResetFrame did not start a new frame")
	}
}

func TestFormatMs(t *testing.T) {
	cases := map[float64]string{
		0:     "0ms",
		4:     "4ms",
		4.24:  "4.2ms",
		12.76: "12.8ms",
	}
	for in, want := range cases {
		if got := formatMs(in); got != want {
			t.Errorf("formatMs(%v) = %q, want %q", in, got, want)
		}
	}
}
