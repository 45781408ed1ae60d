package observ

import (
	"strings"
	"testing"
	"time"
)

func TestTimerReport(t *testing.T) {
	base := time.Unix(0, 0)
	clock := base
	tm := NewTimer()
	tm.now = func() time.Time { return clock }

	setup := tm.Begin("setup")
	clock = clock.Add(2 * time.Millisecond)
	tm.End(setup, "")
	loop := tm.Begin("loop")
	clock = clock.Add(500 * time.Microsecond)
	tm.End(loop, "4 frames")
	tm.End(99, "ignored")

	r := tm.Report()
	if len(r.Phases) != 2 || r.TotalMS != 2.5 {
		t.Fatalf("unexpected report: %+v", r)
	}
	if r.Phases[1].DurationMS != 0.5 || r.Phases[1].Note != "4 frames" {
		t.Fatalf("unexpected loop phase: %+v", r.Phases[1])
	}
	s := tm.Summary()
	for _, want := range []string{"setup", "2.000 ms", "// 4 frames", "total", "2.500 ms"} {
		if !strings.Contains(s, want) {
			t.Fatalf("summary missing %q:\n%s", want, s)
		}
	}
}

func TestEmptyTimer(t *testing.T) {
	r := NewTimer().Report()
	if len(r.Phases) != 0 || r.TotalMS != 0 {
		t.Fatalf("want empty report, got %+v", r)
	}
}
