package ui

import (
	"strings"
	"testing"
	"time"

	"steprt/internal/asyncrt"
	"steprt/internal/host"
	"steprt/internal/scenario"
)

func TestModelStepsRuntimeOnFrames(t *testing.T) {
	rt := asyncrt.New(asyncrt.Config{})
	run, err := scenario.Start("race", scenario.Env{Runtime: rt, Tasks: 1})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	rec := host.NewRecording("race", 60)
	m, ok := NewRuntimeModel(Options{Runtime: rt, Run: run, Record: rec, Title: "race"}).(*runtimeModel)
	if !ok {
		t.Fatalf("unexpected model type")
	}

	start := time.Unix(100, 0)
	for i := 0; i < 10 && !m.done; i++ {
		m.Update(frameMsg(start.Add(time.Duration(i) * time.Second / 60)))
	}
	if !m.done || m.result.Reason != host.StopUntil {
		t.Fatalf("want run finished, got done=%v reason=%s", m.done, m.result.Reason)
	}
	// the first frame has no previous tick and steps with dt=0
	if m.result.Frames != 4 || rec.Len() != 4 || rec.Deltas()[0] != 0 {
		t.Fatalf("frames=%d recorded=%d", m.result.Frames, rec.Len())
	}
	view := m.View()
	if !strings.Contains(view, "done: race (until)") || !strings.Contains(view, "1/1 tasks done") {
		t.Fatalf("unexpected view:\n%s", view)
	}
}

func TestModelFrameLimitAndClamp(t *testing.T) {
	rt := asyncrt.New(asyncrt.Config{})
	m, _ := NewRuntimeModel(Options{Runtime: rt, Frames: 2, MaxDelta: 50 * time.Millisecond}).(*runtimeModel)

	start := time.Unix(0, 0)
	m.Update(frameMsg(start))
	m.Update(frameMsg(start.Add(time.Second)))
	if !m.done || m.result.Reason != host.StopFrames {
		t.Fatalf("done=%v reason=%s", m.done, m.result.Reason)
	}
	if rt.Now() != 50*time.Millisecond {
		t.Fatalf("want clamped clock 50ms, got %s", rt.Now())
	}
	// frames after finishing are ignored
	m.Update(frameMsg(start.Add(2 * time.Second)))
	if m.result.Frames != 2 {
		t.Fatalf("stepped after finish: %d frames", m.result.Frames)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{in: "short", width: 10, want: "short"},
		{in: "a long line here", width: 8, want: "a lon..."},
		{in: "abcdef", width: 2, want: "ab"},
		{in: "界界界界", width: 5, want: "界..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Fatalf("truncate(%q, %d): want %q, got %q", tt.in, tt.width, tt.want, got)
		}
	}
}
