package testkit

import (
	"strings"
	"testing"
	"time"

	"steprt/internal/asyncrt"
)

func TestInvariantsHoldAcrossSteps(t *testing.T) {
	rt := asyncrt.New(asyncrt.Config{})
	for i := range 4 {
		asyncrt.Spawn[struct{}](rt, rt.Delay(time.Duration(i)*10*time.Millisecond))
	}
	for range 5 {
		stats := rt.Step(10 * time.Millisecond)
		if err := CheckStepInvariants(stats, rt.Snapshot(), false); err != nil {
			t.Fatalf("%v", err)
		}
	}
	if !rt.Idle() {
		t.Fatalf("tasks left: %+v", rt.Snapshot())
	}
}

func TestBudgetedStepMayLeaveReadyTasks(t *testing.T) {
	rt := asyncrt.New(asyncrt.Config{PollBudget: 1})
	for range 3 {
		asyncrt.SpawnFunc(rt, func(*asyncrt.Context) asyncrt.Poll[int] { return asyncrt.Ready(0) })
	}
	stats := rt.Step(0)
	snap := rt.Snapshot()
	if err := CheckStepInvariants(stats, snap, true); err != nil {
		t.Fatalf("budgeted: %v", err)
	}
	err := CheckStepInvariants(stats, snap, false)
	if err == nil || !strings.Contains(err.Error(), "left ready") {
		t.Fatalf("want ready-queue violation, got %v", err)
	}
}

func TestDetectsMismatchedClock(t *testing.T) {
	stats := asyncrt.StepStats{Now: time.Second, Step: 1}
	snap := asyncrt.Snapshot{Now: 2 * time.Second, Steps: 1}
	if err := CheckStepInvariants(stats, snap, false); err == nil {
		t.Fatalf("want clock mismatch error")
	}
}
