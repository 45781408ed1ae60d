// Package testkit holds assertions shared by the runtime's tests.
package testkit

import (
	"fmt"

	"steprt/internal/asyncrt"
)

// CheckStepInvariants verifies what must hold right after a Step returns:
//  1. the clock in the stats matches the runtime clock;
//  2. every poll ended in exactly one of complete, fail or park, so
//     Completed+Failed never exceeds Polls;
//  3. without a poll budget the ready queue is empty;
//  4. no timer that is already due is still registered;
//  5. no wake is left pending unless the step hit its poll budget.
func CheckStepInvariants(stats asyncrt.StepStats, snap asyncrt.Snapshot, budgeted bool) error {
	if stats.Skipped {
		return nil
	}
	if stats.Now != snap.Now {
		return fmt.Errorf("step reported now=%s, runtime is at %s", stats.Now, snap.Now)
	}
	if stats.Step != snap.Steps {
		return fmt.Errorf("step reported step=%d, runtime counted %d", stats.Step, snap.Steps)
	}
	if stats.Completed+stats.Failed > stats.Polls {
		return fmt.Errorf("%d completed + %d failed exceeds %d polls", stats.Completed, stats.Failed, stats.Polls)
	}
	if !budgeted && snap.Ready != 0 {
		return fmt.Errorf("%d tasks left ready after an unbudgeted step", snap.Ready)
	}
	if snap.HasDeadline && snap.NextDeadline <= snap.Now {
		return fmt.Errorf("due timer at %s left registered at %s", snap.NextDeadline, snap.Now)
	}
	if !budgeted && snap.PendingWakes != 0 {
		return fmt.Errorf("%d wakes left pending after an unbudgeted step", snap.PendingWakes)
	}
	if stats.Parked != snap.Parked {
		return fmt.Errorf("step reported %d parked, runtime has %d", stats.Parked, snap.Parked)
	}
	return nil
}
