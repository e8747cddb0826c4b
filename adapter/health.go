// Package adapter integrates the alternate-view manager with external
// monitoring and control-plane systems.
package adapter

import (
	"fmt"

	"github.com/heptiolabs/healthcheck"

	"github.com/srediag/vmm-altview/altview"
)

// NewHealthHandler returns an HTTP health handler over every registered
// guest. The liveness check verifies the binding-sum invariant (each view's
// active-bindings counter equals the number of vcpus bound to it); it
// quiesces each guest briefly, so probe intervals should stay coarse.
func NewHealthHandler() healthcheck.Handler {
	h := healthcheck.NewHandler()

	h.AddLivenessCheck("binding-counters", func() error {
		var firstErr error
		altview.RangeGuests(func(g *altview.Guest) {
			if firstErr != nil {
				return
			}
			firstErr = g.CheckBindings()
		})
		return firstErr
	})

	// An active guest must have its safe-harbor view in slot 0; switching is
	// meaningless without it. Activation does not enforce this, so a control
	// plane that activates before allocating shows up here.
	h.AddReadinessCheck("safe-harbor", func() error {
		var firstErr error
		altview.RangeGuests(func(g *altview.Guest) {
			if firstErr != nil || !g.IsActive() {
				return
			}
			if g.Lookup(0) == nil {
				firstErr = fmt.Errorf("guest %s: active without a safe-harbor view", g.ID())
			}
		})
		return firstErr
	})

	return h
}
