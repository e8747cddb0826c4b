/*
 * Copyright 2025 SREDiag Authors
 * Copyright 2023 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package altview

import (
	"fmt"

	"github.com/srediag/vmm-altview/api"
)

// CurrentView returns the view the vcpu is bound to, or nil when unbound.
// A valid index out of table range is a binding-tracking bug, not a caller
// error.
func (g *Guest) CurrentView(v *VCPU) *View {
	idx := v.viewIndex
	if idx == InvalidView {
		return nil
	}
	if idx >= MaxViews {
		panic(fmt.Sprintf("altview: vcpu %d bound to view index %d, table capacity %d",
			v.id, idx, MaxViews))
	}
	return g.slots[idx]
}

// InitVCPU binds a freshly created vcpu to the safe-harbor view in slot 0,
// which guest setup must already have populated. The vcpu is paused for the
// duration: a vcpu is never initialized from its own context, so the pause
// gives the caller exclusive control of the binding.
func (g *Guest) InitVCPU(v *VCPU) {
	g.quiescer.Pause(v)

	v.viewIndex = 0
	view := g.CurrentView(v)
	if view == nil {
		panic("altview: InitVCPU with slot 0 unpopulated")
	}
	view.retain()

	g.quiescer.Resume(v)

	publishEvent(api.Event{Kind: api.EventVCPUBound, GuestID: g.id, ViewIndex: 0, VCPUID: v.id})
}

// DestroyVCPU drops a vcpu's binding when the vcpu is permanently torn down.
// Safe to call for an already-unbound vcpu. The vcpu is paused while the
// binding and its view's counter change; a vcpu tearing itself down is
// outside its guest-entry window, so the pause is immediate.
func (g *Guest) DestroyVCPU(v *VCPU) {
	g.quiescer.Pause(v)

	idx := v.viewIndex
	if view := g.CurrentView(v); view != nil {
		view.release()
	}
	v.viewIndex = InvalidView

	g.quiescer.Resume(v)

	if idx != InvalidView {
		publishEvent(api.Event{Kind: api.EventVCPUUnbound, GuestID: g.id, ViewIndex: idx, VCPUID: v.id})
	}
}

// SwitchGuestToView rebinds every vcpu of the guest to the view at idx. The
// guest is quiesced first, then the table lock taken, so no vcpu can observe
// a half-moved binding and the target slot cannot empty under us. The calling
// context is never one of the vcpus being switched: the subsystem is driven
// externally, so the caller's own translation state needs no migration here.
func (g *Guest) SwitchGuestToView(idx uint16) error {
	if idx >= MaxViews {
		return ErrInvalidIndex
	}

	g.quiescer.PauseAllExcept(g, nil)
	g.mu.Lock()

	if g.slots[idx] == nil {
		g.mu.Unlock()
		g.quiescer.ResumeAllExcept(g, nil)
		return ErrViewNotFound
	}

	moved := 0
	for _, v := range g.vcpus {
		if v.viewIndex == idx {
			continue
		}
		if old := g.CurrentView(v); old != nil {
			old.release()
		}
		v.viewIndex = idx
		g.slots[idx].retain()
		moved++
	}

	g.mu.Unlock()
	g.quiescer.ResumeAllExcept(g, nil)

	viewSwitches.Inc()
	internalLogger.debugf("guest %s switched %d vcpus to view %d", g.id, moved, idx)
	publishEvent(api.Event{Kind: api.EventGuestSwitched, GuestID: g.id, ViewIndex: idx})
	return nil
}
