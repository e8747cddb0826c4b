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

// allocateSlotLocked allocates, initializes and installs a new view at an
// empty slot. Caller holds the table lock and has checked occupancy.
func (g *Guest) allocateSlotLocked(idx uint16) error {
	if g.slots[idx] != nil {
		panic(fmt.Sprintf("altview: allocating over occupied slot %d", idx))
	}

	table, err := g.conf.Allocator.Allocate()
	if err != nil {
		internalLogger.warnf("guest %s: allocate table for slot %d: %v", g.id, idx, err)
		return fmt.Errorf("allocate view: %w", err)
	}

	if err := table.Init(); err != nil {
		table.Free()
		return fmt.Errorf("initialize view: %w", err)
	}

	g.slots[idx] = newView(table)

	viewAllocations.Inc()
	occupiedSlots.Inc()
	publishEvent(api.Event{Kind: api.EventViewAllocated, GuestID: g.id, ViewIndex: idx})
	return nil
}

// destroySlot empties a slot: remove from table first, then tear down,
// then free, so no other context can reach a dead view through the table.
// Caller holds the table lock or is on the guest-destruction path.
func (g *Guest) destroySlot(idx uint16) {
	view := g.slots[idx]
	g.slots[idx] = nil
	view.table.Teardown()
	view.table.Free()

	viewDestroys.Inc()
	occupiedSlots.Dec()
}

// AllocateView creates a new view in the slot at idx. The slot must be
// empty; an occupied slot is reported, never replaced.
func (g *Guest) AllocateView(idx uint16) error {
	if idx >= MaxViews {
		return ErrInvalidIndex
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.slots[idx] != nil {
		return ErrViewExists
	}
	return g.allocateSlotLocked(idx)
}

// AllocateNextView creates a new view in the first empty slot and returns
// its index. A full table is table exhaustion (ErrNoFreeSlot), not an
// allocation failure.
func (g *Guest) AllocateNextView() (uint16, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := uint16(0); i < MaxViews; i++ {
		if g.slots[i] != nil {
			continue
		}
		if err := g.allocateSlotLocked(i); err != nil {
			return InvalidView, err
		}
		return i, nil
	}
	return InvalidView, ErrNoFreeSlot
}

// DestroyView tears down the view at idx once nothing is bound to it. Slot 0
// is the safe harbor while the subsystem is active and is never destroyed
// through this path. The guest is quiesced before the binding counter is
// checked, so the counter cannot move between the check and the teardown.
//
// An empty slot and a still-bound view report the same ErrViewBusy; callers
// that need the distinction inspect the table.
func (g *Guest) DestroyView(idx uint16) error {
	if idx == 0 || idx >= MaxViews {
		return ErrInvalidIndex
	}

	g.quiescer.PauseAllExcept(g, nil)
	g.mu.Lock()

	err := ErrViewBusy
	if view := g.slots[idx]; view != nil && view.Bindings() == 0 {
		g.destroySlot(idx)
		err = nil
	}

	g.mu.Unlock()
	g.quiescer.ResumeAllExcept(g, nil)

	if err == nil {
		publishEvent(api.Event{Kind: api.EventViewDestroyed, GuestID: g.id, ViewIndex: idx})
	}
	return err
}

// FlushViews empties every slot, slot 0 included. Callable only while the
// subsystem is inactive; slot 0 loses its protection exactly because no vcpu
// can be using alternate views. A non-zero binding counter here is a
// binding-tracking bug, not a recoverable condition.
func (g *Guest) FlushViews() {
	if g.active.Load() {
		panic("altview: flush while subsystem active")
	}

	g.mu.Lock()
	for i := uint16(0); i < MaxViews; i++ {
		if g.slots[i] == nil {
			continue
		}
		if n := g.slots[i].Bindings(); n != 0 {
			panic(fmt.Sprintf("altview: flushing slot %d with %d active bindings", i, n))
		}
		g.destroySlot(i)
	}
	g.mu.Unlock()

	internalLogger.infof("guest %s: view table flushed", g.id)
}

// Teardown unconditionally frees every occupied slot. Guest-destruction path
// only: the guest is fully stopped, so there are no live vcpus, no concurrent
// callers, and neither the lock nor the binding counters need consulting.
func (g *Guest) Teardown() {
	for i := uint16(0); i < MaxViews; i++ {
		if g.slots[i] == nil {
			continue
		}
		g.destroySlot(i)
	}
}
