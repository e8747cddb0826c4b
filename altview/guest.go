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
	"sync"
	"sync/atomic"
)

// Guest owns one fixed-capacity table of alternate translation views and the
// vcpus whose bindings the table serves. The table lock guards slot and vcpu
// membership only; per-view state has its own protection (the atomic
// active-bindings counter plus quiescence).
type Guest struct {
	id   string
	conf *Config

	mu    sync.Mutex
	slots [MaxViews]*View
	vcpus []*VCPU

	active     atomic.Bool
	nextVCPUID uint32

	quiescer Quiescer
}

// NewGuest initializes the view manager for one guest: empty table, switching
// inactive. Corresponds to guest creation; it has no failure mode beyond a
// bad configuration.
func NewGuest(id string, conf *Config) (*Guest, error) {
	if conf == nil {
		conf = DefaultConfig()
	}
	if err := VerifyConfig(conf); err != nil {
		return nil, err
	}
	if conf.Allocator == nil {
		conf.Allocator = MemAllocator{
			TableBytes:    conf.TableBytes,
			HeadroomBytes: conf.MemHeadroomBytes,
		}
	}
	g := &Guest{id: id, conf: conf}
	if g.quiescer = conf.Quiescer; g.quiescer == nil {
		g.quiescer = gateQuiescer{}
	}
	if conf.LogOutput != nil {
		internalLogger.out = conf.LogOutput
	}
	ensureDefaultDispatcherInit(conf)
	return g, nil
}

// ID returns the guest identifier.
func (g *Guest) ID() string { return g.id }

// IsActive reports whether alternate-view switching is enabled for this guest.
func (g *Guest) IsActive() bool { return g.active.Load() }

// SetActive enables alternate-view switching. Activation policy belongs to
// the embedding hypervisor; the manager only tracks the flag.
func (g *Guest) SetActive() { g.active.Store(true) }

// ClearActive disables alternate-view switching.
func (g *Guest) ClearActive() { g.active.Store(false) }

// Lookup returns the view occupying the slot, or nil when the slot is empty
// or the index out of range. The slot pointer itself is the protected datum,
// so the read happens under the table lock.
func (g *Guest) Lookup(idx uint16) *View {
	if idx >= MaxViews {
		return nil
	}
	g.mu.Lock()
	view := g.slots[idx]
	g.mu.Unlock()
	return view
}

// AttachVCPU adds a schedulable execution context to the guest. The vcpu
// starts unbound; InitVCPU binds it to slot 0. Callers serialize attachment
// against quiescence, as vcpu creation is serialized in a hypervisor.
func (g *Guest) AttachVCPU() *VCPU {
	g.mu.Lock()
	v := &VCPU{
		id:        g.nextVCPUID,
		guest:     g,
		viewIndex: InvalidView,
	}
	v.gate.cond = sync.NewCond(&v.gate.mu)
	g.nextVCPUID++
	g.vcpus = append(g.vcpus, v)
	g.mu.Unlock()
	return v
}

// VCPUCount returns the number of attached vcpus.
func (g *Guest) VCPUCount() int {
	g.mu.Lock()
	n := len(g.vcpus)
	g.mu.Unlock()
	return n
}

func (g *Guest) vcpuSnapshot() []*VCPU {
	g.mu.Lock()
	out := make([]*VCPU, len(g.vcpus))
	copy(out, g.vcpus)
	g.mu.Unlock()
	return out
}

// CheckBindings verifies that every occupied slot's active-bindings counter
// equals the number of vcpus bound to it. The guest is quiesced for the
// duration so the comparison is exact. Intended for health probes.
func (g *Guest) CheckBindings() error {
	g.quiescer.PauseAllExcept(g, nil)
	defer g.quiescer.ResumeAllExcept(g, nil)

	g.mu.Lock()
	defer g.mu.Unlock()

	var bound [MaxViews]int32
	for _, v := range g.vcpus {
		if v.viewIndex == InvalidView {
			continue
		}
		if v.viewIndex >= MaxViews {
			return fmt.Errorf("guest %s: vcpu %d has view index %d out of range",
				g.id, v.id, v.viewIndex)
		}
		bound[v.viewIndex]++
	}
	for i := range g.slots {
		if g.slots[i] == nil {
			if bound[i] != 0 {
				return fmt.Errorf("guest %s: %d vcpus bound to empty slot %d",
					g.id, bound[i], i)
			}
			continue
		}
		if n := g.slots[i].Bindings(); n != bound[i] {
			return fmt.Errorf("guest %s: slot %d counter %d, bound vcpus %d",
				g.id, i, n, bound[i])
		}
	}
	return nil
}

// VCPU is one schedulable execution context of a guest. viewIndex is mutated
// only by the vcpu's own context or by another context that has paused it;
// that exclusivity, not the table lock, is what keeps it consistent.
type VCPU struct {
	id        uint32
	guest     *Guest
	viewIndex uint16

	gate runGate
}

// ID returns the vcpu identifier, unique within its guest.
func (v *VCPU) ID() uint32 { return v.id }

// ViewIndex returns the slot index the vcpu is bound to, or InvalidView.
// Exact only for the vcpu's own context or while the vcpu is paused.
func (v *VCPU) ViewIndex() uint16 { return v.viewIndex }

// EnterGuest blocks while pause requests are outstanding, then marks the vcpu
// as executing guest code. Embedding run loops call it before guest entry.
func (v *VCPU) EnterGuest() { v.gate.enter() }

// ExitGuest marks the vcpu as out of guest code, unblocking pending pause
// requests. Embedding run loops call it after a vmexit.
func (v *VCPU) ExitGuest() { v.gate.exit() }

// runGate is the pause/resume rendezvous for one vcpu. A pause request takes
// effect once the vcpu is out of guest code and holds it out until every
// request has been resumed. Pause requests nest.
type runGate struct {
	mu         sync.Mutex
	cond       *sync.Cond
	pauseCount int
	inGuest    bool
}

func (r *runGate) pause() {
	r.mu.Lock()
	r.pauseCount++
	for r.inGuest {
		r.cond.Wait()
	}
	r.mu.Unlock()
}

func (r *runGate) resume() {
	r.mu.Lock()
	if r.pauseCount == 0 {
		panic("altview: resume without matching pause")
	}
	r.pauseCount--
	r.cond.Broadcast()
	r.mu.Unlock()
}

func (r *runGate) enter() {
	r.mu.Lock()
	for r.pauseCount > 0 {
		r.cond.Wait()
	}
	r.inGuest = true
	r.mu.Unlock()
}

func (r *runGate) exit() {
	r.mu.Lock()
	r.inGuest = false
	r.cond.Broadcast()
	r.mu.Unlock()
}

// Quiescer pauses and resumes a guest's vcpus around table and binding
// mutations. self, when non-nil, is the calling vcpu and is skipped. The
// waits are not cancellable; a vcpu always eventually honors a pause request.
type Quiescer interface {
	PauseAllExcept(g *Guest, self *VCPU)
	ResumeAllExcept(g *Guest, self *VCPU)
	Pause(v *VCPU)
	Resume(v *VCPU)
}

// gateQuiescer is the in-process Quiescer built on each vcpu's run gate.
type gateQuiescer struct{}

func (gateQuiescer) PauseAllExcept(g *Guest, self *VCPU) {
	for _, v := range g.vcpuSnapshot() {
		if v != self {
			v.gate.pause()
		}
	}
}

func (gateQuiescer) ResumeAllExcept(g *Guest, self *VCPU) {
	for _, v := range g.vcpuSnapshot() {
		if v != self {
			v.gate.resume()
		}
	}
}

func (gateQuiescer) Pause(v *VCPU)  { v.gate.pause() }
func (gateQuiescer) Resume(v *VCPU) { v.gate.resume() }
