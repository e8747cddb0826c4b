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
	"sync/atomic"

	"github.com/srediag/vmm-altview/api"
	"github.com/srediag/vmm-altview/internal/viewmem"
)

// View is one occupied slot of a guest's view table. It owns its translation
// table exclusively and carries the active-bindings counter that gates safe
// teardown.
//
// The counter is mutated only while the owning vcpu is paused, or under the
// table lock with the guest quiesced. It is read without the table lock on
// the single-vcpu init/destroy paths, which is why it stays atomic rather
// than folding into the lock.
type View struct {
	table          api.TranslationTable
	activeBindings atomic.Int32
}

func newView(table api.TranslationTable) *View {
	return &View{table: table}
}

// Table returns the translation table this view owns.
func (v *View) Table() api.TranslationTable {
	return v.table
}

// Bindings returns the number of vcpus currently bound to this view.
func (v *View) Bindings() int32 {
	return v.activeBindings.Load()
}

func (v *View) retain() {
	v.activeBindings.Add(1)
}

func (v *View) release() {
	if v.activeBindings.Add(-1) < 0 {
		panic("altview: active-bindings counter underflow")
	}
}

// MemAllocator is the default TableAllocator. It backs each table with an
// anonymous mapping obtained from internal/viewmem and refuses to allocate
// when host memory headroom runs out.
type MemAllocator struct {
	// TableBytes is the backing size of each table.
	TableBytes int
	// HeadroomBytes is the host memory that must remain available after the
	// allocation. Zero disables the check.
	HeadroomBytes uint64
}

// Allocate implements api.TableAllocator.
func (a MemAllocator) Allocate() (api.TranslationTable, error) {
	if !canAllocateTable(uint64(a.TableBytes), a.HeadroomBytes) {
		return nil, fmt.Errorf("table of %d bytes would exhaust host memory: %w",
			a.TableBytes, ErrOutOfMemory)
	}
	region, err := viewmem.Map(a.TableBytes)
	if err != nil {
		return nil, fmt.Errorf("map table backing: %w", err)
	}
	return &memTable{region: region}, nil
}

// memTable is the default translation-table object. The mapping is already
// zeroed by the platform, so Init has nothing left to populate.
type memTable struct {
	region *viewmem.Region
}

func (t *memTable) Init() error { return nil }

func (t *memTable) Teardown() {}

func (t *memTable) Free() {
	if err := viewmem.Unmap(t.region); err != nil {
		internalLogger.warnf("free table backing: %v", err)
	}
	t.region = nil
}
