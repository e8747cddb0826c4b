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
	"github.com/shirou/gopsutil/v3/mem"
)

// canAllocateTable reports whether the host has room for a table of the
// given size while keeping headroom available. A zero headroom disables the
// gate; when host memory stats are unavailable the allocation is allowed and
// left to fail on its own.
func canAllocateTable(size, headroom uint64) bool {
	if headroom == 0 {
		return true
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		internalLogger.warnf("host memory stat failed: %v", err)
		return true
	}
	return vm.Available >= headroom && vm.Available-headroom >= size
}
