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

import "errors"

var (
	// ErrInvalidIndex means the slot index is out of range, or the operation
	// targeted the protected slot 0.
	ErrInvalidIndex = errors.New("invalid view index")

	// ErrViewExists means AllocateView targeted a slot that already owns a
	// view. Nothing is allocated in that case.
	ErrViewExists = errors.New("view already exists at index")

	// ErrViewNotFound means the switch target slot is empty.
	ErrViewNotFound = errors.New("view not found at index")

	// ErrViewBusy means the destroy target still has active bindings, or the
	// destroy target slot is empty. Both map to the same error; callers that
	// need to tell them apart inspect the table state.
	ErrViewBusy = errors.New("view busy")

	// ErrNoFreeSlot means every slot of the table is occupied. This is table
	// exhaustion, not an allocation failure.
	ErrNoFreeSlot = errors.New("no free view slot")

	// ErrOutOfMemory means the backing allocation for a new view failed.
	ErrOutOfMemory = errors.New("out of memory")
)
