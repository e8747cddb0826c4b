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

import cmap "github.com/orcaman/concurrent-map/v2"

// guests is the process-wide registry of guests by ID, used by control-plane
// layers and health probes. Registration is explicit; each guest's state
// stays independent, the registry only hands out pointers.
var guests = cmap.New[*Guest]()

// RegisterGuest adds a guest to the process-wide registry. Returns false when
// the ID is already taken.
func RegisterGuest(g *Guest) bool {
	return guests.SetIfAbsent(g.id, g)
}

// LookupGuest returns the registered guest with the given ID.
func LookupGuest(id string) (*Guest, bool) {
	return guests.Get(id)
}

// DropGuest removes a guest from the registry. It does not tear the guest
// down; that is the destruction path's job.
func DropGuest(id string) {
	guests.Remove(id)
}

// RangeGuests calls fn for every registered guest.
func RangeGuests(fn func(g *Guest)) {
	guests.IterCb(func(_ string, g *Guest) {
		fn(g)
	})
}
