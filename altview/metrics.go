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

import "github.com/prometheus/client_golang/prometheus"

var (
	viewAllocations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "altview_allocations_total",
		Help: "Total number of alternate views allocated.",
	})
	viewDestroys = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "altview_destroys_total",
		Help: "Total number of alternate views torn down.",
	})
	viewSwitches = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "altview_switches_total",
		Help: "Total number of guest-wide view switches.",
	})
	occupiedSlots = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "altview_occupied_slots",
		Help: "Currently occupied view slots across all guests.",
	})
)

func init() {
	prometheus.MustRegister(viewAllocations, viewDestroys, viewSwitches, occupiedSlots)
}
