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
	"errors"
	"io"
	"os"

	"github.com/srediag/vmm-altview/api"
)

const (
	// MaxViews is the fixed capacity of a guest's view table. Slot 0 is the
	// safe-harbor view while the subsystem is active.
	MaxViews = 10

	// InvalidView marks a vcpu that is not bound to any alternate view.
	InvalidView = ^uint16(0)

	defaultTableBytes      = 2 << 20
	defaultEventQueueCap   = 1024
	defaultDispatchWorkers = 4
)

// Config holds the collaborators and sizing of one guest's view manager.
type Config struct {
	// TableBytes is the backing size of one translation table, used by the
	// default allocator and the host-memory headroom gate.
	TableBytes int

	// Allocator produces zeroed translation tables. Defaults to MemAllocator.
	Allocator api.TableAllocator

	// Quiescer pauses and resumes the guest's vcpus around table mutations.
	// Defaults to the in-process gate-based implementation.
	Quiescer Quiescer

	// MemHeadroomBytes is the host memory that must remain available after a
	// table allocation. Zero disables the gate.
	MemHeadroomBytes uint64

	// EventQueueCap is the initial capacity hint of the lifecycle event queue.
	// The event dispatcher is process-wide: the first guest's config sizes it
	// and later values are ignored.
	EventQueueCap int64

	// DispatchWorkers is the size of the event delivery worker pool. Like
	// EventQueueCap, only the first guest's value takes effect.
	DispatchWorkers int

	// LogOutput is where the internal logger writes. Defaults to stdout.
	LogOutput io.Writer
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		TableBytes:      defaultTableBytes,
		EventQueueCap:   defaultEventQueueCap,
		DispatchWorkers: defaultDispatchWorkers,
		LogOutput:       os.Stdout,
	}
}

// VerifyConfig checks a configuration for inconsistent values.
func VerifyConfig(conf *Config) error {
	if conf == nil {
		return errors.New("config is nil")
	}
	if conf.TableBytes <= 0 {
		return errors.New("config: TableBytes must be positive")
	}
	if conf.EventQueueCap <= 0 {
		return errors.New("config: EventQueueCap must be positive")
	}
	if conf.DispatchWorkers <= 0 {
		return errors.New("config: DispatchWorkers must be positive")
	}
	return nil
}
