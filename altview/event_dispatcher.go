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
	"sync"

	queuepkg "github.com/Workiva/go-datastructures/queue"
	"github.com/panjf2000/ants/v2"

	"github.com/srediag/vmm-altview/api"
)

// eventDispatcher fans lifecycle and binding events out to subscribers.
// Publication never blocks an operation: events queue up and a worker pool
// delivers them off the critical paths.
type eventDispatcher struct {
	q    *queuepkg.Queue
	pool *ants.Pool

	mu   sync.RWMutex
	subs []func(api.Event)
}

var (
	defaultDispatcher     *eventDispatcher
	defaultDispatcherOnce sync.Once
)

// The dispatcher is process-wide and sized once, from the first Config that
// reaches it. EventQueueCap and DispatchWorkers on later guests' configs have
// no effect.
func ensureDefaultDispatcherInit(conf *Config) {
	defaultDispatcherOnce.Do(func() {
		d, err := newEventDispatcher(conf.EventQueueCap, conf.DispatchWorkers)
		if err != nil {
			internalLogger.errorf("event dispatcher init failed: %v", err)
			return
		}
		defaultDispatcher = d
	})
}

func newEventDispatcher(queueCap int64, workers int) (*eventDispatcher, error) {
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}
	d := &eventDispatcher{
		q:    queuepkg.New(queueCap),
		pool: pool,
	}
	go d.run()
	return d, nil
}

func (d *eventDispatcher) run() {
	for {
		items, err := d.q.Get(16)
		if err != nil {
			// queue disposed
			return
		}
		for i := range items {
			ev, ok := items[i].(api.Event)
			if !ok {
				continue
			}
			if err := d.pool.Submit(func() { d.deliver(ev) }); err != nil {
				internalLogger.warnf("event delivery submit failed: %v", err)
			}
		}
	}
}

func (d *eventDispatcher) deliver(ev api.Event) {
	d.mu.RLock()
	subs := d.subs
	d.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func (d *eventDispatcher) subscribe(fn func(api.Event)) {
	d.mu.Lock()
	d.subs = append(d.subs, fn)
	d.mu.Unlock()
}

func (d *eventDispatcher) close() {
	d.q.Dispose()
	d.pool.Release()
}

// Subscribe registers a callback for lifecycle and binding events. Callbacks
// run on the dispatcher's worker pool and must not call back into guest
// operations that quiesce.
func Subscribe(fn func(api.Event)) {
	ensureDefaultDispatcherInit(DefaultConfig())
	if defaultDispatcher != nil {
		defaultDispatcher.subscribe(fn)
	}
}

func publishEvent(ev api.Event) {
	if defaultDispatcher == nil {
		return
	}
	if err := defaultDispatcher.q.Put(ev); err != nil {
		internalLogger.warnf("event publish failed: %v", err)
	}
}
