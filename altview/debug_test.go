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
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDebugGuestDetail(t *testing.T) {
	g, _ := testGuest(t)
	assert.Nil(t, g.AllocateView(0))
	v := g.AttachVCPU()
	g.InitVCPU(v)

	out := DebugGuestDetail(g)
	assert.True(t, strings.Contains(out, "guest:"+g.ID()))
	assert.True(t, strings.Contains(out, "slot[0]: bindings:1"))
	assert.True(t, strings.Contains(out, "vcpu[0]: view:0"))

	g.DestroyVCPU(v)
	out = DebugGuestDetail(g)
	assert.True(t, strings.Contains(out, "vcpu[0]: view:invalid"))
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger("test", &buf)

	old := level
	defer SetLogLevel(old)

	SetLogLevel(levelNoPrint)
	l.errorf("should not appear %d", 1)
	assert.Equal(t, 0, buf.Len())

	SetLogLevel(levelTrace)
	l.tracef("trace %s", "line")
	l.debugf("debug %s", "line")
	l.warnf("warn %s", "line")
	assert.True(t, strings.Contains(buf.String(), "trace line"))
	assert.True(t, strings.Contains(buf.String(), "debug line"))
	assert.True(t, strings.Contains(buf.String(), "warn line"))
}
