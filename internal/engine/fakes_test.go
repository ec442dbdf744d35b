// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package engine

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tombee/dbgconsole/internal/console"
)

const waitTimeout = 2 * time.Second

// fakeBackend feeds lines from a channel. Deinit closes the channel.
type fakeBackend struct {
	input     chan string
	closeOnce sync.Once

	mu      sync.Mutex
	output  []string
	echoes  []string
	history []string
	inits   int
	deinits int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{input: make(chan string, 16)}
}

func (b *fakeBackend) Printf(format string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.output = append(b.output, fmt.Sprintf(format, args...))
}

func (b *fakeBackend) Init() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inits++
}

func (b *fakeBackend) Deinit() {
	b.mu.Lock()
	b.deinits++
	b.mu.Unlock()
	b.close()
}

func (b *fakeBackend) ReadLine() (string, bool) {
	line, ok := <-b.input
	return line, ok
}

func (b *fakeBackend) LineAppend(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.echoes = append(b.echoes, line)
}

func (b *fakeBackend) HistoryLast() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.history) == 0 {
		return console.HistoryPlaceholder
	}
	return b.history[len(b.history)-1]
}

func (b *fakeBackend) HistoryAppend(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = append(b.history, line)
}

func (b *fakeBackend) close() {
	b.closeOnce.Do(func() { close(b.input) })
}

func (b *fakeBackend) send(line string) {
	b.input <- line
}

func (b *fakeBackend) text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Join(b.output, "")
}

func (b *fakeBackend) waitOutput(t *testing.T, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return strings.Contains(b.text(), want)
	}, waitTimeout, time.Millisecond, "output never contained %q", want)
}

type fakeSystem struct{}

func (fakeSystem) Name() string { return "plain" }

type fakeMachine struct {
	mu      sync.Mutex
	handler BreakHandler
	halted  bool
	halts   int
	resumes int
	stepped int
	current string
	names   []string
	vars    map[string]any
}

func newFakeMachine() *fakeMachine {
	return &fakeMachine{
		current: "loop",
		names:   []string{"init", "loop", "check"},
		vars:    map[string]any{"a": 1},
	}
}

func (m *fakeMachine) Name() string { return "fake" }

func (m *fakeMachine) SetBreakHandler(h BreakHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = h
}

func (m *fakeMachine) Halt() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.halted = true
	m.halts++
}

func (m *fakeMachine) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.halted = false
	m.resumes++
}

func (m *fakeMachine) Step() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.halted = false
	m.stepped++
}

func (m *fakeMachine) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *fakeMachine) Steps() uint64 { return 7 }

func (m *fakeMachine) HasStep(name string) bool {
	return slices.Contains(m.names, name)
}

func (m *fakeMachine) Vars() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.vars)
}

func (m *fakeMachine) breakHandler() BreakHandler {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handler
}

func (m *fakeMachine) counts() (halts, resumes, stepped int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.halts, m.resumes, m.stepped
}
