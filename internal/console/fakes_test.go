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

package console

import (
	"sync"
	"testing"
	"time"
)

// waitTimeout bounds every wait on a goroutine the test started.
const waitTimeout = 2 * time.Second

type fakeSystem struct{}

func (fakeSystem) Name() string { return "fake" }

// fakeTarget records interrupt scopes.
type fakeTarget struct {
	mu         sync.Mutex
	depth      int
	interrupts int
	continues  int
	noDebug    bool
}

func (t *fakeTarget) Interrupt() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.depth++
	t.interrupts++
}

func (t *fakeTarget) Continue() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.depth--
	t.continues++
}

func (t *fakeTarget) DebugSystem() (System, bool) {
	if t.noDebug {
		return nil, false
	}
	return fakeSystem{}, true
}

func (t *fakeTarget) counts() (depth, interrupts, continues int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.depth, t.interrupts, t.continues
}

// fakeEngine is a minimal Engine whose read loop is driven by the test.
type fakeEngine struct {
	mu        sync.Mutex
	state     EngineState
	backend   Backend
	system    System
	enters    []EnterReason
	attaches  int
	detaches  int
	attachErr error
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{state: StateShutdown}
}

func (e *fakeEngine) AttachBackend(b Backend) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.backend = b
}

func (e *fakeEngine) AttachSystem(sys System) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.attachErr != nil {
		return e.attachErr
	}
	e.system = sys
	e.state = StatePaused
	e.attaches++
	return nil
}

func (e *fakeEngine) Detach() {
	e.mu.Lock()
	b := e.backend
	e.mu.Unlock()

	if b != nil {
		b.Deinit()
	}

	e.mu.Lock()
	e.state = StateShutdown
	e.detaches++
	e.mu.Unlock()
}

func (e *fakeEngine) State() EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *fakeEngine) Enter(reason EnterReason) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enters = append(e.enters, reason)
	e.state = StatePaused
}

func (e *fakeEngine) setState(s EngineState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = s
}

func (e *fakeEngine) enterReasons() []EnterReason {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]EnterReason(nil), e.enters...)
}

func (e *fakeEngine) boundBackend() Backend {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.backend
}

// readAll reads from b until end of input and reports every line.
func readAll(b Backend) <-chan []string {
	out := make(chan []string, 1)
	go func() {
		var lines []string
		for {
			line, ok := b.ReadLine()
			if !ok {
				out <- lines
				return
			}
			lines = append(lines, line)
		}
	}()
	return out
}

func waitLines(t *testing.T, ch <-chan []string) []string {
	t.Helper()
	select {
	case lines := <-ch:
		return lines
	case <-time.After(waitTimeout):
		t.Fatal("reader did not observe end of input")
		return nil
	}
}

// recordingSink captures engine output.
type recordingSink struct {
	mu     sync.Mutex
	prints []string
	echoes []string
}

func (s *recordingSink) Print(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prints = append(s.prints, text)
}

func (s *recordingSink) Echo(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.echoes = append(s.echoes, line)
}
