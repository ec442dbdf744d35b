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

// Package target provides a simulated machine that runs a Program on its own
// goroutine and can be paused, stepped and inspected by a debugger.
package target

import (
	"context"
	"log/slog"
	"maps"
	"sync"

	"golang.org/x/time/rate"

	"github.com/tombee/dbgconsole/internal/console"
	"github.com/tombee/dbgconsole/internal/engine"
	"github.com/tombee/dbgconsole/internal/log"
)

// Machine executes a Program one step at a time.
//
// A step runs entirely under the machine lock, so Interrupt returning means
// no step is in progress and none will start until the matching Continue.
type Machine struct {
	program *Program
	limiter *rate.Limiter
	logger  *slog.Logger
	noDebug bool

	mu        sync.Mutex
	cond      *sync.Cond
	pc        int
	steps     uint64
	vars      map[string]any
	depth     int
	halted    bool
	stepping  bool
	skipBreak bool
	handler   engine.BreakHandler
}

var (
	_ console.DebugTarget = (*Machine)(nil)
	_ engine.Machine      = (*Machine)(nil)
)

// Option configures a Machine.
type Option func(*Machine)

// WithStepsPerSecond limits how fast the machine runs. Zero or less means
// unlimited.
func WithStepsPerSecond(n float64) Option {
	return func(m *Machine) {
		if n <= 0 {
			m.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		m.limiter = rate.NewLimiter(rate.Limit(n), 1)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = l
	}
}

// WithoutDebugSupport makes DebugSystem report no debug system.
func WithoutDebugSupport() Option {
	return func(m *Machine) {
		m.noDebug = true
	}
}

// NewMachine creates a machine for a compiled program. The machine starts
// halted; call Run to drive it and Resume to let it execute.
func NewMachine(p *Program, opts ...Option) *Machine {
	m := &Machine{
		program: p,
		limiter: rate.NewLimiter(rate.Inf, 1),
		logger:  slog.Default(),
		vars:    make(map[string]any),
		halted:  true,
	}
	m.cond = sync.NewCond(&m.mu)
	for _, opt := range opts {
		opt(m)
	}
	m.logger = log.WithComponent(m.logger, "target")
	return m
}

// Name returns the program name.
func (m *Machine) Name() string {
	return m.program.Name
}

// DebugSystem implements console.DebugTarget.
func (m *Machine) DebugSystem() (console.System, bool) {
	if m.noDebug {
		return nil, false
	}
	return m, true
}

// Interrupt pauses the machine at a step boundary. Calls nest.
func (m *Machine) Interrupt() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.depth++
}

// Continue undoes one Interrupt.
func (m *Machine) Continue() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.depth == 0 {
		panic("target: Continue without Interrupt")
	}
	m.depth--
	if m.depth == 0 {
		m.cond.Broadcast()
	}
}

// SetBreakHandler implements engine.Machine.
func (m *Machine) SetBreakHandler(h engine.BreakHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = h
}

// Halt implements engine.Machine.
func (m *Machine) Halt() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.halted = true
	m.stepping = false
}

// Resume implements engine.Machine.
func (m *Machine) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.halted {
		return
	}
	m.halted = false
	m.stepping = false
	m.skipBreak = true
	m.cond.Broadcast()
}

// Step implements engine.Machine.
func (m *Machine) Step() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.halted = false
	m.stepping = true
	m.skipBreak = true
	m.cond.Broadcast()
}

// Halted reports whether the machine is stopped.
func (m *Machine) Halted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.halted
}

// PC returns the index of the next step.
func (m *Machine) PC() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pc
}

// Current implements engine.Machine.
func (m *Machine) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.program.Steps[m.pc].Name
}

// Steps implements engine.Machine.
func (m *Machine) Steps() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.steps
}

// HasStep implements engine.Machine.
func (m *Machine) HasStep(name string) bool {
	return m.program.HasStep(name)
}

// Vars implements engine.Machine.
func (m *Machine) Vars() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.vars)
}

// Run executes the program until ctx is done. It returns nil on cancellation.
func (m *Machine) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		m.mu.Lock()
		m.cond.Broadcast()
		m.mu.Unlock()
	})
	defer stop()

	m.logger.Debug("Machine started", slog.String("program", m.program.Name), log.Int("steps", len(m.program.Steps)))
	defer m.logger.Debug("Machine stopped")

	for {
		if err := m.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if !m.next(ctx) {
			return nil
		}
	}
}

// next waits for the machine to be runnable and executes one step. It
// returns false when ctx is done.
func (m *Machine) next(ctx context.Context) bool {
	m.mu.Lock()
	for ctx.Err() == nil && (m.depth > 0 || m.halted) {
		m.cond.Wait()
	}
	if ctx.Err() != nil {
		m.mu.Unlock()
		return false
	}

	step := &m.program.Steps[m.pc]
	if !m.skipBreak && m.handler != nil && m.handler.ShouldBreak(step.Name, maps.Clone(m.vars)) {
		m.halted = true
		h := m.handler
		m.mu.Unlock()

		h.OnBreak(step.Name, console.EnterBreakpoint)
		return true
	}
	m.skipBreak = false

	err := step.exec(m.vars)
	m.pc = (m.pc + 1) % len(m.program.Steps)
	m.steps++

	var stepped engine.BreakHandler
	if m.stepping {
		m.stepping = false
		m.halted = true
		stepped = m.handler
	}
	next := m.program.Steps[m.pc].Name
	m.mu.Unlock()

	if err != nil {
		m.logger.Warn("Step failed", log.String(log.StepKey, step.Name), log.Error(err))
	} else {
		log.Trace(m.logger, "Step executed", log.String(log.StepKey, step.Name))
	}
	if stepped != nil {
		stepped.OnBreak(next, console.EnterStep)
	}
	return true
}
