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
	"log/slog"
	"strings"
	"sync"

	"github.com/tombee/dbgconsole/internal/console"
	"github.com/tombee/dbgconsole/internal/log"
	"github.com/tombee/dbgconsole/pkg/errors"
)

// Machine is the execution engine a Debugger controls.
//
// Halt, Resume and Step only change what the machine does at its next step
// boundary; they never block on a running step.
type Machine interface {
	console.System

	// SetBreakHandler installs h, or removes the handler when h is nil.
	SetBreakHandler(h BreakHandler)

	// Halt stops the machine before its next step.
	Halt()

	// Resume lets the machine run freely. The step it is stopped at runs
	// without rechecking its breakpoint.
	Resume()

	// Step runs exactly one step and halts again.
	Step()

	// Current returns the name of the next step to run.
	Current() string

	// Steps returns how many steps have run.
	Steps() uint64

	// HasStep reports whether the program has a step with this name.
	HasStep(name string) bool

	// Vars returns a snapshot of the machine's variables.
	Vars() map[string]any
}

// BreakHandler is notified by a Machine at step boundaries. Both methods are
// called on the machine's goroutine.
type BreakHandler interface {
	// ShouldBreak is called before each step with the current variables.
	ShouldBreak(step string, vars map[string]any) bool

	// OnBreak is called after the machine halted itself.
	OnBreak(step string, reason console.EnterReason)
}

// Debugger is a command debugger. It implements console.Engine.
type Debugger struct {
	logger      *slog.Logger
	eval        *Evaluator
	breakpoints *Breakpoints
	onShutdown  func()
	initial     []string

	// ctl orders state changes with the machine calls that follow them.
	ctl sync.Mutex

	// mu guards the fields below. It is never held while calling the
	// backend or the machine.
	mu      sync.Mutex
	cond    *sync.Cond
	state   console.EngineState
	backend console.Backend
	machine Machine
	done    chan struct{}

	// draining is set by Detach while the loop reads the lines queued
	// ahead of end of input. The loop does not wait for a running
	// machine while draining.
	draining bool
}

var (
	_ console.Engine = (*Debugger)(nil)
	_ BreakHandler   = (*Debugger)(nil)
)

// Option configures a Debugger.
type Option func(*Debugger)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Debugger) {
		d.logger = l
	}
}

// WithBreakpoints installs breakpoints written as "step" or "step if expr".
// Specs that do not parse are logged and skipped.
func WithBreakpoints(specs ...string) Option {
	return func(d *Debugger) {
		d.initial = append(d.initial, specs...)
	}
}

// WithShutdownHook registers fn to run on the command goroutine after it
// stops reading. fn must not wait for Detach.
func WithShutdownHook(fn func()) Option {
	return func(d *Debugger) {
		d.onShutdown = fn
	}
}

// New creates a Debugger in the shutdown state.
func New(opts ...Option) *Debugger {
	eval := NewEvaluator()
	d := &Debugger{
		logger:      slog.Default(),
		eval:        eval,
		breakpoints: NewBreakpoints(eval),
		state:       console.StateShutdown,
	}
	d.cond = sync.NewCond(&d.mu)
	for _, opt := range opts {
		opt(d)
	}
	d.logger = log.WithComponent(d.logger, "engine")

	for _, spec := range d.initial {
		step, condition, err := ParseBreakpoint(spec)
		if err == nil {
			err = d.breakpoints.Add(step, condition)
		}
		if err != nil {
			d.logger.Warn("Ignoring breakpoint", log.String("breakpoint", spec), log.Error(err))
		}
	}
	return d
}

// Breakpoints returns the debugger's breakpoint set.
func (d *Debugger) Breakpoints() *Breakpoints {
	return d.breakpoints
}

// AttachBackend binds the backend used by the command loop.
func (d *Debugger) AttachBackend(b console.Backend) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.backend = b
}

// AttachSystem takes control of sys, halts it, and starts reading commands.
// If the command loop is already running, the machine is swapped in place.
func (d *Debugger) AttachSystem(sys console.System) error {
	m, ok := sys.(Machine)
	if !ok {
		return &errors.UnsupportedError{
			Feature: "debugger",
			Reason:  fmt.Sprintf("system %q cannot be driven by this debugger", sys.Name()),
		}
	}

	d.mu.Lock()
	if d.backend == nil {
		d.mu.Unlock()
		return &errors.ConfigError{Key: "backend", Reason: "no backend attached"}
	}
	prev := d.machine
	d.machine = m
	d.state = console.StatePaused
	var done chan struct{}
	if d.done == nil {
		done = make(chan struct{})
		d.done = done
		d.draining = false
	}
	d.cond.Broadcast()
	d.mu.Unlock()

	if prev != nil && prev != m {
		prev.SetBreakHandler(nil)
	}
	m.SetBreakHandler(d)
	m.Halt()

	d.logger.Debug("Attached to system", slog.String("system", m.Name()), log.String(log.StepKey, m.Current()))
	if done != nil {
		go d.loop(done)
	}
	return nil
}

// Detach ends the attach cycle. The command loop keeps executing lines queued
// before end of input and exits when ReadLine reports it. Detach waits for the
// loop, then releases the machine.
func (d *Debugger) Detach() {
	d.mu.Lock()
	b := d.backend
	d.mu.Unlock()

	if b != nil {
		b.Deinit()
	}

	d.mu.Lock()
	done := d.done
	if done == nil {
		d.state = console.StateShutdown
	} else {
		d.draining = true
		if d.state == console.StateRunning {
			d.state = console.StatePaused
		}
	}
	d.cond.Broadcast()
	d.mu.Unlock()

	if done != nil {
		<-done
	}

	d.mu.Lock()
	m := d.machine
	d.machine = nil
	d.mu.Unlock()

	if m != nil {
		m.SetBreakHandler(nil)
		m.Resume()
	}
	d.logger.Debug("Detached")
}

// State returns the current engine state.
func (d *Debugger) State() console.EngineState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Enter switches to command mode and halts the machine.
func (d *Debugger) Enter(reason console.EnterReason) {
	d.ctl.Lock()
	defer d.ctl.Unlock()

	d.mu.Lock()
	if d.state == console.StateShutdown {
		d.mu.Unlock()
		return
	}
	d.state = console.StatePaused
	m := d.machine
	d.cond.Broadcast()
	d.mu.Unlock()

	if m != nil {
		m.Halt()
	}
	d.logger.Debug("Entered command mode", log.String(log.StateKey, string(reason)))
}

// ShouldBreak implements BreakHandler.
func (d *Debugger) ShouldBreak(step string, vars map[string]any) bool {
	ok, err := d.breakpoints.ShouldPauseAt(step, vars)
	if err != nil {
		d.logger.Warn("Breakpoint condition failed", log.String(log.StepKey, step), log.Error(err))
	}
	return ok
}

// OnBreak implements BreakHandler.
func (d *Debugger) OnBreak(step string, reason console.EnterReason) {
	d.mu.Lock()
	if d.state == console.StateShutdown {
		d.mu.Unlock()
		return
	}
	d.state = console.StatePaused
	b := d.backend
	d.cond.Broadcast()
	d.mu.Unlock()

	switch reason {
	case console.EnterBreakpoint:
		breakpointHits.Inc()
		b.Printf("Breakpoint hit before step %s\n", step)
	default:
		b.Printf("Stopped before step %s\n", step)
	}
	d.logger.Debug("Machine stopped", log.String(log.StepKey, step), log.String(log.StateKey, string(reason)))
}

// loop reads and executes commands until end of input, quit, or shutdown.
func (d *Debugger) loop(done chan struct{}) {
	defer d.finish(done)

	if b := d.currentBackend(); b != nil {
		b.Init()
	}

	for {
		d.mu.Lock()
		for d.state == console.StateRunning && !d.draining {
			d.cond.Wait()
		}
		if d.state == console.StateShutdown {
			d.mu.Unlock()
			return
		}
		b := d.backend
		d.mu.Unlock()

		line, ok := b.ReadLine()
		if !ok {
			d.logger.Debug("Input closed")
			return
		}

		if strings.TrimSpace(line) == "" {
			line = b.HistoryLast()
		} else {
			b.HistoryAppend(line)
		}
		b.LineAppend(line)

		if quit := d.execute(b, line); quit {
			return
		}
	}
}

func (d *Debugger) finish(done chan struct{}) {
	d.mu.Lock()
	d.state = console.StateShutdown
	if d.done == done {
		d.done = nil
		d.draining = false
	}
	hook := d.onShutdown
	d.cond.Broadcast()
	d.mu.Unlock()

	close(done)
	d.logger.Debug("Command loop exited")

	if hook != nil {
		hook()
	}
}

func (d *Debugger) currentBackend() console.Backend {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.backend
}

func (d *Debugger) currentMachine() Machine {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.machine
}

// run switches to the running state before releasing the machine so a
// breakpoint hit immediately afterwards is not lost.
func (d *Debugger) run(m Machine, step bool) {
	d.ctl.Lock()
	defer d.ctl.Unlock()

	d.mu.Lock()
	if d.state == console.StateShutdown {
		d.mu.Unlock()
		return
	}
	d.state = console.StateRunning
	d.mu.Unlock()

	if step {
		m.Step()
	} else {
		m.Resume()
	}
}
