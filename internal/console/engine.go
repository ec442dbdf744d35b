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

// EngineState is the externally visible state of a debugger engine.
type EngineState string

const (
	// StatePaused means the engine is processing commands and may be reading input.
	StatePaused EngineState = "paused"

	// StateRunning means the target is executing and the engine is not reading input.
	StateRunning EngineState = "running"

	// StateShutdown means the engine has stopped reading for this attach cycle.
	StateShutdown EngineState = "shutdown"
)

// EnterReason says why an engine is asked to enter command mode.
type EnterReason string

const (
	// EnterManual is requested by the host when a line arrives while the target runs.
	EnterManual EnterReason = "manual"

	// EnterAttach is used by engines that stop the target as soon as they attach.
	EnterAttach EnterReason = "attach"

	// EnterBreakpoint is raised by a target that reached a breakpoint.
	EnterBreakpoint EnterReason = "breakpoint"

	// EnterStep is raised by a target that finished a single step.
	EnterStep EnterReason = "step"
)

// Engine is a line-oriented command debugger driven through a Backend.
//
// The engine reads input on its own goroutine. Backend hooks are never
// invoked with engine-internal locks held, and State and Enter may be called
// from any goroutine.
type Engine interface {
	// AttachBackend binds the I/O backend. A second call replaces the first.
	AttachBackend(b Backend)

	// AttachSystem hands the engine the target's debug system and starts a
	// debugging cycle.
	AttachSystem(sys System) error

	// Detach ends the cycle. It returns once the engine no longer uses the
	// backend and calls Backend.Deinit on the way out.
	Detach()

	// State reports the current engine state.
	State() EngineState

	// Enter asks the engine to switch to command mode.
	Enter(reason EnterReason)
}

// System is the debug-capable view a target exposes to an engine.
type System interface {
	// Name identifies the system in logs and banners.
	Name() string
}

// Target is the execution engine being debugged.
//
// Interrupt blocks until the target has reached a safe pause point and
// Continue lets it resume. Nested or concurrent holders collapse into one
// pause: the target resumes after the last Continue.
type Target interface {
	Interrupt()
	Continue()
}

// DebugTarget is a running target that may expose a debug system.
type DebugTarget interface {
	Target

	// DebugSystem returns the system an engine attaches to, if the target has one.
	DebugSystem() (System, bool)
}
