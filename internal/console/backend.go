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
	"fmt"
	"log/slog"

	"github.com/tombee/dbgconsole/internal/log"
)

// Backend is the I/O contract a debugger engine consumes. Every method is
// called synchronously on the engine goroutine, except Deinit which may run
// wherever the engine is torn down.
type Backend interface {
	// Printf forwards formatted output to the host.
	Printf(format string, args ...any)

	// Init is called when the engine starts using the backend.
	Init()

	// Deinit is called when the engine stops using the backend.
	Deinit()

	// ReadLine blocks until a line is available. ok is false at end of
	// input, after which the engine must stop reading.
	ReadLine() (line string, ok bool)

	// LineAppend echoes a line back to the host's input view.
	LineAppend(line string)

	// HistoryLast returns the most recent history entry, or
	// HistoryPlaceholder when there is none.
	HistoryLast() string

	// HistoryAppend records a line in the history.
	HistoryAppend(line string)
}

// adapter implements Backend on top of a Controller's queue and history.
type adapter struct {
	ctrl   *Controller
	logger *slog.Logger
}

var _ Backend = (*adapter)(nil)

func (a *adapter) Printf(format string, args ...any) {
	a.ctrl.sink.Print(fmt.Sprintf(format, args...))
}

func (a *adapter) Init() {
	a.logger.Debug("Backend initialized")
}

// Deinit releases a reader parked in ReadLine when the engine is torn down
// before reaching shutdown. It may run on the target goroutine, so it must
// not wait for the target to pause.
func (a *adapter) Deinit() {
	if a.ctrl.engine.State() == StateShutdown {
		return
	}
	if a.ctrl.queue.PushTermination() {
		a.logger.Debug("Backend deinitialized before shutdown, queued end of input")
	}
}

func (a *adapter) ReadLine() (string, bool) {
	in := Interrupt(a.ctrl.currentTarget())
	defer in.Release()

	line := a.ctrl.queue.Take()
	if line.IsEnd() {
		a.logger.Debug("End of input")
		return "", false
	}
	log.Trace(a.logger, "Line delivered", log.Int("length", len(line.Text)))
	return line.Text, true
}

func (a *adapter) LineAppend(line string) {
	a.ctrl.sink.Echo(line)
}

func (a *adapter) HistoryLast() string {
	in := Interrupt(a.ctrl.currentTarget())
	defer in.Release()

	if last, ok := a.ctrl.history.Last(); ok {
		return last
	}
	return HistoryPlaceholder
}

func (a *adapter) HistoryAppend(line string) {
	in := Interrupt(a.ctrl.currentTarget())
	defer in.Release()

	a.ctrl.history.Append(line)
}
