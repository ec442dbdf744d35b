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

// Package run implements the command that hosts a debugger console session.
package run

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/tombee/dbgconsole/internal/commands/shared"
	"github.com/tombee/dbgconsole/internal/console"
	"github.com/tombee/dbgconsole/internal/engine"
	"github.com/tombee/dbgconsole/internal/log"
	"github.com/tombee/dbgconsole/internal/target"
)

// Session hosts one console attached to one machine. Input lines are read
// on their own goroutine and handed to the controller as they arrive.
type Session struct {
	Program        *target.Program
	Breakpoints    []string
	StepsPerSecond float64
	HistoryPath    string
	Prompt         string
	Interactive    bool
	Quiet          bool
	NoDebug        bool

	In     io.Reader
	Out    io.Writer
	Logger *slog.Logger
}

// Run attaches the console and forwards input until end of input, the
// debugger quits, or ctx is cancelled. The console is always detached before
// Run returns.
func (s *Session) Run(ctx context.Context) error {
	logger := s.Logger
	if logger == nil {
		logger = log.Discard()
	}

	eval := engine.NewEvaluator()
	for _, bp := range s.Breakpoints {
		step, condition, err := engine.ParseBreakpoint(bp)
		if err == nil {
			err = eval.Check(condition)
		}
		if err != nil {
			return shared.NewConfigError(fmt.Sprintf("invalid breakpoint %q", bp), err)
		}
		if !s.Program.HasStep(step) {
			return shared.NewConfigError(fmt.Sprintf("cannot set breakpoint on %q", step),
				fmt.Errorf("program %s has steps %v", s.Program.Name, s.Program.StepNames()))
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	machineOpts := []target.Option{
		target.WithStepsPerSecond(s.StepsPerSecond),
		target.WithLogger(logger),
	}
	if s.NoDebug {
		machineOpts = append(machineOpts, target.WithoutDebugSupport())
	}
	machine := target.NewMachine(s.Program, machineOpts...)

	quit := make(chan struct{})
	var quitOnce sync.Once
	dbg := engine.New(
		engine.WithLogger(logger),
		engine.WithBreakpoints(s.Breakpoints...),
		engine.WithShutdownHook(func() {
			quitOnce.Do(func() { close(quit) })
		}),
	)

	sink := hostSink{WriterSink: console.NewWriterSink(s.Out), echo: !s.Interactive}
	ctrl := console.NewController(dbg,
		console.WithTarget(machine),
		console.WithSink(sink),
		console.WithLogger(logger),
		console.WithHistoryPath(s.HistoryPath),
	)

	machineDone := make(chan error, 1)
	go func() { machineDone <- machine.Run(ctx) }()
	defer func() {
		cancel()
		if err := <-machineDone; err != nil {
			logger.Warn("Machine stopped with error", log.Error(err))
		}
	}()
	machine.Resume()

	if err := ctrl.Attach(ctx); err != nil {
		if errors.Is(err, console.ErrNoDebugSupport) {
			return shared.NewNoDebugSupportError("cannot attach debugger", err)
		}
		return shared.NewFailureError("failed to attach debugger", err)
	}
	if !s.Quiet {
		sink.Print(shared.RenderInfo(fmt.Sprintf("Attached to %s at step %s. Type 'help' for commands.", machine.Name(), machine.Current())) + "\n")
	}

	lines := make(chan string)
	readDone := make(chan struct{})
	defer close(readDone)
	go readLines(s.In, lines, readDone, logger)

	s.prompt(sink)
loop:
	for {
		select {
		case <-ctx.Done():
			logger.Debug("Session interrupted")
			break loop
		case <-quit:
			break loop
		case line, ok := <-lines:
			if !ok {
				break loop
			}
			ctrl.SubmitLine(line)
			s.prompt(sink)
		}
	}

	if err := ctrl.Detach(context.WithoutCancel(ctx)); err != nil {
		return shared.NewFailureError("failed to detach debugger", err)
	}
	if !s.Quiet {
		sink.Print(shared.RenderOK(fmt.Sprintf("Detached after %d steps", machine.Steps())) + "\n")
	}
	return nil
}

func (s *Session) prompt(sink console.Sink) {
	if s.Interactive && s.Prompt != "" {
		sink.Print(shared.Prompt.Render(s.Prompt))
	}
}

// hostSink drops echoed lines when a terminal already displays typed input.
type hostSink struct {
	*console.WriterSink
	echo bool
}

func (s hostSink) Echo(line string) {
	if s.echo {
		s.WriterSink.Echo(line)
	}
}

// readLines scans r and sends each line until EOF or done is closed.
func readLines(r io.Reader, lines chan<- string, done <-chan struct{}, logger *slog.Logger) {
	defer close(lines)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-done:
			return
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("Input error", log.Error(err))
	}
}
