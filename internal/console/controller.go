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
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tombee/dbgconsole/internal/log"
	dbgerrors "github.com/tombee/dbgconsole/pkg/errors"
)

// ErrNoDebugSupport is returned by Attach when there is no running target or
// the target exposes no debug system.
var ErrNoDebugSupport = errors.New("console: target has no debug support")

var tracer trace.Tracer = otel.Tracer("github.com/tombee/dbgconsole/internal/console")

// Controller owns a debugger engine and exposes attach, detach, and line
// submission to the host.
type Controller struct {
	engine      Engine
	logger      *slog.Logger
	sink        Sink
	historyPath string

	queue   *LineQueue
	history *HistoryBuffer
	backend *adapter

	// lifecycle serializes Attach and Detach.
	lifecycle sync.Mutex

	// mu guards the fields below. It is never held while calling out.
	mu        sync.Mutex
	target    DebugTarget
	attached  bool
	sessionID string
}

// Option configures a Controller.
type Option func(*Controller)

// WithTarget sets the currently running target.
func WithTarget(t DebugTarget) Option {
	return func(c *Controller) {
		c.target = t
	}
}

// WithSink sets where engine output goes.
func WithSink(s Sink) Option {
	return func(c *Controller) {
		c.sink = s
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithHistoryPath sets the history log location. The path is resolved by
// the host; an empty path disables persistence.
func WithHistoryPath(path string) Option {
	return func(c *Controller) {
		c.historyPath = path
	}
}

// NewController creates a detached controller for engine and loads any
// persisted history.
func NewController(engine Engine, opts ...Option) *Controller {
	c := &Controller{
		engine:  engine,
		logger:  slog.Default(),
		sink:    discardSink{},
		queue:   NewLineQueue(),
		history: NewHistoryBuffer(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = log.WithComponent(c.logger, "console")
	c.backend = &adapter{ctrl: c, logger: c.logger}

	c.loadHistory()
	return c
}

// SetTarget replaces the currently running target.
func (c *Controller) SetTarget(t DebugTarget) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = t
}

// Attach binds the backend and the target's debug system to the engine.
// Attaching while attached rebinds and starts a new session.
func (c *Controller) Attach(ctx context.Context) (err error) {
	_, span := tracer.Start(ctx, "console.Attach")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			recordAttach("error")
		} else {
			recordAttach("ok")
		}
		span.End()
	}()

	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	target := c.currentTarget()
	if target == nil {
		return &dbgerrors.UnsupportedError{Feature: "debugger", Reason: "no running target", Cause: ErrNoDebugSupport}
	}
	sys, ok := target.DebugSystem()
	if !ok || sys == nil {
		return &dbgerrors.UnsupportedError{Feature: "debugger", Reason: "target exposes no debug system", Cause: ErrNoDebugSupport}
	}

	sessionID := uuid.NewString()
	span.SetAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("system.name", sys.Name()),
	)

	err = WithInterrupt(target, func() error {
		c.queue.ResetTermination()
		c.engine.AttachBackend(c.backend)
		return c.engine.AttachSystem(sys)
	})
	if err != nil {
		return dbgerrors.Wrap(err, "attaching debugger")
	}

	c.mu.Lock()
	c.attached = true
	c.sessionID = sessionID
	c.mu.Unlock()

	log.WithSession(c.logger, sessionID).Info("Debugger attached", slog.String("system", sys.Name()))
	return nil
}

// SubmitLine queues a line for the engine. If the engine is running rather
// than reading commands, it is asked to enter command mode first so the line
// is not left unread.
func (c *Controller) SubmitLine(text string) {
	in := Interrupt(c.currentTarget())
	defer in.Release()

	c.queue.Append(text)
	if c.engine.State() == StateRunning {
		c.engine.Enter(EnterManual)
	}
	c.queue.Wake()
}

// Detach releases a reader parked in ReadLine, detaches the engine, and
// saves the history. Detaching a detached controller does nothing.
func (c *Controller) Detach(ctx context.Context) error {
	_, span := tracer.Start(ctx, "console.Detach",
		trace.WithAttributes(attribute.String("history.path", c.historyPath)))
	defer span.End()

	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	attached, sessionID := c.attached, c.sessionID
	c.mu.Unlock()
	if !attached {
		span.SetAttributes(attribute.Bool("noop", true))
		return nil
	}
	span.SetAttributes(attribute.String("session.id", sessionID))
	logger := log.WithSession(c.logger, sessionID)

	in := Interrupt(c.currentTarget())
	if c.engine.State() != StateShutdown {
		c.queue.PushTermination()
	}
	in.Release()

	c.engine.Detach()

	c.mu.Lock()
	c.attached = false
	c.mu.Unlock()
	logger.Info("Debugger detached")

	if err := c.saveHistory(); err != nil {
		span.RecordError(err)
		logger.Warn("Could not save CLI history", log.String(log.PathKey, c.historyPath), log.Error(err))
	}
	return nil
}

// History returns a snapshot of the command history.
func (c *Controller) History() []string {
	return c.history.Lines()
}

// Attached reports whether an attach cycle is active.
func (c *Controller) Attached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attached
}

// SessionID returns the identifier of the current or most recent attach cycle.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// HistoryPath returns the configured history log location.
func (c *Controller) HistoryPath() string {
	return c.historyPath
}

func (c *Controller) currentTarget() DebugTarget {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *Controller) loadHistory() {
	if c.historyPath == "" {
		return
	}
	if err := c.history.Load(c.historyPath); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Debug("Ignoring unreadable CLI history", log.String(log.PathKey, c.historyPath), log.Error(err))
		}
		return
	}
	c.logger.Debug("Loaded CLI history", log.Int("entries", c.history.Len()))
}

func (c *Controller) saveHistory() error {
	if c.historyPath == "" {
		return nil
	}
	if err := c.history.Save(c.historyPath); err != nil {
		historySaveErrors.Inc()
		return err
	}
	return nil
}
