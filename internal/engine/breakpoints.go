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
	"slices"
	"strings"
	"sync"

	"github.com/tombee/dbgconsole/pkg/errors"
)

// Breakpoint stops the machine before a named step runs.
type Breakpoint struct {
	Step string

	// Condition is an optional boolean expression. The breakpoint only
	// fires when it evaluates to true.
	Condition string

	// Hits counts how many times the breakpoint fired.
	Hits int
}

// String formats the breakpoint for listings.
func (b Breakpoint) String() string {
	var s strings.Builder
	s.WriteString(b.Step)
	if b.Condition != "" {
		s.WriteString(" if ")
		s.WriteString(b.Condition)
	}
	return s.String()
}

// Breakpoints is the set of active breakpoints, keyed by step name.
type Breakpoints struct {
	eval *Evaluator

	mu   sync.Mutex
	list []*Breakpoint
}

// NewBreakpoints creates a set with unconditional breakpoints on steps.
func NewBreakpoints(eval *Evaluator, steps ...string) *Breakpoints {
	b := &Breakpoints{eval: eval}
	for _, step := range steps {
		_ = b.Add(step, "")
	}
	return b
}

// ParseBreakpoint splits "step" or "step if expr" into its parts.
func ParseBreakpoint(spec string) (step, condition string, err error) {
	step, condition, _ = strings.Cut(spec, " if ")
	step = strings.TrimSpace(step)
	condition = strings.TrimSpace(condition)
	if step == "" || strings.ContainsAny(step, " \t") {
		return "", "", &errors.ValidationError{
			Field:   "breakpoint",
			Message: fmt.Sprintf("%q is not of the form <step> [if <expr>]", spec),
		}
	}
	return step, condition, nil
}

// Add sets a breakpoint, replacing any existing one on the same step.
func (b *Breakpoints) Add(step, condition string) error {
	if err := b.eval.Check(condition); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if i := b.indexLocked(step); i >= 0 {
		b.list[i].Condition = condition
		return nil
	}
	b.list = append(b.list, &Breakpoint{Step: step, Condition: condition})
	return nil
}

// Remove deletes the breakpoint on step and reports whether one existed.
func (b *Breakpoints) Remove(step string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.list)
	b.list = slices.DeleteFunc(b.list, func(bp *Breakpoint) bool {
		return bp.Step == step
	})
	return len(b.list) != n
}

// Clear removes all breakpoints.
func (b *Breakpoints) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.list = nil
}

// List returns a copy of the breakpoints in insertion order.
func (b *Breakpoints) List() []Breakpoint {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Breakpoint, len(b.list))
	for i, bp := range b.list {
		out[i] = *bp
	}
	return out
}

// Len returns the number of breakpoints.
func (b *Breakpoints) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.list)
}

// ShouldPauseAt reports whether execution should stop before step. A
// condition that fails to evaluate stops execution and returns the error.
func (b *Breakpoints) ShouldPauseAt(step string, vars map[string]any) (bool, error) {
	b.mu.Lock()
	i := b.indexLocked(step)
	if i < 0 {
		b.mu.Unlock()
		return false, nil
	}
	bp := b.list[i]
	condition := bp.Condition
	b.mu.Unlock()

	ok, err := b.eval.Bool(condition, vars)
	if err != nil {
		ok = true
	}
	if ok {
		b.mu.Lock()
		bp.Hits++
		b.mu.Unlock()
	}
	return ok, err
}

func (b *Breakpoints) indexLocked(step string) int {
	return slices.IndexFunc(b.list, func(bp *Breakpoint) bool {
		return bp.Step == step
	})
}
