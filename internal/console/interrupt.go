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
)

// Interrupter holds a target paused until Release is called.
type Interrupter struct {
	target Target
	once   sync.Once
}

// Interrupt pauses t and returns a handle that must be released exactly once.
// A nil target yields a handle whose Release does nothing.
//
//	in := console.Interrupt(target)
//	defer in.Release()
func Interrupt(t Target) *Interrupter {
	if t != nil {
		t.Interrupt()
		interrupts.Inc()
	}
	return &Interrupter{target: t}
}

// Release lets the target resume. Calls after the first are no-ops.
func (i *Interrupter) Release() {
	i.once.Do(func() {
		if i.target != nil {
			i.target.Continue()
		}
	})
}

// WithInterrupt runs fn with t paused. The target is resumed exactly once
// whether fn returns normally, returns an error, or panics.
func WithInterrupt(t Target, fn func() error) error {
	in := Interrupt(t)
	defer in.Release()
	return fn()
}
