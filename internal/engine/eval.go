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
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/tombee/dbgconsole/pkg/errors"
)

// Evaluator compiles and caches expressions evaluated against machine variables.
type Evaluator struct {
	cache map[string]*vm.Program
	mu    sync.RWMutex
}

// NewEvaluator creates an empty evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		cache: make(map[string]*vm.Program),
	}
}

// Value evaluates expression and returns its result.
func (e *Evaluator) Value(expression string, vars map[string]any) (any, error) {
	program, err := e.compile(expression, false)
	if err != nil {
		return nil, err
	}

	result, err := expr.Run(program, copyVars(vars))
	if err != nil {
		return nil, &errors.ValidationError{
			Field:   "expression",
			Message: fmt.Sprintf("expression evaluation failed: %s", err.Error()),
		}
	}
	return result, nil
}

// Bool evaluates a condition. An empty condition is true.
func (e *Evaluator) Bool(expression string, vars map[string]any) (bool, error) {
	if expression == "" {
		return true, nil
	}

	program, err := e.compile(expression, true)
	if err != nil {
		return false, err
	}

	result, err := expr.Run(program, copyVars(vars))
	if err != nil {
		return false, &errors.ValidationError{
			Field:   "condition",
			Message: fmt.Sprintf("condition evaluation failed: %s", err.Error()),
		}
	}

	b, ok := result.(bool)
	if !ok {
		return false, &errors.ValidationError{
			Field:      "condition",
			Message:    fmt.Sprintf("condition must return boolean, got %T (%v)", result, result),
			Suggestion: "use comparison operators (==, !=, <, >, etc.)",
		}
	}
	return b, nil
}

// Check compiles a condition without running it.
func (e *Evaluator) Check(condition string) error {
	if condition == "" {
		return nil
	}
	_, err := e.compile(condition, true)
	return err
}

func (e *Evaluator) compile(expression string, condition bool) (*vm.Program, error) {
	key := expression
	if condition {
		key = "?" + expression
	}

	e.mu.RLock()
	if prog, ok := e.cache[key]; ok {
		e.mu.RUnlock()
		return prog, nil
	}
	e.mu.RUnlock()

	opts := []expr.Option{expr.AllowUndefinedVariables()}
	if condition {
		opts = append(opts, expr.AsBool())
	}
	prog, err := expr.Compile(expression, opts...)
	if err != nil {
		return nil, &errors.ValidationError{
			Field:      "expression",
			Message:    fmt.Sprintf("failed to compile expression: %s", err.Error()),
			Suggestion: "check expression syntax",
		}
	}

	e.mu.Lock()
	e.cache[key] = prog
	e.mu.Unlock()

	return prog, nil
}

// CacheSize returns the number of cached programs.
func (e *Evaluator) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}

func copyVars(vars map[string]any) map[string]any {
	env := make(map[string]any, len(vars))
	for k, v := range vars {
		env[k] = v
	}
	return env
}
