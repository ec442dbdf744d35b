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

package target

import (
	"fmt"
	"os"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"gopkg.in/yaml.v3"

	"github.com/tombee/dbgconsole/pkg/errors"
)

// Program is an ordered list of steps executed in a loop.
type Program struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step is a single unit of execution.
type Step struct {
	// Name identifies the step for breakpoints. Names must be unique.
	Name string `yaml:"name"`

	// Set assigns literal values to variables.
	Set map[string]any `yaml:"set,omitempty"`

	// Eval assigns the result of an expression to a variable. Expressions
	// are evaluated after Set and do not see each other's results.
	Eval map[string]string `yaml:"eval,omitempty"`

	compiled map[string]*vm.Program
}

// DefaultProgram returns a small counting loop.
func DefaultProgram() *Program {
	p := &Program{
		Name: "counter",
		Steps: []Step{
			{Name: "init", Set: map[string]any{"a": 0, "b": 1}},
			{Name: "loop", Eval: map[string]string{"a": "a + b"}},
			{Name: "check", Eval: map[string]string{"even": "a % 2 == 0"}},
		},
	}
	if err := p.Compile(); err != nil {
		panic(err)
	}
	return p
}

// LoadProgram reads and compiles a program from a YAML file.
func LoadProgram(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading program %s", path)
	}
	return ParseProgram(data)
}

// ParseProgram decodes and compiles a YAML program.
func ParseProgram(data []byte) (*Program, error) {
	var p Program
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(err, "parsing program")
	}
	if err := p.Compile(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Compile validates the program and compiles its expressions.
func (p *Program) Compile() error {
	if len(p.Steps) == 0 {
		return &errors.ValidationError{
			Field:      "steps",
			Message:    "program has no steps",
			Suggestion: "add at least one step with a name",
		}
	}

	seen := make(map[string]bool, len(p.Steps))
	for i := range p.Steps {
		step := &p.Steps[i]
		if step.Name == "" {
			return &errors.ValidationError{
				Field:   fmt.Sprintf("steps[%d].name", i),
				Message: "step name is required",
			}
		}
		if seen[step.Name] {
			return &errors.ValidationError{
				Field:   fmt.Sprintf("steps[%d].name", i),
				Message: fmt.Sprintf("duplicate step name %q", step.Name),
			}
		}
		seen[step.Name] = true

		step.compiled = make(map[string]*vm.Program, len(step.Eval))
		for name, source := range step.Eval {
			prog, err := expr.Compile(source, expr.AllowUndefinedVariables())
			if err != nil {
				return &errors.ValidationError{
					Field:      fmt.Sprintf("steps[%d].eval.%s", i, name),
					Message:    fmt.Sprintf("failed to compile expression: %s", err.Error()),
					Suggestion: "check expression syntax",
				}
			}
			step.compiled[name] = prog
		}
	}
	return nil
}

// HasStep reports whether a step with the given name exists.
func (p *Program) HasStep(name string) bool {
	for _, step := range p.Steps {
		if step.Name == name {
			return true
		}
	}
	return false
}

// StepNames lists step names in program order.
func (p *Program) StepNames() []string {
	names := make([]string, len(p.Steps))
	for i, step := range p.Steps {
		names[i] = step.Name
	}
	return names
}

// exec applies the step to vars.
func (s *Step) exec(vars map[string]any) error {
	for name, value := range s.Set {
		vars[name] = value
	}
	if len(s.compiled) == 0 {
		return nil
	}

	env := make(map[string]any, len(vars))
	for k, v := range vars {
		env[k] = v
	}
	for name, prog := range s.compiled {
		out, err := expr.Run(prog, env)
		if err != nil {
			return errors.Wrapf(err, "step %s: evaluating %s", s.Name, name)
		}
		vars[name] = out
	}
	return nil
}
