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
	"encoding/json"
	"maps"
	"slices"
	"strings"

	"github.com/tombee/dbgconsole/internal/console"
	"github.com/tombee/dbgconsole/internal/log"
)

const helpText = `Debugger commands:
  continue, c             Resume execution until the next breakpoint
  next, n, step, s        Execute one step and stop
  break, b <step> [if x]  Stop before <step>, optionally only when x is true
  delete, d <step>        Remove the breakpoint on <step>
  breakpoints, bl         List breakpoints
  print, p <expr>         Evaluate an expression against machine variables
  info, i                 Show where the machine is stopped
  context, ctx            Dump every machine variable
  help, h, ?              Show this help message
  quit, q                 Stop the debugger

An empty line repeats the last command.
`

// HelpText returns the command reference printed by the help command.
func HelpText() string {
	return helpText
}

// execute runs one command line and reports whether the loop should stop.
func (d *Debugger) execute(b console.Backend, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	name := strings.ToLower(fields[0])
	args := fields[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))

	m := d.currentMachine()
	if m == nil {
		b.Printf("No machine attached\n")
		return false
	}

	log.Trace(d.logger, "Executing command", log.String("command", name))

	switch name {
	case "c", "continue":
		commandsExecuted.WithLabelValues("continue").Inc()
		b.Printf("Continuing.\n")
		d.run(m, false)

	case "n", "next", "s", "step":
		commandsExecuted.WithLabelValues("next").Inc()
		d.run(m, true)

	case "b", "break":
		commandsExecuted.WithLabelValues("break").Inc()
		d.handleBreak(b, m, rest)

	case "d", "delete":
		commandsExecuted.WithLabelValues("delete").Inc()
		if len(args) != 1 {
			b.Printf("Usage: delete <step>\n")
			return false
		}
		if d.breakpoints.Remove(args[0]) {
			b.Printf("Deleted breakpoint at %s\n", args[0])
		} else {
			b.Printf("No breakpoint at %s\n", args[0])
		}

	case "bl", "breakpoints":
		commandsExecuted.WithLabelValues("breakpoints").Inc()
		list := d.breakpoints.List()
		if len(list) == 0 {
			b.Printf("No breakpoints\n")
			return false
		}
		for i, bp := range list {
			b.Printf("%d: %s (hits: %d)\n", i+1, bp, bp.Hits)
		}

	case "p", "print":
		commandsExecuted.WithLabelValues("print").Inc()
		if rest == "" {
			b.Printf("Usage: print <expr>\n")
			return false
		}
		value, err := d.eval.Value(rest, m.Vars())
		if err != nil {
			b.Printf("Error: %v\n", err)
			return false
		}
		b.Printf("%s = %v\n", rest, value)

	case "i", "info":
		commandsExecuted.WithLabelValues("info").Inc()
		b.Printf("%s: stopped before step %s (%d steps executed, %d breakpoints)\n",
			m.Name(), m.Current(), m.Steps(), d.breakpoints.Len())

	case "ctx", "context":
		commandsExecuted.WithLabelValues("context").Inc()
		d.handleContext(b, m)

	case "h", "help", "?":
		commandsExecuted.WithLabelValues("help").Inc()
		b.Printf("%s", helpText)

	case "q", "quit":
		commandsExecuted.WithLabelValues("quit").Inc()
		return true

	default:
		commandsExecuted.WithLabelValues("unknown").Inc()
		b.Printf("Unknown command: %s (type 'help' for commands)\n", name)
	}
	return false
}

func (d *Debugger) handleBreak(b console.Backend, m Machine, rest string) {
	step, condition, err := ParseBreakpoint(rest)
	if err != nil {
		b.Printf("Usage: break <step> [if <expr>]\n")
		return
	}
	if !m.HasStep(step) {
		b.Printf("No step named %s\n", step)
		return
	}
	if err := d.breakpoints.Add(step, condition); err != nil {
		b.Printf("Error: %v\n", err)
		return
	}
	if condition != "" {
		b.Printf("Breakpoint set at %s if %s\n", step, condition)
	} else {
		b.Printf("Breakpoint set at %s\n", step)
	}
}

func (d *Debugger) handleContext(b console.Backend, m Machine) {
	vars := m.Vars()
	if len(vars) == 0 {
		b.Printf("Context is empty\n")
		return
	}

	for _, key := range slices.Sorted(maps.Keys(vars)) {
		data, err := json.Marshal(vars[key])
		if err != nil {
			b.Printf("  %s = %v\n", key, vars[key])
			continue
		}
		b.Printf("  %s = %s\n", key, data)
	}
}
