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

/*
Package engine implements a line-oriented command debugger that drives a
Machine through a console.Backend.

The Debugger reads one command at a time on its own goroutine. While the
machine runs, the Debugger waits without reading; a breakpoint, a completed
single step, or a manual interrupt from the host puts it back into command
mode.

# Commands

	continue, c             Resume execution until the next breakpoint
	next, n, step, s        Execute one step and stop
	break, b <step> [if x]  Stop before <step>, optionally when x is true
	delete, d <step>        Remove a breakpoint
	breakpoints, bl         List breakpoints
	print, p <expr>         Evaluate an expression against machine variables
	info, i                 Show where the machine is stopped
	context, ctx            Dump every machine variable
	help, h, ?              Show command help
	quit, q                 Stop reading commands

An empty line repeats the most recent command.
*/
package engine
