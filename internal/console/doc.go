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

// Package console bridges a synchronous, line-oriented debugger engine with a
// host whose input arrives asynchronously from another goroutine.
//
// Three goroutines take part: the host (UI or terminal reader) submitting
// lines and driving detach, the engine goroutine parked in ReadLine, and the
// target execution goroutine that is paused around every shared-state touch.
//
// # Line Queue
//
// LineQueue is a FIFO of pending lines guarded by one mutex with a
// single-slot condition signal. Take is the only blocking point in the
// package. End of input is an explicit sentinel (EndOfInput), never an empty
// string, because a blank line is a legitimate command.
//
// # History
//
// HistoryBuffer records submitted lines and persists them to a plain text log,
// one entry per line. Loading tolerates LF and CRLF terminators; a missing
// file yields an empty history.
//
// # Interrupts
//
// Interrupt pauses the target for the duration of a scope. The interrupter is
// always the outer scope and queue or history locks the inner one, on every
// path, so the submit path and the engine hooks cannot invert lock order.
//
// # Example Usage
//
//	ctrl := console.NewController(engine,
//		console.WithTarget(machine),
//		console.WithHistoryPath(historyPath),
//		console.WithSink(console.NewWriterSink(os.Stdout)),
//	)
//	if err := ctrl.Attach(ctx); err != nil {
//		return err
//	}
//	defer ctrl.Detach(context.Background())
//
//	ctrl.SubmitLine("break loop")
//	ctrl.SubmitLine("continue")
package console
