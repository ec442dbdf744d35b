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
	"io"
	"strings"
	"sync"
)

// Sink receives engine output for display by the host.
type Sink interface {
	// Print receives formatted engine output.
	Print(text string)

	// Echo receives a line the engine reflects back to the input view.
	Echo(line string)
}

// WriterSink writes engine output to an io.Writer.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink creates a sink that serializes writes to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Print writes text as-is.
func (s *WriterSink) Print(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	io.WriteString(s.w, text)
}

// Echo writes line followed by a newline.
func (s *WriterSink) Echo(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	io.WriteString(s.w, strings.TrimRight(line, "\n")+"\n")
}

type discardSink struct{}

func (discardSink) Print(string) {}
func (discardSink) Echo(string)  {}
