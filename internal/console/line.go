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

// Line is a pending input line: either text or the end-of-input sentinel.
type Line struct {
	// Text is the submitted line. It may be empty.
	Text string

	end bool
}

// EndOfInput tells the reader to stop reading for the current attach cycle.
var EndOfInput = Line{end: true}

// TextLine wraps submitted text.
func TextLine(text string) Line {
	return Line{Text: text}
}

// IsEnd reports whether l is the end-of-input sentinel.
func (l Line) IsEnd() bool {
	return l.end
}
