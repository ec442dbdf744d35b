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
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// HistoryFileName is the conventional name of the persisted history log.
const HistoryFileName = "cli_history.log"

// HistoryPlaceholder is returned by HistoryLast when nothing has been
// recorded yet. Engines that repeat the last command on a blank line get a
// harmless info command instead of a missing value.
const HistoryPlaceholder = "i"

// HistoryBuffer is an ordered, append-only record of submitted lines.
// Entries are not deduplicated.
type HistoryBuffer struct {
	mu    sync.Mutex
	lines []string
}

// NewHistoryBuffer creates an empty history.
func NewHistoryBuffer() *HistoryBuffer {
	return &HistoryBuffer{}
}

// Append records a line.
func (h *HistoryBuffer) Append(line string) {
	h.mu.Lock()
	h.lines = append(h.lines, line)
	n := len(h.lines)
	h.mu.Unlock()

	historyEntries.Set(float64(n))
}

// Last returns the most recent entry.
func (h *HistoryBuffer) Last() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.lines) == 0 {
		return "", false
	}
	return h.lines[len(h.lines)-1], true
}

// Lines returns a copy of every entry, oldest first.
func (h *HistoryBuffer) Lines() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]string, len(h.lines))
	copy(out, h.lines)
	return out
}

// Len returns the number of entries.
func (h *HistoryBuffer) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.lines)
}

// Replace swaps the whole history for lines.
func (h *HistoryBuffer) Replace(lines []string) {
	fresh := make([]string, len(lines))
	copy(fresh, lines)

	h.mu.Lock()
	h.lines = fresh
	h.mu.Unlock()

	historyEntries.Set(float64(len(fresh)))
}

// Load replaces the history with the contents of path. On error the buffer
// is left empty; callers treat a missing file as a normal first run.
func (h *HistoryBuffer) Load(path string) error {
	lines, err := ReadHistoryFile(path)
	h.Replace(lines)
	return err
}

// Save writes a snapshot of the history to path, one entry per line.
func (h *HistoryBuffer) Save(path string) error {
	return WriteHistoryFile(path, h.Lines())
}

// ReadHistoryFile reads a history log. Both LF and CRLF terminators are
// accepted, and a final line without a terminator is kept.
func ReadHistoryFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	r := bufio.NewReader(f)
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			if strings.HasSuffix(line, "\r\n") {
				line = line[:len(line)-2]
			} else if strings.HasSuffix(line, "\n") {
				line = line[:len(line)-1]
			}
			lines = append(lines, line)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return lines, nil
			}
			return lines, fmt.Errorf("failed to read history: %w", err)
		}
	}
}

// WriteHistoryFile truncates path and writes lines with LF terminators.
// The parent directory is created if needed.
func WriteHistoryFile(path string, lines []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open history for writing: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, line := range lines {
		w.WriteString(line)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write history: %w", err)
	}
	return f.Close()
}
