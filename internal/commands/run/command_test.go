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

package run

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/dbgconsole/internal/console"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("DBGCONSOLE_NON_INTERACTIVE", "true")
	for _, key := range []string{"DBGCONSOLE_HISTORY_FILE", "DBGCONSOLE_PROGRAM", "DBGCONSOLE_STEPS_PER_SECOND", "LOG_LEVEL", "LOG_FORMAT", "DBGCONSOLE_TRACE_EXPORTER", "OTEL_EXPORTER_OTLP_ENDPOINT"} {
		t.Setenv(key, "")
	}
	return dir
}

func TestRunCommand(t *testing.T) {
	isolateEnv(t)
	historyPath := filepath.Join(t.TempDir(), "history.log")

	programPath := filepath.Join(t.TempDir(), "fib.yaml")
	require.NoError(t, os.WriteFile(programPath, []byte(`
name: fib
steps:
  - name: init
    set: {a: 0, b: 1}
  - name: advance
    eval: {a: b, b: a + b}
`), 0600))

	cmd := NewCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("info\nbreakpoints\n"))
	cmd.SetArgs([]string{"--program", programPath, "--break", "advance", "--history-file", historyPath, "--steps-per-second", "0"})

	require.NoError(t, cmd.Execute())

	output := out.String()
	assert.Contains(t, output, "Attached to fib")
	assert.Contains(t, output, "fib: stopped before step")
	assert.Contains(t, output, "1: advance (hits:")

	lines, err := console.ReadHistoryFile(historyPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"info", "breakpoints"}, lines)
}

func TestRunCommand_DefaultHistoryLocation(t *testing.T) {
	dir := isolateEnv(t)

	cmd := NewCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader("help\n"))
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.FileExists(t, filepath.Join(dir, "dbgconsole", console.HistoryFileName))
}

func TestRunCommand_InvalidProgram(t *testing.T) {
	isolateEnv(t)

	cmd := NewCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs([]string{"--program", filepath.Join(t.TempDir(), "missing.yaml")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid program")
}

func TestRunCommand_FlagCompletion(t *testing.T) {
	cmd := NewCommand()

	complete, ok := cmd.GetFlagCompletionFunc("break")
	require.True(t, ok)
	steps, _ := complete(cmd, nil, "")
	assert.Equal(t, []string{"init", "loop", "check"}, steps)

	_, ok = cmd.GetFlagCompletionFunc("program")
	assert.True(t, ok)
}

func TestRunCommand_ConsoleTrace(t *testing.T) {
	isolateEnv(t)

	cmd := NewCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader("info\n"))
	cmd.SetArgs([]string{"--trace", "console", "--history-file", filepath.Join(t.TempDir(), "h.log")})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, errOut.String(), "console.Attach")
	assert.Contains(t, errOut.String(), "console.Detach")
	assert.NotContains(t, out.String(), "console.Attach")
}

func TestRunCommand_UnknownTraceExporter(t *testing.T) {
	isolateEnv(t)

	cmd := NewCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs([]string{"--trace", "zipkin"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot set up tracing")
}
