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

package completion

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fibProgram = `name: fib
steps:
  - name: seed
    set: {a: 0, b: 1}
  - name: advance
    eval: {a: b, b: a + b}
`

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "run"}
	cmd.Flags().String("program", "", "")
	cmd.Flags().StringSlice("break", nil, "")
	return cmd
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			root := &cobra.Command{Use: "dbgconsole"}
			root.AddCommand(NewCommand())
			buf := new(bytes.Buffer)
			root.SetOut(buf)
			root.SetArgs([]string{"completion", shell})

			require.NoError(t, root.Execute())
			assert.Contains(t, buf.String(), "dbgconsole")
		})
	}
}

func TestCompletionCommand_RejectsUnknownShell(t *testing.T) {
	root := &cobra.Command{Use: "dbgconsole", SilenceErrors: true, SilenceUsage: true}
	root.AddCommand(NewCommand())
	root.SetArgs([]string{"completion", "tcsh"})
	assert.Error(t, root.Execute())
}

func TestCompleteProgramFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "fib.yaml"), fibProgram)
	writeFile(t, filepath.Join(dir, "programs", "count.yml"), "name: count\nsteps:\n  - name: tick\n    eval: {n: n + 1}\n")
	writeFile(t, filepath.Join(dir, "config.yaml"), "prompt: '> '\n")
	writeFile(t, filepath.Join(dir, "broken.yaml"), "{{{")
	writeFile(t, filepath.Join(dir, ".hidden", "secret.yaml"), fibProgram)
	writeFile(t, filepath.Join(dir, "a", "b", "c", "deep.yaml"), fibProgram)

	// Newest first.
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "fib.yaml"), old, old))

	chdir(t, dir)
	results, directive := CompleteProgramFiles(nil, nil, "")

	assert.Equal(t, cobra.ShellCompDirectiveDefault, directive)
	assert.Equal(t, []string{filepath.Join("programs", "count.yml"), "fib.yaml"}, results)

	results, _ = CompleteProgramFiles(nil, nil, "fi")
	assert.Equal(t, []string{"fib.yaml"}, results)
}

func TestCompleteProgramFiles_NoneFound(t *testing.T) {
	chdir(t, t.TempDir())
	results, directive := CompleteProgramFiles(nil, nil, "")
	assert.Empty(t, results)
	assert.NotNil(t, results)
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
}

func TestCompleteProgramFiles_SkipsSymlinks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "real.yaml"), fibProgram)
	if err := os.Symlink(filepath.Join(dir, "real.yaml"), filepath.Join(dir, "link.yaml")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	chdir(t, dir)
	results, _ := CompleteProgramFiles(nil, nil, "")
	assert.Equal(t, []string{"real.yaml"}, results)
}

func TestCompleteStepNames(t *testing.T) {
	t.Run("built-in program", func(t *testing.T) {
		results, directive := CompleteStepNames(runCmd(), nil, "")
		assert.Equal(t, []string{"init", "loop", "check"}, results)
		assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
	})

	t.Run("program flag", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fib.yaml")
		writeFile(t, path, fibProgram)

		cmd := runCmd()
		require.NoError(t, cmd.Flags().Set("program", path))
		results, _ := CompleteStepNames(cmd, nil, "")
		assert.Equal(t, []string{"seed", "advance"}, results)
	})

	t.Run("prefix and existing breakpoints", func(t *testing.T) {
		cmd := runCmd()
		require.NoError(t, cmd.Flags().Set("break", "loop"))
		results, _ := CompleteStepNames(cmd, nil, "")
		assert.Equal(t, []string{"init", "check"}, results)

		results, _ = CompleteStepNames(cmd, nil, "c")
		assert.Equal(t, []string{"check"}, results)
	})

	t.Run("unreadable program", func(t *testing.T) {
		cmd := runCmd()
		require.NoError(t, cmd.Flags().Set("program", filepath.Join(t.TempDir(), "missing.yaml")))
		results, _ := CompleteStepNames(cmd, nil, "")
		assert.Empty(t, results)
	})
}

func TestSafeCompletionWrapper(t *testing.T) {
	results, directive := SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		panic("boom")
	})
	assert.Empty(t, results)
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)

	results, directive = SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		return []string{"x"}, cobra.ShellCompDirectiveNoSpace
	})
	assert.Equal(t, []string{"x"}, results)
	assert.Equal(t, cobra.ShellCompDirectiveNoSpace, directive)
}
