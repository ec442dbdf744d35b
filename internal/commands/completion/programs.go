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
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tombee/dbgconsole/internal/target"
)

const (
	maxProgramFiles = 100
	maxSearchDepth  = 2
)

type programFile struct {
	path    string
	modTime int64
}

// CompleteProgramFiles completes --program with YAML files that parse as
// machine programs, newest first, searching at most two directories deep.
func CompleteProgramFiles(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		files, err := discoverProgramFiles(".", maxSearchDepth)
		if err != nil || len(files) == 0 {
			return nil, cobra.ShellCompDirectiveDefault
		}

		sort.Slice(files, func(i, j int) bool {
			return files[i].modTime > files[j].modTime
		})
		if len(files) > maxProgramFiles {
			files = files[:maxProgramFiles]
		}

		var paths []string
		for _, f := range files {
			if strings.HasPrefix(f.path, toComplete) {
				paths = append(paths, f.path)
			}
		}
		return paths, cobra.ShellCompDirectiveDefault
	})
}

// CompleteStepNames completes --break with the steps of the program named by
// --program, or of the built-in program when the flag is unset. Steps that
// already have a breakpoint on the command line are left out.
func CompleteStepNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		program := target.DefaultProgram()
		if cmd != nil {
			if path, err := cmd.Flags().GetString("program"); err == nil && path != "" {
				loaded, err := target.LoadProgram(path)
				if err != nil {
					return nil, cobra.ShellCompDirectiveNoFileComp
				}
				program = loaded
			}
		}

		var taken []string
		if cmd != nil {
			taken, _ = cmd.Flags().GetStringSlice("break")
		}

		var names []string
		for _, name := range program.StepNames() {
			if slices.Contains(taken, name) || !strings.HasPrefix(name, toComplete) {
				continue
			}
			names = append(names, name)
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})
}

func discoverProgramFiles(root string, maxDepth int) ([]programFile, error) {
	var files []programFile

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		relPath, _ := filepath.Rel(root, path)
		if strings.Count(relPath, string(filepath.Separator)) > maxDepth {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return fs.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}
		if !isRegularFile(path) || !isProgramFile(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, programFile{path: path, modTime: info.ModTime().Unix()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// isRegularFile rejects symlinks so completion never follows a link out of the tree.
func isRegularFile(path string) bool {
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

func isProgramFile(path string) bool {
	_, err := target.LoadProgram(path)
	return err == nil
}
