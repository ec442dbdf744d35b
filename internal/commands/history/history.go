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

// Package history implements the command that shows persisted console history.
package history

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/tombee/dbgconsole/internal/commands/shared"
	"github.com/tombee/dbgconsole/internal/config"
	"github.com/tombee/dbgconsole/internal/console"
)

// Response is the JSON output of the history command.
type Response struct {
	shared.JSONResponse
	Path    string   `json:"path"`
	Entries []string `json:"entries"`
}

// NewCommand creates the history command
func NewCommand() *cobra.Command {
	var (
		limit int
		clearAll bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show saved console history",
		Long: `History prints the commands saved by previous console sessions, oldest
first. Use --limit to show only the most recent entries and --clear to delete
the history file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(shared.GetConfigPath())
			if err != nil {
				return shared.NewConfigError("failed to load configuration", err)
			}
			path, err := cfg.HistoryPath()
			if err != nil {
				return shared.NewConfigError("cannot resolve history path", err)
			}

			if clearAll {
				return clearHistory(cmd, path)
			}

			entries, err := console.ReadHistoryFile(path)
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return shared.NewFailureError("failed to read history", err)
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}

			out := cmd.OutOrStdout()
			if shared.GetJSON() {
				if entries == nil {
					entries = []string{}
				}
				return shared.EmitJSON(out, Response{
					JSONResponse: shared.NewJSONResponse("history"),
					Path:         path,
					Entries:      entries,
				})
			}

			if len(entries) == 0 {
				fmt.Fprintln(out, shared.RenderLabel("No history saved at "+path))
				return nil
			}
			width := len(fmt.Sprint(len(entries)))
			for i, entry := range entries {
				fmt.Fprintf(out, "%s  %s\n", shared.RenderLabel(fmt.Sprintf("%*d", width, i+1)), entry)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show only the last N entries")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Delete the saved history")

	return cmd
}

func clearHistory(cmd *cobra.Command, path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return shared.NewFailureError("failed to clear history", err)
	}
	if !shared.GetQuiet() {
		fmt.Fprintln(cmd.OutOrStdout(), shared.RenderOK("Cleared history at "+path))
	}
	return nil
}
