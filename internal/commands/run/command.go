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
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tombee/dbgconsole/internal/commands/completion"
	"github.com/tombee/dbgconsole/internal/commands/shared"
	"github.com/tombee/dbgconsole/internal/config"
	"github.com/tombee/dbgconsole/internal/log"
	"github.com/tombee/dbgconsole/internal/target"
	"github.com/tombee/dbgconsole/internal/tracing"
)

// NewCommand creates the run command
func NewCommand() *cobra.Command {
	var (
		programPath    string
		breakpoints    []string
		stepsPerSecond float64
		historyFile    string
		noDebug        bool
		traceExporter  string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a program with the debugger console attached",
		Long: `Run starts a simulated machine, attaches the debugger console to it, and
forwards lines from standard input to the debugger.

The machine runs until it reaches a breakpoint or a line is typed. Typing any
line while it runs stops it and executes the line as a command. An empty line
repeats the previous command. History is saved when the console detaches.

Examples:
  dbgconsole run
  dbgconsole run --program fib.yaml --break advance
  printf 'break loop\ncontinue\nprint a\nquit\n' | dbgconsole run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(shared.GetConfigPath())
			if err != nil {
				return shared.NewConfigError("failed to load configuration", err)
			}

			if cmd.Flags().Changed("program") {
				cfg.Target.Program = programPath
			}
			if cmd.Flags().Changed("steps-per-second") {
				cfg.Target.StepsPerSecond = stepsPerSecond
			}
			if cmd.Flags().Changed("history-file") {
				cfg.HistoryFile = historyFile
			}
			cfg.Target.Breakpoints = append(cfg.Target.Breakpoints, breakpoints...)

			logCfg := cfg.Logger()
			if shared.GetVerbose() {
				logCfg.Level = "debug"
			}
			logger := log.New(logCfg)

			program := target.DefaultProgram()
			if cfg.Target.Program != "" {
				program, err = target.LoadProgram(cfg.Target.Program)
				if err != nil {
					return shared.NewConfigError("invalid program", err)
				}
			}

			historyPath, err := cfg.HistoryPath()
			if err != nil {
				return shared.NewConfigError("cannot resolve history path", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cmd.Flags().Changed("trace") {
				cfg.Tracing.Exporter = traceExporter
			}
			version, _, _ := shared.GetVersion()
			shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
				Exporter:       cfg.Tracing.Exporter,
				Endpoint:       cfg.Tracing.Endpoint,
				Insecure:       cfg.Tracing.Insecure,
				Writer:         cmd.ErrOrStderr(),
				ServiceVersion: version,
			})
			if err != nil {
				return shared.NewConfigError("cannot set up tracing", err)
			}
			defer func() {
				if err := shutdownTracing(context.WithoutCancel(ctx)); err != nil {
					logger.Warn("Could not flush traces", log.Error(err))
				}
			}()

			session := &Session{
				Program:        program,
				Breakpoints:    cfg.Target.Breakpoints,
				StepsPerSecond: cfg.Target.StepsPerSecond,
				HistoryPath:    historyPath,
				Prompt:         cfg.Prompt,
				Interactive:    !shared.IsNonInteractive(),
				Quiet:          shared.GetQuiet(),
				NoDebug:        noDebug,
				In:             cmd.InOrStdin(),
				Out:            cmd.OutOrStdout(),
				Logger:         logger,
			}
			return session.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&programPath, "program", "p", "", "Path to a YAML program (default: built-in counter)")
	cmd.Flags().StringSliceVarP(&breakpoints, "break", "b", nil, "Set a breakpoint on a step (repeatable)")
	cmd.Flags().Float64Var(&stepsPerSecond, "steps-per-second", 0, "Execution speed, 0 for unlimited (default from config)")
	cmd.Flags().StringVar(&historyFile, "history-file", "", "Where to persist CLI history (default: <config dir>/cli_history.log)")
	cmd.Flags().BoolVar(&noDebug, "no-debug", false, "Run the machine without a debug system")
	_ = cmd.Flags().MarkHidden("no-debug")
	cmd.Flags().StringVar(&traceExporter, "trace", "", "Export session spans (none, console, otlp, otlp-http)")

	_ = cmd.RegisterFlagCompletionFunc("program", completion.CompleteProgramFiles)
	_ = cmd.RegisterFlagCompletionFunc("break", completion.CompleteStepNames)

	return cmd
}
