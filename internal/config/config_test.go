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

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tombee/dbgconsole/internal/console"
	dbgerrors "github.com/tombee/dbgconsole/pkg/errors"
)

// isolate points XDG_CONFIG_HOME at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	for _, key := range []string{
		"DBGCONSOLE_HISTORY_FILE", "DBGCONSOLE_PROMPT", "DBGCONSOLE_PROGRAM",
		"DBGCONSOLE_STEPS_PER_SECOND", "LOG_LEVEL", "LOG_FORMAT", "LOG_SOURCE",
		"DBGCONSOLE_TRACE_EXPORTER", "OTEL_EXPORTER_OTLP_ENDPOINT",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Prompt != "> " {
		t.Errorf("expected prompt '> ', got %q", cfg.Prompt)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected log level 'info', got %q", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("expected log format 'text', got %q", cfg.Log.Format)
	}
	if cfg.Target.StepsPerSecond != 20 {
		t.Errorf("expected 20 steps per second, got %v", cfg.Target.StepsPerSecond)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoad_NoFile(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Prompt != "> " {
		t.Errorf("expected default prompt, got %q", cfg.Prompt)
	}
}

func TestLoad_FromFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
history_file: /tmp/dbg/history.log
prompt: "(dbg) "
log:
  level: debug
target:
  program: prog.yaml
  steps_per_second: 5
  breakpoints: [loop, check]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HistoryFile != "/tmp/dbg/history.log" {
		t.Errorf("unexpected history file %q", cfg.HistoryFile)
	}
	if cfg.Prompt != "(dbg) " {
		t.Errorf("unexpected prompt %q", cfg.Prompt)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("unexpected log level %q", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("format should fall back to default, got %q", cfg.Log.Format)
	}
	if cfg.Target.Program != "prog.yaml" || cfg.Target.StepsPerSecond != 5 {
		t.Errorf("unexpected target config %+v", cfg.Target)
	}
	if strings.Join(cfg.Target.Breakpoints, ",") != "loop,check" {
		t.Errorf("unexpected breakpoints %v", cfg.Target.Breakpoints)
	}
}

func TestLoad_DefaultLocation(t *testing.T) {
	dir := isolate(t)
	if err := os.MkdirAll(filepath.Join(dir, "dbgconsole"), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "dbgconsole", "config.yaml"), []byte("prompt: \"$ \"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Prompt != "$ " {
		t.Errorf("expected prompt from default location, got %q", cfg.Prompt)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "prompt: file\nlog:\n  level: warn\n")

	t.Setenv("DBGCONSOLE_PROMPT", "env> ")
	t.Setenv("DBGCONSOLE_HISTORY_FILE", "/var/tmp/h.log")
	t.Setenv("DBGCONSOLE_STEPS_PER_SECOND", "2.5")
	t.Setenv("DBGCONSOLE_PROGRAM", "env.yaml")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_SOURCE", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Prompt != "env> " {
		t.Errorf("env should override prompt, got %q", cfg.Prompt)
	}
	if cfg.HistoryFile != "/var/tmp/h.log" {
		t.Errorf("env should override history file, got %q", cfg.HistoryFile)
	}
	if cfg.Target.StepsPerSecond != 2.5 {
		t.Errorf("env should override steps per second, got %v", cfg.Target.StepsPerSecond)
	}
	if cfg.Target.Program != "env.yaml" {
		t.Errorf("env should override program, got %q", cfg.Target.Program)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" || !cfg.Log.AddSource {
		t.Errorf("env should override log config, got %+v", cfg.Log)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		key     string
	}{
		{name: "bad yaml", content: "prompt: [", key: "config_file"},
		{name: "bad level", content: "log:\n  level: loud\n", key: "validation"},
		{name: "bad format", content: "log:\n  format: xml\n", key: "validation"},
		{name: "negative pacing", content: "target:\n  steps_per_second: -1\n", key: "validation"},
		{name: "empty breakpoint", content: "target:\n  breakpoints: [\"\"]\n", key: "validation"},
		{name: "bad exporter", content: "tracing:\n  exporter: zipkin\n", key: "validation"},
		{name: "otlp without endpoint", content: "tracing:\n  exporter: otlp\n", key: "validation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}

			var cfgErr *dbgerrors.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %T", err)
			}
			if cfgErr.Key != tt.key {
				t.Errorf("expected key %q, got %q", tt.key, cfgErr.Key)
			}
		})
	}
}

func TestLoad_Tracing(t *testing.T) {
	isolate(t)

	cfg, err := Load(writeConfig(t, "tracing:\n  exporter: otlp-http\n  endpoint: collector:4318\n  insecure: true\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Tracing.Exporter != "otlp-http" || cfg.Tracing.Endpoint != "collector:4318" || !cfg.Tracing.Insecure {
		t.Errorf("unexpected tracing config: %+v", cfg.Tracing)
	}

	t.Setenv("DBGCONSOLE_TRACE_EXPORTER", "OTLP")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Tracing.Exporter != "otlp" || cfg.Tracing.Endpoint != "localhost:4317" {
		t.Errorf("env overrides not applied: %+v", cfg.Tracing)
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	isolate(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("an explicit config path must exist")
	}
}

func TestHistoryPath(t *testing.T) {
	dir := isolate(t)

	cfg := Default()
	got, err := cfg.HistoryPath()
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "dbgconsole", console.HistoryFileName)
	if got != want {
		t.Errorf("HistoryPath() = %q, want %q", got, want)
	}

	cfg.HistoryFile = "/custom/history.log"
	got, err = cfg.HistoryPath()
	if err != nil {
		t.Fatal(err)
	}
	if got != "/custom/history.log" {
		t.Errorf("HistoryPath() = %q, want custom path", got)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	cfg.HistoryFile = "~/dbg/history.log"
	got, _ = cfg.HistoryPath()
	if got != filepath.Join(home, "dbg", "history.log") {
		t.Errorf("HistoryPath() did not expand ~: %q", got)
	}
}

func TestLogger(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "debug"
	cfg.Log.Format = "json"

	lc := cfg.Logger()
	if lc.Level != "debug" || string(lc.Format) != "json" {
		t.Errorf("unexpected logger config %+v", lc)
	}
}
