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

// Package config loads dbgconsole settings from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tombee/dbgconsole/internal/console"
	"github.com/tombee/dbgconsole/internal/log"
	dbgerrors "github.com/tombee/dbgconsole/pkg/errors"
)

// Config is the complete dbgconsole configuration.
type Config struct {
	// HistoryFile is where CLI history is persisted between sessions.
	// Environment: DBGCONSOLE_HISTORY_FILE
	// Default: <config dir>/cli_history.log
	HistoryFile string `yaml:"history_file"`

	// Prompt is printed before each line read from an interactive terminal.
	// Environment: DBGCONSOLE_PROMPT
	// Default: "> "
	Prompt string `yaml:"prompt"`

	Log LogConfig `yaml:"log"`

	Target TargetConfig `yaml:"target"`

	Tracing TracingConfig `yaml:"tracing"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	// Level sets the minimum log level (trace, debug, info, warn, error).
	// Environment: LOG_LEVEL
	// Default: info
	Level string `yaml:"level"`

	// Format sets the output format (json, text).
	// Environment: LOG_FORMAT
	// Default: text
	Format string `yaml:"format"`

	// AddSource adds source file and line information to logs.
	// Environment: LOG_SOURCE
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// TargetConfig configures the simulated machine.
type TargetConfig struct {
	// Program is a path to a YAML program. Empty runs the built-in program.
	// Environment: DBGCONSOLE_PROGRAM
	Program string `yaml:"program"`

	// StepsPerSecond paces execution. Zero means unlimited.
	// Environment: DBGCONSOLE_STEPS_PER_SECOND
	// Default: 20
	StepsPerSecond float64 `yaml:"steps_per_second"`

	// Breakpoints are installed before the first attach.
	Breakpoints []string `yaml:"breakpoints"`
}

// TracingConfig configures span export for debugger sessions.
type TracingConfig struct {
	// Exporter selects where spans go (none, console, otlp, otlp-http).
	// Environment: DBGCONSOLE_TRACE_EXPORTER
	// Default: none
	Exporter string `yaml:"exporter"`

	// Endpoint is the collector address for the OTLP exporters.
	// Environment: OTEL_EXPORTER_OTLP_ENDPOINT
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS for the OTLP exporters.
	Insecure bool `yaml:"insecure"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Prompt: "> ",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Target: TargetConfig{
			StepsPerSecond: 20,
		},
		Tracing: TracingConfig{
			Exporter: "none",
		},
	}
}

// Load loads configuration from an optional YAML file and the environment.
// Environment variables take precedence over the file. A missing file at the
// default location is not an error; an explicit path must exist.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	explicit := configPath != ""
	if !explicit {
		if p, err := ConfigPath(); err == nil {
			configPath = p
		}
	}

	if configPath != "" {
		err := cfg.loadFromFile(configPath)
		switch {
		case err == nil:
		case !explicit && errors.Is(err, fs.ErrNotExist):
		default:
			return nil, &dbgerrors.ConfigError{
				Key:    "config_file",
				Reason: fmt.Sprintf("failed to load from %s", configPath),
				Cause:  err,
			}
		}
	}

	cfg.applyDefaults()
	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, &dbgerrors.ConfigError{
			Key:    "validation",
			Reason: "configuration validation failed",
			Cause:  err,
		}
	}

	return cfg, nil
}

// HistoryPath resolves where CLI history is stored.
func (c *Config) HistoryPath() (string, error) {
	if c.HistoryFile != "" {
		return expandHome(c.HistoryFile)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, console.HistoryFileName), nil
}

// Logger builds a logger configuration writing to stderr.
func (c *Config) Logger() *log.Config {
	cfg := log.DefaultConfig()
	cfg.Level = c.Log.Level
	cfg.Format = log.Format(c.Log.Format)
	cfg.AddSource = c.Log.AddSource
	return cfg
}

// applyDefaults fills in zero values a partial file left empty.
func (c *Config) applyDefaults() {
	defaults := Default()

	if c.Prompt == "" {
		c.Prompt = defaults.Prompt
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = defaults.Tracing.Exporter
	}
}

func (c *Config) loadFromFile(path string) error {
	path, err := expandHome(path)
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("DBGCONSOLE_HISTORY_FILE"); val != "" {
		c.HistoryFile = val
	}
	if val := os.Getenv("DBGCONSOLE_PROMPT"); val != "" {
		c.Prompt = val
	}

	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_SOURCE"); val != "" {
		c.Log.AddSource = val == "1" || strings.ToLower(val) == "true"
	}

	if val := os.Getenv("DBGCONSOLE_PROGRAM"); val != "" {
		c.Target.Program = val
	}
	if val := os.Getenv("DBGCONSOLE_STEPS_PER_SECOND"); val != "" {
		if n, err := strconv.ParseFloat(val, 64); err == nil {
			c.Target.StepsPerSecond = n
		}
	}

	if val := os.Getenv("DBGCONSOLE_TRACE_EXPORTER"); val != "" {
		c.Tracing.Exporter = strings.ToLower(val)
	}
	if val := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); val != "" {
		c.Tracing.Endpoint = val
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("log.level must be one of [trace, debug, info, warn, warning, error], got %q", c.Log.Level))
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("log.format must be one of [json, text], got %q", c.Log.Format))
	}

	if c.Target.StepsPerSecond < 0 {
		errs = append(errs, fmt.Sprintf("target.steps_per_second must not be negative, got %v", c.Target.StepsPerSecond))
	}
	for i, bp := range c.Target.Breakpoints {
		if strings.TrimSpace(bp) == "" {
			errs = append(errs, fmt.Sprintf("target.breakpoints[%d] must not be empty", i))
		}
	}

	switch c.Tracing.Exporter {
	case "none", "console":
	case "otlp", "otlp-http":
		if c.Tracing.Endpoint == "" {
			errs = append(errs, fmt.Sprintf("tracing.endpoint is required for the %s exporter", c.Tracing.Exporter))
		}
	default:
		errs = append(errs, fmt.Sprintf("tracing.exporter must be one of [none, console, otlp, otlp-http], got %q", c.Tracing.Exporter))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
