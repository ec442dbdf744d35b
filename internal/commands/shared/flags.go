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

package shared

// globalFlags holds the persistent flags bound by the root command.
type globalFlags struct {
	verbose bool
	quiet   bool
	json    bool
	config  string
}

type buildInfo struct {
	version   string
	commit    string
	buildDate string
}

var (
	flags globalFlags
	build = buildInfo{version: "dev", commit: "unknown", buildDate: "unknown"}
)

// RegisterFlagPointers returns pointers for the root command to bind
// --verbose, --quiet, --json and --config to.
func RegisterFlagPointers() (*bool, *bool, *bool, *string) {
	return &flags.verbose, &flags.quiet, &flags.json, &flags.config
}

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	build = buildInfo{version: v, commit: c, buildDate: b}
}

// GetVersion returns version, commit and build date.
func GetVersion() (string, string, string) {
	return build.version, build.commit, build.buildDate
}

// GetVerbose reports whether debug logging was requested.
func GetVerbose() bool { return flags.verbose }

// GetQuiet reports whether status banners should be suppressed.
func GetQuiet() bool { return flags.quiet }

// GetJSON reports whether commands should emit JSON.
func GetJSON() bool { return flags.json }

// GetConfigPath returns the --config value, empty for the default location.
func GetConfigPath() string { return flags.config }

// SetFlagsForTest overrides the global flags and returns a func restoring them.
func SetFlagsForTest(json bool, configPath string) func() {
	prev := flags
	flags.json, flags.config = json, configPath
	return func() { flags = prev }
}
