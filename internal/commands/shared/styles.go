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

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles for host output. Debugger output itself is never styled.
var (
	statusOK    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))  // green
	statusError = lipgloss.NewStyle().Foreground(lipgloss.Color("196")) // red
	statusInfo  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))  // blue
	muted       = lipgloss.NewStyle().Foreground(lipgloss.Color("245")) // gray

	// Bold styles headings such as the version banner.
	Bold = lipgloss.NewStyle().Bold(true)

	// Prompt styles the debugger prompt on an interactive terminal.
	Prompt = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
)

const (
	symbolOK    = "✓"
	symbolError = "✗"
	symbolInfo  = "•"
)

// RenderOK renders a session milestone such as a detach or a cleared history.
func RenderOK(msg string) string {
	return statusOK.Render(symbolOK) + " " + msg
}

// RenderError renders an error message with red X
func RenderError(msg string) string {
	return statusError.Render(symbolError) + " " + msg
}

// RenderInfo renders a status line such as the attach banner.
func RenderInfo(msg string) string {
	return statusInfo.Render(symbolInfo) + " " + msg
}

// RenderLabel renders a dim label (history numbers, key: value pairs)
func RenderLabel(label string) string {
	return muted.Render(label)
}
