// Package output provides styled terminal output for rvmake.
//
// Functions use lipgloss for styling but abstract away the details from callers.
// Errors go to stderr, everything else to stdout.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("green")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("red")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr

	verboseMode bool
)

// SetVerbose enables or disables verbose output for debugging.
// This should be called by the CLI when the --verbose flag is set.
func SetVerbose(v bool) {
	verboseMode = v
}

// SetOutput redirects output, mainly for tests. Nil leaves a stream unchanged.
func SetOutput(out, errOut io.Writer) {
	if out != nil {
		stdout = out
	}
	if errOut != nil {
		stderr = errOut
	}
}

// Success prints a success message with 🔥 emoji and green color.
// Use this for completed operations.
//
// Example:
//
//	output.Success("Generated projects/demo/Makefile")
func Success(msg string) {
	fmt.Fprintln(stdout, successStyle.Render("🔥 "+msg))
}

// Error prints an error message with ❌ emoji and red color to stderr.
//
// Example:
//
//	output.Error("failed to read template: permission denied")
func Error(msg string) {
	fmt.Fprintln(stderr, errorStyle.Render("❌ "+msg))
}

// Info prints an informational message with ℹ️ emoji and cyan color.
func Info(msg string) {
	fmt.Fprintln(stdout, infoStyle.Render("ℹ️  "+msg))
}

// Step prints an indented step message in gray.
func Step(msg string) {
	fmt.Fprintln(stdout, stepStyle.Render("   "+msg))
}

// Verbose prints a debug message with 🔍 emoji only if verbose mode is enabled.
func Verbose(msg string) {
	if verboseMode {
		fmt.Fprintln(stdout, stepStyle.Render("🔍 "+msg))
	}
}
