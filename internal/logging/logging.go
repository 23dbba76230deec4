// Package logging configures the zerolog logger used for debug tracing.
//
// User-facing messages go through the output package; this logger is for
// the --verbose trail of what the generator resolved and did.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

func init() {
	// Quiet until Setup says otherwise, so packages can log from tests.
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
}

// Setup points the global logger at stderr. verbose enables debug output.
func Setup(verbose bool) {
	SetupWriter(os.Stderr, verbose)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(w io.Writer, verbose bool) {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	console := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.Kitchen,
		NoColor:    !isTerminal(w),
	}
	log.Logger = zerolog.New(console).With().Timestamp().Logger()
}

// GetLogger returns a logger tagged with a component name.
func GetLogger(name string) *zerolog.Logger {
	l := log.With().Str("component", name).Logger()
	return &l
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
