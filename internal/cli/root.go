// Package cli implements the nashws command line tool.
package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Version is set at build time.
var Version = "dev"

// Verbose enables debug logging of the connection lifecycle.
var Verbose bool

// NoColor disables color output.
var NoColor bool

var rootCmd = &cobra.Command{
	Use:           "nashws",
	Short:         "Talk to WebSocket servers from the terminal",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "v", false, "Log connection lifecycle events to stderr")
	rootCmd.PersistentFlags().BoolVar(&NoColor, "no-color", false, "Disable color output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger returns a text logger writing to w. Only warnings are
// logged unless --verbose is set.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// shouldUseColor determines if w gets colored output based on flags
// and environment.
func shouldUseColor(w io.Writer) bool {
	if NoColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
