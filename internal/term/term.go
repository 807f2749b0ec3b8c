// Package term decides whether stdout is an interactive terminal, the
// switch a Script fragment's `do(printflag=true)` uses to draw a
// banner around its echoed output versus writing plain text for a
// redirected/piped consumer.
//
// Wraps the standard isatty check used by terminal-detection helpers
// throughout the ecosystem.
package term

import (
	"os"

	"github.com/mattn/go-isatty"
)

// IsInteractive reports whether stdout is attached to a terminal
// (as opposed to a file, pipe, or /dev/null).
func IsInteractive() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Banner wraps text in a simple rule-delimited banner when stdout is
// interactive, and returns text unchanged otherwise — scripts piped
// into a file or another process should never receive decorative
// output mixed into the LAMMPS input stream.
func Banner(text string) string {
	if !IsInteractive() {
		return text
	}
	rule := "----------------------------------------"
	return rule + "\n" + text + "\n" + rule
}
