package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// ANSI styles for CLI status lines.
const (
	ansiReset = "\033[0m"
	ansiRed   = "\033[31m"
	ansiGreen = "\033[32m"
	ansiAmber = "\033[33m"
	ansiCyan  = "\033[36m"
	ansiBold  = "\033[1m"
)

func style(code, text string) string {
	if noColor {
		return text
	}
	return code + text + ansiReset
}

// console writes human-facing status lines. Command results go to stdout;
// console output goes to the command's stderr so it never mixes with them.
type console struct {
	w io.Writer
}

func consoleFor(cmd *cobra.Command) console {
	return console{w: cmd.ErrOrStderr()}
}

func (c console) line(code, mark, format string, args []any) {
	fmt.Fprintln(c.w, style(code, mark+" "+fmt.Sprintf(format, args...)))
}

func (c console) done(format string, args ...any)  { c.line(ansiGreen, "✓", format, args) }
func (c console) fail(format string, args ...any)  { c.line(ansiRed, "✗", format, args) }
func (c console) note(format string, args ...any)  { c.line(ansiAmber, "!", format, args) }
func (c console) begin(format string, args ...any) { c.line(ansiCyan, "→", format, args) }

// field prints an aligned "label: value" pair.
func (c console) field(label, value string) {
	fmt.Fprintf(c.w, "  %-8s %s\n", style(ansiBold, label+":"), value)
}
