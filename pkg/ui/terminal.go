package ui

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

// Banner printed before interactive commands
const Banner = `
  ┏┓ ┏━┓╺┳╸┏━╸╻ ╻┏━╸┏━╸╻┏
  ┣┻┓┃ ┃ ┃ ┃  ┣━┫┣╸ ┃  ┣┻┓
  ┗━┛┗━┛ ╹ ┗━╸╹ ╹┗━╸┗━╸╹ ╹
  follower sync and bot-reputation checks
`

var (
	quiet   atomic.Bool
	noColor atomic.Bool

	// Output receives everything printed by this package
	Output io.Writer = os.Stdout
)

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// SetQuietMode suppresses everything except errors
func SetQuietMode(q bool) { quiet.Store(q) }

// IsQuiet reports whether quiet mode is on
func IsQuiet() bool { return quiet.Load() }

// SetNoColor disables ANSI colors
func SetNoColor(n bool) { noColor.Store(n) }

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		if noColor.Load() {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

// PrintBanner prints the banner unless quiet
func PrintBanner() {
	if IsQuiet() {
		return
	}
	fmt.Fprint(Output, Cyan(Banner))
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(Output, Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(Output, Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	if IsQuiet() {
		return
	}
	fmt.Fprintln(Output, Green(msg))
}

// PrintInfo prints a label/value pair
func PrintInfo(label string, value string) {
	if IsQuiet() {
		return
	}
	fmt.Fprintf(Output, "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if IsQuiet() {
		return
	}
	if len(args) > 0 {
		fmt.Fprintln(Output, Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(Output, Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	if IsQuiet() {
		return
	}
	fmt.Fprintln(Output, Magenta(msg))
}
