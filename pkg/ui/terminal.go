package ui

import (
	"fmt"
	"io"
	"os"
)

// Banner printed at the top of interactive commands
const Banner = `
  ┌─┐┌─┐┌─┐┌─┐┬ ┬┌─┐┬─┐┬  ┬┌─┐┌─┐┌┬┐
  ├┤ ├─┤│  ├┤ ├─┤├─┤├┬┘└┐┌┘├┤ └─┐ │
  └  ┴ ┴└─┘└─┘┴ ┴┴ ┴┴└─ └┘ └─┘└─┘ ┴
`

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// Output is where the Print helpers write
var Output io.Writer = os.Stdout

func colorize(colorString string) func(string) string {
	return func(text string) string {
		return fmt.Sprintf(colorString, text)
	}
}

// PrintBanner prints the banner in cyan
func PrintBanner() {
	fmt.Fprint(Output, Cyan(Banner))
}

// PrintError prints an error message in red
func PrintError(msg string, err error) {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	fmt.Fprintln(Output, Red(msg))
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	fmt.Fprintln(Output, Green(msg))
}

// PrintInfo prints a label and value
func PrintInfo(label string, value interface{}) {
	fmt.Fprintf(Output, "%s: %s\n", Cyan(label), Yellow(fmt.Sprint(value)))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string) {
	fmt.Fprintln(Output, Yellow(msg))
}
