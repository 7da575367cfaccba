package ui

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Counter is the progress sink handed to the downloader and batch runner
type Counter interface {
	Add(n int) error
}

// NewProgress returns a stderr progress bar over total items, or a silent
// counter when quiet is set
func NewProgress(total int, description string, quiet bool) Counter {
	if quiet {
		return nopCounter{}
	}
	return newBar(total, description, os.Stderr)
}

func newBar(total int, description string, w io.Writer) *progressbar.ProgressBar {
	if total <= 0 {
		total = -1
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

type nopCounter struct{}

func (nopCounter) Add(int) error { return nil }
