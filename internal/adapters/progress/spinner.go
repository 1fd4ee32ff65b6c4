package progress

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// SpinnerProgressReporter shows spinner events on a terminal and plain lines elsewhere
type SpinnerProgressReporter struct {
	out         io.Writer
	interactive bool
	spinner     *spinner.Spinner
}

// NewSpinnerProgressReporter creates a new spinner-based progress reporter
func NewSpinnerProgressReporter(out io.Writer, interactive bool) *SpinnerProgressReporter {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	s.HideCursor = false
	_ = s.Color("cyan", "bold")

	return &SpinnerProgressReporter{
		out:         out,
		interactive: interactive,
		spinner:     s,
	}
}

// OnProgress starts, updates or stops the spinner
func (r *SpinnerProgressReporter) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	if !r.interactive {
		if event.Spinner && event.Message != "" {
			fmt.Fprintln(r.out, event.Message)
		}
		return
	}

	if event.Spinner {
		r.spinner.Suffix = " " + event.Message
		if !r.spinner.Active() {
			r.spinner.Start()
		}
	} else {
		r.Stop()
	}
}

// Stop halts the spinner if it is running
func (r *SpinnerProgressReporter) Stop() {
	if r.spinner.Active() {
		r.spinner.Stop()
	}
}

// Info prints an info message
func (r *SpinnerProgressReporter) Info(message string) {
	r.printAround(color.New(color.FgCyan), message)
}

// Error prints an error message
func (r *SpinnerProgressReporter) Error(message string) {
	r.printAround(color.New(color.FgRed), message)
}

// printAround pauses the spinner so the line is not overwritten
func (r *SpinnerProgressReporter) printAround(c *color.Color, message string) {
	wasActive := r.spinner.Active()
	if wasActive {
		r.spinner.Stop()
	}

	c.Fprintln(r.out, message)

	if wasActive {
		r.spinner.Start()
	}
}

// Ensure SpinnerProgressReporter implements ProgressSink
var _ usecase.ProgressSink = (*SpinnerProgressReporter)(nil)
