// Package ui provides terminal output helpers for the gridocr CLI.
package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

var (
	red    = color.New(color.FgRed, color.Bold)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
)

// DisableColor turns off colored output globally.
func DisableColor() {
	color.NoColor = true
}

// Error writes an error line to w.
func Error(w io.Writer, format string, args ...any) {
	red.Fprintf(w, "✗ %s\n", fmt.Sprintf(format, args...))
}

// Success writes a success line to w.
func Success(w io.Writer, format string, args ...any) {
	green.Fprintf(w, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Warning writes a warning line to w.
func Warning(w io.Writer, format string, args ...any) {
	yellow.Fprintf(w, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// ProgressBar wraps a progressbar instance for row progress.
type ProgressBar struct {
	bar *progressbar.ProgressBar
}

// NewProgressBar creates a progress bar that counts rows on w.
func NewProgressBar(w io.Writer, total int, description string) *ProgressBar {
	bar := progressbar.NewOptions(
		total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("rows"),
		progressbar.OptionShowIts(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
	)
	return &ProgressBar{bar: bar}
}

// Add advances the bar by n rows.
func (p *ProgressBar) Add(n int) {
	_ = p.bar.Add(n)
}

// Finish completes the bar.
func (p *ProgressBar) Finish() {
	_ = p.bar.Finish()
}

// Spinner wraps a spinner for calls of unknown duration.
type Spinner struct {
	s *spinner.Spinner
}

// NewSpinner creates a spinner with the given message writing to w.
func NewSpinner(w io.Writer, message string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + message
	return &Spinner{s: s}
}

// Start starts the animation.
func (s *Spinner) Start() { s.s.Start() }

// Stop stops the animation and clears the line.
func (s *Spinner) Stop() { s.s.Stop() }

// UpdateMessage replaces the spinner text.
func (s *Spinner) UpdateMessage(message string) {
	s.s.Lock()
	s.s.Suffix = " " + message
	s.s.Unlock()
}
