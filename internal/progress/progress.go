// Package progress reports batch slicing progress on stderr.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/schollz/progressbar/v3"
)

// Tracker wraps a progress bar counting processed files.
type Tracker struct {
	bar    *progressbar.ProgressBar
	label  string
	w      io.Writer
	done   atomic.Int64
	failed atomic.Int64
}

// Option configures a Tracker.
type Option func(*options)

type options struct {
	w io.Writer
}

// WithWriter sends the bar to w instead of stderr.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.w = w
	}
}

// NewTracker creates a progress bar with the given label and total count.
func NewTracker(label string, total int, opts ...Option) *Tracker {
	o := options{w: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(o.w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &Tracker{bar: bar, label: label, w: o.w}
}

// Tick records one processed file. Safe for concurrent use.
func (t *Tracker) Tick() {
	t.done.Add(1)
	t.bar.Add(1)
}

// Fail records one file that could not be sliced. Safe for concurrent use.
func (t *Tracker) Fail() {
	t.failed.Add(1)
	t.Tick()
}

// Done returns the number of files processed so far, failures included.
func (t *Tracker) Done() int { return int(t.done.Load()) }

// Failed returns the number of failed files.
func (t *Tracker) Failed() int { return int(t.failed.Load()) }

// Finish clears the bar. When any file failed it prints a one-line summary.
func (t *Tracker) Finish() {
	t.bar.Finish()
	t.bar.Clear()
	if n := t.Failed(); n > 0 {
		fmt.Fprintf(t.w, "  %s: %d of %d files failed\n", t.label, n, t.Done())
	}
}
