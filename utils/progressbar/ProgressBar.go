// Package progressbar implements functionality of printing a progress
// bar to the terminal window
package progressbar

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ProgressBar prints a progress bar to a writer. Updates are
// synchronous and redraws are throttled, so incrementing the bar on
// every iteration of a tight loop is cheap.
type ProgressBar struct {
	// Width determines the number of characters wide that the progress
	// bar should be
	width float64

	// maxProgress determines the number of times Increment() should
	// be called before the progress bar reaches 100%.
	maxProgress float64

	// currentProgress measures the number of times Increment() was
	// called
	currentProgress float64

	out         io.Writer
	redrawEvery time.Duration
	lastRedraw  time.Time
	started     time.Time
	closed      bool
}

// New returns a new progress bar that is width characters wide,
// reaches 100% capacity after max Increment() calls, and redraws to
// out at most once per redrawEvery.
func New(width, max int, redrawEvery time.Duration,
	out io.Writer) *ProgressBar {
	return &ProgressBar{
		width:       float64(width),
		maxProgress: float64(max),
		out:         out,
		redrawEvery: redrawEvery,
		started:     time.Now(),
	}
}

// Increment increments the internal progress counter. Each time an
// iteration is performed, Increment should be called.
func (pbar *ProgressBar) Increment() {
	if pbar.closed || pbar.currentProgress >= pbar.maxProgress {
		return
	}
	pbar.currentProgress++

	now := time.Now()
	if now.Sub(pbar.lastRedraw) < pbar.redrawEvery &&
		pbar.currentProgress < pbar.maxProgress {
		return
	}
	pbar.lastRedraw = now
	pbar.redraw()
}

// Close closes the progress bar so that it will no longer display to
// the screen.
func (pbar *ProgressBar) Close() {
	if pbar.closed {
		return
	}
	pbar.redraw()
	pbar.closed = true
	fmt.Fprintln(pbar.out) // Jump to next line after printed pbar
}

// redraw reprints the progress bar in place
func (pbar *ProgressBar) redraw() {
	var bar strings.Builder
	bar.WriteString("|")

	currentProg := pbar.currentProgress / pbar.maxProgress * pbar.width
	for i := 0.0; i < currentProg; i++ {
		bar.WriteString("█")
	}
	for i := currentProg; i < pbar.width; i++ {
		bar.WriteString(" ")
	}
	bar.WriteString(fmt.Sprintf("| [%.2f%v | elapsed: %v]",
		pbar.currentProgress/pbar.maxProgress*100, "%",
		time.Since(pbar.started).Round(time.Second)))

	fmt.Fprintf(pbar.out, "\r\033[K%v", bar.String())
}
