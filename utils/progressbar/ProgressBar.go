// Package progressbar implements functionality of printing a progress
// bar to the terminal window
package progressbar

import (
	"fmt"
	"strings"
	"time"
)

// ProgressBar implements a concurrent progress bar for tracking
// episodes completed in a running experiment. Increments are sent over
// a channel so that the progress bar can be driven from the training
// loop without blocking it.
type ProgressBar struct {
	// width determines the number of characters wide that the progress
	// bar should be
	width float64

	// maxProgress determines the number of times Increment() should
	// be called before the progress bar reaches 100%.
	maxProgress float64

	currentProgress float64

	incrementEvent chan struct{}
	closeEvent     chan struct{}
	closed         bool

	updateEvery time.Duration
}

// New returns a new progress bar that is width characters wide and
// reaches 100% after max Increment() calls. The bar redraws whenever
// Increment() is called and every updateEvery otherwise.
func New(width, max int, updateEvery time.Duration) *ProgressBar {
	return &ProgressBar{
		width:          float64(width),
		maxProgress:    float64(max),
		incrementEvent: make(chan struct{}),
		closeEvent:     make(chan struct{}),
		updateEvery:    updateEvery,
	}
}

// Increment increments the internal progress counter. Each time an
// episode finishes, Increment should be called.
func (p *ProgressBar) Increment() {
	if p.closed {
		return
	}
	select {
	case p.incrementEvent <- struct{}{}:
	case <-p.closeEvent:
	}
}

// Close closes the progress bar so that it will no longer display to
// the screen and releases the display goroutine.
func (p *ProgressBar) Close() {
	if p.closed {
		panic("close: close on closed progress bar")
	}
	p.closed = true
	close(p.closeEvent)
	fmt.Println() // Jump to next line after printed bar
}

// Display starts displaying the progress bar on the screen. It should
// only be called once.
func (p *ProgressBar) Display() {
	go func() {
		tick := time.NewTicker(p.updateEvery)
		defer tick.Stop()

		var elapsed time.Duration

		for {
			select {
			case <-p.incrementEvent:
				if p.currentProgress < p.maxProgress {
					p.currentProgress++
				}

			case <-tick.C:
				elapsed += p.updateEvery

			case <-p.closeEvent:
				return
			}

			p.draw(elapsed)
		}
	}()
}

// draw redraws the bar in the current terminal line
func (p *ProgressBar) draw(elapsed time.Duration) {
	var bar strings.Builder
	bar.WriteString("|")

	progress := p.currentProgress / p.maxProgress * p.width
	for i := 0.0; i < progress; i++ {
		bar.WriteString("█")
	}
	for i := progress; i < p.width; i++ {
		bar.WriteString(" ")
	}
	fmt.Fprintf(&bar, "| [%.2f%% | elapsed: %v]",
		p.currentProgress/p.maxProgress*100, elapsed)

	fmt.Printf("\n\033[1A\033[K%v", bar.String())
}
