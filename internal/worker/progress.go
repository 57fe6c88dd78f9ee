package worker

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Progress tracks batch progress and renders it as a terminal bar.
type Progress struct {
	startTime time.Time
	output    io.Writer
	bar       *progressbar.ProgressBar
	total     int
	completed int
	failed    int
	mu        sync.RWMutex
	enabled   bool
}

// NewProgress creates a tracker rendering to stderr.
func NewProgress(total int, enabled bool) *Progress {
	return NewProgressWriter(os.Stderr, total, enabled)
}

// NewProgressWriter creates a tracker rendering to w.
func NewProgressWriter(w io.Writer, total int, enabled bool) *Progress {
	p := &Progress{
		total:     total,
		startTime: time.Now(),
		output:    w,
		enabled:   enabled,
	}
	if enabled {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription("Analyzing"),
			progressbar.OptionSetWriter(w),
			progressbar.OptionShowCount(),
			progressbar.OptionSetItsString("images"),
			progressbar.OptionShowIts(),
		)
	}
	return p
}

// Update records the completion of a task.
func (p *Progress) Update(completed, total, failed int) {
	p.mu.Lock()
	p.completed = completed
	p.total = total
	p.failed = failed
	p.mu.Unlock()

	if p.enabled {
		p.Print()
	}
}

// Callback returns a ProgressFunc suitable for use with Pool.Config.
func (p *Progress) Callback() ProgressFunc {
	return p.Update
}

// Print renders the current state.
func (p *Progress) Print() {
	if p.bar == nil {
		return
	}

	p.mu.RLock()
	completed, total, failed := p.completed, p.total, p.failed
	p.mu.RUnlock()

	if total != p.bar.GetMax() {
		p.bar.ChangeMax(total)
	}
	if failed > 0 {
		p.bar.Describe(fmt.Sprintf("Analyzing (%d failed)", failed))
	}
	p.bar.Set(completed) // nolint:errcheck
}

// Done finishes the bar and ends the line.
func (p *Progress) Done() {
	if !p.enabled || p.bar == nil {
		return
	}
	p.bar.Finish() // nolint:errcheck
	fmt.Fprintln(p.output)
}

// Summary returns a one-line summary of the completed work.
func (p *Progress) Summary() string {
	p.mu.RLock()
	completed := p.completed
	total := p.total
	failed := p.failed
	startTime := p.startTime
	p.mu.RUnlock()

	elapsed := time.Since(startTime)
	successful := completed - failed

	var rate float64
	if elapsed.Seconds() > 0 {
		rate = float64(completed) / elapsed.Seconds()
	}

	return fmt.Sprintf("Analyzed %d/%d images (%d failed) in %s (%.1f images/sec)",
		successful, total, failed, formatDuration(elapsed), rate)
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		secs := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", mins, secs)
	}
	hours := int(d.Hours())
	mins := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", hours, mins)
}
