package device

import (
	"fmt"
	"image"
	"io"
	"log/slog"

	"github.com/MeKo-Tech/undertone/internal/acquire"
	"github.com/MeKo-Tech/undertone/internal/pipeline"
	"github.com/MeKo-Tech/undertone/internal/undertone"
)

var _ acquire.Display = (*LogDisplay)(nil)

// LogDisplay is a headless Display. It prints the label whenever it
// changes and logs every frame's diagnostics at debug level.
type LogDisplay struct {
	out    io.Writer
	logger *slog.Logger
	last   undertone.Label
	shown  bool
	frames int
}

// NewLogDisplay creates a LogDisplay writing to out.
func NewLogDisplay(out io.Writer, logger *slog.Logger) *LogDisplay {
	return &LogDisplay{out: out, logger: logger}
}

// Show reports the frame's label. It never fails.
func (d *LogDisplay) Show(_ image.Image, o pipeline.Outcome) error {
	d.frames++
	d.log().Debug("Frame analyzed", "frame", d.frames, "label", o.Label.String(),
		"mean_a", o.Summary.MeanGR, "mean_b", o.Summary.MeanBY, "samples", o.Summary.SampleCount)

	if d.shown && o.Label == d.last {
		return nil
	}
	d.last, d.shown = o.Label, true

	fmt.Fprintf(d.out, "Undertone: %s\n", o.Label)
	return nil
}

func (d *LogDisplay) log() *slog.Logger {
	if d.logger != nil {
		return d.logger
	}
	return slog.Default()
}
