// Package pipeline runs a single frame through conversion, skin
// segmentation, trimmed statistics and classification.
package pipeline

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/MeKo-Tech/undertone/internal/colorspace"
	"github.com/MeKo-Tech/undertone/internal/mask"
	"github.com/MeKo-Tech/undertone/internal/stats"
	"github.com/MeKo-Tech/undertone/internal/undertone"
)

// ErrEmptyFrame is reported for nil or zero-area frames.
var ErrEmptyFrame = errors.New("empty frame")

// Outcome is the result of analyzing one frame. Fault is nil on success;
// otherwise Label is undertone.Error and the statistics are zero.
type Outcome struct {
	Label      undertone.Label
	Summary    stats.Summary
	FrameMeans stats.Means
	Fault      error
}

// OK reports whether the frame was analyzed without a fault.
func (o Outcome) OK() bool { return o.Fault == nil }

func fault(err error) Outcome {
	return Outcome{Label: undertone.Error, Fault: err}
}

// Analyzer wires color conversion, masking, statistics and classification
// into a single step. It holds no per-frame state and is safe for
// concurrent use.
type Analyzer struct {
	logger *slog.Logger
}

// NewAnalyzer returns an Analyzer logging diagnostics to logger
// (slog.Default when nil).
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	return &Analyzer{logger: logger}
}

// Analyze classifies the dominant skin undertone of frame.
func (a *Analyzer) Analyze(frame image.Image) Outcome {
	if frame == nil {
		return fault(ErrEmptyFrame)
	}
	if b := frame.Bounds(); b.Empty() {
		return fault(fmt.Errorf("%w: bounds %v", ErrEmptyFrame, b))
	}

	lab := colorspace.ToLab(frame)
	hsv := colorspace.ToHSV(frame)
	skin := mask.Skin(hsv)

	summary, err := stats.Summarize(lab, skin)
	if err != nil {
		return fault(fmt.Errorf("failed to summarize skin region: %w", err))
	}

	out := Outcome{
		Label:      undertone.Classify(summary),
		Summary:    summary,
		FrameMeans: stats.FrameMeans(lab),
	}

	if summary.SampleCount > 0 {
		a.log().Debug("Skin chroma",
			"mean_a", summary.MeanGR,
			"mean_b", summary.MeanBY,
			"diff", summary.Diff(),
			"ratio", summary.Ratio(),
			"samples", summary.SampleCount,
			"masked", summary.MaskedCount,
			"label", out.Label.String(),
		)
	} else {
		a.log().Debug("No usable skin samples", "masked", summary.MaskedCount, "label", out.Label.String())
	}

	return out
}

func (a *Analyzer) log() *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	return slog.Default()
}
