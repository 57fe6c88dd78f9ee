// Package stats summarizes the chroma of masked skin regions.
package stats

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/MeKo-Tech/undertone/internal/colorspace"
	"gonum.org/v1/gonum/stat"
)

// ErrDimensionMismatch is returned when a mask does not cover its frame.
var ErrDimensionMismatch = errors.New("mask dimensions do not match frame")

// Lower and upper percentiles kept by interquartile trimming.
const (
	LowerPercentile = 25.0
	UpperPercentile = 75.0
)

// Sample is the chroma of one masked pixel in 8-bit Lab units.
type Sample struct {
	GR float64 // green-red (a*)
	BY float64 // blue-yellow (b*)
}

// Summary is the trimmed chroma summary of one frame.
//
// MaskedCount is the number of masked pixels before trimming and
// SampleCount the number retained. SampleCount == 0 with MaskedCount > 0
// means trimming discarded every sample.
type Summary struct {
	MeanGR      float64
	MeanBY      float64
	SampleCount int
	MaskedCount int
}

// Diff is MeanBY - MeanGR.
func (s Summary) Diff() float64 { return s.MeanBY - s.MeanGR }

// Ratio is MeanBY / MeanGR, or 0 when MeanGR is 0.
func (s Summary) Ratio() float64 {
	if s.MeanGR == 0 {
		return 0
	}
	return s.MeanBY / s.MeanGR
}

// Means holds unmasked per-frame averages of the chroma channels.
type Means struct {
	GR float64
	BY float64
}

// Summarize extracts masked samples from lab, trims them jointly to the
// interquartile box on both axes and averages what remains.
func Summarize(lab *colorspace.Lab, m *image.Gray) (Summary, error) {
	samples, err := Extract(lab, m)
	if err != nil {
		return Summary{}, err
	}
	if len(samples) == 0 {
		return Summary{}, nil
	}

	kept := Trim(samples)
	if len(kept) == 0 {
		return Summary{MaskedCount: len(samples)}, nil
	}

	gr := make([]float64, len(kept))
	by := make([]float64, len(kept))
	for i, s := range kept {
		gr[i] = s.GR
		by[i] = s.BY
	}

	return Summary{
		MeanGR:      stat.Mean(gr, nil),
		MeanBY:      stat.Mean(by, nil),
		SampleCount: len(kept),
		MaskedCount: len(samples),
	}, nil
}

// Extract collects the a*/b* values of every pixel selected by m.
func Extract(lab *colorspace.Lab, m *image.Gray) ([]Sample, error) {
	lb := lab.Bounds()
	mb := m.Bounds()
	if lb.Dx() != mb.Dx() || lb.Dy() != mb.Dy() {
		return nil, fmt.Errorf("%w: frame %dx%d, mask %dx%d",
			ErrDimensionMismatch, lb.Dx(), lb.Dy(), mb.Dx(), mb.Dy())
	}

	var samples []Sample
	for y := 0; y < mb.Dy(); y++ {
		for x := 0; x < mb.Dx(); x++ {
			if m.GrayAt(mb.Min.X+x, mb.Min.Y+y).Y == 0 {
				continue
			}
			_, a, b := lab.At(lb.Min.X+x, lb.Min.Y+y)
			samples = append(samples, Sample{GR: float64(a), BY: float64(b)})
		}
	}
	return samples, nil
}

// Trim keeps the samples whose GR lies within the GR interquartile range
// and whose BY lies within the BY interquartile range.
func Trim(samples []Sample) []Sample {
	if len(samples) == 0 {
		return nil
	}

	gr := make([]float64, len(samples))
	by := make([]float64, len(samples))
	for i, s := range samples {
		gr[i] = s.GR
		by[i] = s.BY
	}
	sort.Float64s(gr)
	sort.Float64s(by)

	grLo, grHi := Percentile(gr, LowerPercentile), Percentile(gr, UpperPercentile)
	byLo, byHi := Percentile(by, LowerPercentile), Percentile(by, UpperPercentile)

	kept := make([]Sample, 0, len(samples)/2+1)
	for _, s := range samples {
		if s.GR >= grLo && s.GR <= grHi && s.BY >= byLo && s.BY <= byHi {
			kept = append(kept, s)
		}
	}
	return kept
}

// Percentile returns the p-th percentile (0..100) of sorted data, linearly
// interpolating between the two closest ranks at position p/100*(n-1).
// It returns NaN for empty input.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}

	pos := p / 100 * float64(n-1)
	if pos <= 0 {
		return sorted[0]
	}
	if pos >= float64(n-1) {
		return sorted[n-1]
	}

	lo := int(math.Floor(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[lo+1]-sorted[lo])*frac
}

// FrameMeans averages a* and b* over the whole frame, mask or not.
func FrameMeans(lab *colorspace.Lab) Means {
	b := lab.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return Means{}
	}

	var sumGR, sumBY float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			_, a, bb := lab.At(x, y)
			sumGR += float64(a)
			sumBY += float64(bb)
		}
	}
	return Means{GR: sumGR / float64(n), BY: sumBY / float64(n)}
}
