package undertone

import "github.com/MeKo-Tech/undertone/internal/stats"

// Decision thresholds on diff = MeanBY - MeanGR, in 8-bit Lab units.
// They are empirical and tuned against OpenCV-scaled Lab values.
const (
	WarmBelow     = -3.0
	CoolAbove     = 10.0
	BorderAbove   = 5.0
	GoldenGRAbove = 130.0
)

// Classify applies the undertone rules to a region summary. It is pure and
// total: every summary maps to one of NoSkin, Warm, Cool or Neutral.
func Classify(s stats.Summary) Label {
	if s.SampleCount == 0 {
		// Skin was found but trimming left nothing to average.
		if s.MaskedCount > 0 {
			return Neutral
		}
		return NoSkin
	}

	diff := s.Diff()
	switch {
	case diff < WarmBelow:
		return Warm
	case diff > CoolAbove:
		return Cool
	case diff > BorderAbove:
		if s.MeanGR > GoldenGRAbove {
			return Warm
		}
		return Cool
	default:
		return Neutral
	}
}
