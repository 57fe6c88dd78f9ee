package colorspace

import "math"

// clampU8 clamps an int value to the uint8 range [0, 255].
func clampU8(x int) uint8 {
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return uint8(x)
}

// roundU8 rounds half away from zero and clamps to [0, 255].
func roundU8(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return clampU8(int(math.Round(v)))
}
