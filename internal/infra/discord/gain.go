package discord

import "math"

// applyGain scales pcm in place, clipping to the int16 range.
func applyGain(pcm []int16, gain float64) {
	if gain == 1 {
		return
	}
	for i, s := range pcm {
		v := math.Round(float64(s) * gain)
		switch {
		case v > math.MaxInt16:
			pcm[i] = math.MaxInt16
		case v < math.MinInt16:
			pcm[i] = math.MinInt16
		default:
			pcm[i] = int16(v)
		}
	}
}

// clampVolume limits v to 0.0-1.0.
func clampVolume(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
