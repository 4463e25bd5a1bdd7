package features

import "math"

const zeroCrossingThreshold = 1e-10

// meanRMS averages the root-mean-square energy of zero-padded centered frames.
func meanRMS(samples []float32) float64 {
	frames := numFrames(len(samples))
	pad := NFFT / 2

	var total float64
	for t := range frames {
		start := t*HopLength - pad
		var sumSq float64
		for j := max(start, 0); j < min(start+NFFT, len(samples)); j++ {
			v := float64(samples[j])
			sumSq += v * v
		}
		total += math.Sqrt(sumSq / NFFT)
	}
	return total / float64(frames)
}

// meanZeroCrossingRate averages the fraction of sign changes per centered
// frame. The signal is extended by repeating its edge samples and values
// within zeroCrossingThreshold of zero count as positive.
func meanZeroCrossingRate(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	frames := numFrames(len(samples))
	pad := NFFT / 2

	negative := func(i int) bool {
		i = min(max(i, 0), len(samples)-1)
		v := float64(samples[i])
		if math.Abs(v) <= zeroCrossingThreshold {
			return false
		}
		return math.Signbit(v)
	}

	var total float64
	for t := range frames {
		start := t*HopLength - pad
		crossings := 0
		prev := negative(start)
		for j := 1; j < NFFT; j++ {
			cur := negative(start + j)
			if cur != prev {
				crossings++
			}
			prev = cur
		}
		total += float64(crossings) / NFFT
	}
	return total / float64(frames)
}
