package features

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Pitch tracking bounds and relative threshold.
const (
	pitchFMin      = 150.0
	pitchFMax      = 4000.0
	pitchThreshold = 0.1
)

// pitchPeak is one tracked spectral peak.
type pitchPeak struct {
	freq float64
	mag  float64
}

// trackPitches finds local spectral maxima between pitchFMin and pitchFMax
// whose value exceeds pitchThreshold of the frame maximum, and refines each
// with parabolic interpolation. S may be a magnitude or power spectrogram.
// Peaks are returned bin-major.
func trackPitches(S *mat.Dense, sampleRate int) []pitchPeak {
	bins, frames := S.Dims()
	nfft := 2 * (bins - 1)
	fmax := math.Min(pitchFMax, float64(sampleRate)/2)
	freqs := fftFrequencies(sampleRate)

	shift := mat.NewDense(bins, frames, nil)
	avg := mat.NewDense(bins, frames, nil)
	candidate := mat.NewDense(bins, frames, nil)

	for t := range frames {
		col := mat.Col(nil, t, S)

		// Gradient along frequency: central differences, one-sided at the edges.
		for k := range bins {
			var g float64
			switch {
			case bins == 1:
				g = 0
			case k == 0:
				g = col[1] - col[0]
			case k == bins-1:
				g = col[k] - col[k-1]
			default:
				g = (col[k+1] - col[k-1]) / 2
			}
			avg.Set(k, t, g)
		}

		for k := 1; k < bins-1; k++ {
			a := col[k+1] + col[k-1] - 2*col[k]
			b := (col[k+1] - col[k-1]) / 2
			if math.Abs(b) < math.Abs(a) {
				shift.Set(k, t, -b/a)
			}
		}

		ref := pitchThreshold * maxOf(col)
		for k, v := range col {
			if v > ref {
				candidate.Set(k, t, v)
			}
		}
	}

	var peaks []pitchPeak
	for k := range bins {
		if freqs[k] < pitchFMin || freqs[k] >= fmax {
			continue
		}
		for t := range frames {
			if !isLocalMax(candidate, k, t) {
				continue
			}
			s := shift.At(k, t)
			peaks = append(peaks, pitchPeak{
				freq: (float64(k) + s) * float64(sampleRate) / float64(nfft),
				mag:  S.At(k, t) + 0.5*avg.At(k, t)*s,
			})
		}
	}
	return peaks
}

// isLocalMax reports x[k] > x[k-1] and x[k] >= x[k+1] along the frequency
// axis, with edge values repeated past either end.
func isLocalMax(x *mat.Dense, k, t int) bool {
	bins, _ := x.Dims()
	v := x.At(k, t)
	prev := x.At(max(k-1, 0), t)
	next := x.At(min(k+1, bins-1), t)
	return v > prev && v >= next
}

func maxOf(values []float64) float64 {
	m := math.Inf(-1)
	for _, v := range values {
		m = math.Max(m, v)
	}
	return m
}

// meanPitch averages every positive tracked pitch. No pitches yields 0.
func meanPitch(peaks []pitchPeak) float64 {
	var sum float64
	var n int
	for _, p := range peaks {
		if p.freq > 0 {
			sum += p.freq
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
