package features

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	tuningResolution = 0.01
	chromaCtrOct     = 5.0
	chromaOctWidth   = 2.0
)

// hzToOctaves maps frequencies to fractional octaves above A440/16, with A
// shifted by tuning fractions of a semitone.
func hzToOctaves(f, tuning float64) float64 {
	a440 := 440.0 * math.Pow(2, tuning/NumChroma)
	return math.Log2(f / (a440 / 16))
}

// estimateTuning returns the deviation from A440 tuning in fractions of a
// semitone, estimated from the strongest tracked pitches of a power spectrogram.
func estimateTuning(power *mat.Dense, sampleRate int) float64 {
	peaks := trackPitches(power, sampleRate)

	mags := make([]float64, 0, len(peaks))
	for _, p := range peaks {
		if p.freq > 0 {
			mags = append(mags, p.mag)
		}
	}
	threshold := median(mags)

	freqs := make([]float64, 0, len(peaks))
	for _, p := range peaks {
		if p.freq > 0 && p.mag >= threshold {
			freqs = append(freqs, p.freq)
		}
	}
	return pitchTuning(freqs)
}

// pitchTuning histograms the semitone residuals of freqs and returns the
// left edge of the fullest bin.
func pitchTuning(freqs []float64) float64 {
	if len(freqs) == 0 {
		return 0
	}

	nBins := int(math.Ceil(1 / tuningResolution))
	edges := make([]float64, nBins+1)
	step := 1.0 / float64(nBins)
	for i := range edges {
		edges[i] = -0.5 + float64(i)*step
	}
	edges[nBins] = 0.5

	counts := make([]int, nBins)
	for _, f := range freqs {
		residual := math.Mod(NumChroma*hzToOctaves(f, 0), 1)
		if residual < 0 {
			residual++
		}
		if residual >= 0.5 {
			residual--
		}
		if residual < edges[0] || residual > edges[nBins] {
			continue
		}

		idx := min(int((residual-edges[0])*float64(nBins)), nBins-1)
		if idx > 0 && residual < edges[idx] {
			idx--
		}
		if idx < nBins-1 && residual >= edges[idx+1] {
			idx++
		}
		counts[idx]++
	}

	best := 0
	for i, c := range counts {
		if c > counts[best] {
			best = i
		}
	}
	return edges[best]
}

// chromaFilterBank builds the NumChroma x NumBins projection from STFT bins to
// pitch classes, starting at C.
func chromaFilterBank(sampleRate int, tuning float64) *mat.Dense {
	n := NFFT
	frqbins := make([]float64, n)
	for k := 1; k < n; k++ {
		f := float64(k) * float64(sampleRate) / float64(n)
		frqbins[k] = NumChroma * hzToOctaves(f, tuning)
	}
	// The DC bin sits 1.5 octaves below bin 1.
	frqbins[0] = frqbins[1] - 1.5*NumChroma

	binWidth := make([]float64, n)
	for k := range n - 1 {
		binWidth[k] = math.Max(frqbins[k+1]-frqbins[k], 1)
	}
	binWidth[n-1] = 1

	half := math.Round(NumChroma / 2.0)
	wts := mat.NewDense(NumChroma, n, nil)
	for k := range n {
		var norm float64
		col := make([]float64, NumChroma)
		for c := range NumChroma {
			d := math.Mod(frqbins[k]-float64(c)+half+10*NumChroma, NumChroma)
			if d < 0 {
				d += NumChroma
			}
			d -= half
			w := math.Exp(-0.5 * math.Pow(2*d/binWidth[k], 2))
			col[c] = w
			norm += w * w
		}
		norm = math.Sqrt(norm)
		if norm < float32Tiny {
			norm = 1
		}

		octave := math.Exp(-0.5 * math.Pow((frqbins[k]/NumChroma-chromaCtrOct)/chromaOctWidth, 2))
		for c := range NumChroma {
			// Rotate so row 0 is C rather than A.
			wts.Set((c-3+NumChroma)%NumChroma, k, col[c]/norm*octave)
		}
	}

	return mat.DenseCopyOf(wts.Slice(0, NumChroma, 0, NumBins))
}

// chromagram projects a power spectrogram onto pitch classes and scales each
// frame so its strongest class is 1.
func chromagram(power *mat.Dense, sampleRate int) *mat.Dense {
	tuning := estimateTuning(power, sampleRate)

	var chroma mat.Dense
	chroma.Mul(chromaFilterBank(sampleRate, tuning), power)

	_, frames := chroma.Dims()
	for t := range frames {
		var peak float64
		for c := range NumChroma {
			peak = math.Max(peak, math.Abs(chroma.At(c, t)))
		}
		if peak < float32Tiny {
			continue
		}
		for c := range NumChroma {
			chroma.Set(c, t, chroma.At(c, t)/peak)
		}
	}
	return &chroma
}
