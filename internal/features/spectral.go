package features

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	rolloffPercent   = 0.85
	contrastFMin     = 200.0
	contrastBands    = 6
	contrastQuantile = 0.02
)

// spectralShape holds the per-frame centroid, bandwidth and rolloff of a
// magnitude spectrogram.
type spectralShape struct {
	centroid  []float64
	bandwidth []float64
	rolloff   []float64
}

// spectralShapeOf computes centroid, bandwidth and rolloff per frame. Each
// frame is normalised to unit sum first; silent frames yield zeros.
func spectralShapeOf(mag *mat.Dense, sampleRate int) spectralShape {
	_, frames := mag.Dims()
	freqs := fftFrequencies(sampleRate)
	shape := spectralShape{
		centroid:  make([]float64, frames),
		bandwidth: make([]float64, frames),
		rolloff:   make([]float64, frames),
	}

	col := make([]float64, NumBins)
	for t := range frames {
		mat.Col(col, t, mag)
		total := floats.Sum(col)

		norm := col
		if total >= float32Tiny {
			norm = make([]float64, len(col))
			floats.ScaleTo(norm, 1/total, col)
		}

		centroid := floats.Dot(freqs, norm)
		var spread float64
		for k, w := range norm {
			d := freqs[k] - centroid
			spread += w * d * d
		}
		shape.centroid[t] = centroid
		shape.bandwidth[t] = math.Sqrt(spread)

		threshold := rolloffPercent * total
		var cum float64
		for k, v := range col {
			cum += v
			if cum >= threshold {
				shape.rolloff[t] = freqs[k]
				break
			}
		}
	}
	return shape
}

// spectralContrast returns the mean peak-to-valley difference in dB across
// six octave bands above contrastFMin plus one band below it.
func spectralContrast(mag *mat.Dense, sampleRate int) (float64, error) {
	nyquist := float64(sampleRate) / 2
	octaves := make([]float64, contrastBands+2)
	for i := 1; i < len(octaves); i++ {
		octaves[i] = contrastFMin * math.Pow(2, float64(i-1))
	}
	for _, f := range octaves[:len(octaves)-1] {
		if f >= nyquist {
			return 0, fmt.Errorf("contrast band edge %.0f Hz exceeds Nyquist %.0f Hz at %d Hz sampling", f, nyquist, sampleRate)
		}
	}

	bins, frames := mag.Dims()
	freqs := fftFrequencies(sampleRate)
	peak := mat.NewDense(contrastBands+1, frames, nil)
	valley := mat.NewDense(contrastBands+1, frames, nil)

	sub := make([]float64, 0, bins)
	for band := 0; band <= contrastBands; band++ {
		low, high := octaves[band], octaves[band+1]
		first, last := -1, -1
		for k, f := range freqs {
			if f >= low && f <= high {
				if first < 0 {
					first = k
				}
				last = k
			}
		}
		if first < 0 {
			return 0, fmt.Errorf("contrast band %d (%.0f-%.0f Hz) holds no bins", band, low, high)
		}

		if band > 0 {
			first--
		}
		if band == contrastBands {
			last = bins - 1
		}
		count := last - first + 1
		if band < contrastBands {
			last--
		}

		q := max(int(math.RoundToEven(contrastQuantile*float64(count))), 1)
		for t := range frames {
			sub = sub[:0]
			for k := first; k <= last; k++ {
				sub = append(sub, mag.At(k, t))
			}
			slices.Sort(sub)
			valley.Set(band, t, meanOf(sub[:q]))
			peak.Set(band, t, meanOf(sub[len(sub)-q:]))
		}
	}

	var contrast mat.Dense
	contrast.Sub(powerToDB(peak), powerToDB(valley))
	return mat.Sum(&contrast) / float64((contrastBands+1)*frames), nil
}
