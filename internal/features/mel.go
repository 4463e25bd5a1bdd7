package features

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Slaney mel scale: linear below 1 kHz, logarithmic above.
const (
	melFSp       = 200.0 / 3
	melMinLogHz  = 1000.0
	melMinLogMel = melMinLogHz / melFSp
)

var melLogStep = math.Log(6.4) / 27.0

func hzToMel(f float64) float64 {
	if f >= melMinLogHz {
		return melMinLogMel + math.Log(f/melMinLogHz)/melLogStep
	}
	return f / melFSp
}

func melToHz(m float64) float64 {
	if m >= melMinLogMel {
		return melMinLogHz * math.Exp(melLogStep*(m-melMinLogMel))
	}
	return melFSp * m
}

// melFilterBank builds an nMels x NumBins matrix of triangular filters spanning
// 0 Hz to Nyquist, each scaled to unit area.
func melFilterBank(sampleRate, nMels int) *mat.Dense {
	fftFreqs := fftFrequencies(sampleRate)

	minMel := hzToMel(0)
	maxMel := hzToMel(float64(sampleRate) / 2)
	melF := make([]float64, nMels+2)
	for i := range melF {
		melF[i] = melToHz(minMel + (maxMel-minMel)*float64(i)/float64(nMels+1))
	}

	weights := mat.NewDense(nMels, NumBins, nil)
	for i := range nMels {
		lowerWidth := melF[i+1] - melF[i]
		upperWidth := melF[i+2] - melF[i+1]
		enorm := 2.0 / (melF[i+2] - melF[i])
		for k, f := range fftFreqs {
			lower := (f - melF[i]) / lowerWidth
			upper := (melF[i+2] - f) / upperWidth
			if w := math.Min(lower, upper); w > 0 {
				weights.Set(i, k, w*enorm)
			}
		}
	}
	return weights
}

// melSpectrogram projects a power spectrogram onto the mel filter bank.
func melSpectrogram(power *mat.Dense, sampleRate int) *mat.Dense {
	var mel mat.Dense
	mel.Mul(melFilterBank(sampleRate, NumMel), power)
	return &mel
}
