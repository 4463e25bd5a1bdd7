package features

import (
	"math"

	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/mat"
)

// periodicHann returns a length-n Hann window that is periodic rather than symmetric.
func periodicHann(n int) []float64 {
	return window.Hann(n + 1)[:n]
}

// numFrames returns the number of centered frames for a signal of length n.
func numFrames(n int) int {
	return 1 + n/HopLength
}

// magnitudeSpectrogram computes |STFT| as a NumBins x frames matrix. The
// signal is zero-padded by NFFT/2 on both sides so frame t is centred on
// sample t*HopLength.
func magnitudeSpectrogram(samples []float32) *mat.Dense {
	frames := numFrames(len(samples))
	pad := NFFT / 2

	padded := make([]float64, len(samples)+2*pad)
	for i, s := range samples {
		padded[pad+i] = float64(s)
	}

	win := periodicHann(NFFT)
	fft := fourier.NewFFT(NFFT)
	buf := make([]float64, NFFT)
	coeffs := make([]complex128, NumBins)

	data := make([]float64, NumBins*frames)
	for t := range frames {
		start := t * HopLength
		for j := range NFFT {
			buf[j] = padded[start+j] * win[j]
		}
		coeffs = fft.Coefficients(coeffs, buf)
		for k, c := range coeffs {
			data[k*frames+t] = math.Hypot(real(c), imag(c))
		}
	}
	return mat.NewDense(NumBins, frames, data)
}

// powerOf squares every element of a magnitude spectrogram.
func powerOf(mag *mat.Dense) *mat.Dense {
	var power mat.Dense
	power.MulElem(mag, mag)
	return &power
}

// fftFrequencies returns the centre frequency of every STFT bin.
func fftFrequencies(sampleRate int) []float64 {
	freqs := make([]float64, NumBins)
	for k := range freqs {
		freqs[k] = float64(k) * float64(sampleRate) / NFFT
	}
	return freqs
}

// rowMeans averages each row of m across frames.
func rowMeans(m *mat.Dense) []float64 {
	rows, _ := m.Dims()
	means := make([]float64, rows)
	for i := range rows {
		means[i] = meanOf(m.RawRowView(i))
	}
	return means
}
