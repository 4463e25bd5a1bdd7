package features

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/mjibson/go-dsp/fft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/oceanecho/oceanecho/internal/errors"
	"github.com/oceanecho/oceanecho/internal/myaudio"
)

const testRate = myaudio.SampleRate

func sine(freq, amplitude float64, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amplitude * math.Sin(2*math.Pi*freq*float64(i)/testRate))
	}
	return out
}

func TestLayout(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 160, VectorLen)
	assert.Equal(t, 13, OffsetMel)
	assert.Equal(t, 141, OffsetChroma)
	assert.Equal(t, 153, OffsetCentroid)
	assert.Equal(t, 159, OffsetPitch)

	names := Names()
	require.Len(t, names, VectorLen)
	assert.Equal(t, "mfcc_0", names[OffsetMFCC])
	assert.Equal(t, "chroma_A", names[OffsetChroma+9])
	assert.Equal(t, "pitch", names[OffsetPitch])
}

func TestExtract_SineTone(t *testing.T) {
	t.Parallel()

	vec, err := NewExtractor().Extract(&myaudio.Waveform{
		Samples:    sine(441, 0.5, testRate),
		SampleRate: testRate,
	})
	require.NoError(t, err)
	require.Len(t, vec, VectorLen)
	assert.True(t, allFinite(vec))

	assert.InDelta(t, 2*441.0/testRate, vec.ZCR(), 0.1*2*441.0/testRate)
	assert.InDelta(t, 441, vec.Pitch(), 44.1)
	assert.InDelta(t, 0.5/math.Sqrt2, vec.RMS(), 0.02)

	assert.Greater(t, vec.Centroid(), 300.0)
	assert.Less(t, vec.Centroid(), 1000.0)
	assert.Greater(t, vec.Rolloff(), 400.0)
	assert.Less(t, vec.Rolloff(), 1000.0)
	assert.Positive(t, vec.Bandwidth())
	assert.Positive(t, vec.Contrast())

	chroma := vec.Chroma()
	best := 0
	for i, v := range chroma {
		if v > chroma[best] {
			best = i
		}
	}
	assert.Equal(t, 9, best, "a 441 Hz tone should peak at pitch class A")
}

func TestExtract_Deterministic(t *testing.T) {
	t.Parallel()

	samples := sine(1000, 0.3, testRate/2)
	ex := NewExtractor()

	first, err := ex.ExtractSamples(samples, testRate)
	require.NoError(t, err)
	second, err := ex.ExtractSamples(samples, testRate)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExtract_Silence(t *testing.T) {
	t.Parallel()

	vec, err := NewExtractor().ExtractSamples(make([]float32, testRate), testRate)
	require.NoError(t, err)
	require.Len(t, vec, VectorLen)
	assert.True(t, allFinite(vec))

	assert.Zero(t, vec.ZCR())
	assert.Zero(t, vec.RMS())
	assert.Zero(t, vec.Pitch())
	assert.Zero(t, vec.Centroid())
	assert.Zero(t, vec.Rolloff())
	assert.InDelta(t, 0, vec.Contrast(), 1e-9)

	// Every mel band sits at the -100 dB floor, so only the DC coefficient survives.
	assert.InDelta(t, -100*math.Sqrt(NumMel), vec.MFCC()[0], 1e-6)
	for _, c := range vec.MFCC()[1:] {
		assert.InDelta(t, 0, c, 1e-9)
	}
	for _, c := range vec.Chroma() {
		assert.Zero(t, c)
	}
}

func TestExtract_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		samples []float32
		rate    int
	}{
		{"empty", nil, testRate},
		{"zero sample rate", sine(440, 0.5, 1024), 0},
		{"NaN sample", []float32{0, float32(math.NaN()), 0}, testRate},
		{"infinite sample", []float32{float32(math.Inf(1))}, testRate},
		{"rate too low for contrast bands", sine(440, 0.5, 8000), 8000},
	}

	ex := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			vec, err := ex.ExtractSamples(tt.samples, tt.rate)
			require.Error(t, err)
			assert.Nil(t, vec)
			assert.ErrorIs(t, err, ErrExtraction)
			assert.True(t, errors.IsCategory(err, errors.CategoryFeatureExtraction))
		})
	}

	_, err := ex.Extract(nil)
	assert.ErrorIs(t, err, ErrExtraction)
}

func TestMagnitudeSpectrogram_MatchesReferenceFFT(t *testing.T) {
	t.Parallel()

	samples := sine(1234, 0.8, 5000)
	mag := magnitudeSpectrogram(samples)

	bins, frames := mag.Dims()
	require.Equal(t, NumBins, bins)
	require.Equal(t, 1+5000/HopLength, frames)

	win := periodicHann(NFFT)
	for _, frame := range []int{0, 3, frames - 1} {
		buf := make([]float64, NFFT)
		for j := range NFFT {
			idx := frame*HopLength - NFFT/2 + j
			if idx >= 0 && idx < len(samples) {
				buf[j] = float64(samples[idx]) * win[j]
			}
		}
		want := fft.FFTReal(buf)
		for k := range NumBins {
			assert.InDelta(t, cmplx.Abs(want[k]), mag.At(k, frame), 1e-9, "frame %d bin %d", frame, k)
		}
	}
}

func TestPeriodicHann(t *testing.T) {
	t.Parallel()

	w := periodicHann(8)
	require.Len(t, w, 8)
	assert.InDelta(t, 0, w[0], 1e-12)
	assert.InDelta(t, 1, w[4], 1e-12)
	assert.InDelta(t, w[1], w[7], 1e-12)
}

func TestMelScale(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 15, hzToMel(1000), 1e-12)
	assert.InDelta(t, 3, hzToMel(200), 1e-12)
	for _, f := range []float64{0, 100, 999, 1000, 4000, 11025} {
		assert.InDelta(t, f, melToHz(hzToMel(f)), 1e-9)
	}

	fb := melFilterBank(testRate, NumMel)
	rows, cols := fb.Dims()
	require.Equal(t, NumMel, rows)
	require.Equal(t, NumBins, cols)
	assert.GreaterOrEqual(t, mat.Min(fb), 0.0)
	for i := range rows {
		assert.Positive(t, mat.Sum(fb.RowView(i)), "band %d has no weight", i)
	}
}

func TestDCTMatrixIsOrthonormal(t *testing.T) {
	t.Parallel()

	d := dctMatrix(8, 8)
	var prod mat.Dense
	prod.Mul(d, d.T())
	assert.True(t, mat.EqualApprox(&prod, identity(8), 1e-12))
}

func identity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := range n {
		m.Set(i, i, 1)
	}
	return m
}

func TestPowerToDB(t *testing.T) {
	t.Parallel()

	in := mat.NewDense(1, 4, []float64{1, 0.1, 0, 1e-12})
	out := powerToDB(in)
	assert.InDeltaSlice(t, []float64{0, -10, -80, -80}, out.RawRowView(0), 1e-9)
}

func TestPitchTuning(t *testing.T) {
	t.Parallel()

	assert.Zero(t, pitchTuning(nil))
	assert.InDelta(t, 0, pitchTuning([]float64{440, 880, 220}), 1e-9)

	// Residuals of 0.255 semitones land in the bin whose left edge is 0.25.
	sharp := 440 * math.Pow(2, 0.255/12)
	assert.InDelta(t, 0.25, pitchTuning([]float64{sharp, sharp * 2}), 1e-9)
}

func TestMeanZeroCrossingRate_Alternating(t *testing.T) {
	t.Parallel()

	samples := make([]float32, 4096)
	for i := range samples {
		samples[i] = 1
		if i%2 == 1 {
			samples[i] = -1
		}
	}

	// Edge frames repeat the boundary sample, so they cross less often.
	want := float64(1023+1535+5*2047+1535+1023) / (2048 * 9)
	assert.InDelta(t, want, meanZeroCrossingRate(samples), 1e-12)
}

func TestMeanRMS_Constant(t *testing.T) {
	t.Parallel()

	samples := make([]float32, 4096)
	for i := range samples {
		samples[i] = 0.5
	}

	// Frames are 2048 wide and zero-padded by 1024 on each side.
	covered := []int{1024, 1536, 2048, 2048, 2048, 2048, 2048, 1536, 1024}
	var want float64
	for _, n := range covered {
		want += math.Sqrt(0.25 * float64(n) / 2048)
	}
	want /= float64(len(covered))
	assert.InDelta(t, want, meanRMS(samples), 1e-12)
}

func TestMedian(t *testing.T) {
	t.Parallel()

	assert.Zero(t, median(nil))
	assert.Equal(t, 2.0, median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, median([]float64{4, 1, 3, 2}))
}
