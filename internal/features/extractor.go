package features

import (
	"fmt"
	"math"
	"time"

	"github.com/oceanecho/oceanecho/internal/logger"
	"github.com/oceanecho/oceanecho/internal/myaudio"
)

// Extractor computes feature vectors. It is stateless and safe for concurrent use.
type Extractor struct {
	log logger.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{log: GetLogger()}
}

// Extract computes the feature vector of a decoded waveform.
func (e *Extractor) Extract(wf *myaudio.Waveform) (Vector, error) {
	if wf == nil {
		return nil, extractionError("validate", fmt.Errorf("nil waveform"))
	}
	return e.ExtractSamples(wf.Samples, wf.SampleRate)
}

// ExtractSamples computes the feature vector of mono samples at sampleRate.
// The result always has VectorLen finite elements; anything else is reported
// as an error wrapping ErrExtraction.
func (e *Extractor) ExtractSamples(samples []float32, sampleRate int) (Vector, error) {
	start := time.Now()

	if err := validateInput(samples, sampleRate); err != nil {
		return nil, extractionError("validate", err)
	}

	mag := magnitudeSpectrogram(samples)
	power := powerOf(mag)

	contrast, err := spectralContrast(mag, sampleRate)
	if err != nil {
		return nil, extractionError("spectral contrast", err)
	}

	mel := melSpectrogram(power, sampleRate)
	shape := spectralShapeOf(mag, sampleRate)

	vec := make(Vector, VectorLen)
	copy(vec[OffsetMFCC:], rowMeans(mfcc(mel)))
	copy(vec[OffsetMel:], rowMeans(mel))
	copy(vec[OffsetChroma:], rowMeans(chromagram(power, sampleRate)))
	vec[OffsetCentroid] = meanOf(shape.centroid)
	vec[OffsetBandwidth] = meanOf(shape.bandwidth)
	vec[OffsetContrast] = contrast
	vec[OffsetRolloff] = meanOf(shape.rolloff)
	vec[OffsetRMS] = meanRMS(samples)
	vec[OffsetZCR] = meanZeroCrossingRate(samples)
	vec[OffsetPitch] = meanPitch(trackPitches(mag, sampleRate))

	if !allFinite(vec) {
		names := Names()
		for i, v := range vec {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, extractionError("assemble", fmt.Errorf("non-finite value %v for %s", v, names[i]))
			}
		}
	}

	_, frames := mag.Dims()
	e.log.Debug("features extracted",
		logger.Int("samples", len(samples)),
		logger.Int("frames", frames),
		logger.Duration("elapsed", time.Since(start)))

	return vec, nil
}

func validateInput(samples []float32, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if len(samples) == 0 {
		return fmt.Errorf("empty waveform")
	}
	for i, s := range samples {
		if math.IsNaN(float64(s)) || math.IsInf(float64(s), 0) {
			return fmt.Errorf("non-finite sample at index %d", i)
		}
	}
	return nil
}
