package myaudio

import (
	"fmt"
	"math"

	resampling "github.com/tphakala/go-audio-resampling"
)

// ResampleAudio converts mono samples from one rate to another with a
// high-quality polyphase filter. The output holds ceil(len*to/from) samples.
func ResampleAudio(samples []float32, from, to int) ([]float32, error) {
	if from <= 0 || to <= 0 {
		return nil, fmt.Errorf("invalid sample rates: %d -> %d", from, to)
	}
	if from == to || len(samples) == 0 {
		return samples, nil
	}

	resampler, err := resampling.New(&resampling.Config{
		InputRate:  float64(from),
		OutputRate: float64(to),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	// Trailing silence pushes the filter's group delay out of the resampler.
	input := make([]float64, len(samples)+from/10)
	for i, s := range samples {
		input[i] = float64(s)
	}

	output, err := resampler.Process(input)
	if err != nil {
		return nil, fmt.Errorf("error resampling audio: %w", err)
	}

	want := int(math.Ceil(float64(len(samples)) * float64(to) / float64(from)))
	result := make([]float32, want)
	for i := range min(want, len(output)) {
		result[i] = float32(output[i])
	}
	return result, nil
}
