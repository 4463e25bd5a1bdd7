package features

import (
	"fmt"

	"github.com/oceanecho/oceanecho/internal/errors"
)

// ErrExtraction marks a waveform that cannot be turned into a finite feature vector.
var ErrExtraction = errors.NewStd("feature extraction failed")

func extractionError(stage string, cause error) error {
	return errors.New(fmt.Errorf("%w: %s: %w", ErrExtraction, stage, cause)).
		Component("features").
		Category(errors.CategoryFeatureExtraction).
		Context("stage", stage).
		Build()
}
