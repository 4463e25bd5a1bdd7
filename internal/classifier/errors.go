package classifier

import (
	"fmt"

	"github.com/oceanecho/oceanecho/internal/errors"
)

var (
	// ErrDimensionMismatch is returned when a vector's length differs from the fitted dimensionality.
	ErrDimensionMismatch = errors.NewStd("feature dimension mismatch")

	// ErrUnknownClass is returned when a class index has no label.
	ErrUnknownClass = errors.NewStd("unknown class index")

	// ErrArtifactLoad is returned when a scaler, label encoder or classifier cannot be loaded.
	ErrArtifactLoad = errors.NewStd("failed to load pipeline artifact")

	// ErrUnsupportedModel is wrapped by ErrArtifactLoad for well-formed files of an unknown kind.
	ErrUnsupportedModel = errors.NewStd("unsupported model")
)

func dimensionError(stage string, want, got int) error {
	return errors.New(fmt.Errorf("%w: %s expects %d features, got %d", ErrDimensionMismatch, stage, want, got)).
		Component("classifier").
		Category(errors.CategoryDimensionMismatch).
		Context("stage", stage).
		Context("expected", want).
		Context("actual", got).
		Build()
}

func unknownClassError(index, known int) error {
	return errors.New(fmt.Errorf("%w: %d is outside the %d known classes", ErrUnknownClass, index, known)).
		Component("classifier").
		Category(errors.CategoryUnknownClass).
		Context("class_index", index).
		Context("known_classes", known).
		Build()
}

func artifactError(kind, path string, category errors.ErrorCategory, cause error) error {
	return errors.New(fmt.Errorf("%w: %s %s: %w", ErrArtifactLoad, kind, path, cause)).
		Component("classifier").
		Category(category).
		ArtifactContext(kind, path).
		Build()
}

func inferenceError(model string, cause error) error {
	return errors.New(fmt.Errorf("%s inference failed: %w", model, cause)).
		Component("classifier").
		Category(errors.CategoryInference).
		Build()
}
