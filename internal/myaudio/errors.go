package myaudio

import (
	"fmt"

	"github.com/oceanecho/oceanecho/internal/errors"
)

// ErrDecode marks any failure to turn a file into a waveform: missing,
// empty, corrupt or unsupported input.
var ErrDecode = errors.NewStd("audio decode failed")

// ErrUnsupportedFormat is wrapped by ErrDecode when no decoder accepts the file.
var ErrUnsupportedFormat = errors.NewStd("unsupported audio format")

// decodeError wraps cause so that errors.Is(err, ErrDecode) holds.
func decodeError(path, operation string, cause error) error {
	builder := errors.New(fmt.Errorf("%w: %s: %w", ErrDecode, operation, cause)).
		Component("myaudio").
		Category(errors.CategoryAudioDecode).
		Context("operation", operation)
	if path != "" {
		builder = builder.FileContext(path, 0)
	}
	return builder.Build()
}

var (
	errEmptyFile = errors.NewStd("file is empty")
	errNoSamples = errors.NewStd("no audio samples")
)
