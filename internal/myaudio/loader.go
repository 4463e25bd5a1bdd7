package myaudio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oceanecho/oceanecho/internal/errors"
	"github.com/oceanecho/oceanecho/internal/logger"
)

// DefaultDecodeTimeout bounds a single ffmpeg decode.
const DefaultDecodeTimeout = 2 * time.Minute

// Loader decodes audio files into mono waveforms at SampleRate.
type Loader struct {
	ffmpegPath string
	timeout    time.Duration
	targetRate int
	log        logger.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFFmpeg enables the ffmpeg fallback for formats without a native decoder.
func WithFFmpeg(path string) LoaderOption {
	return func(l *Loader) { l.ffmpegPath = path }
}

// WithDecodeTimeout sets the ffmpeg decode timeout. Non-positive values keep the default.
func WithDecodeTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// NewLoader creates a Loader. Without WithFFmpeg only WAV and FLAC can be decoded.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		timeout:    DefaultDecodeTimeout,
		targetRate: SampleRate,
		log:        GetLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// FFmpegAvailable reports whether the ffmpeg fallback is configured.
func (l *Loader) FFmpegAvailable() bool {
	return l.ffmpegPath != ""
}

// Load decodes path, downmixes it to mono and resamples it to SampleRate.
// All failures wrap ErrDecode.
func (l *Loader) Load(ctx context.Context, path string) (*Waveform, error) {
	start := time.Now()

	stat, err := os.Stat(path)
	if err != nil {
		return nil, decodeError(path, "stat", err)
	}
	if stat.IsDir() {
		return nil, decodeError(path, "stat", fmt.Errorf("%s is a directory", filepath.Base(path)))
	}
	if stat.Size() == 0 {
		return nil, decodeError(path, "stat", errEmptyFile)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, decodeError(path, "open", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			l.log.Debug("failed to close audio file", logger.String("path", path), logger.Error(cerr))
		}
	}()

	format, err := sniffFormat(file)
	if err != nil {
		return nil, decodeError(path, "read header", err)
	}

	var (
		samples []float32
		info    AudioInfo
	)
	switch format {
	case "wav":
		samples, info, err = readWAV(file)
	case "flac":
		samples, info, err = readFLAC(file)
	default:
		err = errNeedsFFmpeg
	}

	if errors.Is(err, errNeedsFFmpeg) {
		if !l.FFmpegAvailable() {
			ext := strings.ToLower(filepath.Ext(path))
			return nil, decodeError(path, "decode", fmt.Errorf("%w: no native decoder for %q and ffmpeg is not available", ErrUnsupportedFormat, ext))
		}
		samples, info, err = l.decodeWithFFmpeg(ctx, path)
	}
	if err != nil {
		return nil, decodeError(path, "decode "+formatName(format), err)
	}

	mono := downmix(samples, info.NumChannels)
	if len(mono) == 0 {
		return nil, decodeError(path, "decode "+formatName(format), errNoSamples)
	}

	if info.SampleRate != l.targetRate {
		mono, err = ResampleAudio(mono, info.SampleRate, l.targetRate)
		if err != nil {
			return nil, decodeError(path, "resample", err)
		}
	}

	for i, s := range mono {
		if math.IsNaN(float64(s)) || math.IsInf(float64(s), 0) {
			return nil, decodeError(path, "decode "+formatName(format), fmt.Errorf("non-finite sample at index %d", i))
		}
	}

	l.log.Debug("audio decoded",
		logger.String("file", filepath.Base(path)),
		logger.String("format", info.Format),
		logger.Int("source_rate", info.SampleRate),
		logger.Int("channels", info.NumChannels),
		logger.Int("samples", len(mono)),
		logger.Duration("elapsed", time.Since(start)))

	return &Waveform{Samples: mono, SampleRate: l.targetRate, Source: info}, nil
}

func (l *Loader) decodeWithFFmpeg(ctx context.Context, path string) ([]float32, AudioInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	return readFFmpeg(ctx, l.ffmpegPath, path, l.targetRate)
}

// sniffFormat identifies the container from its magic bytes and rewinds the reader.
func sniffFormat(r io.ReadSeeker) (string, error) {
	header := make([]byte, 12)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", err
	}
	header = header[:n]

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	switch {
	case len(header) >= 12 && bytes.Equal(header[0:4], []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WAVE")):
		return "wav", nil
	case len(header) >= 4 && bytes.Equal(header[0:4], []byte("fLaC")):
		return "flac", nil
	default:
		return "", nil
	}
}

func formatName(format string) string {
	if format == "" {
		return "audio"
	}
	return format
}
