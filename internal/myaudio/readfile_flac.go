package myaudio

import (
	"fmt"
	"io"

	"github.com/tphakala/flac"

	"github.com/oceanecho/oceanecho/internal/errors"
)

// readFLAC decodes a FLAC stream into interleaved float samples.
func readFLAC(r io.Reader) ([]float32, AudioInfo, error) {
	decoder, err := flac.NewDecoder(r)
	if err != nil {
		return nil, AudioInfo{}, fmt.Errorf("error opening FLAC stream: %w", err)
	}

	info := AudioInfo{
		Format:      "flac",
		SampleRate:  decoder.SampleRate,
		NumChannels: decoder.NChannels,
		BitDepth:    decoder.BitsPerSample,
	}
	if info.NumChannels < 1 || info.SampleRate <= 0 {
		return nil, info, fmt.Errorf("invalid FLAC stream info: %d channels at %d Hz", info.NumChannels, info.SampleRate)
	}

	samples := make([]float32, 0, int(decoder.TotalSamples)*info.NumChannels)
	for {
		frame, err := decoder.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, info, fmt.Errorf("error decoding FLAC frame: %w", err)
		}

		samples, err = appendPCMBytes(samples, frame, info.BitDepth)
		if err != nil {
			return nil, info, err
		}
	}

	return samples, info, nil
}
