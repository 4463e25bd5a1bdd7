package myaudio

import (
	"fmt"
	"io"

	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

// errNeedsFFmpeg reports a container the native decoders recognise but cannot decode.
var errNeedsFFmpeg = fmt.Errorf("%w: native decoder cannot handle this encoding", ErrUnsupportedFormat)

// readWAV decodes an integer PCM WAV file into interleaved float samples.
func readWAV(r io.ReadSeeker) ([]float32, AudioInfo, error) {
	decoder := wav.NewDecoder(r)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return nil, AudioInfo{}, fmt.Errorf("input is not a valid WAV audio file")
	}

	info := AudioInfo{
		Format:      "wav",
		SampleRate:  int(decoder.SampleRate),
		NumChannels: int(decoder.NumChans),
		BitDepth:    int(decoder.BitDepth),
	}

	// IEEE float, A-law, mu-law and 8-bit unsigned PCM go through ffmpeg.
	if decoder.WavAudioFormat != wavFormatPCM || info.BitDepth == 8 {
		return nil, info, errNeedsFFmpeg
	}
	if info.NumChannels < 1 {
		return nil, info, fmt.Errorf("invalid channel count: %d", info.NumChannels)
	}
	if info.SampleRate <= 0 {
		return nil, info, fmt.Errorf("invalid sample rate: %d", info.SampleRate)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, info, fmt.Errorf("error reading PCM data: %w", err)
	}

	samples, err := intsToFloat32(buf.Data, info.BitDepth)
	if err != nil {
		return nil, info, err
	}
	return samples, info, nil
}
