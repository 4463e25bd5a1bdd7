package myaudio

import (
	"encoding/binary"
	"fmt"
)

// getAudioDivisor returns the full-scale value used to convert integer PCM to [-1, 1).
func getAudioDivisor(bitDepth int) (float32, error) {
	switch bitDepth {
	case 16:
		return 32768.0, nil
	case 24:
		return 8388608.0, nil
	case 32:
		return 2147483648.0, nil
	default:
		return 0, fmt.Errorf("unsupported audio bit depth: %d", bitDepth)
	}
}

// intsToFloat32 converts interleaved integer PCM to float samples.
func intsToFloat32(data []int, bitDepth int) ([]float32, error) {
	divisor, err := getAudioDivisor(bitDepth)
	if err != nil {
		return nil, err
	}
	out := make([]float32, len(data))
	for i, v := range data {
		out[i] = float32(v) / divisor
	}
	return out, nil
}

// appendPCMBytes decodes little-endian interleaved PCM bytes and appends float samples to dst.
// 24-bit samples are sign-extended.
func appendPCMBytes(dst []float32, frame []byte, bitDepth int) ([]float32, error) {
	divisor, err := getAudioDivisor(bitDepth)
	if err != nil {
		return dst, err
	}
	bytesPerSample := bitDepth / 8
	if len(frame)%bytesPerSample != 0 {
		return dst, fmt.Errorf("truncated PCM frame: %d bytes is not a multiple of %d", len(frame), bytesPerSample)
	}

	for i := 0; i < len(frame); i += bytesPerSample {
		var sample int32
		switch bitDepth {
		case 16:
			sample = int32(int16(binary.LittleEndian.Uint16(frame[i:])))
		case 24:
			sample = int32(uint32(frame[i])|uint32(frame[i+1])<<8|uint32(frame[i+2])<<16) << 8 >> 8
		case 32:
			sample = int32(binary.LittleEndian.Uint32(frame[i:]))
		}
		dst = append(dst, float32(sample)/divisor)
	}
	return dst, nil
}

// downmix averages interleaved channels into a mono signal.
func downmix(interleaved []float32, channels int) []float32 {
	if channels <= 1 {
		return interleaved
	}
	frames := len(interleaved) / channels
	mono := make([]float32, frames)
	scale := 1 / float32(channels)
	for i := range frames {
		var sum float32
		for c := range channels {
			sum += interleaved[i*channels+c]
		}
		mono[i] = sum * scale
	}
	return mono
}
