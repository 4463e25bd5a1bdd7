package myaudio

import "time"

// SampleRate is the rate every waveform is delivered at.
const SampleRate = 22050

// Waveform is a decoded mono signal.
type Waveform struct {
	Samples    []float32 // mono samples in [-1, 1]
	SampleRate int

	// Source describes the file before conversion.
	Source AudioInfo
}

// AudioInfo describes a decoded source file.
type AudioInfo struct {
	Format      string // wav, flac or ffmpeg
	SampleRate  int
	NumChannels int
	BitDepth    int
}

// Duration returns the playback length of the waveform.
func (w *Waveform) Duration() time.Duration {
	if w == nil || w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(w.Samples)) / float64(w.SampleRate) * float64(time.Second))
}
