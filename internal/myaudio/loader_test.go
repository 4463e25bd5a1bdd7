package myaudio

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanecho/oceanecho/internal/errors"
)

// writeTestWAV writes interleaved 16-bit PCM to a temporary WAV file.
func writeTestWAV(t *testing.T, name string, rate, channels int, data []int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
	return path
}

func sineInts(freq float64, rate, n int, amplitude float64) []int {
	data := make([]int, n)
	for i := range data {
		data[i] = int(amplitude * 32767 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return data
}

func TestLoad_MonoWAVAtTargetRate(t *testing.T) {
	t.Parallel()

	path := writeTestWAV(t, "tone.wav", SampleRate, 1, sineInts(440, SampleRate, SampleRate, 0.5))

	wf, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, SampleRate, wf.SampleRate)
	assert.Len(t, wf.Samples, SampleRate)
	assert.Equal(t, "wav", wf.Source.Format)
	assert.Equal(t, 16, wf.Source.BitDepth)
	assert.InDelta(t, 1.0, wf.Duration().Seconds(), 1e-9)

	var peak float32
	for _, s := range wf.Samples {
		peak = max(peak, float32(math.Abs(float64(s))))
	}
	assert.InDelta(t, 0.5, peak, 0.01)
}

func TestLoad_StereoIsDownmixed(t *testing.T) {
	t.Parallel()

	// Left channel 0.5, right channel -0.25, average 0.125.
	const frames = 1000
	data := make([]int, frames*2)
	for i := range frames {
		data[2*i] = 16384
		data[2*i+1] = -8192
	}
	path := writeTestWAV(t, "stereo.wav", SampleRate, 2, data)

	wf, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, wf.Samples, frames)
	assert.Equal(t, 2, wf.Source.NumChannels)
	for _, s := range wf.Samples {
		assert.InDelta(t, 0.125, s, 1e-6)
	}
}

func TestLoad_ResamplesToTargetRate(t *testing.T) {
	t.Parallel()

	const srcRate = 44100
	path := writeTestWAV(t, "hires.wav", srcRate, 1, sineInts(440, srcRate, srcRate, 0.5))

	wf, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, SampleRate, wf.SampleRate)
	assert.Equal(t, srcRate, wf.Source.SampleRate)
	assert.Len(t, wf.Samples, SampleRate)
}

func TestLoad_Failures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.wav")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))

	corrupt := filepath.Join(dir, "corrupt.wav")
	require.NoError(t, os.WriteFile(corrupt, []byte("RIFF\x00\x00\x00\x00WAVEgarbage-data"), 0o600))

	unknown := filepath.Join(dir, "notes.mp3")
	require.NoError(t, os.WriteFile(unknown, []byte("this is not audio at all"), 0o600))

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "missing.wav")},
		{"empty file", empty},
		{"corrupt wav", corrupt},
		{"no decoder without ffmpeg", unknown},
		{"directory", dir},
	}

	loader := NewLoader()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			wf, err := loader.Load(context.Background(), tt.path)
			require.Error(t, err)
			assert.Nil(t, wf)
			assert.ErrorIs(t, err, ErrDecode)
			assert.True(t, errors.IsCategory(err, errors.CategoryAudioDecode))
		})
	}
}

func TestLoad_UnsupportedFormatWithoutFFmpeg(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "clip.ogg")
	require.NoError(t, os.WriteFile(path, []byte("OggS\x00\x02 definitely not a real stream"), 0o600))

	_, err := NewLoader().Load(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDownmix(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []float32{1, 2}, downmix([]float32{1, 2}, 1))
	assert.Equal(t, []float32{0.5, 0}, downmix([]float32{1, 0, 1, -1}, 2))
	assert.Equal(t, []float32{1}, downmix([]float32{0, 1, 2, 9}, 3), "trailing partial frame is dropped")
}

func TestAppendPCMBytes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		frame    []byte
		bitDepth int
		want     []float32
	}{
		{"16-bit", []byte{0x00, 0x40, 0x00, 0xC0}, 16, []float32{0.5, -0.5}},
		{"24-bit sign extension", []byte{0x00, 0x00, 0x40, 0x00, 0x00, 0xC0}, 24, []float32{0.5, -0.5}},
		{"32-bit", []byte{0x00, 0x00, 0x00, 0x40}, 32, []float32{0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := appendPCMBytes(nil, tt.frame, tt.bitDepth)
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want, got, 1e-7)
		})
	}

	_, err := appendPCMBytes(nil, []byte{0x00}, 16)
	require.Error(t, err)

	_, err = appendPCMBytes(nil, []byte{0x00}, 8)
	require.Error(t, err)
}

func TestResampleAudio(t *testing.T) {
	t.Parallel()

	in := make([]float32, 4410)
	out, err := ResampleAudio(in, 44100, 22050)
	require.NoError(t, err)
	assert.Len(t, out, 2205)

	out, err = ResampleAudio(in[:3], 44100, 22050)
	require.NoError(t, err)
	assert.Len(t, out, 2, "length rounds up")

	same, err := ResampleAudio(in, 22050, 22050)
	require.NoError(t, err)
	assert.Len(t, same, len(in))

	_, err = ResampleAudio(in, 0, 22050)
	require.Error(t, err)
}

func TestBoundedBuffer(t *testing.T) {
	t.Parallel()

	b := &boundedBuffer{max: 8}
	_, _ = b.Write([]byte("0123"))
	_, _ = b.Write([]byte("456789"))
	assert.Equal(t, "23456789", b.String())

	_, _ = b.Write([]byte("abcdefghijkl"))
	assert.Equal(t, "efghijkl", b.String())
}
