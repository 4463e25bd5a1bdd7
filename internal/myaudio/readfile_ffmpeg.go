package myaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

const maxStderrBytes = 4096

// boundedBuffer keeps the last bytes written so a chatty ffmpeg cannot grow memory.
type boundedBuffer struct {
	buf bytes.Buffer
	max int
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if len(p) >= b.max {
		b.buf.Reset()
		b.buf.Write(p[len(p)-b.max:])
		return n, nil
	}
	if overflow := b.buf.Len() + len(p) - b.max; overflow > 0 {
		b.buf.Next(overflow)
	}
	b.buf.Write(p)
	return n, nil
}

func (b *boundedBuffer) String() string {
	return strings.TrimSpace(b.buf.String())
}

// readFFmpeg decodes any ffmpeg-supported file to mono float32 at rate.
func readFFmpeg(ctx context.Context, ffmpegPath, path string, rate int) ([]float32, AudioInfo, error) {
	args := []string{
		"-hide_banner", "-nostdin",
		"-v", "error",
		"-i", path,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(rate),
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx, ffmpegPath, args...) //nolint:gosec // arguments are not shell-interpreted
	var stdout bytes.Buffer
	stderr := &boundedBuffer{max: maxStderrBytes}
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	info := AudioInfo{Format: "ffmpeg", SampleRate: rate, NumChannels: 1, BitDepth: 32}

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, info, fmt.Errorf("ffmpeg decode aborted: %w", ctxErr)
		}
		if msg := stderr.String(); msg != "" {
			return nil, info, fmt.Errorf("ffmpeg: %w: %s", err, msg)
		}
		return nil, info, fmt.Errorf("ffmpeg: %w", err)
	}

	raw := stdout.Bytes()
	if len(raw)%4 != 0 {
		return nil, info, fmt.Errorf("ffmpeg produced %d bytes, not a whole number of float32 samples", len(raw))
	}

	samples := make([]float32, len(raw)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return samples, info, nil
}
