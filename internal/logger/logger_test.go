package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleLoggerWritesStructuredText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWriterLogger(&buf, LogLevelDebug).Module("features")

	log.Info("feature vector computed",
		String("file", "orca.wav"),
		Int("frames", 44),
		Float64("elapsed_ms", 12.34567),
		Duration("decode", 1500*time.Microsecond))

	out := buf.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "module=features")
	assert.Contains(t, out, "file=orca.wav")
	assert.Contains(t, out, "frames=44")
	assert.Contains(t, out, "elapsed_ms=12.346")
	assert.Contains(t, out, "decode=1.5ms")
	assert.NotContains(t, out, "time=")
}

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWriterLogger(&buf, LogLevelWarn).Module("audio")

	log.Debug("hidden")
	log.Info("hidden too")
	log.Warn("visible")
	log.Log(LogLevelError, "also visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
	assert.Contains(t, out, "level=ERROR")
}

func TestTraceLevelName(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewWriterLogger(&buf, LogLevelTrace).Module("x").Trace("very detailed")

	assert.Contains(t, buf.String(), "level=TRACE")
}

func TestSubModuleAndFieldsAreImmutable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	parent := NewWriterLogger(&buf, LogLevelInfo).Module("audio").With(String("source", "upload"))
	child := parent.Module("ffmpeg").With(String("codec", "mp3"))

	parent.Info("parent")
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.NotContains(t, lines[0], "codec")

	buf.Reset()
	child.Info("child")
	assert.Contains(t, buf.String(), "module=audio.ffmpeg")
	assert.Contains(t, buf.String(), "source=upload")
	assert.Contains(t, buf.String(), "codec=mp3")
}

func TestWithContextAddsTraceID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWriterLogger(&buf, LogLevelInfo).Module("http")

	log.WithContext(WithTraceID(context.Background(), "ab12cd34")).Info("request")
	assert.Contains(t, buf.String(), "trace_id=ab12cd34")

	assert.Same(t, log, log.WithContext(context.Background()))
}

func TestModuleLevelsInheritFromParent(t *testing.T) {
	t.Parallel()

	cl, err := NewCentralLogger(&LoggingConfig{
		DefaultLevel: "warn",
		Console:      &ConsoleOutput{Enabled: false},
		FileOutput:   &FileOutput{Enabled: false},
		ModuleLevels: map[string]string{"audio": "debug"},
	})
	require.NoError(t, err)

	assert.Equal(t, parseLogLevel("debug"), cl.Module("audio.ffmpeg").(*moduleLogger).level)
	assert.Equal(t, parseLogLevel("warn"), cl.Module("features").(*moduleLogger).level)
}

func TestFileOutputIsJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "app.log")
	cl, err := NewCentralLogger(&LoggingConfig{
		DefaultLevel: "info",
		Timezone:     "UTC",
		Console:      &ConsoleOutput{Enabled: false},
		FileOutput:   &FileOutput{Enabled: true, Path: path, Level: "info"},
	})
	require.NoError(t, err)

	cl.Module("classifier").Info("artifacts loaded", Int("classes", 5), Bool("probabilistic", true))
	require.NoError(t, cl.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &record))
	assert.Equal(t, "artifacts loaded", record["msg"])
	assert.Equal(t, "classifier", record["module"])
	assert.EqualValues(t, 5, record["classes"])
	assert.Equal(t, true, record["probabilistic"])
	assert.Equal(t, "INFO", record["level"])
}

func TestInvalidTimezone(t *testing.T) {
	t.Parallel()

	_, err := NewCentralLogger(&LoggingConfig{Timezone: "Mars/Olympus_Mons"})
	require.Error(t, err)
}

func TestErrorFieldNil(t *testing.T) {
	t.Parallel()

	f := Error(nil)
	assert.Equal(t, "error", f.Key)
	assert.Nil(t, f.Value)
}
