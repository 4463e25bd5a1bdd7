package predict

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanecho/oceanecho/internal/analysis"
	"github.com/oceanecho/oceanecho/internal/conf"
	"github.com/oceanecho/oceanecho/internal/errors"
	"github.com/oceanecho/oceanecho/internal/samples"
)

type stubProcessor struct {
	failNames map[string]bool
}

func (s stubProcessor) ProcessBatchWithProgress(_ context.Context, inputs []analysis.Input, progress analysis.ProgressFunc) *analysis.BatchReport {
	report := &analysis.BatchReport{ID: "cli"}
	for i, in := range inputs {
		name := in.Name
		if name == "" {
			name = filepath.Base(in.Path)
		}
		res := analysis.Result{File: name, Label: "Beluga"}
		if s.failNames[name] {
			err := errors.NewStd("corrupt header")
			res = analysis.Result{File: name, Err: err, Error: err.Error(), ErrorKind: analysis.ErrorKindDecode}
		}
		report.Results = append(report.Results, res)
		if progress != nil {
			progress(i+1, len(inputs), &report.Results[i])
		}
	}
	return report
}

func TestCollectInputs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "beluga.wav"), []byte("RIFF"), 0o600))

	settings := &conf.Settings{}
	settings.Samples.Path = dir
	settings.Samples.Extensions = samples.DefaultExtensions
	settings.Input.Files = []string{"/tmp/a.wav"}
	settings.Input.Samples = []string{"beluga.wav"}

	inputs, err := collectInputs(settings)
	require.NoError(t, err)
	require.Len(t, inputs, 2)
	assert.Equal(t, "/tmp/a.wav", inputs[0].Path)
	assert.Equal(t, "beluga.wav", inputs[1].Name)
	assert.Equal(t, filepath.Join(dir, "beluga.wav"), inputs[1].Path)

	settings.Input.Samples = []string{"narwhal.wav"}
	_, err = collectInputs(settings)
	assert.ErrorIs(t, err, samples.ErrNotFound)

	_, err = collectInputs(&conf.Settings{})
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	t.Parallel()

	inputs := []analysis.Input{{Path: "/data/a.wav"}, {Path: "/data/b.wav"}}

	var out, errOut bytes.Buffer
	err := run(context.Background(), stubProcessor{}, inputs, "csv", &out, &errOut, true)
	require.NoError(t, err)
	assert.Equal(t, "file,species,confidence,error_kind,error\na.wav,Beluga,,,\nb.wav,Beluga,,,\n", out.String())

	out.Reset()
	err = run(context.Background(), stubProcessor{failNames: map[string]bool{"b.wav": true}}, inputs, "table", &out, &errOut, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files")
	assert.Contains(t, out.String(), "Error while processing b.wav: corrupt header")
}
