package analysis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oceanecho/oceanecho/internal/classifier"
	"github.com/oceanecho/oceanecho/internal/errors"
	"github.com/oceanecho/oceanecho/internal/features"
	"github.com/oceanecho/oceanecho/internal/myaudio"
)

func TestResultMessage(t *testing.T) {
	t.Parallel()

	conf := 87.456
	tests := []struct {
		name   string
		result Result
		want   string
	}{
		{
			name:   "with confidence",
			result: Result{File: "orca.wav", Label: "Killer Whale", Confidence: &conf},
			want:   "Predicted Species: Killer Whale\nConfidence: 87.46%",
		},
		{
			name:   "without confidence",
			result: Result{File: "orca.wav", Label: "Killer Whale"},
			want:   "Predicted Species: Killer Whale\nConfidence: N/A",
		},
		{
			name:   "error",
			result: Result{File: "broken.mp3", Error: "cannot decode", Err: errors.NewStd("cannot decode")},
			want:   "Error while processing broken.mp3: cannot decode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.result.Message())
		})
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want ErrorKind
	}{
		{nil, ErrorKindNone},
		{fmt.Errorf("load: %w", myaudio.ErrDecode), ErrorKindDecode},
		{fmt.Errorf("extract: %w", features.ErrExtraction), ErrorKindExtraction},
		{fmt.Errorf("scale: %w", classifier.ErrDimensionMismatch), ErrorKindDimensionMismatch},
		{fmt.Errorf("decode label: %w", classifier.ErrUnknownClass), ErrorKindUnknownClass},
		{errCanceled, ErrorKindCanceled},
		{errors.NewStd("boom"), ErrorKindInternal},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.err), "error %v", tt.err)
	}
}

func TestBatchReportCounts(t *testing.T) {
	t.Parallel()

	b := &BatchReport{ID: "abc", Results: []Result{
		{File: "a.wav"},
		{File: "b.wav", Err: errors.NewStd("x")},
		{File: "c.wav"},
	}}

	assert.Equal(t, 2, b.Succeeded())
	assert.Equal(t, 1, b.Failed())
	assert.Contains(t, b.String(), "3 files, 2 ok, 1 failed")
}

func TestFeatureCache_MaxEntries(t *testing.T) {
	t.Parallel()

	c := newFeatureCache(0, 2)
	c.put("a", features.Vector{1})
	c.put("b", features.Vector{2})
	c.put("c", features.Vector{3})

	assert.Equal(t, 2, c.len())
	_, ok := c.get("c")
	assert.False(t, ok)
	v, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, features.Vector{1}, v)
}
