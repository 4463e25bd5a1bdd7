package analysis

import (
	"fmt"
	"time"

	"github.com/oceanecho/oceanecho/internal/classifier"
	"github.com/oceanecho/oceanecho/internal/errors"
	"github.com/oceanecho/oceanecho/internal/features"
	"github.com/oceanecho/oceanecho/internal/myaudio"
)

// ErrorKind classifies a per-file failure.
type ErrorKind string

const (
	ErrorKindNone              ErrorKind = ""
	ErrorKindDecode            ErrorKind = "decode"
	ErrorKindExtraction        ErrorKind = "extraction"
	ErrorKindDimensionMismatch ErrorKind = "dimension_mismatch"
	ErrorKindUnknownClass      ErrorKind = "unknown_class"
	ErrorKindCanceled          ErrorKind = "canceled"
	ErrorKindInternal          ErrorKind = "internal"
)

// KindOf maps an error to its ErrorKind.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorKindNone
	case errors.Is(err, myaudio.ErrDecode):
		return ErrorKindDecode
	case errors.Is(err, features.ErrExtraction):
		return ErrorKindExtraction
	case errors.Is(err, classifier.ErrDimensionMismatch):
		return ErrorKindDimensionMismatch
	case errors.Is(err, classifier.ErrUnknownClass):
		return ErrorKindUnknownClass
	case errors.Is(err, errCanceled):
		return ErrorKindCanceled
	default:
		return ErrorKindInternal
	}
}

// Input is one file to classify.
type Input struct {
	Name string // display name; defaults to the path's base name
	Path string
	URL  string // optional playback URL for the web UI
}

// Timings records how long each stage took for one file.
type Timings struct {
	Decode    time.Duration `json:"decode"`
	Extract   time.Duration `json:"extract"`
	Inference time.Duration `json:"inference"`
}

// Result is the outcome for one file: a prediction or an error, never both.
type Result struct {
	File       string        `json:"file"`
	URL        string        `json:"url,omitempty"`
	Label      string        `json:"label,omitempty"`
	Confidence *float64      `json:"confidence"`
	Error      string        `json:"error,omitempty"`
	ErrorKind  ErrorKind     `json:"error_kind,omitempty"`
	Cached     bool          `json:"cached,omitempty"`
	Timings    Timings       `json:"timings"`
	Duration   time.Duration `json:"duration"`

	Err  error  `json:"-"`
	Path string `json:"-"`
}

// OK reports whether the file was classified.
func (r *Result) OK() bool { return r.Err == nil }

// ConfidenceText formats the confidence as a percentage, or "N/A" when absent.
func (r *Result) ConfidenceText() string {
	if r.Confidence == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", *r.Confidence)
}

// Message renders the result for display.
func (r *Result) Message() string {
	if r.Err != nil {
		return fmt.Sprintf("Error while processing %s: %s", r.File, r.Error)
	}
	return fmt.Sprintf("Predicted Species: %s\nConfidence: %s", r.Label, r.ConfidenceText())
}

// BatchReport collects the results of one predict action, in input order.
type BatchReport struct {
	ID        string        `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Results   []Result      `json:"results"`
}

// Succeeded returns the number of classified files.
func (b *BatchReport) Succeeded() int {
	n := 0
	for i := range b.Results {
		if b.Results[i].OK() {
			n++
		}
	}
	return n
}

// Failed returns the number of files that produced an error.
func (b *BatchReport) Failed() int {
	return len(b.Results) - b.Succeeded()
}
