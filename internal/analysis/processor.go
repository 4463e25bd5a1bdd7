// Package analysis runs batches of audio files through decode, feature
// extraction and classification, isolating failures per file.
package analysis

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/oceanecho/oceanecho/internal/classifier"
	"github.com/oceanecho/oceanecho/internal/errors"
	"github.com/oceanecho/oceanecho/internal/features"
	"github.com/oceanecho/oceanecho/internal/logger"
	"github.com/oceanecho/oceanecho/internal/myaudio"
	"github.com/oceanecho/oceanecho/internal/observability/metrics"
)

var errCanceled = errors.NewStd("batch canceled before file was processed")

// AudioLoader decodes a file into a mono waveform.
type AudioLoader interface {
	Load(ctx context.Context, path string) (*myaudio.Waveform, error)
}

// FeatureExtractor turns a waveform into a feature vector.
type FeatureExtractor interface {
	Extract(wf *myaudio.Waveform) (features.Vector, error)
}

// Predictor classifies one feature vector.
type Predictor interface {
	Predict(features []float64) (*classifier.Prediction, error)
}

// Processor runs the per-file pipeline. A batch is processed strictly in
// order; the collaborators are shared read-only state.
type Processor struct {
	loader    AudioLoader
	extractor FeatureExtractor
	predictor Predictor
	cache     *featureCache
	metrics   *metrics.PipelineMetrics
	log       logger.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithFeatureCache memoises feature vectors by file content.
func WithFeatureCache(ttl time.Duration, maxEntries int) Option {
	return func(p *Processor) {
		p.cache = newFeatureCache(ttl, maxEntries)
	}
}

// WithMetrics records per-file outcomes and stage durations.
func WithMetrics(m *metrics.PipelineMetrics) Option {
	return func(p *Processor) {
		p.metrics = m
	}
}

// NewProcessor creates a processor from its three stages.
func NewProcessor(loader AudioLoader, extractor FeatureExtractor, predictor Predictor, opts ...Option) *Processor {
	p := &Processor{
		loader:    loader,
		extractor: extractor,
		predictor: predictor,
		log:       GetLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProgressFunc is called after each file of a batch.
type ProgressFunc func(done, total int, res *Result)

// ProcessBatch classifies inputs one after another. A failing file never
// stops the batch; once ctx is done the remaining files are reported as
// canceled without being touched.
func (p *Processor) ProcessBatch(ctx context.Context, inputs []Input) *BatchReport {
	return p.ProcessBatchWithProgress(ctx, inputs, nil)
}

// ProcessBatchWithProgress is ProcessBatch with a per-file callback.
func (p *Processor) ProcessBatchWithProgress(ctx context.Context, inputs []Input, progress ProgressFunc) *BatchReport {
	report := &BatchReport{
		ID:        uuid.New().String(),
		StartedAt: time.Now(),
		Results:   make([]Result, 0, len(inputs)),
	}
	p.metrics.ObserveBatch(len(inputs))

	p.log.Info("starting batch",
		logger.String("batch_id", report.ID),
		logger.Int("files", len(inputs)))

	for i, in := range inputs {
		var res Result
		if ctx.Err() != nil {
			res = p.failed(in, errCanceled, 0)
		} else {
			res = p.ProcessFile(ctx, in)
		}
		report.Results = append(report.Results, res)
		if progress != nil {
			progress(i+1, len(inputs), &report.Results[i])
		}
	}

	report.Duration = time.Since(report.StartedAt)
	p.log.Info("batch completed",
		logger.String("batch_id", report.ID),
		logger.Int("succeeded", report.Succeeded()),
		logger.Int("failed", report.Failed()),
		logger.Duration("duration", report.Duration))
	return report
}

// ProcessFile runs one input through the pipeline. Panics are recovered
// into an internal error for that file.
func (p *Processor) ProcessFile(ctx context.Context, in Input) (res Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("panic while processing file",
				logger.String("file", in.Path),
				logger.Any("panic", r),
				logger.String("stack", string(debug.Stack())))
			err := errors.Newf("unexpected failure: %v", r).
				Component("analysis").
				Category(errors.CategoryGeneric).
				Context("file", displayName(in)).
				Build()
			res = p.failed(in, err, time.Since(start))
		}
	}()

	res = Result{File: displayName(in), URL: in.URL, Path: in.Path}

	vec, cached, err := p.featuresFor(ctx, in.Path, &res.Timings)
	if err != nil {
		return p.failed(in, err, time.Since(start))
	}
	res.Cached = cached

	inferStart := time.Now()
	pred, err := p.predictor.Predict(vec)
	res.Timings.Inference = time.Since(inferStart)
	p.metrics.ObserveStage(metrics.StageInference, res.Timings.Inference)
	if err != nil {
		failed := p.failed(in, err, time.Since(start))
		failed.Timings = res.Timings
		return failed
	}

	res.Label = pred.Label
	res.Confidence = pred.Confidence
	res.Duration = time.Since(start)
	p.metrics.RecordPrediction(pred.Label)

	p.log.Debug("file classified",
		logger.String("file", res.File),
		logger.String("label", res.Label),
		logger.String("confidence", res.ConfidenceText()),
		logger.Bool("cached", res.Cached),
		logger.Duration("duration", res.Duration))
	return res
}

// featuresFor decodes and extracts path, consulting the cache when enabled.
func (p *Processor) featuresFor(ctx context.Context, path string, timings *Timings) (features.Vector, bool, error) {
	var key string
	if p.cache != nil {
		k, err := contentKey(path)
		if err == nil {
			key = k
			if vec, ok := p.cache.get(key); ok {
				p.metrics.RecordCacheLookup(true)
				return vec, true, nil
			}
			p.metrics.RecordCacheLookup(false)
		}
		// Unreadable files fall through so the loader reports the decode error.
	}

	decodeStart := time.Now()
	wf, err := p.loader.Load(ctx, path)
	timings.Decode = time.Since(decodeStart)
	p.metrics.ObserveStage(metrics.StageDecode, timings.Decode)
	if err != nil {
		return nil, false, err
	}

	extractStart := time.Now()
	vec, err := p.extractor.Extract(wf)
	timings.Extract = time.Since(extractStart)
	p.metrics.ObserveStage(metrics.StageExtract, timings.Extract)
	if err != nil {
		return nil, false, err
	}

	if key != "" {
		p.cache.put(key, vec)
	}
	return vec, false, nil
}

func (p *Processor) failed(in Input, err error, elapsed time.Duration) Result {
	kind := KindOf(err)
	p.metrics.RecordFileError(string(kind))
	if kind != ErrorKindCanceled {
		p.log.Warn("file processing failed",
			logger.String("file", in.Path),
			logger.String("kind", string(kind)),
			logger.Error(err))
	}
	return Result{
		File:      displayName(in),
		URL:       in.URL,
		Path:      in.Path,
		Error:     err.Error(),
		ErrorKind: kind,
		Err:       err,
		Duration:  elapsed,
	}
}

func displayName(in Input) string {
	if in.Name != "" {
		return in.Name
	}
	return filepath.Base(in.Path)
}

// String summarises a batch for logs and the CLI.
func (b *BatchReport) String() string {
	return fmt.Sprintf("batch %s: %d files, %d ok, %d failed in %s",
		b.ID, len(b.Results), b.Succeeded(), b.Failed(), b.Duration.Round(time.Millisecond))
}
