package analysis

import (
	"github.com/oceanecho/oceanecho/internal/classifier"
	"github.com/oceanecho/oceanecho/internal/conf"
	"github.com/oceanecho/oceanecho/internal/errors"
	"github.com/oceanecho/oceanecho/internal/features"
	"github.com/oceanecho/oceanecho/internal/logger"
	"github.com/oceanecho/oceanecho/internal/myaudio"
	"github.com/oceanecho/oceanecho/internal/observability/metrics"
)

// Runtime bundles the processor with the artifacts it was built from so
// callers can report on and release them.
type Runtime struct {
	Processor *Processor
	Pipeline  *classifier.Pipeline
	Loader    *myaudio.Loader
	artifacts *classifier.Artifacts
}

// Close releases artifact resources such as TFLite interpreters.
func (r *Runtime) Close() error {
	if r == nil || r.artifacts == nil {
		return nil
	}
	return r.artifacts.Close()
}

// NewRuntime loads the configured artifacts and builds a processor around
// them. Any artifact failure is returned as-is; callers treat it as fatal.
func NewRuntime(settings *conf.Settings, m *metrics.PipelineMetrics) (*Runtime, error) {
	log := GetLogger()

	artifacts, err := classifier.LoadArtifacts(settings)
	if err != nil {
		m.SetArtifactsLoaded(false, string(errors.CategoryOf(err)))
		return nil, err
	}

	pipeline, err := artifacts.Pipeline()
	if err != nil {
		_ = artifacts.Close()
		m.SetArtifactsLoaded(false, string(errors.CategoryOf(err)))
		return nil, err
	}
	m.SetArtifactsLoaded(true, "")

	loader := myaudio.NewLoader(
		myaudio.WithFFmpeg(conf.ResolveFfmpegPath(settings.Audio.FfmpegPath)),
		myaudio.WithDecodeTimeout(settings.Audio.DecodeTimeout),
	)
	if !loader.FFmpegAvailable() {
		log.Warn("ffmpeg not found, only WAV and FLAC input can be decoded")
	}

	opts := []Option{WithMetrics(m)}
	if settings.Cache.Enabled {
		opts = append(opts, WithFeatureCache(settings.Cache.TTL, settings.Cache.MaxEntries))
	}

	log.Info("pipeline ready",
		logger.String("classifier", pipeline.ClassifierName()),
		logger.Int("features", pipeline.NumFeatures()),
		logger.Int("classes", len(pipeline.Classes())),
		logger.Bool("probabilistic", pipeline.Probabilistic()),
		logger.Bool("cache", settings.Cache.Enabled))

	return &Runtime{
		Processor: NewProcessor(loader, features.NewExtractor(), pipeline, opts...),
		Pipeline:  pipeline,
		Loader:    loader,
		artifacts: artifacts,
	}, nil
}
