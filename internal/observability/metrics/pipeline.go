// Package metrics provides Prometheus collectors for the Oceanecho pipeline.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prediction outcome labels.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Pipeline stages timed by StageDuration.
const (
	StageDecode    = "decode"
	StageExtract   = "extract"
	StageInference = "inference"
)

// PipelineMetrics contains metrics for the decode, extract and inference pipeline.
type PipelineMetrics struct {
	PredictionTotal   *prometheus.CounterVec
	SpeciesTotal      *prometheus.CounterVec
	FileErrors        *prometheus.CounterVec
	StageDuration     *prometheus.HistogramVec
	BatchSize         prometheus.Histogram
	FeatureCacheHits  *prometheus.CounterVec
	ArtifactsLoaded   prometheus.Gauge
	ArtifactLoadError *prometheus.CounterVec
}

// NewPipelineMetrics creates pipeline metrics and registers them with registry.
func NewPipelineMetrics(registry *prometheus.Registry) (*PipelineMetrics, error) {
	m := &PipelineMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register pipeline metrics: %w", err)
	}
	return m, nil
}

func (m *PipelineMetrics) initMetrics() {
	m.PredictionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oceanecho_predictions_total",
			Help: "Total number of processed files partitioned by outcome.",
		},
		[]string{"status"},
	)
	m.SpeciesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oceanecho_species_predictions_total",
			Help: "Total number of successful predictions partitioned by species label.",
		},
		[]string{"species"},
	)
	m.FileErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oceanecho_file_errors_total",
			Help: "Total number of per-file failures partitioned by error kind.",
		},
		[]string{"kind"},
	)
	m.StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oceanecho_stage_duration_seconds",
			Help:    "Time spent in each pipeline stage per file.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		},
		[]string{"stage"},
	)
	m.BatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "oceanecho_batch_size_files",
			Help:    "Number of files per prediction batch.",
			Buckets: []float64{1, 2, 5, 10, 20, 50},
		},
	)
	m.FeatureCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oceanecho_feature_cache_lookups_total",
			Help: "Feature cache lookups partitioned by result.",
		},
		[]string{"result"},
	)
	m.ArtifactsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "oceanecho_artifacts_loaded",
			Help: "1 when the scaler, label encoder and classifier are loaded.",
		},
	)
	m.ArtifactLoadError = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oceanecho_artifact_load_errors_total",
			Help: "Artifact load failures partitioned by error category.",
		},
		[]string{"category"},
	)
}

// RecordPrediction counts one successful prediction.
func (m *PipelineMetrics) RecordPrediction(species string) {
	if m == nil {
		return
	}
	m.PredictionTotal.WithLabelValues(StatusSuccess).Inc()
	m.SpeciesTotal.WithLabelValues(species).Inc()
}

// RecordFileError counts one failed file.
func (m *PipelineMetrics) RecordFileError(kind string) {
	if m == nil {
		return
	}
	m.PredictionTotal.WithLabelValues(StatusError).Inc()
	m.FileErrors.WithLabelValues(kind).Inc()
}

// ObserveStage records how long a stage took.
func (m *PipelineMetrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveBatch records the size of a batch.
func (m *PipelineMetrics) ObserveBatch(files int) {
	if m == nil {
		return
	}
	m.BatchSize.Observe(float64(files))
}

// RecordCacheLookup counts a feature cache hit or miss.
func (m *PipelineMetrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.FeatureCacheHits.WithLabelValues(result).Inc()
}

// SetArtifactsLoaded records the artifact load state.
func (m *PipelineMetrics) SetArtifactsLoaded(loaded bool, errCategory string) {
	if m == nil {
		return
	}
	if loaded {
		m.ArtifactsLoaded.Set(1)
		return
	}
	m.ArtifactsLoaded.Set(0)
	m.ArtifactLoadError.WithLabelValues(errCategory).Inc()
}

// Describe implements the prometheus.Collector interface.
func (m *PipelineMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.PredictionTotal.Describe(ch)
	m.SpeciesTotal.Describe(ch)
	m.FileErrors.Describe(ch)
	m.StageDuration.Describe(ch)
	m.BatchSize.Describe(ch)
	m.FeatureCacheHits.Describe(ch)
	m.ArtifactsLoaded.Describe(ch)
	m.ArtifactLoadError.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *PipelineMetrics) Collect(ch chan<- prometheus.Metric) {
	m.PredictionTotal.Collect(ch)
	m.SpeciesTotal.Collect(ch)
	m.FileErrors.Collect(ch)
	m.StageDuration.Collect(ch)
	m.BatchSize.Collect(ch)
	m.FeatureCacheHits.Collect(ch)
	m.ArtifactsLoaded.Collect(ch)
	m.ArtifactLoadError.Collect(ch)
}
