package classifier

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/antonholmquist/jason"

	"github.com/oceanecho/oceanecho/internal/conf"
	"github.com/oceanecho/oceanecho/internal/errors"
	"github.com/oceanecho/oceanecho/internal/logger"
)

// Artifacts holds the three loaded pipeline artifacts.
type Artifacts struct {
	Scaler     *Scaler
	Encoder    *LabelEncoder
	Classifier Classifier
}

// LoadArtifacts loads the scaler, label encoder and classifier named in
// settings. Any failure is returned wrapping ErrArtifactLoad.
func LoadArtifacts(settings *conf.Settings) (*Artifacts, error) {
	start := time.Now()
	log := GetLogger()

	scaler, err := LoadScaler(settings.Artifacts.Scaler)
	if err != nil {
		return nil, err
	}
	encoder, err := LoadLabelEncoder(settings.Artifacts.LabelEncoder)
	if err != nil {
		return nil, err
	}
	clf, err := LoadClassifier(settings.Artifacts.Classifier, settings.Artifacts.Threads)
	if err != nil {
		return nil, err
	}

	log.Info("pipeline artifacts loaded",
		logger.String("scaler", scaler.Kind()),
		logger.Int("features", scaler.NumFeatures()),
		logger.Int("classes", encoder.NumClasses()),
		logger.String("classifier", clf.Name()),
		logger.Duration("elapsed", time.Since(start)))

	return &Artifacts{Scaler: scaler, Encoder: encoder, Classifier: clf}, nil
}

// Pipeline builds an inference pipeline from the artifacts.
func (a *Artifacts) Pipeline() (*Pipeline, error) {
	p, err := NewPipeline(a.Scaler, a.Encoder, a.Classifier)
	if err != nil {
		return nil, errors.New(fmt.Errorf("%w: %w", ErrArtifactLoad, err)).
			Component("classifier").
			Category(errors.CategoryModelInit).
			Build()
	}
	return p, nil
}

// Close releases classifier resources, if any.
func (a *Artifacts) Close() error {
	if c, ok := a.Classifier.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// LoadClassifier picks a loader by file type: .tflite files are TFLite
// models, JSON documents with a top-level "learner" object are XGBoost models
// and any other JSON or YAML document is a linear model.
func LoadClassifier(path string, threads int) (Classifier, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tflite":
		return LoadTFLite(path, threads)
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, artifactError("classifier", path, errors.CategoryModelLoad, err)
		}
		doc, err := jason.NewObjectFromBytes(data)
		if err != nil {
			return nil, artifactError("classifier", path, errors.CategoryModelLoad, fmt.Errorf("invalid JSON: %w", err))
		}
		if _, err := doc.GetObject("learner"); err != nil {
			return LoadLinearModel(path)
		}
		m, err := xgboostFromDocument(doc)
		if err != nil {
			return nil, artifactError("classifier", path, errors.CategoryModelLoad, err)
		}
		return m, nil
	case ".yaml", ".yml":
		return LoadLinearModel(path)
	default:
		return nil, artifactError("classifier", path, errors.CategoryModelLoad,
			fmt.Errorf("%w: unrecognised file type %q", ErrUnsupportedModel, filepath.Ext(path)))
	}
}
