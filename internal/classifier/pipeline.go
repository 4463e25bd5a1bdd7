package classifier

import (
	"fmt"
	"math"

	"github.com/oceanecho/oceanecho/internal/logger"
)

// Prediction is the outcome of one pipeline call.
type Prediction struct {
	ClassIndex int
	Label      string

	// Confidence is 100 x the largest class probability, or nil when the
	// classifier does not report probabilities.
	Confidence *float64

	Probabilities []float64
}

// Pipeline scales a feature vector, classifies it and decodes the label.
// It holds no mutable state and is safe for concurrent use when the
// classifier is.
type Pipeline struct {
	scaler     *Scaler
	encoder    *LabelEncoder
	classifier Classifier
	proba      ProbabilisticClassifier
}

// NewPipeline wires the three artifacts together. The scaler and classifier
// must agree on dimensionality; a class count that differs from the encoder
// is only logged since unknown indices are rejected per call.
func NewPipeline(scaler *Scaler, encoder *LabelEncoder, clf Classifier) (*Pipeline, error) {
	if scaler == nil || encoder == nil || clf == nil {
		return nil, fmt.Errorf("pipeline requires a scaler, a label encoder and a classifier")
	}
	if scaler.NumFeatures() != clf.NumFeatures() {
		return nil, dimensionError("classifier", clf.NumFeatures(), scaler.NumFeatures())
	}

	p := &Pipeline{scaler: scaler, encoder: encoder, classifier: clf}
	if pc, ok := clf.(ProbabilisticClassifier); ok {
		p.proba = pc
	}

	if clf.NumClasses() != encoder.NumClasses() {
		GetLogger().Warn("classifier and label encoder disagree on class count",
			logger.Int("classifier_classes", clf.NumClasses()),
			logger.Int("encoder_classes", encoder.NumClasses()),
			logger.String("classifier", clf.Name()))
	}
	return p, nil
}

// Probabilistic reports whether predictions carry a confidence.
func (p *Pipeline) Probabilistic() bool { return p.proba != nil }

// NumFeatures returns the expected feature vector length.
func (p *Pipeline) NumFeatures() int { return p.scaler.NumFeatures() }

// Classes returns the label encoder's classes.
func (p *Pipeline) Classes() []string { return p.encoder.Classes() }

// ClassifierName describes the loaded classifier.
func (p *Pipeline) ClassifierName() string { return p.classifier.Name() }

// Predict runs one feature vector through scaler, classifier and label encoder.
func (p *Pipeline) Predict(features []float64) (*Prediction, error) {
	scaled, err := p.scaler.Transform(features)
	if err != nil {
		return nil, err
	}

	index, err := p.classifier.Predict(scaled)
	if err != nil {
		return nil, err
	}

	pred := &Prediction{ClassIndex: index}
	if p.proba != nil {
		probs, err := p.proba.PredictProba(scaled)
		if err != nil {
			return nil, err
		}
		pred.Probabilities = probs
		if len(probs) > 0 {
			c := math.Min(math.Max(100*probs[argmax(probs)], 0), 100)
			pred.Confidence = &c
		}
	}

	pred.Label, err = p.encoder.InverseTransform(index)
	if err != nil {
		return nil, err
	}
	return pred, nil
}
