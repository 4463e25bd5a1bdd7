package classifier

import (
	"fmt"

	"github.com/oceanecho/oceanecho/internal/errors"
)

// Probability modes of a linear model.
const (
	ProbabilitySoftmax = "softmax" // multinomial logistic regression
	ProbabilityOvR     = "ovr"     // one-vs-rest logistic regression
	ProbabilityNone    = "none"    // decision function only, e.g. a linear SVM
)

// linearFile is the on-disk linear model format.
type linearFile struct {
	Type        string      `json:"type" yaml:"type"`
	Coef        [][]float64 `json:"coef" yaml:"coef"`
	Intercept   []float64   `json:"intercept" yaml:"intercept"`
	Probability string      `json:"probability" yaml:"probability"`
}

// LinearModel scores classes with coef·x + intercept. Binary models carry a
// single coefficient row whose positive side is class 1.
type LinearModel struct {
	coef        [][]float64
	intercept   []float64
	numFeatures int
	probability string
}

// ProbabilisticLinearModel is a LinearModel with calibrated probabilities.
type ProbabilisticLinearModel struct {
	*LinearModel
}

// NewLinearModel validates the coefficients and returns a Classifier. The
// result implements ProbabilisticClassifier unless probability is "none".
func NewLinearModel(coef [][]float64, intercept []float64, probability string) (Classifier, error) {
	if len(coef) == 0 || len(coef[0]) == 0 {
		return nil, fmt.Errorf("linear model has no coefficients")
	}
	if len(intercept) != len(coef) {
		return nil, fmt.Errorf("linear model has %d intercepts for %d coefficient rows", len(intercept), len(coef))
	}
	for i, row := range coef {
		if len(row) != len(coef[0]) {
			return nil, fmt.Errorf("coefficient row %d has %d values, expected %d", i, len(row), len(coef[0]))
		}
	}

	m := &LinearModel{coef: coef, intercept: intercept, numFeatures: len(coef[0]), probability: probability}
	switch probability {
	case ProbabilityNone:
		return m, nil
	case ProbabilitySoftmax, ProbabilityOvR, "":
		if m.probability == "" {
			m.probability = ProbabilitySoftmax
		}
		return &ProbabilisticLinearModel{LinearModel: m}, nil
	default:
		return nil, fmt.Errorf("unknown probability mode %q", probability)
	}
}

// LoadLinearModel reads a linear model from a JSON or YAML file.
func LoadLinearModel(path string) (Classifier, error) {
	var doc linearFile
	if err := decodeDocument(path, &doc); err != nil {
		return nil, artifactError("classifier", path, errors.CategoryModelLoad, err)
	}
	if doc.Type != "" && doc.Type != "linear" {
		return nil, artifactError("classifier", path, errors.CategoryModelLoad,
			fmt.Errorf("%w: model type %q", ErrUnsupportedModel, doc.Type))
	}

	m, err := NewLinearModel(doc.Coef, doc.Intercept, doc.Probability)
	if err != nil {
		return nil, artifactError("classifier", path, errors.CategoryModelLoad, err)
	}
	return m, nil
}

// Name implements Classifier.
func (m *LinearModel) Name() string { return "linear " + m.probability }

// NumFeatures implements Classifier.
func (m *LinearModel) NumFeatures() int { return m.numFeatures }

// NumClasses implements Classifier.
func (m *LinearModel) NumClasses() int {
	if len(m.coef) == 1 {
		return 2
	}
	return len(m.coef)
}

// decision returns one score per coefficient row.
func (m *LinearModel) decision(x []float64) ([]float64, error) {
	if len(x) != m.numFeatures {
		return nil, dimensionError("linear model", m.numFeatures, len(x))
	}
	scores := make([]float64, len(m.coef))
	for i, row := range m.coef {
		s := m.intercept[i]
		for j, w := range row {
			s += w * x[j]
		}
		scores[i] = s
	}
	return scores, nil
}

// Predict implements Classifier.
func (m *LinearModel) Predict(x []float64) (int, error) {
	scores, err := m.decision(x)
	if err != nil {
		return 0, err
	}
	if len(scores) == 1 {
		if scores[0] > 0 {
			return 1, nil
		}
		return 0, nil
	}
	return argmax(scores), nil
}

// PredictProba implements ProbabilisticClassifier.
func (m *ProbabilisticLinearModel) PredictProba(x []float64) ([]float64, error) {
	scores, err := m.decision(x)
	if err != nil {
		return nil, err
	}
	if len(scores) == 1 {
		p := sigmoid(scores[0])
		return []float64{1 - p, p}, nil
	}
	if m.probability == ProbabilityOvR {
		probs := make([]float64, len(scores))
		var sum float64
		for i, s := range scores {
			probs[i] = sigmoid(s)
			sum += probs[i]
		}
		for i := range probs {
			probs[i] /= sum
		}
		return probs, nil
	}
	return softmax(scores), nil
}
