// Package classifier loads the pre-fitted scaler, label encoder and
// classifier artifacts and runs them as a single inference pipeline.
package classifier

import "math"

// Classifier maps a scaled feature vector to a class index.
type Classifier interface {
	Predict(x []float64) (int, error)
	NumFeatures() int
	NumClasses() int
	Name() string
}

// ProbabilisticClassifier is a Classifier that also reports a probability
// distribution over its classes.
type ProbabilisticClassifier interface {
	Classifier
	PredictProba(x []float64) ([]float64, error)
}

// softmax converts raw scores to a probability distribution.
func softmax(scores []float64) []float64 {
	out := make([]float64, len(scores))
	if len(scores) == 0 {
		return out
	}
	peak := scores[argmax(scores)]
	var sum float64
	for i, s := range scores {
		out[i] = math.Exp(s - peak)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// argmax returns the index of the first maximum.
func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

// isDistribution reports whether values are non-negative and sum to 1.
func isDistribution(values []float64) bool {
	var sum float64
	for _, v := range values {
		if v < 0 || math.IsNaN(v) {
			return false
		}
		sum += v
	}
	return math.Abs(sum-1) < 1e-3
}
