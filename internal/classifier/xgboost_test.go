package classifier

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanecho/oceanecho/internal/errors"
)

func TestXGBoost_Multiclass(t *testing.T) {
	t.Parallel()

	m, err := LoadXGBoost(writeFile(t, "xgb_model.json", multiclassXGB))
	require.NoError(t, err)

	assert.Equal(t, 2, m.NumFeatures())
	assert.Equal(t, 3, m.NumClasses())
	assert.Equal(t, "xgboost multi:softprob", m.Name())

	tests := []struct {
		name    string
		x       []float64
		want    int
		margins []float64
	}{
		{"left then right", []float64{0, 1}, 0, []float64{1.0, 0.5, 0.2}},
		{"right then left", []float64{1, -1}, 2, []float64{-1.0, -0.5, 0.2}},
		{"split value goes right", []float64{0.5, 0}, 1, []float64{-1.0, 0.5, 0.2}},
		{"missing follows default", []float64{math.NaN(), 0}, 0, []float64{1.0, 0.5, 0.2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := m.Predict(tt.x)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			probs, err := m.PredictProba(tt.x)
			require.NoError(t, err)
			assert.InDeltaSlice(t, softmax(tt.margins), probs, 1e-9)
			assert.True(t, isDistribution(probs))
		})
	}
}

func TestXGBoost_BinaryLogistic(t *testing.T) {
	t.Parallel()

	m, err := LoadXGBoost(writeFile(t, "binary.json", binaryXGB))
	require.NoError(t, err)
	assert.Equal(t, 2, m.NumClasses())

	probs, err := m.PredictProba([]float64{1})
	require.NoError(t, err)
	p := 1 / (1 + math.Exp(-2))
	assert.InDeltaSlice(t, []float64{1 - p, p}, probs, 1e-9)

	got, err := m.Predict([]float64{1})
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	got, err = m.Predict([]float64{-1})
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}

func TestXGBoost_DimensionMismatch(t *testing.T) {
	t.Parallel()

	m, err := LoadXGBoost(writeFile(t, "xgb_model.json", multiclassXGB))
	require.NoError(t, err)

	_, err = m.Predict([]float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = m.PredictProba(nil)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestXGBoost_InvalidModels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"not json", "this is not json"},
		{"no learner", `{"version": [2, 0, 0]}`},
		{"regression objective", `{"learner": {"objective": {"name": "reg:squarederror"}, "learner_model_param": {"base_score": "0", "num_feature": "2"}}}`},
		{"no trees", `{"learner": {"objective": {"name": "binary:logistic"}, "learner_model_param": {"base_score": "5E-1", "num_feature": "1"}, "gradient_booster": {"name": "gbtree", "model": {"tree_info": [], "trees": []}}}}`},
		{"feature out of range", `{"learner": {"objective": {"name": "binary:logistic"}, "learner_model_param": {"base_score": "5E-1", "num_feature": "1"}, "gradient_booster": {"name": "gbtree", "model": {"tree_info": [0], "trees": [{"left_children": [1, -1, -1], "right_children": [2, -1, -1], "split_indices": [3, 0, 0], "split_conditions": [0, 1, 2], "default_left": [0, 0, 0]}]}}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadXGBoost(writeFile(t, "model.json", tt.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrArtifactLoad)
			assert.True(t, errors.IsCategory(err, errors.CategoryModelLoad))
		})
	}
}

func TestBaseScores(t *testing.T) {
	t.Parallel()

	doc := func(raw string) string {
		return `{"learner": {"objective": {"name": "multi:softprob"}, "learner_model_param": {"base_score": "` + raw + `", "num_class": "2", "num_feature": "1"},
			"gradient_booster": {"name": "gbtree", "model": {"tree_info": [0], "trees": [{"left_children": [-1], "right_children": [-1], "split_indices": [0], "split_conditions": [0], "default_left": [0]}]}}}}`
	}

	m, err := parseXGBoost([]byte(doc("[1E-1,2E-1]")))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.1, 0.2}, m.baseMargin, 1e-12)

	m, err = parseXGBoost([]byte(doc("5E-1")))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, m.baseMargin, 1e-12)

	_, err = parseXGBoost([]byte(doc("[1,2,3]")))
	require.Error(t, err)
}
