package classifier

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/antonholmquist/jason"

	"github.com/oceanecho/oceanecho/internal/errors"
)

// Supported XGBoost objectives.
const (
	objectiveSoftprob = "multi:softprob"
	objectiveSoftmax  = "multi:softmax"
	objectiveLogistic = "binary:logistic"
)

// xgbTree is one regression tree in array form. Node i is a leaf when
// left[i] == -1, in which case cond[i] holds the leaf value.
type xgbTree struct {
	left        []int
	right       []int
	feature     []int
	cond        []float32
	defaultLeft []bool
	group       int
	weight      float64
}

// leaf walks the tree for x and returns the leaf value. Features are
// compared in float32 and NaN follows the default branch.
func (t *xgbTree) leaf(x []float32) float64 {
	node := 0
	for t.left[node] != -1 {
		v := x[t.feature[node]]
		switch {
		case math.IsNaN(float64(v)):
			if t.defaultLeft[node] {
				node = t.left[node]
			} else {
				node = t.right[node]
			}
		case v < t.cond[node]:
			node = t.left[node]
		default:
			node = t.right[node]
		}
	}
	return float64(t.cond[node])
}

// XGBoost is a gradient-boosted tree ensemble loaded from XGBoost's native
// JSON model format.
type XGBoost struct {
	trees      []xgbTree
	objective  string
	groups     int // number of margin outputs
	numClass   int
	numFeature int
	baseMargin []float64
}

// LoadXGBoost reads an XGBoost JSON model (save_model output).
func LoadXGBoost(path string) (*XGBoost, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, artifactError("classifier", path, errors.CategoryModelLoad, err)
	}
	m, err := parseXGBoost(data)
	if err != nil {
		return nil, artifactError("classifier", path, errors.CategoryModelLoad, err)
	}
	return m, nil
}

func parseXGBoost(data []byte) (*XGBoost, error) {
	doc, err := jason.NewObjectFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return xgboostFromDocument(doc)
}

func xgboostFromDocument(doc *jason.Object) (*XGBoost, error) {
	learner, err := doc.GetObject("learner")
	if err != nil {
		return nil, fmt.Errorf("%w: missing learner section", ErrUnsupportedModel)
	}

	objective, err := learner.GetString("objective", "name")
	if err != nil {
		return nil, fmt.Errorf("missing objective: %w", err)
	}

	numFeature, err := looseInt(learner, "learner_model_param", "num_feature")
	if err != nil {
		return nil, fmt.Errorf("missing num_feature: %w", err)
	}
	numClass, err := looseInt(learner, "learner_model_param", "num_class")
	if err != nil {
		numClass = 0
	}

	m := &XGBoost{objective: objective, numFeature: numFeature}
	switch objective {
	case objectiveSoftprob, objectiveSoftmax:
		if numClass < 2 {
			return nil, fmt.Errorf("objective %s with num_class %d", objective, numClass)
		}
		m.groups, m.numClass = numClass, numClass
	case objectiveLogistic:
		m.groups, m.numClass = 1, 2
	default:
		return nil, fmt.Errorf("%w: objective %q", ErrUnsupportedModel, objective)
	}

	base, err := baseScores(learner, m.groups)
	if err != nil {
		return nil, err
	}
	m.baseMargin = make([]float64, m.groups)
	for i, b := range base {
		if objective == objectiveLogistic {
			b = math.Log(b / (1 - b))
		}
		m.baseMargin[i] = b
	}

	if err := m.loadTrees(learner); err != nil {
		return nil, err
	}
	if len(m.trees) == 0 {
		return nil, fmt.Errorf("model contains no trees")
	}
	return m, nil
}

func (m *XGBoost) loadTrees(learner *jason.Object) error {
	booster, err := learner.GetObject("gradient_booster")
	if err != nil {
		return fmt.Errorf("missing gradient_booster: %w", err)
	}
	name, _ := booster.GetString("name")

	var weights []float64
	model := booster
	switch name {
	case "gbtree", "":
	case "dart":
		if model, err = booster.GetObject("gbtree"); err != nil {
			return fmt.Errorf("dart booster without gbtree: %w", err)
		}
		if weights, err = booster.GetFloat64Array("weight_drop"); err != nil {
			return fmt.Errorf("dart booster without weight_drop: %w", err)
		}
	default:
		return fmt.Errorf("%w: booster %q", ErrUnsupportedModel, name)
	}

	trees, err := model.GetObjectArray("model", "trees")
	if err != nil {
		return fmt.Errorf("missing trees: %w", err)
	}
	groups, err := model.GetInt64Array("model", "tree_info")
	if err != nil {
		return fmt.Errorf("missing tree_info: %w", err)
	}
	if len(groups) != len(trees) {
		return fmt.Errorf("tree_info has %d entries for %d trees", len(groups), len(trees))
	}
	if weights != nil && len(weights) != len(trees) {
		return fmt.Errorf("weight_drop has %d entries for %d trees", len(weights), len(trees))
	}

	m.trees = make([]xgbTree, len(trees))
	for i, obj := range trees {
		tree, err := parseTree(obj, m.numFeature)
		if err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
		if groups[i] < 0 || int(groups[i]) >= m.groups {
			return fmt.Errorf("tree %d: group %d out of range", i, groups[i])
		}
		tree.group = int(groups[i])
		tree.weight = 1
		if weights != nil {
			tree.weight = weights[i]
		}
		m.trees[i] = tree
	}
	return nil
}

func parseTree(obj *jason.Object, numFeature int) (xgbTree, error) {
	left, err := obj.GetInt64Array("left_children")
	if err != nil {
		return xgbTree{}, err
	}
	right, err := obj.GetInt64Array("right_children")
	if err != nil {
		return xgbTree{}, err
	}
	features, err := obj.GetInt64Array("split_indices")
	if err != nil {
		return xgbTree{}, err
	}
	conds, err := obj.GetFloat64Array("split_conditions")
	if err != nil {
		return xgbTree{}, err
	}
	defaults, err := defaultLeft(obj)
	if err != nil {
		return xgbTree{}, err
	}

	n := len(left)
	if n == 0 || len(right) != n || len(features) != n || len(conds) != n || len(defaults) != n {
		return xgbTree{}, fmt.Errorf("inconsistent node arrays")
	}

	t := xgbTree{
		left:        make([]int, n),
		right:       make([]int, n),
		feature:     make([]int, n),
		cond:        make([]float32, n),
		defaultLeft: defaults,
	}
	for i := range n {
		t.left[i], t.right[i] = int(left[i]), int(right[i])
		t.feature[i] = int(features[i])
		t.cond[i] = float32(conds[i])
		if t.left[i] == -1 {
			continue
		}
		if t.left[i] <= i || t.left[i] >= n || t.right[i] <= i || t.right[i] >= n {
			return xgbTree{}, fmt.Errorf("node %d has invalid children", i)
		}
		if t.feature[i] < 0 || t.feature[i] >= numFeature {
			return xgbTree{}, fmt.Errorf("node %d splits on feature %d of %d", i, t.feature[i], numFeature)
		}
	}
	return t, nil
}

// defaultLeft accepts both the integer and boolean encodings XGBoost has used.
func defaultLeft(obj *jason.Object) ([]bool, error) {
	values, err := obj.GetValueArray("default_left")
	if err != nil {
		return nil, err
	}
	out := make([]bool, len(values))
	for i, v := range values {
		if b, err := v.Boolean(); err == nil {
			out[i] = b
			continue
		}
		n, err := v.Int64()
		if err != nil {
			return nil, fmt.Errorf("default_left[%d]: %w", i, err)
		}
		out[i] = n != 0
	}
	return out, nil
}

// looseInt reads an integer stored either as a JSON number or a string.
func looseInt(obj *jason.Object, keys ...string) (int, error) {
	if s, err := obj.GetString(keys...); err == nil {
		return strconv.Atoi(strings.TrimSpace(s))
	}
	n, err := obj.GetInt64(keys...)
	return int(n), err
}

// baseScores parses base_score, which is "5E-1" in older models and
// "[5E-1]" or a per-group vector in newer ones.
func baseScores(learner *jason.Object, groups int) ([]float64, error) {
	raw, err := learner.GetString("learner_model_param", "base_score")
	if err != nil {
		return nil, fmt.Errorf("missing base_score: %w", err)
	}

	raw = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(raw), "["), "]")
	parts := strings.Split(raw, ",")
	values := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid base_score %q: %w", raw, err)
		}
		values = append(values, v)
	}

	switch len(values) {
	case groups:
		return values, nil
	case 1:
		out := make([]float64, groups)
		for i := range out {
			out[i] = values[0]
		}
		return out, nil
	default:
		return nil, fmt.Errorf("base_score has %d values for %d outputs", len(values), groups)
	}
}

// Name implements Classifier.
func (m *XGBoost) Name() string { return "xgboost " + m.objective }

// NumFeatures implements Classifier.
func (m *XGBoost) NumFeatures() int { return m.numFeature }

// NumClasses implements Classifier.
func (m *XGBoost) NumClasses() int { return m.numClass }

// margins sums the leaf values of every tree onto the base margins.
func (m *XGBoost) margins(x []float64) ([]float64, error) {
	if len(x) != m.numFeature {
		return nil, dimensionError("xgboost", m.numFeature, len(x))
	}
	fx := make([]float32, len(x))
	for i, v := range x {
		fx[i] = float32(v)
	}

	out := append([]float64(nil), m.baseMargin...)
	for i := range m.trees {
		t := &m.trees[i]
		out[t.group] += t.weight * t.leaf(fx)
	}
	return out, nil
}

// PredictProba implements ProbabilisticClassifier.
func (m *XGBoost) PredictProba(x []float64) ([]float64, error) {
	margins, err := m.margins(x)
	if err != nil {
		return nil, err
	}
	if m.objective == objectiveLogistic {
		p := sigmoid(margins[0])
		return []float64{1 - p, p}, nil
	}
	return softmax(margins), nil
}

// Predict implements Classifier.
func (m *XGBoost) Predict(x []float64) (int, error) {
	margins, err := m.margins(x)
	if err != nil {
		return 0, err
	}
	if m.objective == objectiveLogistic {
		if margins[0] > 0 {
			return 1, nil
		}
		return 0, nil
	}
	return argmax(margins), nil
}
