package classifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// multiclassXGB has two features and three classes, one stump per class.
const multiclassXGB = `{
  "learner": {
    "attributes": {},
    "feature_names": [],
    "feature_types": [],
    "gradient_booster": {
      "model": {
        "gbtree_model_param": {"num_parallel_tree": "1", "num_trees": "3"},
        "tree_info": [0, 1, 2],
        "trees": [
          {
            "id": 0,
            "left_children": [1, -1, -1],
            "right_children": [2, -1, -1],
            "split_indices": [0, 0, 0],
            "split_conditions": [0.5, 1.0, -1.0],
            "default_left": [1, 0, 0],
            "tree_param": {"num_feature": "2", "num_nodes": "3"}
          },
          {
            "id": 1,
            "left_children": [1, -1, -1],
            "right_children": [2, -1, -1],
            "split_indices": [1, 0, 0],
            "split_conditions": [0, -0.5, 0.5],
            "default_left": [false, false, false],
            "tree_param": {"num_feature": "2", "num_nodes": "3"}
          },
          {
            "id": 2,
            "left_children": [-1],
            "right_children": [-1],
            "split_indices": [0],
            "split_conditions": [0.2],
            "default_left": [0],
            "tree_param": {"num_feature": "2", "num_nodes": "1"}
          }
        ]
      },
      "name": "gbtree"
    },
    "learner_model_param": {"base_score": "[5E-1]", "num_class": "3", "num_feature": "2", "num_target": "1"},
    "objective": {"name": "multi:softprob", "softmax_multiclass_param": {"num_class": "3"}}
  },
  "version": [2, 1, 0]
}`

// binaryXGB is a single-stump logistic model over one feature.
const binaryXGB = `{
  "learner": {
    "gradient_booster": {
      "model": {
        "tree_info": [0],
        "trees": [
          {
            "left_children": [1, -1, -1],
            "right_children": [2, -1, -1],
            "split_indices": [0, 0, 0],
            "split_conditions": [0, -2, 2],
            "default_left": [0, 0, 0]
          }
        ]
      },
      "name": "gbtree"
    },
    "learner_model_param": {"base_score": "5E-1", "num_class": "0", "num_feature": "1"},
    "objective": {"name": "binary:logistic"}
  },
  "version": [1, 7, 6]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
