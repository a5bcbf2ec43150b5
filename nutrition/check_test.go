package nutrition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/nutritrack/dataset"
	"github.com/ezoic/nutritrack/features"
	"github.com/ezoic/nutritrack/pkg/errors"
	"github.com/ezoic/nutritrack/sklearn/tree"
)

// fitWithNames fits a tree on the dataset with the given column names
// recorded and wraps it in a Model that has not been checked yet.
func fitWithNames(t *testing.T, names []string) *Model {
	t.Helper()
	enc, err := features.NewEncoder()
	require.NoError(t, err)
	samples := dataset.Load()
	X, err := enc.Encode(samples)
	require.NoError(t, err)

	opts := []tree.DecisionTreeClassifierOption{tree.WithMaxDepth(MaxDepth), tree.WithDTRandomState(RandomState)}
	if names != nil {
		opts = append(opts, tree.WithFeatureNames(names))
	}
	clf := tree.NewDecisionTreeClassifier(opts...)
	require.NoError(t, clf.Fit(X, enc.Labels(samples)))
	return &Model{encoder: enc, clf: clf}
}

func TestCheckModel_TrainingColumns(t *testing.T) {
	enc, err := features.NewEncoder()
	require.NoError(t, err)
	X, err := enc.Encode(dataset.Load())
	require.NoError(t, err)

	m := fitWithNames(t, features.Columns())
	require.NoError(t, m.checkModel(X))
	assert.Equal(t, dataset.Statuses(), m.classes)

	reordered := features.Columns()
	reordered[3], reordered[6] = reordered[6], reordered[3]
	m = fitWithNames(t, reordered)
	err = m.checkModel(X)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrColumnMismatch))

	m = fitWithNames(t, nil)
	err = m.checkModel(X)
	assert.True(t, errors.Is(err, errors.ErrColumnMismatch))
}

func TestTrain_RecordsColumns(t *testing.T) {
	m, err := Train()
	require.NoError(t, err)
	assert.Equal(t, features.Columns(), m.Tree().FeatureNamesIn())
	assert.Equal(t, dataset.Len(), m.Tree().NSamples())
}
