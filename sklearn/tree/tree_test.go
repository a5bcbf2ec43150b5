package tree

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/nutritrack/pkg/errors"
)

func TestDecisionTreeClassifier_SingleSplit(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{1, 2, 3, 4, 5, 6})
	y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})

	dt := NewDecisionTreeClassifier()
	require.NoError(t, dt.Fit(X, y))

	root := dt.Root()
	require.NotNil(t, root)
	assert.False(t, root.IsLeaf)
	assert.Equal(t, 0, root.Feature)
	assert.Equal(t, 3.5, root.Threshold)
	assert.InDelta(t, 0.5, root.Impurity, 1e-12)
	assert.Equal(t, 1, dt.GetDepth())
	assert.Equal(t, 2, dt.GetNLeaves())
	assert.Equal(t, 3, dt.NodeCount())
	assert.Equal(t, []int{0, 1}, dt.Classes())

	pred, err := dt.Predict(mat.NewDense(2, 1, []float64{3.5, 3.6}))
	require.NoError(t, err)
	assert.Equal(t, 0.0, pred.At(0, 0), "threshold value goes left")
	assert.Equal(t, 1.0, pred.At(1, 0))
}

func TestDecisionTreeClassifier_PicksInformativeFeature(t *testing.T) {
	// Feature 0 is noise, feature 1 separates the classes.
	X := mat.NewDense(6, 2, []float64{
		5, 0.1,
		1, 0.2,
		3, 0.3,
		4, 0.9,
		2, 1.0,
		6, 1.1,
	})
	y := mat.NewDense(6, 1, []float64{2, 2, 2, 7, 7, 7})

	dt := NewDecisionTreeClassifier(WithDTRandomState(42))
	require.NoError(t, dt.Fit(X, y))

	assert.Equal(t, 1, dt.Root().Feature)
	assert.InDelta(t, 0.6, dt.Root().Threshold, 1e-12)
	assert.Equal(t, []int{2, 7}, dt.Classes())
	assert.Equal(t, []float64{0, 1}, dt.GetFeatureImportances())

	score, err := dt.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

func TestDecisionTreeClassifier_MaxDepth(t *testing.T) {
	X := mat.NewDense(8, 1, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	y := mat.NewDense(8, 1, []float64{0, 1, 0, 1, 0, 1, 0, 1})

	for _, depth := range []int{1, 2, 3} {
		dt := NewDecisionTreeClassifier(WithMaxDepth(depth))
		require.NoError(t, dt.Fit(X, y))
		assert.LessOrEqual(t, dt.GetDepth(), depth)
	}

	unlimited := NewDecisionTreeClassifier()
	require.NoError(t, unlimited.Fit(X, y))
	score, err := unlimited.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

func TestDecisionTreeClassifier_PredictProbaRowsSumToOne(t *testing.T) {
	X := mat.NewDense(9, 2, []float64{
		1, 1, 1, 2, 2, 1,
		5, 5, 5, 6, 6, 5,
		9, 1, 9, 2, 3, 3,
	})
	y := mat.NewDense(9, 1, []float64{0, 0, 0, 1, 1, 1, 2, 2, 1})

	dt := NewDecisionTreeClassifier(WithMaxDepth(1))
	require.NoError(t, dt.Fit(X, y))

	proba, err := dt.PredictProba(X)
	require.NoError(t, err)
	r, c := proba.Dims()
	assert.Equal(t, 9, r)
	assert.Equal(t, 3, c)
	for i := 0; i < r; i++ {
		sum := 0.0
		for j := 0; j < c; j++ {
			sum += proba.At(i, j)
		}
		assert.InDelta(t, 1.0, sum, 1e-12)
	}
}

func TestDecisionTreeClassifier_Deterministic(t *testing.T) {
	X := mat.NewDense(10, 3, []float64{
		1, 7, 0, 2, 6, 1, 3, 5, 0, 4, 4, 1, 5, 3, 0,
		6, 2, 1, 7, 1, 0, 8, 9, 1, 9, 8, 0, 10, 0, 1,
	})
	y := mat.NewDense(10, 1, []float64{0, 0, 1, 1, 0, 2, 2, 1, 2, 0})

	for _, opts := range [][]DecisionTreeClassifierOption{
		{WithMaxDepth(3), WithDTRandomState(42)},
		{WithMaxDepth(3), WithDTRandomState(7), WithMaxFeatures(2)},
	} {
		a := NewDecisionTreeClassifier(opts...)
		b := NewDecisionTreeClassifier(opts...)
		require.NoError(t, a.Fit(X, y))
		require.NoError(t, b.Fit(X, y))

		assert.Equal(t, a.Nodes(), b.Nodes())
		pa, err := a.PredictProba(X)
		require.NoError(t, err)
		pb, err := b.PredictProba(X)
		require.NoError(t, err)
		assert.True(t, mat.Equal(pa, pb))
	}
}

func TestDecisionTreeClassifier_Entropy(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})

	dt := NewDecisionTreeClassifier(WithCriterion(CriterionEntropy))
	require.NoError(t, dt.Fit(X, y))
	assert.InDelta(t, 1.0, dt.Root().Impurity, 1e-12)
	assert.Equal(t, 2.5, dt.Root().Threshold)
}

func TestDecisionTreeClassifier_PureNodeIsLeaf(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewDense(3, 1, []float64{4, 4, 4})

	dt := NewDecisionTreeClassifier()
	require.NoError(t, dt.Fit(X, y))
	assert.True(t, dt.Root().IsLeaf)
	assert.Equal(t, 0, dt.GetDepth())
	assert.Equal(t, "|--- class: 4\n", dt.ExportText(nil, nil))
}

func TestDecisionTreeClassifier_Errors(t *testing.T) {
	dt := NewDecisionTreeClassifier()

	_, err := dt.Predict(mat.NewDense(1, 1, []float64{1}))
	assert.True(t, errors.Is(err, errors.ErrNotFitted))
	_, err = dt.PredictProba(mat.NewDense(1, 1, []float64{1}))
	assert.True(t, errors.Is(err, errors.ErrNotFitted))
	_, err = dt.DecisionPath([]float64{1})
	assert.True(t, errors.Is(err, errors.ErrNotFitted))

	err = dt.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewDense(2, 1, []float64{0, 1}))
	assert.True(t, errors.Is(err, errors.ErrDimensionMismatch))

	err = dt.Fit(mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(2, 2, []float64{0, 1, 1, 0}))
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	bad := NewDecisionTreeClassifier(WithCriterion("log_loss"))
	err = bad.Fit(mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(2, 1, []float64{0, 1}))
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	require.NoError(t, dt.Fit(mat.NewDense(2, 2, []float64{1, 0, 2, 0}), mat.NewDense(2, 1, []float64{0, 1})))
	_, err = dt.Predict(mat.NewDense(1, 3, []float64{1, 2, 3}))
	var dimErr *errors.DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 2, dimErr.Expected)
	assert.Equal(t, 3, dimErr.Got)
}

func TestDecisionTreeClassifier_FeatureNamesAndDimensions(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{1, 0, 2, 0, 3, 1, 4, 1})
	y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})

	plain := NewDecisionTreeClassifier()
	assert.Zero(t, plain.NFeatures())
	require.NoError(t, plain.Fit(X, y))
	assert.Nil(t, plain.FeatureNamesIn())
	assert.Equal(t, 2, plain.NFeatures())
	assert.Equal(t, 4, plain.NSamples())

	names := []string{"calories", "sleep"}
	named := NewDecisionTreeClassifier(WithFeatureNames(names))
	require.NoError(t, named.Fit(X, y))
	assert.Equal(t, names, named.FeatureNamesIn())
	names[0] = "changed"
	assert.Equal(t, "calories", named.FeatureNamesIn()[0])

	short := NewDecisionTreeClassifier(WithFeatureNames([]string{"calories"}))
	err := short.Fit(X, y)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
	assert.False(t, short.IsFitted())
}

func TestDecisionTreeClassifier_Params(t *testing.T) {
	dt := NewDecisionTreeClassifier(WithMaxDepth(3), WithDTRandomState(42))
	params := dt.GetParams()
	assert.Equal(t, 3, params["max_depth"])
	assert.Equal(t, int64(42), params["random_state"])
	assert.Equal(t, "gini", params["criterion"])

	require.NoError(t, dt.SetParams(map[string]interface{}{"max_depth": 2, "criterion": "entropy"}))
	assert.Equal(t, 2, dt.GetParams()["max_depth"])

	assert.Error(t, dt.SetParams(map[string]interface{}{"max_depth": "deep"}))
	assert.Error(t, dt.SetParams(map[string]interface{}{"splitter": "best"}))

	require.NoError(t, dt.Fit(mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(2, 1, []float64{0, 1})))
	assert.Error(t, dt.SetParams(map[string]interface{}{"max_depth": 5}), "fitted tree is immutable")
}

func TestDecisionTreeClassifier_NodesAndPath(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{1, 2, 3, 4, 5, 6})
	y := mat.NewDense(6, 1, []float64{0, 0, 1, 1, 2, 2})

	dt := NewDecisionTreeClassifier()
	require.NoError(t, dt.Fit(X, y))

	nodes := dt.Nodes()
	require.Len(t, nodes, dt.NodeCount())
	for i, n := range nodes {
		assert.Equal(t, i, n.ID)
		if n.IsLeaf {
			assert.Equal(t, -1, n.Left)
			assert.Equal(t, -1, n.Feature)
			continue
		}
		assert.Greater(t, n.Left, n.ID)
		assert.Greater(t, n.Right, n.Left)
		assert.Equal(t, n.NSamples, nodes[n.Left].NSamples+nodes[n.Right].NSamples)
	}

	path, err := dt.DecisionPath([]float64{6})
	require.NoError(t, err)
	assert.Equal(t, 0, path[0])
	last := nodes[path[len(path)-1]]
	assert.True(t, last.IsLeaf)
	assert.Equal(t, 2, last.Class)

	leaves, err := dt.Apply(mat.NewDense(1, 1, []float64{6}))
	require.NoError(t, err)
	assert.Equal(t, last.ID, leaves[0])

	text := dt.ExportText([]string{"x"}, []string{"a", "b", "c"})
	assert.True(t, strings.HasPrefix(text, "|--- x <= "), text)
	assert.Contains(t, text, "class: c")
}

func TestCalculateImpurity(t *testing.T) {
	gini := NewDecisionTreeClassifier()
	assert.InDelta(t, 0.0, gini.calculateImpurity([]int{5, 0}), 1e-12)
	assert.InDelta(t, 0.5, gini.calculateImpurity([]int{5, 5}), 1e-12)
	assert.InDelta(t, 1-(49.0+16+81)/400, gini.calculateImpurity([]int{7, 4, 9}), 1e-12)
	assert.Equal(t, 0.0, gini.calculateImpurity([]int{0, 0}))

	entropy := NewDecisionTreeClassifier(WithCriterion(CriterionEntropy))
	assert.InDelta(t, math.Log2(3), entropy.calculateImpurity([]int{1, 1, 1}), 1e-12)
}
