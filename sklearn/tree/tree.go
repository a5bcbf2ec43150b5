// Package tree implements a CART decision tree classifier with a
// scikit-learn style API.
//
// Example:
//
//	clf := tree.NewDecisionTreeClassifier(
//		tree.WithMaxDepth(3),
//		tree.WithDTRandomState(42),
//	)
//	if err := clf.Fit(X, y); err != nil {
//		return err
//	}
//	proba, err := clf.PredictProba(XQuery)
//
// A fitted classifier is never modified again and can be shared between
// goroutines.
package tree

import (
	"math"
	"math/rand"
	"slices"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/nutritrack/core/model"
	"github.com/ezoic/nutritrack/pkg/errors"
	"github.com/ezoic/nutritrack/pkg/log"
)

// Splitting criteria.
const (
	CriterionGini    = "gini"
	CriterionEntropy = "entropy"
)

// TreeNode represents a node in the decision tree
type TreeNode struct {
	ID           int       // Pre-order index, root is 0
	IsLeaf       bool      // Whether this is a leaf node
	Feature      int       // Feature index for split (internal nodes)
	Threshold    float64   // Threshold value for split (internal nodes)
	Left         *TreeNode // Left child (values <= threshold)
	Right        *TreeNode // Right child (values > threshold)
	ClassCounts  []int     // Training samples per class at this node
	PredictClass int       // Index into Classes() of the majority class
	Impurity     float64   // Node impurity
	NSamples     int       // Number of samples at this node
	Depth        int       // Depth of this node in the tree
}

// DecisionTreeClassifier implements a decision tree for classification
type DecisionTreeClassifier struct {
	state  *model.StateManager
	logger log.Logger

	// Hyperparameters
	criterion           string  // Splitting criterion: "gini", "entropy"
	maxDepth            int     // Maximum depth of tree (0 = unlimited)
	minSamplesSplit     int     // Minimum samples to split a node
	minSamplesLeaf      int     // Minimum samples in a leaf
	maxFeatures         int     // Features considered per split (0 = all)
	minImpurityDecrease float64 // Minimum impurity decrease for split
	randomState         int64   // Random seed (-1 = time based)

	// Tree structure
	tree_           *TreeNode
	nodes_          []*TreeNode // Pre-order
	nClasses_       int
	classes_        []int
	featureNamesIn_ []string // Column names given at Fit, nil if none

	featureImportances_ []float64
	rng                 *rand.Rand
}

// DecisionTreeClassifierOption is a functional option
type DecisionTreeClassifierOption func(*DecisionTreeClassifier)

// NewDecisionTreeClassifier creates a new decision tree classifier
func NewDecisionTreeClassifier(opts ...DecisionTreeClassifierOption) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{
		state:               model.NewStateManager(),
		criterion:           CriterionGini,
		maxDepth:            0,
		minSamplesSplit:     2,
		minSamplesLeaf:      1,
		maxFeatures:         0,
		minImpurityDecrease: 0.0,
		randomState:         -1,
	}

	for _, opt := range opts {
		opt(dt)
	}

	dt.logger = log.GetLoggerWithName("tree").With(
		log.ModelNameKey, "DecisionTreeClassifier",
	)

	return dt
}

// WithCriterion sets the splitting criterion
func WithCriterion(criterion string) DecisionTreeClassifierOption {
	return func(dt *DecisionTreeClassifier) {
		dt.criterion = criterion
	}
}

// WithMaxDepth sets the maximum tree depth
func WithMaxDepth(depth int) DecisionTreeClassifierOption {
	return func(dt *DecisionTreeClassifier) {
		dt.maxDepth = depth
	}
}

// WithMinSamplesSplit sets minimum samples to split
func WithMinSamplesSplit(n int) DecisionTreeClassifierOption {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesSplit = n
	}
}

// WithMinSamplesLeaf sets minimum samples in leaf
func WithMinSamplesLeaf(n int) DecisionTreeClassifierOption {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesLeaf = n
	}
}

// WithMaxFeatures limits the number of features drawn at each split.
// Zero or a value >= the number of features means all features.
func WithMaxFeatures(n int) DecisionTreeClassifierOption {
	return func(dt *DecisionTreeClassifier) {
		dt.maxFeatures = n
	}
}

// WithMinImpurityDecrease sets the minimum impurity decrease for a split
func WithMinImpurityDecrease(v float64) DecisionTreeClassifierOption {
	return func(dt *DecisionTreeClassifier) {
		dt.minImpurityDecrease = v
	}
}

// WithDTRandomState sets the random seed
func WithDTRandomState(seed int64) DecisionTreeClassifierOption {
	return func(dt *DecisionTreeClassifier) {
		dt.randomState = seed
	}
}

// WithFeatureNames records the column names of the training matrix. Fit
// rejects names whose count differs from the number of columns.
func WithFeatureNames(names []string) DecisionTreeClassifierOption {
	return func(dt *DecisionTreeClassifier) {
		dt.featureNamesIn_ = slices.Clone(names)
	}
}

// Fit trains the decision tree.
//
// X has shape (n_samples, n_features); y is a column of integer class labels.
// With all features considered, candidate splits are scanned in column order
// and a candidate only replaces the best one when it is strictly better, so
// fitting the same data twice yields the same tree.
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "DecisionTreeClassifier.Fit")
	start := time.Now()

	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("DecisionTreeClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError("DecisionTreeClassifier.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueErrorf("DecisionTreeClassifier.Fit", "y must be a column vector: got shape (%d, %d)", yRows, yCols)
	}
	if err := dt.validateParams(); err != nil {
		return err
	}
	if dt.featureNamesIn_ != nil && len(dt.featureNamesIn_) != nFeatures {
		return errors.NewValueErrorf("DecisionTreeClassifier.Fit", "got %d feature names for %d columns", len(dt.featureNamesIn_), nFeatures)
	}

	dt.state.Reset()
	dt.state.SetDimensions(nFeatures, nSamples)
	dt.extractClasses(y)
	dt.featureImportances_ = make([]float64, nFeatures)
	dt.nodes_ = nil

	seed := dt.randomState
	if seed < 0 {
		seed = time.Now().UnixNano()
	}
	dt.rng = rand.New(rand.NewSource(seed))

	yIndices := make([]int, nSamples)
	for i := 0; i < nSamples; i++ {
		yIndices[i] = sort.SearchInts(dt.classes_, int(y.At(i, 0)))
	}

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}

	dt.tree_ = dt.buildTree(X, yIndices, indices, 0)
	dt.normalizeFeatureImportances()
	dt.rng = nil

	dt.state.SetFitted()

	dt.logger.Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.DurationMsKey, time.Since(start).Milliseconds(),
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.ClassesKey, dt.nClasses_,
		log.DepthKey, dt.GetDepth(),
		log.LeavesKey, dt.GetNLeaves(),
	)
	return nil
}

func (dt *DecisionTreeClassifier) validateParams() error {
	switch {
	case dt.criterion != CriterionGini && dt.criterion != CriterionEntropy:
		return errors.NewValueErrorf("DecisionTreeClassifier.Fit", "unknown criterion %q", dt.criterion)
	case dt.maxDepth < 0:
		return errors.NewValueErrorf("DecisionTreeClassifier.Fit", "max_depth must be >= 0, got %d", dt.maxDepth)
	case dt.minSamplesSplit < 2:
		return errors.NewValueErrorf("DecisionTreeClassifier.Fit", "min_samples_split must be >= 2, got %d", dt.minSamplesSplit)
	case dt.minSamplesLeaf < 1:
		return errors.NewValueErrorf("DecisionTreeClassifier.Fit", "min_samples_leaf must be >= 1, got %d", dt.minSamplesLeaf)
	case dt.maxFeatures < 0:
		return errors.NewValueErrorf("DecisionTreeClassifier.Fit", "max_features must be >= 0, got %d", dt.maxFeatures)
	}
	return nil
}

// extractClasses identifies unique class labels
func (dt *DecisionTreeClassifier) extractClasses(y mat.Matrix) {
	rows, _ := y.Dims()
	classMap := make(map[int]bool)

	for i := 0; i < rows; i++ {
		classMap[int(y.At(i, 0))] = true
	}

	dt.classes_ = make([]int, 0, len(classMap))
	for class := range classMap {
		dt.classes_ = append(dt.classes_, class)
	}

	sort.Ints(dt.classes_)
	dt.nClasses_ = len(dt.classes_)
}

// buildTree recursively builds the subtree over the rows in indices.
func (dt *DecisionTreeClassifier) buildTree(X mat.Matrix, y, indices []int, depth int) *TreeNode {
	classCounts := make([]int, dt.nClasses_)
	for _, i := range indices {
		classCounts[y[i]]++
	}

	// Majority class, lowest class index on ties.
	predictClass := 0
	for i, count := range classCounts {
		if count > classCounts[predictClass] {
			predictClass = i
		}
	}

	impurity := dt.calculateImpurity(classCounts)

	node := &TreeNode{
		ID:           len(dt.nodes_),
		ClassCounts:  classCounts,
		PredictClass: predictClass,
		Impurity:     impurity,
		NSamples:     len(indices),
		Depth:        depth,
	}
	dt.nodes_ = append(dt.nodes_, node)

	if dt.shouldStop(len(indices), impurity, depth) {
		node.IsLeaf = true
		return node
	}

	bestFeature, bestThreshold, bestDecrease := dt.findBestSplit(X, y, indices, impurity)
	if bestFeature == -1 || bestDecrease < dt.minImpurityDecrease {
		node.IsLeaf = true
		return node
	}

	left, right := splitIndices(X, indices, bestFeature, bestThreshold)

	node.Feature = bestFeature
	node.Threshold = bestThreshold
	dt.featureImportances_[bestFeature] += bestDecrease * float64(len(indices))

	node.Left = dt.buildTree(X, y, left, depth+1)
	node.Right = dt.buildTree(X, y, right, depth+1)

	return node
}

// shouldStop checks stopping criteria
func (dt *DecisionTreeClassifier) shouldStop(nSamples int, impurity float64, depth int) bool {
	if dt.maxDepth > 0 && depth >= dt.maxDepth {
		return true
	}
	if nSamples < dt.minSamplesSplit {
		return true
	}
	return impurity == 0.0
}

// calculateImpurity calculates node impurity using Gini or Entropy
func (dt *DecisionTreeClassifier) calculateImpurity(classCounts []int) float64 {
	total := 0
	for _, count := range classCounts {
		total += count
	}
	if total == 0 {
		return 0.0
	}

	impurity := 0.0
	switch dt.criterion {
	case CriterionEntropy:
		// -sum(p_i * log2(p_i))
		for _, count := range classCounts {
			if count > 0 {
				p := float64(count) / float64(total)
				impurity -= p * math.Log2(p)
			}
		}
	default:
		// 1 - sum(p_i^2)
		sumSquared := 0.0
		for _, count := range classCounts {
			if count > 0 {
				p := float64(count) / float64(total)
				sumSquared += p * p
			}
		}
		impurity = 1.0 - sumSquared
	}
	return impurity
}

// candidateFeatures returns the features to scan at one node.
func (dt *DecisionTreeClassifier) candidateFeatures() []int {
	nFeatures := dt.NFeatures()
	if dt.maxFeatures == 0 || dt.maxFeatures >= nFeatures {
		all := make([]int, nFeatures)
		for i := range all {
			all[i] = i
		}
		return all
	}
	return dt.rng.Perm(nFeatures)[:dt.maxFeatures]
}

// findBestSplit finds the best feature and threshold to split on
func (dt *DecisionTreeClassifier) findBestSplit(X mat.Matrix, y, indices []int, parentImpurity float64) (int, float64, float64) {
	n := len(indices)
	bestFeature := -1
	bestThreshold := 0.0
	bestDecrease := 0.0

	order := slices.Clone(indices)
	leftCounts := make([]int, dt.nClasses_)
	rightCounts := make([]int, dt.nClasses_)

	for _, feature := range dt.candidateFeatures() {
		sort.SliceStable(order, func(a, b int) bool {
			return X.At(order[a], feature) < X.At(order[b], feature)
		})

		// Sweep left to right, moving one sample at a time to the left side.
		clear(leftCounts)
		clear(rightCounts)
		for _, i := range order {
			rightCounts[y[i]]++
		}

		for k := 0; k < n-1; k++ {
			i := order[k]
			leftCounts[y[i]]++
			rightCounts[y[i]]--

			v1 := X.At(i, feature)
			v2 := X.At(order[k+1], feature)
			if v1 == v2 {
				continue
			}

			nLeft, nRight := k+1, n-k-1
			if nLeft < dt.minSamplesLeaf || nRight < dt.minSamplesLeaf {
				continue
			}

			weighted := (float64(nLeft)*dt.calculateImpurity(leftCounts) +
				float64(nRight)*dt.calculateImpurity(rightCounts)) / float64(n)
			decrease := parentImpurity - weighted

			if decrease > bestDecrease {
				bestDecrease = decrease
				bestFeature = feature
				bestThreshold = (v1 + v2) / 2.0
			}
		}
	}

	return bestFeature, bestThreshold, bestDecrease
}

// splitIndices partitions indices by X[:, feature] <= threshold.
func splitIndices(X mat.Matrix, indices []int, feature int, threshold float64) ([]int, []int) {
	var left, right []int
	for _, i := range indices {
		if X.At(i, feature) <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return left, right
}

// normalizeFeatureImportances normalizes feature importance scores
func (dt *DecisionTreeClassifier) normalizeFeatureImportances() {
	sum := 0.0
	for _, imp := range dt.featureImportances_ {
		sum += imp
	}
	if sum > 0 {
		for i := range dt.featureImportances_ {
			dt.featureImportances_[i] /= sum
		}
	}
}

func (dt *DecisionTreeClassifier) checkPredictInput(X mat.Matrix, method string) error {
	if !dt.state.IsFitted() {
		return errors.NewNotFittedError("DecisionTreeClassifier", method)
	}
	if _, c := X.Dims(); c != dt.NFeatures() {
		return errors.NewDimensionError("DecisionTreeClassifier."+method, dt.NFeatures(), c, 1)
	}
	return nil
}

// leafFor routes row i of X to its leaf.
func (dt *DecisionTreeClassifier) leafFor(X mat.Matrix, i int) *TreeNode {
	node := dt.tree_
	for !node.IsLeaf {
		if X.At(i, node.Feature) <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node
}

// Predict returns the predicted class label for each row, shape (n_samples, 1).
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (_ mat.Matrix, err error) {
	defer errors.Recover(&err, "DecisionTreeClassifier.Predict")
	if err := dt.checkPredictInput(X, "Predict"); err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		leaf := dt.leafFor(X, i)
		predictions.Set(i, 0, float64(dt.classes_[leaf.PredictClass]))
	}

	dt.logger.Debug("Prediction completed",
		log.OperationKey, log.OperationPredict,
		log.PhaseKey, log.PhaseInference,
		log.PredsKey, nSamples,
	)
	return predictions, nil
}

// PredictProba returns class probabilities, shape (n_samples, n_classes),
// with columns in Classes() order. Each row is the class distribution of the
// training samples in the row's leaf.
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (_ mat.Matrix, err error) {
	defer errors.Recover(&err, "DecisionTreeClassifier.PredictProba")
	if err := dt.checkPredictInput(X, "PredictProba"); err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	probas := mat.NewDense(nSamples, dt.nClasses_, nil)
	for i := 0; i < nSamples; i++ {
		leaf := dt.leafFor(X, i)
		for j, count := range leaf.ClassCounts {
			probas.Set(i, j, float64(count)/float64(leaf.NSamples))
		}
	}
	return probas, nil
}

// Apply returns the id of the leaf each row ends in.
func (dt *DecisionTreeClassifier) Apply(X mat.Matrix) (_ []int, err error) {
	defer errors.Recover(&err, "DecisionTreeClassifier.Apply")
	if err := dt.checkPredictInput(X, "Apply"); err != nil {
		return nil, err
	}
	nSamples, _ := X.Dims()
	ids := make([]int, nSamples)
	for i := range ids {
		ids[i] = dt.leafFor(X, i).ID
	}
	return ids, nil
}

// DecisionPath returns the ids of the nodes visited by a single row, root first.
func (dt *DecisionTreeClassifier) DecisionPath(x []float64) ([]int, error) {
	if !dt.state.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeClassifier", "DecisionPath")
	}
	if n := dt.NFeatures(); len(x) != n {
		return nil, errors.NewDimensionError("DecisionTreeClassifier.DecisionPath", n, len(x), 1)
	}
	var path []int
	node := dt.tree_
	for {
		path = append(path, node.ID)
		if node.IsLeaf {
			return path, nil
		}
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
}

// Score returns the mean accuracy on the given data.
func (dt *DecisionTreeClassifier) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := dt.Predict(X)
	if err != nil {
		return 0, err
	}

	nSamples, _ := X.Dims()
	if yRows, _ := y.Dims(); yRows != nSamples {
		return 0, errors.NewDimensionError("DecisionTreeClassifier.Score", nSamples, yRows, 0)
	}

	correct := 0
	for i := 0; i < nSamples; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(nSamples), nil
}

// IsFitted reports whether Fit has completed.
func (dt *DecisionTreeClassifier) IsFitted() bool {
	return dt.state.IsFitted()
}

// Classes returns the sorted class labels seen in Fit.
func (dt *DecisionTreeClassifier) Classes() []int {
	return slices.Clone(dt.classes_)
}

// NFeatures returns the number of features seen in Fit.
func (dt *DecisionTreeClassifier) NFeatures() int {
	n, _ := dt.state.Dimensions()
	return n
}

// NSamples returns the number of training rows seen in Fit.
func (dt *DecisionTreeClassifier) NSamples() int {
	_, n := dt.state.Dimensions()
	return n
}

// FeatureNamesIn returns the column names recorded by WithFeatureNames, or
// nil if none were given.
func (dt *DecisionTreeClassifier) FeatureNamesIn() []string {
	return slices.Clone(dt.featureNamesIn_)
}

// Root returns the root node, or nil before Fit. Callers must not modify it.
func (dt *DecisionTreeClassifier) Root() *TreeNode {
	return dt.tree_
}

// GetParams returns the model hyperparameters
func (dt *DecisionTreeClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"criterion":             dt.criterion,
		"max_depth":             dt.maxDepth,
		"min_samples_split":     dt.minSamplesSplit,
		"min_samples_leaf":      dt.minSamplesLeaf,
		"max_features":          dt.maxFeatures,
		"min_impurity_decrease": dt.minImpurityDecrease,
		"random_state":          dt.randomState,
	}
}

// SetParams sets the model hyperparameters. It is only allowed before Fit.
func (dt *DecisionTreeClassifier) SetParams(params map[string]interface{}) error {
	if dt.state.IsFitted() {
		return errors.NewValueError("DecisionTreeClassifier.SetParams", "cannot change parameters of a fitted tree")
	}
	for key, value := range params {
		ok := true
		switch key {
		case "criterion":
			dt.criterion, ok = value.(string)
		case "max_depth":
			dt.maxDepth, ok = value.(int)
		case "min_samples_split":
			dt.minSamplesSplit, ok = value.(int)
		case "min_samples_leaf":
			dt.minSamplesLeaf, ok = value.(int)
		case "max_features":
			dt.maxFeatures, ok = value.(int)
		case "min_impurity_decrease":
			dt.minImpurityDecrease, ok = value.(float64)
		case "random_state":
			dt.randomState, ok = value.(int64)
		default:
			return errors.NewValueErrorf("DecisionTreeClassifier.SetParams", "unknown parameter: %s", key)
		}
		if !ok {
			return errors.NewValueErrorf("DecisionTreeClassifier.SetParams", "parameter %s has wrong type %T", key, value)
		}
	}
	return nil
}

// GetFeatureImportances returns normalized impurity-based feature importances
func (dt *DecisionTreeClassifier) GetFeatureImportances() []float64 {
	return slices.Clone(dt.featureImportances_)
}

// GetDepth returns the depth of the tree
func (dt *DecisionTreeClassifier) GetDepth() int {
	depth := 0
	for _, n := range dt.nodes_ {
		depth = max(depth, n.Depth)
	}
	return depth
}

// GetNLeaves returns the number of leaf nodes
func (dt *DecisionTreeClassifier) GetNLeaves() int {
	leaves := 0
	for _, n := range dt.nodes_ {
		if n.IsLeaf {
			leaves++
		}
	}
	return leaves
}

// NodeCount returns the total number of nodes.
func (dt *DecisionTreeClassifier) NodeCount() int {
	return len(dt.nodes_)
}
