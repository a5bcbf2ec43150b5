// Package metrics provides evaluation metrics for the classifiers in
// NutriTrack.
package metrics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/nutritrack/pkg/errors"
)

func checkLabelVectors(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError(op, "input vectors cannot be nil")
	}
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "input vectors cannot be empty")
	}
	if n != yPred.Len() {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// ClassificationError calculates the fraction of misclassified samples.
//
// Parameters:
//   - yTrue: Ground truth labels (integers)
//   - yPred: Predicted labels (integers)
//
// Example:
//
//	yTrue := mat.NewVecDense(5, []float64{0, 1, 2, 1, 0})
//	yPred := mat.NewVecDense(5, []float64{0, 1, 1, 1, 0})
//	errorRate, err := ClassificationError(yTrue, yPred) // 0.2
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkLabelVectors("ClassificationError", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	misses := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) != yPred.AtVec(i) {
			misses++
		}
	}
	return float64(misses) / float64(n), nil
}

// Accuracy calculates the classification accuracy.
//
// Accuracy is the fraction of correct predictions.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	errorRate, err := ClassificationError(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1.0 - errorRate, nil
}

// ConfusionMatrix counts (true, predicted) label pairs.
//
// Entry (i, j) is the number of samples whose true label is labels[i] and
// whose predicted label is labels[j]. Samples with a label outside labels are
// rejected.
func ConfusionMatrix(yTrue, yPred *mat.VecDense, labels []int) (*mat.Dense, error) {
	n, err := checkLabelVectors("ConfusionMatrix", yTrue, yPred)
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, errors.NewValueError("ConfusionMatrix", "labels cannot be empty")
	}

	index := make(map[int]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}

	cm := mat.NewDense(len(labels), len(labels), nil)
	for k := 0; k < n; k++ {
		i, ok := index[int(yTrue.AtVec(k))]
		if !ok {
			return nil, errors.NewValueErrorf("ConfusionMatrix", "true label %v not in labels", yTrue.AtVec(k))
		}
		j, ok := index[int(yPred.AtVec(k))]
		if !ok {
			return nil, errors.NewValueErrorf("ConfusionMatrix", "predicted label %v not in labels", yPred.AtVec(k))
		}
		cm.Set(i, j, cm.At(i, j)+1)
	}
	return cm, nil
}
