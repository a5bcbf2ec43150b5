// Package preprocessing provides transformers that turn raw categorical
// values into numeric feature matrices.
package preprocessing

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/nutritrack/core/model"
	"github.com/ezoic/nutritrack/pkg/errors"
)

// OneHotEncoder converts categorical string columns into 0/1 indicator columns.
//
// Categories are fixed up front with NewOneHotEncoderWithCategories, so the
// output columns do not depend on which values a batch happens to contain.
// Transform rejects values that are not a known category: a row is never
// silently encoded as all zeros.
type OneHotEncoder struct {
	model.BaseEstimator

	// Categories lists the categories of each input feature in output order.
	Categories [][]string

	// CategoryToIdx maps a category to its offset inside its feature's block.
	CategoryToIdx []map[string]int

	// NFeatures is the number of input features.
	NFeatures int

	// NOutputs is the number of output columns (sum of all category counts).
	NOutputs int
}

// NewOneHotEncoderWithCategories creates an encoder that is already fitted with
// the given per-feature categories. The category order is kept as given, so
// the output column order is fixed by the caller.
//
// Example:
//
//	encoder, err := preprocessing.NewOneHotEncoderWithCategories([][]string{
//		{"heavy", "light", "moderate", "sedentary"},
//	})
//	encoded, err := encoder.Transform([][]string{{"light"}})
func NewOneHotEncoderWithCategories(categories [][]string) (_ *OneHotEncoder, err error) {
	defer errors.Recover(&err, "OneHotEncoder.WithCategories")
	if len(categories) == 0 {
		return nil, errors.NewModelError("OneHotEncoder.WithCategories", "no features", errors.ErrEmptyData)
	}

	e := &OneHotEncoder{BaseEstimator: model.BaseEstimator{ModelType: "OneHotEncoder"}}
	for j, cats := range categories {
		if len(cats) == 0 {
			return nil, errors.NewValueErrorf("OneHotEncoder.WithCategories", "feature %d has no categories", j)
		}
		seen := make(map[string]bool, len(cats))
		for _, c := range cats {
			if seen[c] {
				return nil, errors.NewValueErrorf("OneHotEncoder.WithCategories", "feature %d: duplicate category %q", j, c)
			}
			seen[c] = true
		}
	}

	e.setCategories(categories)
	return e, nil
}

func (e *OneHotEncoder) setCategories(categories [][]string) {
	e.NFeatures = len(categories)
	e.Categories = make([][]string, len(categories))
	e.CategoryToIdx = make([]map[string]int, len(categories))
	e.NOutputs = 0
	for j, cats := range categories {
		e.Categories[j] = append([]string(nil), cats...)
		idx := make(map[string]int, len(cats))
		for k, c := range cats {
			idx[c] = k
		}
		e.CategoryToIdx[j] = idx
		e.NOutputs += len(cats)
	}
	e.SetFitted()
}

// Transform one-hot encodes data with the known categories.
//
// Errors:
//   - NotFittedError: if the encoder was not built with its categories
//   - DimensionError: if a row has the wrong number of columns
//   - UnknownCategoryError: if a value is not a known category of its column
func (e *OneHotEncoder) Transform(data [][]string) (_ *mat.Dense, err error) {
	defer errors.Recover(&err, "OneHotEncoder.Transform")
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("OneHotEncoder", "Transform")
	}
	if len(data) == 0 {
		return nil, errors.NewModelError("OneHotEncoder.Transform", "empty data", errors.ErrEmptyData)
	}

	result := mat.NewDense(len(data), e.NOutputs, nil)
	for i, row := range data {
		if len(row) != e.NFeatures {
			return nil, errors.NewDimensionError("OneHotEncoder.Transform", e.NFeatures, len(row), 1)
		}
		offset := 0
		for j, value := range row {
			idx, ok := e.CategoryToIdx[j][value]
			if !ok {
				return nil, &UnknownCategoryError{Feature: j, Value: value}
			}
			result.Set(i, offset+idx, 1.0)
			offset += len(e.Categories[j])
		}
	}
	return result, nil
}

// InverseTransform maps indicator rows back to category values. Each feature
// block must contain exactly one 1 and zeros elsewhere.
func (e *OneHotEncoder) InverseTransform(X mat.Matrix) (_ [][]string, err error) {
	defer errors.Recover(&err, "OneHotEncoder.InverseTransform")
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("OneHotEncoder", "InverseTransform")
	}
	r, c := X.Dims()
	if c != e.NOutputs {
		return nil, errors.NewDimensionError("OneHotEncoder.InverseTransform", e.NOutputs, c, 1)
	}

	out := make([][]string, r)
	for i := 0; i < r; i++ {
		row := make([]string, e.NFeatures)
		offset := 0
		for j, cats := range e.Categories {
			hit := -1
			for k := range cats {
				switch X.At(i, offset+k) {
				case 0:
				case 1:
					if hit >= 0 {
						return nil, errors.NewValueErrorf("OneHotEncoder.InverseTransform", "row %d feature %d: more than one indicator set", i, j)
					}
					hit = k
				default:
					return nil, errors.NewValueErrorf("OneHotEncoder.InverseTransform", "row %d column %d: indicator must be 0 or 1", i, offset+k)
				}
			}
			if hit < 0 {
				return nil, errors.NewValueErrorf("OneHotEncoder.InverseTransform", "row %d feature %d: no indicator set", i, j)
			}
			row[j] = cats[hit]
			offset += len(cats)
		}
		out[i] = row
	}
	return out, nil
}

// GetFeatureNamesOut returns the output column names, "<input>_<category>".
// Inputs without a name are called x0, x1, ...
func (e *OneHotEncoder) GetFeatureNamesOut(inputFeatures []string) []string {
	if !e.IsFitted() {
		return nil
	}

	var names []string
	for i, cats := range e.Categories {
		input := fmt.Sprintf("x%d", i)
		if i < len(inputFeatures) {
			input = inputFeatures[i]
		}
		for _, c := range cats {
			names = append(names, input+"_"+c)
		}
	}
	return names
}

// UnknownCategoryError is returned by Transform for a value outside the
// known categories of its column.
type UnknownCategoryError struct {
	Feature int
	Value   string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("nutritrack: OneHotEncoder.Transform: unknown category %q in feature %d", e.Value, e.Feature)
}

func (e *UnknownCategoryError) Unwrap() error { return errors.ErrInvalidInput }
