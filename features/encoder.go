// Package features turns dataset samples and user queries into the numeric
// feature matrix the nutrition classifier is trained on.
//
// Training rows and query rows go through the same Encoder and therefore get
// the same columns in the same order:
//
//	calories, protein, sleep, activity_heavy, activity_light, activity_moderate, activity_sedentary
//
// The four activity columns are one-hot indicators; exactly one of them is 1
// in every encoded row.
package features

import (
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/nutritrack/dataset"
	"github.com/ezoic/nutritrack/pkg/errors"
	"github.com/ezoic/nutritrack/preprocessing"
)

// Numeric column names.
const (
	ColCalories = "calories"
	ColProtein  = "protein"
	ColSleep    = "sleep"
)

// activityPrefix names the one-hot block, e.g. "activity_light".
const activityPrefix = "activity"

// activityOrder fixes the indicator column order.
var activityOrder = []dataset.Activity{dataset.Heavy, dataset.Light, dataset.Moderate, dataset.Sedentary}

var columns = func() []string {
	cols := []string{ColCalories, ColProtein, ColSleep}
	for _, a := range activityOrder {
		cols = append(cols, activityPrefix+"_"+a.Key())
	}
	return cols
}()

// NumColumns is the width of an encoded row.
const NumColumns = 7

// Columns returns the encoded column names in order.
func Columns() []string {
	return slices.Clone(columns)
}

// ActivityOrder returns the activity levels in indicator column order.
func ActivityOrder() []dataset.Activity {
	return slices.Clone(activityOrder)
}

// CheckColumns returns ErrColumnMismatch unless names equals Columns(),
// order included.
func CheckColumns(names []string) error {
	return MatchColumns(columns, names)
}

// MatchColumns returns ErrColumnMismatch unless the columns a model was
// trained on equal the columns a query encodes to, order included.
func MatchColumns(trained, query []string) error {
	if len(trained) == 0 {
		return errors.Wrap(errors.ErrColumnMismatch, "no training column names recorded")
	}
	if !slices.Equal(trained, query) {
		return errors.Wrapf(errors.ErrColumnMismatch, "trained on %v, query has %v", trained, query)
	}
	return nil
}

// Encoder encodes samples and queries. It is immutable and safe for
// concurrent use.
type Encoder struct {
	activity *preprocessing.OneHotEncoder
}

// NewEncoder builds the encoder with the fixed activity categories.
func NewEncoder() (*Encoder, error) {
	keys := make([]string, len(activityOrder))
	for i, a := range activityOrder {
		keys[i] = a.Key()
	}
	ohe, err := preprocessing.NewOneHotEncoderWithCategories([][]string{keys})
	if err != nil {
		return nil, errors.Wrap(err, "build activity encoder")
	}
	cols := append([]string{ColCalories, ColProtein, ColSleep}, ohe.GetFeatureNamesOut([]string{activityPrefix})...)
	if err := CheckColumns(cols); err != nil {
		return nil, errors.Wrap(err, "activity encoder columns")
	}
	return &Encoder{activity: ohe}, nil
}

// Columns returns the names of the columns this encoder produces.
func (e *Encoder) Columns() []string { return Columns() }

// Encode returns an (n_samples, NumColumns) matrix. Labels are not included.
func (e *Encoder) Encode(samples []dataset.Sample) (*mat.Dense, error) {
	if len(samples) == 0 {
		return nil, errors.NewModelError("features.Encode", "no samples", errors.ErrEmptyData)
	}
	rows := make([]row, len(samples))
	for i, s := range samples {
		rows[i] = row{calories: s.Calories, protein: s.Protein, sleep: s.Sleep, activity: s.Activity}
	}
	return e.encode(rows)
}

// EncodeQuery returns a (1, NumColumns) matrix for a single query.
func (e *Encoder) EncodeQuery(q Query) (*mat.Dense, error) {
	return e.encode([]row{{calories: q.Calories, protein: q.Protein, sleep: q.Sleep, activity: q.Activity}})
}

// Labels returns the status column of samples as an (n_samples, 1) matrix of
// class indices.
func (e *Encoder) Labels(samples []dataset.Sample) *mat.Dense {
	y := mat.NewDense(len(samples), 1, nil)
	for i, s := range samples {
		y.Set(i, 0, float64(s.Status))
	}
	return y
}

// DecodeActivity recovers the activity level from an encoded row.
func (e *Encoder) DecodeActivity(encoded []float64) (dataset.Activity, error) {
	if len(encoded) != NumColumns {
		return 0, errors.NewDimensionError("features.DecodeActivity", NumColumns, len(encoded), 1)
	}
	block := mat.NewDense(1, len(activityOrder), slices.Clone(encoded[3:]))
	labels, err := e.activity.InverseTransform(block)
	if err != nil {
		return 0, err
	}
	return dataset.ParseActivity(labels[0][0])
}

type row struct {
	calories, protein, sleep int
	activity                 dataset.Activity
}

func (e *Encoder) encode(rows []row) (*mat.Dense, error) {
	cats := make([][]string, len(rows))
	for i, r := range rows {
		if !r.activity.Valid() {
			return nil, errors.Wrapf(errors.ErrUnknownActivity, "row %d: activity %d", i, int(r.activity))
		}
		cats[i] = []string{r.activity.Key()}
	}

	indicators, err := e.activity.Transform(cats)
	if err != nil {
		var unknown *preprocessing.UnknownCategoryError
		if errors.As(err, &unknown) {
			return nil, errors.Wrapf(errors.ErrUnknownActivity, "%q", unknown.Value)
		}
		return nil, err
	}

	X := mat.NewDense(len(rows), NumColumns, nil)
	for i, r := range rows {
		X.Set(i, 0, float64(r.calories))
		X.Set(i, 1, float64(r.protein))
		X.Set(i, 2, float64(r.sleep))
		for k := range activityOrder {
			X.Set(i, 3+k, indicators.At(i, k))
		}
	}
	return X, nil
}
