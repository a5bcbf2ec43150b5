package features

import (
	"strconv"

	"github.com/ezoic/nutritrack/dataset"
	"github.com/ezoic/nutritrack/pkg/errors"
)

// Input bounds, matching the prediction form.
const (
	MinCalories = 1000
	MaxCalories = 5000
	MinProtein  = 0
	MaxProtein  = 200
	MinSleep    = 3
	MaxSleep    = 12
)

// Query is one user's input to the prediction form.
type Query struct {
	Calories int              `json:"calories"`
	Protein  int              `json:"protein"`
	Activity dataset.Activity `json:"activity"`
	Sleep    int              `json:"sleep"`
}

// DefaultQuery returns the form's initial values.
func DefaultQuery() Query {
	return Query{Calories: 2200, Protein: 60, Activity: dataset.Sedentary, Sleep: 7}
}

// QueryFromSample returns the query with the same inputs as s.
func QueryFromSample(s dataset.Sample) Query {
	return Query{Calories: s.Calories, Protein: s.Protein, Activity: s.Activity, Sleep: s.Sleep}
}

// Validate checks the form bounds and the activity level.
func (q Query) Validate() error {
	switch {
	case q.Calories < MinCalories || q.Calories > MaxCalories:
		return errors.NewValueErrorf("Query.Validate", "calories must be in [%d, %d], got %d", MinCalories, MaxCalories, q.Calories)
	case q.Protein < MinProtein || q.Protein > MaxProtein:
		return errors.NewValueErrorf("Query.Validate", "protein must be in [%d, %d], got %d", MinProtein, MaxProtein, q.Protein)
	case q.Sleep < MinSleep || q.Sleep > MaxSleep:
		return errors.NewValueErrorf("Query.Validate", "sleep must be in [%d, %d], got %d", MinSleep, MaxSleep, q.Sleep)
	case !q.Activity.Valid():
		return errors.Wrapf(errors.ErrUnknownActivity, "activity %d", int(q.Activity))
	}
	return nil
}

// Key returns a stable identifier for caching, e.g. "2200:60:sedentary:7".
func (q Query) Key() string {
	return strconv.Itoa(q.Calories) + ":" + strconv.Itoa(q.Protein) + ":" + q.Activity.Key() + ":" + strconv.Itoa(q.Sleep)
}
