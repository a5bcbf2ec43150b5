package model_test

import (
	"fmt"

	"github.com/ezoic/nutritrack/core/model"
)

// ExampleBaseEstimator demonstrates BaseEstimator state management
func ExampleBaseEstimator() {
	estimator := &model.BaseEstimator{}

	fmt.Printf("Initially fitted: %t\n", estimator.IsFitted())

	estimator.SetFitted()
	fmt.Printf("After SetFitted: %t\n", estimator.IsFitted())

	estimator.Reset()
	fmt.Printf("After Reset: %t\n", estimator.IsFitted())

	// Output: Initially fitted: false
	// After SetFitted: true
	// After Reset: false
}

// ExampleStateManager shows the shape bookkeeping done by Fit.
func ExampleStateManager() {
	state := model.NewStateManager()
	fmt.Println(state.IsFitted())

	state.SetDimensions(7, 20)
	state.SetFitted()
	features, samples := state.Dimensions()
	fmt.Println(state.IsFitted(), features, samples)

	// Output: false
	// true 7 20
}
