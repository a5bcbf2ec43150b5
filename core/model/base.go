// Package model provides the fitted-state bookkeeping shared by NutriTrack's
// estimators and transformers.
//
// Two forms are available:
//
//   - BaseEstimator: embeddable value for simple transformers that are built
//     once and never shared before they are fitted.
//   - StateManager: a lock-protected state holder used by estimators that are
//     read concurrently after training (the decision tree, the nutrition model).
//
// Example usage:
//
//	type Encoder struct {
//		model.BaseEstimator
//	}
//
//	func (e *Encoder) Fit(...) error {
//		// fitting logic
//		e.SetFitted()
//		return nil
//	}
package model

// EstimatorState represents the learning state of a model
type EstimatorState int

const (
	// NotFitted indicates the model is not yet trained
	NotFitted EstimatorState = iota
	// Fitted indicates the model has been trained
	Fitted
)

// BaseEstimator is embedded by transformers to track whether they are fitted.
type BaseEstimator struct {
	// State holds the learning state.
	State EstimatorState

	// ModelType identifies the embedding type in logs and errors.
	ModelType string
}

// IsFitted returns whether the estimator has been fitted.
func (e *BaseEstimator) IsFitted() bool {
	return e.State == Fitted
}

// SetFitted marks the estimator as fitted. Called by implementations at the
// end of a successful Fit.
func (e *BaseEstimator) SetFitted() {
	e.State = Fitted
}

// Reset returns the estimator to its initial untrained state.
func (e *BaseEstimator) Reset() {
	e.State = NotFitted
}
