package model

import "sync"

// StateManager tracks the fitted state and training dimensions of an estimator.
// It is safe for concurrent use.
type StateManager struct {
	mu        sync.RWMutex
	state     EstimatorState
	nFeatures int
	nSamples  int
}

// NewStateManager returns a StateManager in the NotFitted state.
func NewStateManager() *StateManager {
	return &StateManager{state: NotFitted}
}

// IsFitted reports whether SetFitted has been called since the last Reset.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == Fitted
}

// SetFitted marks the estimator as fitted.
func (s *StateManager) SetFitted() {
	s.mu.Lock()
	s.state = Fitted
	s.mu.Unlock()
}

// SetDimensions records the shape of the training data.
func (s *StateManager) SetDimensions(nFeatures, nSamples int) {
	s.mu.Lock()
	s.nFeatures = nFeatures
	s.nSamples = nSamples
	s.mu.Unlock()
}

// Dimensions returns the recorded training shape as (features, samples).
func (s *StateManager) Dimensions() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nFeatures, s.nSamples
}

// Reset clears the fitted state and dimensions.
func (s *StateManager) Reset() {
	s.mu.Lock()
	s.state = NotFitted
	s.nFeatures = 0
	s.nSamples = 0
	s.mu.Unlock()
}
