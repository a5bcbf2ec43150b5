// Package errors provides the error types used across NutriTrack.
//
// It is a thin layer over github.com/cockroachdb/errors: sentinel errors can
// be matched with Is, typed errors can be extracted with As, and every error
// created here carries a stack trace that is printed with "%+v".
//
// Typical use inside an estimator method:
//
//	func (m *Model) Predict(X mat.Matrix) (_ mat.Matrix, err error) {
//		defer errors.Recover(&err, "Model.Predict")
//		if !m.state.IsFitted() {
//			return nil, errors.NewNotFittedError("Model", "Predict")
//		}
//		...
//	}
package errors

import (
	"fmt"

	cerrors "github.com/cockroachdb/errors"
)

// Sentinel errors.
var (
	// ErrNotImplemented is returned by features that are declared but not available.
	ErrNotImplemented = cerrors.New("not implemented")
	// ErrEmptyData is returned when an operation receives no samples.
	ErrEmptyData = cerrors.New("empty data")
	// ErrNotFitted is returned when an estimator is used before Fit.
	ErrNotFitted = cerrors.New("estimator not fitted")
	// ErrDimensionMismatch is returned when matrix shapes disagree.
	ErrDimensionMismatch = cerrors.New("dimension mismatch")
	// ErrInvalidInput is returned for values outside their allowed domain.
	ErrInvalidInput = cerrors.New("invalid input")
	// ErrUnknownActivity is returned for activity levels outside the fixed enumeration.
	ErrUnknownActivity = cerrors.New("unknown activity level")
	// ErrUnknownStatus is returned for nutrition status labels outside the fixed enumeration.
	ErrUnknownStatus = cerrors.New("unknown nutrition status")
	// ErrColumnMismatch is returned when the encoder and the model disagree on feature columns.
	ErrColumnMismatch = cerrors.New("feature column mismatch")
	// ErrPanic marks errors recovered from a panic.
	ErrPanic = cerrors.New("panic recovered")
)

// ModelError is a generic failure inside a named operation.
type ModelError struct {
	Op      string
	Message string
	Err     error
}

// NewModelError creates a ModelError wrapping err.
func NewModelError(op, message string, err error) error {
	return cerrors.WithStackDepth(&ModelError{Op: op, Message: message, Err: err}, 1)
}

func (e *ModelError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("nutritrack: %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("nutritrack: %s: %s: %v", e.Op, e.Message, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// DimensionError reports a shape mismatch. Axis is 0 for rows and 1 for columns.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int
}

// NewDimensionError creates a DimensionError.
func NewDimensionError(op string, expected, got, axis int) error {
	return cerrors.WithStackDepth(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}, 1)
}

func (e *DimensionError) Error() string {
	axis := "rows"
	if e.Axis == 1 {
		axis = "columns"
	}
	return fmt.Sprintf("nutritrack: %s: dimension mismatch on %s: expected %d, got %d", e.Op, axis, e.Expected, e.Got)
}

func (e *DimensionError) Unwrap() error { return ErrDimensionMismatch }

// NotFittedError is returned when a method needs a fitted estimator.
type NotFittedError struct {
	ModelName string
	Method    string
}

// NewNotFittedError creates a NotFittedError.
func NewNotFittedError(modelName, method string) error {
	return cerrors.WithStackDepth(&NotFittedError{ModelName: modelName, Method: method}, 1)
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("nutritrack: %s: must call Fit before %s", e.ModelName, e.Method)
}

func (e *NotFittedError) Unwrap() error { return ErrNotFitted }

// ValueError reports an argument with an invalid value.
type ValueError struct {
	Op      string
	Message string
}

// NewValueError creates a ValueError.
func NewValueError(op, message string) error {
	return cerrors.WithStackDepth(&ValueError{Op: op, Message: message}, 1)
}

// NewValueErrorf creates a ValueError with a formatted message.
func NewValueErrorf(op, format string, args ...interface{}) error {
	return cerrors.WithStackDepth(&ValueError{Op: op, Message: fmt.Sprintf(format, args...)}, 1)
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("nutritrack: %s: %s", e.Op, e.Message)
}

func (e *ValueError) Unwrap() error { return ErrInvalidInput }

// Recover converts a panic in the calling function into an error stored in *err.
// It must be called directly with defer.
func Recover(err *error, op string) {
	if r := recover(); r != nil {
		*err = NewModelError(op, fmt.Sprint(r), ErrPanic)
	}
}

// New creates an error with a stack trace.
func New(msg string) error { return cerrors.NewWithDepth(1, msg) }

// Newf creates a formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return cerrors.NewWithDepthf(1, format, args...)
}

// Wrap annotates err with msg. It returns nil if err is nil.
func Wrap(err error, msg string) error { return cerrors.WrapWithDepth(1, err, msg) }

// Wrapf annotates err with a formatted message. It returns nil if err is nil.
func Wrapf(err error, format string, args ...interface{}) error {
	return cerrors.WrapWithDepthf(1, err, format, args...)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return cerrors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool { return cerrors.As(err, target) }

// Unwrap returns the next error in err's chain.
func Unwrap(err error) error { return cerrors.UnwrapOnce(err) }
