package mot

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNumerical is the sentinel behind every NumericalError.
	ErrNumerical = errors.New("numerical failure in state estimator")
	// ErrValidation is the sentinel behind every ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidConfig is returned when a configuration value is out of its allowed range.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// NumericalError is returned by StateEstimator.Correct when the innovation covariance
// can not be inverted or the corrected state contains NaN/Inf values.
type NumericalError struct {
	Op     string
	Reason string
}

func (e *NumericalError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrNumerical.Error(), e.Op, e.Reason)
}

// Is makes errors.Is(err, ErrNumerical) work
func (e *NumericalError) Is(target error) bool {
	return target == ErrNumerical
}

// ValidationError describes malformed detection input
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: field '%s' (value %v): %s", ErrValidation.Error(), e.Field, e.Value, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) work
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func configError(field string, format string, args ...any) error {
	return errors.Wrapf(ErrInvalidConfig, "%s: "+format, append([]any{field}, args...)...)
}
