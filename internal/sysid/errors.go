package sysid

import (
	"errors"
	"fmt"
)

// Domain errors for estimator operations.
var (
	// ErrInvalidConfig indicates estimator parameters outside their valid range.
	ErrInvalidConfig = errors.New("sysid: invalid estimator configuration")

	// ErrNotFitted indicates an operation that requires a fitted estimator.
	ErrNotFitted = errors.New("sysid: estimator not fitted")

	// ErrAlreadyFitted indicates a second initialization of the same estimator.
	ErrAlreadyFitted = errors.New("sysid: estimator already fitted")

	// ErrDimension indicates snapshot data whose shape does not match the estimator.
	ErrDimension = errors.New("sysid: snapshot dimension mismatch")

	// ErrIllConditioned indicates a snapshot covariance too close to singular
	// to fit or update against.
	ErrIllConditioned = errors.New("sysid: ill-conditioned snapshot covariance")

	// ErrInvalidValue indicates a NaN or Inf in supplied snapshot data.
	ErrInvalidValue = errors.New("sysid: non-finite snapshot value")
)

// ConditionError reports the conditioning estimate that caused a fit or
// update to be rejected. It unwraps to [ErrIllConditioned].
type ConditionError struct {
	Op    string  // "fit" or "update"
	Cond  float64 // observed conditioning estimate
	Limit float64 // acceptance limit the estimate crossed
}

func (e *ConditionError) Error() string {
	return fmt.Sprintf("sysid: %s rejected by conditioning check (estimate %.4g, limit %.4g)", e.Op, e.Cond, e.Limit)
}

func (e *ConditionError) Unwrap() error {
	return ErrIllConditioned
}
