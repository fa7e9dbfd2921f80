package kriging

import (
	"fmt"

	"github.com/rotisserie/eris"
)

var (
	// ErrInput marks empty, mismatched or out-of-range arguments. It is
	// returned before any computation starts.
	ErrInput = eris.New("kriging: invalid input")

	// ErrNumerical marks a singular or ill-conditioned Kriging system.
	ErrNumerical = eris.New("kriging: singular covariance system")

	// ErrFitNonConvergence is the soft signal attached to a FitResult whose
	// descent stopped at the iteration cap.
	ErrFitNonConvergence = eris.New("kriging: variogram fit did not converge")
)

// QueryError reports a failure to predict a single query point.
type QueryError struct {
	Query     int
	Neighbors []int
	Err       error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %d (neighbors %v): %v", e.Query, e.Neighbors, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

func inputErrorf(format string, args ...interface{}) error {
	return eris.Wrapf(ErrInput, format, args...)
}
