package kriging

import (
	"github.com/rotisserie/eris"
)

// FailurePolicy decides what a batch does with a query whose Kriging system
// could not be solved. Input errors always abort.
type FailurePolicy string

const (
	// PolicyAbort stops the batch at the first failed query.
	PolicyAbort FailurePolicy = "abort"
	// PolicySkip leaves the query out and keeps going.
	PolicySkip FailurePolicy = "skip"
	// PolicyFallback re-predicts the query with the caller's fallback
	// predictor.
	PolicyFallback FailurePolicy = "fallback"
)

func ParseFailurePolicy(name string) (FailurePolicy, error) {
	switch p := FailurePolicy(name); p {
	case PolicyAbort, PolicySkip, PolicyFallback:
		return p, nil
	case "":
		return PolicyAbort, nil
	}
	return "", inputErrorf("unknown failure policy %q", name)
}

// BatchOptions configure the worker pool and failure handling shared by
// CrossValidate and PredictAll.
type BatchOptions struct {
	// Workers bounds the pool; zero uses GOMAXPROCS.
	Workers int
	// OnError defaults to PolicyAbort.
	OnError FailurePolicy
	// Fallback is required by PolicyFallback.
	Fallback Predictor
}

func (o BatchOptions) validate() error {
	switch o.OnError {
	case "", PolicyAbort, PolicySkip:
	case PolicyFallback:
		if o.Fallback == nil {
			return inputErrorf("fallback policy without a fallback predictor")
		}
	default:
		return inputErrorf("unknown failure policy %q", o.OnError)
	}
	return nil
}

// outcome of one query after the failure policy was applied.
type outcome struct {
	pred     Prediction
	err      error
	skipped  bool
	fallback bool
}

func (o BatchOptions) predict(p Predictor, query int, dist []float64, r Ranks) outcome {
	pred, err := p.Predict(dist, r)
	if err == nil {
		return outcome{pred: pred}
	}
	qerr := &QueryError{Query: query, Neighbors: pred.Neighbors, Err: err}
	if !eris.Is(err, ErrNumerical) {
		return outcome{err: qerr}
	}
	switch o.OnError {
	case PolicySkip:
		return outcome{err: qerr, skipped: true}
	case PolicyFallback:
		fb, ferr := o.Fallback.Predict(dist, r)
		if ferr != nil {
			return outcome{err: &QueryError{Query: query, Neighbors: fb.Neighbors, Err: ferr}}
		}
		return outcome{pred: fb, err: qerr, fallback: true}
	}
	return outcome{err: qerr}
}

// fatal reports whether the outcome must stop the batch.
func (o outcome) fatal() bool {
	return o.err != nil && !o.skipped && !o.fallback
}
