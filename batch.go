package kriging

import (
	"context"
	"math"

	"github.com/rotisserie/eris"
)

// Result is the outcome of one query of a batch. Err is set for a query that
// was skipped, and also for one answered by the fallback predictor, in which
// case Fallback is true and Prediction holds the fallback value.
type Result struct {
	Prediction
	Err      error
	Fallback bool
}

func (r Result) OK() bool {
	return r.Err == nil || r.Fallback
}

// PredictAll predicts every row of dist, the distances from each query point
// to the training samples of p. Results are indexed like the rows of dist.
// Under PolicyAbort the first failure is returned as a *QueryError. The
// fallback of opts must share the training set of p.
func PredictAll(ctx context.Context, dist *DistanceMatrix, p Predictor, r Ranks, opts BatchOptions) ([]Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if bp, ok := p.(boundPredictor); ok && opts.Fallback != nil {
		train, values := bp.training()
		if err := checkBound(opts.Fallback, train, values); err != nil {
			return nil, eris.Wrap(err, "fallback")
		}
	}
	m, _ := dist.Dims()
	results := make([]Result, m)
	err := forEach(ctx, m, opts.Workers, func(i int) error {
		o := opts.predict(p, i, dist.Row(i), r)
		if o.fatal() {
			return o.err
		}
		results[i] = Result{Prediction: o.pred, Err: o.err, Fallback: o.fallback}
		if o.skipped {
			results[i].Value = math.NaN()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
