package kriging

import (
	"context"
	"math"
	"sync/atomic"

	"github.com/rotisserie/eris"
)

// SizeScore is the leave-one-out error of one neighborhood size.
type SizeScore struct {
	K   int     `json:"k" yaml:"k"`
	MSE float64 `json:"mse" yaml:"mse"`
	// Skipped and Fallbacks count queries handled by the failure policy.
	Skipped   int `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Fallbacks int `json:"fallbacks,omitempty" yaml:"fallbacks,omitempty"`
}

// CVResult is the error sweep of one predictor and its arg-min size.
type CVResult struct {
	Method  Method      `json:"method" yaml:"method"`
	Scores  []SizeScore `json:"scores" yaml:"scores"`
	BestK   int         `json:"best_k" yaml:"best_k"`
	BestMSE float64     `json:"best_mse" yaml:"best_mse"`
}

// CrossValidate predicts every sample from the others, once per
// neighborhood size k in sizes, and reports the mean squared error per size.
// Each sample is predicted from ranks 2..k+1 of its row in train, so it never
// sees itself. p, and the fallback of opts, must have been built on train and
// values. The best size is the one with the smallest error; ties go to
// the smaller k.
func CrossValidate(ctx context.Context, train *DistanceMatrix, values []float64, sizes []int, p Predictor, opts BatchOptions) (CVResult, error) {
	if err := checkTraining(train, values); err != nil {
		return CVResult{}, err
	}
	if err := opts.validate(); err != nil {
		return CVResult{}, err
	}
	if err := checkBound(p, train, values); err != nil {
		return CVResult{}, err
	}
	if opts.Fallback != nil {
		if err := checkBound(opts.Fallback, train, values); err != nil {
			return CVResult{}, eris.Wrap(err, "fallback")
		}
	}
	if len(sizes) == 0 {
		return CVResult{}, inputErrorf("no neighborhood sizes")
	}
	n := len(values)
	for _, k := range sizes {
		if k < 1 || k+1 > n {
			return CVResult{}, inputErrorf("neighborhood size %d needs 1 <= k <= %d", k, n-1)
		}
	}

	res := CVResult{Method: p.Method(), BestK: -1, BestMSE: math.NaN()}
	sq := make([]float64, n)
	for _, k := range sizes {
		var skipped, fallbacks atomic.Int64
		r := SelfExcluded(k)
		err := forEach(ctx, n, opts.Workers, func(i int) error {
			o := opts.predict(p, i, train.Row(i), r)
			if o.fatal() {
				return o.err
			}
			if o.skipped {
				skipped.Add(1)
				sq[i] = math.NaN()
				return nil
			}
			if o.fallback {
				fallbacks.Add(1)
			}
			sq[i] = pow2(o.pred.Value - values[i])
			return nil
		})
		if err != nil {
			return CVResult{}, err
		}

		score := SizeScore{K: k, MSE: nanMean(sq), Skipped: int(skipped.Load()), Fallbacks: int(fallbacks.Load())}
		res.Scores = append(res.Scores, score)
		if math.IsNaN(score.MSE) {
			continue
		}
		if res.BestK < 0 || score.MSE < res.BestMSE || (score.MSE == res.BestMSE && k < res.BestK) {
			res.BestK, res.BestMSE = k, score.MSE
		}
	}
	return res, nil
}

// CompareMethods runs the same sweep for every predictor, giving a
// like-for-like error table.
func CompareMethods(ctx context.Context, train *DistanceMatrix, values []float64, sizes []int, predictors []Predictor, opts BatchOptions) ([]CVResult, error) {
	ret := make([]CVResult, 0, len(predictors))
	for _, p := range predictors {
		res, err := CrossValidate(ctx, train, values, sizes, p, opts)
		if err != nil {
			return nil, err
		}
		ret = append(ret, res)
	}
	return ret, nil
}

func nanMean(xs []float64) float64 {
	var sum float64
	var n int
	for _, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		sum += x
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
