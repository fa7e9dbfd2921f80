package kriging

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// FitOptions tunes the gradient descent of Fit.
type FitOptions struct {
	// Alpha is the fixed step size.
	Alpha float64 `json:"alpha" yaml:"alpha"`
	// Delta is the forward-difference perturbation per parameter.
	Delta float64 `json:"delta" yaml:"delta"`
	// Limit caps the number of iterations.
	Limit int `json:"limit" yaml:"limit"`
	// Thresh stops the descent once the largest parameter change of a step
	// falls below it.
	Thresh float64 `json:"thresh" yaml:"thresh"`
}

// MinRange is the smallest range Fit returns.
const MinRange = 1e-6

func DefaultFitOptions() FitOptions {
	return FitOptions{Alpha: 0.1, Delta: 1e-6, Limit: 100000, Thresh: 1e-9}
}

// FitResult is the last iterate of the descent. When Converged is false the
// parameters are still usable but the iteration cap was hit first.
type FitResult struct {
	Variogram  Variogram `json:"variogram" yaml:"variogram"`
	Iterations int       `json:"iterations" yaml:"iterations"`
	MSE        float64   `json:"mse" yaml:"mse"`
	Converged  bool      `json:"converged" yaml:"converged"`
}

// Err returns ErrFitNonConvergence for a result that stopped at the cap.
func (r FitResult) Err() error {
	if r.Converged {
		return nil
	}
	return ErrFitNonConvergence
}

// Fit finds nugget, sill and range minimizing the mean squared error between
// model and the non-missing lags of ev by batch gradient descent from init.
// The descent is local; hitting opts.Limit is reported through
// FitResult.Converged, not as an error. Every iterate, init included, is
// projected onto nugget >= 0, sill >= 0 and range >= MinRange.
//
// Whether a noisy variogram converges depends on opts: the descent stops as
// soon as a step moves every parameter by less than Thresh, which a flat
// noise surface can reach well before Limit. Callers that need a firm bound
// on the work should lower Limit.
func Fit(ev EmpiricalVariogram, model ModelType, init Params, opts FitOptions) (FitResult, error) {
	if !model.Valid() {
		return FitResult{}, inputErrorf("unknown variogram model %q", model)
	}
	if !(opts.Alpha > 0) || !(opts.Delta > 0) || opts.Limit <= 0 || opts.Thresh < 0 {
		return FitResult{}, inputErrorf("fit options %+v", opts)
	}
	lags := ev.Valid()
	if len(lags) == 0 {
		return FitResult{}, inputErrorf("empirical variogram has no populated lag")
	}

	f := model.Func()
	loss := func(p [3]float64) float64 {
		var sum float64
		for _, l := range lags {
			sum += pow2(f(l.H, p[0], p[1], p[2]) - l.Gamma)
		}
		return sum / float64(len(lags))
	}

	p := project(init.vector())
	res := FitResult{Variogram: Variogram{Model: model, Params: paramsFromVector(p)}}
	for it := 1; it <= opts.Limit; it++ {
		base := loss(p)

		var next [3]float64
		for k := range p {
			q := p
			q[k] += opts.Delta
			grad := (loss(q) - base) / opts.Delta
			next[k] = p[k] - opts.Alpha*grad
		}
		res.Iterations = it
		if !finite3(next) {
			// the step left the representable range; keep the last usable
			// iterate and report non-convergence.
			res.Variogram.Params = paramsFromVector(p)
			res.MSE = base
			return res, nil
		}
		next = project(next)
		var change float64
		for k := range p {
			change = math.Max(change, math.Abs(next[k]-p[k]))
		}
		p = next
		if change < opts.Thresh {
			res.Converged = true
			break
		}
	}
	res.Variogram.Params = paramsFromVector(p)
	res.MSE = loss(p)
	return res, nil
}

// InitialParams is the conventional starting point for Fit: the nugget is
// the first populated semivariance, the sill is the sample variance less the
// nugget, and the range is the caller's guess.
func InitialParams(ev EmpiricalVariogram, values []float64, rangeGuess float64) (Params, error) {
	lags := ev.Valid()
	if len(lags) == 0 {
		return Params{}, inputErrorf("empirical variogram has no populated lag")
	}
	if len(values) < 2 {
		return Params{}, inputErrorf("need at least 2 measurements, got %d", len(values))
	}
	if !(rangeGuess > 0) {
		return Params{}, inputErrorf("range guess %v", rangeGuess)
	}
	nugget := lags[0].Gamma
	return Params{
		Nugget: nugget,
		Sill:   stat.Variance(values, nil) - nugget,
		Range:  rangeGuess,
	}, nil
}

// project clamps a parameter vector onto the feasible set of the models.
func project(v [3]float64) [3]float64 {
	v[0] = math.Max(v[0], 0)
	v[1] = math.Max(v[1], 0)
	v[2] = math.Max(v[2], MinRange)
	return v
}

func finite3(v [3]float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
