package kriging

import (
	"context"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	defaultRangeGuess = 10.0
	defaultMaxSize    = 15
)

// Observer receives the outcome of the expensive stages of an Analysis.
type Observer interface {
	ObserveFit(subset string, res FitResult)
	ObserveCrossValidation(subset string, res CVResult, elapsed time.Duration)
	ObservePredictions(subset string, method Method, results []Result, elapsed time.Duration)
}

type Options struct {
	Bins       Bins
	Model      *ModelType
	RangeGuess *float64
	Fit        *FitOptions
	Sizes      []int
	Workers    int
	OnError    FailurePolicy
	// FallbackMethod answers failed Kriging queries under PolicyFallback.
	FallbackMethod Method
	Observer       Observer
}

// Analysis runs the engine over one sample set. The distance matrix,
// empirical variogram and fit are computed on first use and reused by every
// later call; a different sample set needs a new Analysis.
type Analysis struct {
	subset  string
	samples *SampleSet
	values  []float64

	bins           Bins
	model          ModelType
	rangeGuess     float64
	fitOptions     FitOptions
	sizes          []int
	batch          BatchOptions
	fallbackMethod Method
	observer       Observer

	distOnce sync.Once
	dist     *DistanceMatrix

	evOnce sync.Once
	ev     EmpiricalVariogram
	evErr  error

	fitOnce sync.Once
	fit     FitResult
	fitErr  error
}

func NewAnalysis(subset string, samples *SampleSet, opts Options) (*Analysis, error) {
	if samples == nil || samples.Len() < 2 {
		return nil, inputErrorf("subset %q needs at least 2 samples", subset)
	}
	a := &Analysis{
		subset:         subset,
		samples:        samples,
		values:         samples.Values(),
		bins:           opts.Bins,
		model:          Spherical,
		rangeGuess:     defaultRangeGuess,
		fitOptions:     DefaultFitOptions(),
		sizes:          opts.Sizes,
		batch:          BatchOptions{Workers: opts.Workers, OnError: opts.OnError},
		fallbackMethod: opts.FallbackMethod,
		observer:       opts.Observer,
	}
	if err := a.bins.validate(); err != nil {
		return nil, err
	}
	if opts.Model != nil {
		if !opts.Model.Valid() {
			return nil, inputErrorf("unknown variogram model %q", *opts.Model)
		}
		a.model = *opts.Model
	}
	if opts.RangeGuess != nil {
		a.rangeGuess = *opts.RangeGuess
	}
	if opts.Fit != nil {
		a.fitOptions = *opts.Fit
	}
	if len(a.sizes) == 0 {
		for k := 1; k <= defaultMaxSize && k < samples.Len(); k++ {
			a.sizes = append(a.sizes, k)
		}
	}
	if a.batch.OnError == "" {
		a.batch.OnError = PolicyAbort
	}
	if a.fallbackMethod == "" {
		a.fallbackMethod = MethodIDW
	}
	if a.fallbackMethod == MethodKriging {
		return nil, inputErrorf("kriging cannot be its own fallback")
	}
	return a, nil
}

func (a *Analysis) Subset() string { return a.subset }

func (a *Analysis) Samples() *SampleSet { return a.samples }

// Distances returns the N×N sample distance matrix.
func (a *Analysis) Distances() *DistanceMatrix {
	a.distOnce.Do(func() {
		a.dist = PairwiseDistances(a.samples.points)
	})
	return a.dist
}

func (a *Analysis) EmpiricalVariogram() (EmpiricalVariogram, error) {
	a.evOnce.Do(func() {
		a.ev, a.evErr = EstimateVariogram(a.Distances(), a.values, a.bins)
		if a.evErr != nil {
			a.evErr = eris.Wrapf(a.evErr, "subset %s: estimate variogram", a.subset)
		}
	})
	return a.ev, a.evErr
}

// Fit fits the configured model to the empirical variogram. A fit that hit
// the iteration cap is logged and returned with Converged false.
func (a *Analysis) Fit() (FitResult, error) {
	a.fitOnce.Do(func() {
		a.fit, a.fitErr = a.doFit()
	})
	return a.fit, a.fitErr
}

func (a *Analysis) doFit() (FitResult, error) {
	log := zap.L().With(zap.String("subset", a.subset), zap.String("model", string(a.model)))

	ev, err := a.EmpiricalVariogram()
	if err != nil {
		return FitResult{}, err
	}
	init, err := InitialParams(ev, a.values, a.rangeGuess)
	if err != nil {
		return FitResult{}, eris.Wrapf(err, "subset %s: initial parameters", a.subset)
	}
	res, err := Fit(ev, a.model, init, a.fitOptions)
	if err != nil {
		return FitResult{}, eris.Wrapf(err, "subset %s: fit variogram", a.subset)
	}
	if a.observer != nil {
		a.observer.ObserveFit(a.subset, res)
	}

	fields := []zap.Field{
		zap.Float64("nugget", res.Variogram.Params.Nugget),
		zap.Float64("sill", res.Variogram.Params.Sill),
		zap.Float64("range", res.Variogram.Params.Range),
		zap.Int("iterations", res.Iterations),
		zap.Float64("mse", res.MSE),
	}
	if !res.Converged {
		log.Warn("variogram fit stopped at iteration limit", fields...)
	} else {
		log.Debug("variogram fitted", fields...)
	}
	return res, nil
}

// Predictor builds a predictor of the given method over the whole sample
// set.
func (a *Analysis) Predictor(method Method) (Predictor, error) {
	var vg *Variogram
	if method == MethodKriging {
		res, err := a.Fit()
		if err != nil {
			return nil, err
		}
		vg = &res.Variogram
	}
	return NewPredictor(method, a.Distances(), a.values, vg)
}

func (a *Analysis) batchOptions(method Method) (BatchOptions, error) {
	opts := a.batch
	if opts.OnError == PolicyFallback && method == MethodKriging {
		fb, err := a.Predictor(a.fallbackMethod)
		if err != nil {
			return BatchOptions{}, err
		}
		opts.Fallback = fb
	} else if opts.OnError == PolicyFallback {
		// only Kriging raises numerical failures.
		opts.OnError = PolicyAbort
	}
	return opts, nil
}

// CrossValidate sweeps the configured neighborhood sizes for each method.
func (a *Analysis) CrossValidate(ctx context.Context, methods []Method) ([]CVResult, error) {
	ret := make([]CVResult, 0, len(methods))
	for _, method := range methods {
		log := zap.L().With(zap.String("subset", a.subset), zap.String("method", string(method)))

		p, err := a.Predictor(method)
		if err != nil {
			return nil, err
		}
		opts, err := a.batchOptions(method)
		if err != nil {
			return nil, err
		}

		start := time.Now()
		res, err := CrossValidate(ctx, a.Distances(), a.values, a.sizes, p, opts)
		if err != nil {
			return nil, eris.Wrapf(err, "subset %s: cross-validate %s", a.subset, method)
		}
		elapsed := time.Since(start)
		if a.observer != nil {
			a.observer.ObserveCrossValidation(a.subset, res, elapsed)
		}

		for _, s := range res.Scores {
			if s.Skipped > 0 || s.Fallbacks > 0 {
				log.Warn("queries failed during cross-validation",
					zap.Int("k", s.K), zap.Int("skipped", s.Skipped), zap.Int("fallbacks", s.Fallbacks))
			}
		}
		log.Info("cross-validation complete",
			zap.Int("best_k", res.BestK),
			zap.Float64("best_mse", res.BestMSE),
			zap.Duration("elapsed", elapsed),
		)
		ret = append(ret, res)
	}
	return ret, nil
}

// Predict predicts every target with method and ranks r.
func (a *Analysis) Predict(ctx context.Context, targets []orb.Point, method Method, r Ranks) ([]Result, error) {
	p, err := a.Predictor(method)
	if err != nil {
		return nil, err
	}
	opts, err := a.batchOptions(method)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	results, err := PredictAll(ctx, Distances(targets, a.samples.points), p, r, opts)
	if err != nil {
		return nil, eris.Wrapf(err, "subset %s: predict %s", a.subset, method)
	}
	if a.observer != nil {
		a.observer.ObservePredictions(a.subset, method, results, time.Since(start))
	}
	zap.L().Debug("predictions complete",
		zap.String("subset", a.subset),
		zap.String("method", string(method)),
		zap.Int("targets", len(targets)),
	)
	return results, nil
}

// Report is the per-subset output handed to reporting and rendering.
type Report struct {
	Subset          string             `json:"subset" yaml:"subset"`
	Samples         int                `json:"samples" yaml:"samples"`
	Bins            Bins               `json:"bins" yaml:"bins"`
	Empirical       EmpiricalVariogram `json:"empirical" yaml:"empirical"`
	Fit             FitResult          `json:"fit" yaml:"fit"`
	CrossValidation []CVResult         `json:"cross_validation,omitempty" yaml:"cross_validation,omitempty"`
}

// Report fits the variogram and, when methods is not empty, runs the
// cross-validation sweep for each of them.
func (a *Analysis) Report(ctx context.Context, methods []Method) (*Report, error) {
	ev, err := a.EmpiricalVariogram()
	if err != nil {
		return nil, err
	}
	fit, err := a.Fit()
	if err != nil {
		return nil, err
	}
	rep := &Report{
		Subset:    a.subset,
		Samples:   a.samples.Len(),
		Bins:      a.bins,
		Empirical: ev,
		Fit:       fit,
	}
	if len(methods) > 0 {
		if rep.CrossValidation, err = a.CrossValidate(ctx, methods); err != nil {
			return nil, err
		}
	}
	return rep, nil
}
