package kriging

import (
	"math"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/floats"
)

// Predictor estimates the measurement at a query point from its distances to
// every training sample. Implementations are immutable and safe for
// concurrent use.
type Predictor interface {
	Method() Method
	Predict(queryDist []float64, r Ranks) (Prediction, error)
}

// NewPredictor binds a method to a training set. train must be the square
// distance matrix of exactly the samples whose measurements are in values; a
// mismatch is reported instead of silently predicting from another set. vg is
// required for MethodKriging and ignored otherwise.
func NewPredictor(method Method, train *DistanceMatrix, values []float64, vg *Variogram) (Predictor, error) {
	if err := checkTraining(train, values); err != nil {
		return nil, err
	}
	switch method {
	case MethodKNN:
		return &KNN{train: train, values: values}, nil
	case MethodIDW:
		return &IDW{train: train, values: values}, nil
	case MethodKriging:
		if vg == nil || !vg.Model.Valid() {
			return nil, inputErrorf("kriging needs a fitted variogram")
		}
		return &OrdinaryKriging{train: train, values: values, variogram: *vg}, nil
	}
	return nil, inputErrorf("unknown prediction method %q", method)
}

func checkTraining(train *DistanceMatrix, values []float64) error {
	if train == nil || train.Empty() {
		return inputErrorf("empty training distance matrix")
	}
	r, c := train.Dims()
	if r != c {
		return inputErrorf("training distance matrix is %dx%d, not square", r, c)
	}
	if len(values) != r {
		return inputErrorf("training distance matrix has %d samples but %d measurements", r, len(values))
	}
	return nil
}

// boundPredictor exposes the training set a predictor was built on.
type boundPredictor interface {
	training() (*DistanceMatrix, []float64)
}

func (p *KNN) training() (*DistanceMatrix, []float64) { return p.train, p.values }
func (p *IDW) training() (*DistanceMatrix, []float64) { return p.train, p.values }
func (p *OrdinaryKriging) training() (*DistanceMatrix, []float64) { return p.train, p.values }

// checkBound reports a predictor built on another training set than train
// and values. Predictors from outside the package are not checked.
func checkBound(p Predictor, train *DistanceMatrix, values []float64) error {
	bp, ok := p.(boundPredictor)
	if !ok {
		return nil
	}
	t, v := bp.training()
	if t != train && !t.equal(train) {
		return inputErrorf("%s predictor was built on another training distance matrix", p.Method())
	}
	if !floats.Equal(v, values) {
		return inputErrorf("%s predictor was built on other measurements", p.Method())
	}
	return nil
}

func neighborhood(queryDist []float64, n int, r Ranks) ([]int, error) {
	if len(queryDist) != n {
		return nil, inputErrorf("query has %d distances for %d samples", len(queryDist), n)
	}
	return SelectNeighbors(queryDist, r)
}

// KNN predicts the unweighted mean of the neighborhood.
type KNN struct {
	train  *DistanceMatrix
	values []float64
}

func (p *KNN) Method() Method { return MethodKNN }

func (p *KNN) Predict(queryDist []float64, r Ranks) (Prediction, error) {
	idx, err := neighborhood(queryDist, len(p.values), r)
	if err != nil {
		return Prediction{}, err
	}
	var sum float64
	for _, i := range idx {
		sum += p.values[i]
	}
	return Prediction{Value: sum / float64(len(idx)), Neighbors: idx}, nil
}

// IDW predicts the inverse-distance weighted mean of the neighborhood. When
// rank 1 is requested and the query coincides with a sample, the samples at
// distance zero share the whole weight, so a grid cell on top of a sample
// returns its measurement. Any other neighbor at distance zero is an error:
// it only happens when a query that coincides with a sample was not
// self-excluded.
type IDW struct {
	train  *DistanceMatrix
	values []float64
}

func (p *IDW) Method() Method { return MethodIDW }

func (p *IDW) Predict(queryDist []float64, r Ranks) (Prediction, error) {
	idx, err := neighborhood(queryDist, len(p.values), r)
	if err != nil {
		return Prediction{}, err
	}
	w := make([]float64, len(idx))
	if r.First == 1 && queryDist[idx[0]] == 0 {
		for k, i := range idx {
			if queryDist[i] == 0 {
				w[k] = 1
			}
		}
	} else {
		for k, i := range idx {
			if queryDist[i] == 0 {
				return Prediction{}, inputErrorf("neighbor %d is at distance 0 from the query", i)
			}
			w[k] = 1 / queryDist[i]
		}
	}
	floats.Scale(1/floats.Sum(w), w)

	var value float64
	for k, i := range idx {
		value += w[k] * p.values[i]
	}
	return Prediction{Value: value, Neighbors: idx, Weights: w}, nil
}

// OrdinaryKriging predicts with ordinary-Kriging weights from a fitted
// variogram. The neighbor-to-neighbor system is built from the training
// distance matrix; only the right-hand side uses the query distances.
type OrdinaryKriging struct {
	train     *DistanceMatrix
	values    []float64
	variogram Variogram
}

func (p *OrdinaryKriging) Method() Method { return MethodKriging }

func (p *OrdinaryKriging) Variogram() Variogram { return p.variogram }

func (p *OrdinaryKriging) Predict(queryDist []float64, r Ranks) (Prediction, error) {
	idx, err := neighborhood(queryDist, len(p.values), r)
	if err != nil {
		return Prediction{}, err
	}
	w, err := krigingWeights(p.train, queryDist, idx, p.variogram)
	if err != nil {
		return Prediction{Neighbors: idx}, eris.Wrapf(err, "kriging neighbors %v", idx)
	}
	var value float64
	for k, i := range idx {
		value += w[k] * p.values[i]
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Prediction{Neighbors: idx}, eris.Wrapf(ErrNumerical, "kriging neighbors %v", idx)
	}
	return Prediction{Value: value, Neighbors: idx, Weights: w}, nil
}
