package kriging

import (
	"math/rand"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func equatorSamples(t *testing.T, values ...float64) (*DistanceMatrix, []float64) {
	t.Helper()
	points := make([]orb.Point, len(values))
	for i := range values {
		points[i] = orb.Point{float64(i), 0}
	}
	return PairwiseDistances(points), values
}

func TestKNNExcludesSelf(t *testing.T) {
	train, values := equatorSamples(t, 0, 1, 2, 3, 1000)

	p, err := NewPredictor(MethodKNN, train, values, nil)
	require.NoError(t, err)
	assert.Equal(t, MethodKNN, p.Method())

	// the two neighbors of lon 2 are lon 1 and lon 3.
	pred, err := p.Predict(train.Row(2), SelfExcluded(2))
	require.NoError(t, err)
	assert.Equal(t, 2.0, pred.Value)
	assert.ElementsMatch(t, []int{1, 3}, pred.Neighbors)
	assert.Nil(t, pred.Weights)

	pred, err = p.Predict(train.Row(0), SelfExcluded(1))
	require.NoError(t, err)
	assert.Equal(t, 1.0, pred.Value)
	assert.Equal(t, []int{1}, pred.Neighbors)
}

func TestIDW(t *testing.T) {
	train, values := equatorSamples(t, 0, 10, 40)

	p, err := NewPredictor(MethodIDW, train, values, nil)
	require.NoError(t, err)

	// from lon 0, the neighbors are one and two degrees away.
	pred, err := p.Predict(train.Row(0), SelfExcluded(2))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, pred.Neighbors)
	assert.InDelta(t, 2.0/3, pred.Weights[0], 1e-9)
	assert.InDelta(t, 1.0/3, pred.Weights[1], 1e-9)
	assert.InDelta(t, 2.0/3*10+1.0/3*40, pred.Value, 1e-9)

	// rank 1 included: the query is sample 0 itself.
	pred, err = p.Predict(train.Row(0), Nearest(2))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, pred.Neighbors)
	assert.Equal(t, []float64{1, 0}, pred.Weights)
	assert.Equal(t, 0.0, pred.Value)
}

func TestIDWCoincidentSamples(t *testing.T) {
	points := []orb.Point{{0, 0}, {1, 1}, {1, 1}, {2, 0}}
	values := []float64{1, 2, 4, 8}
	p, err := NewPredictor(MethodIDW, PairwiseDistances(points), values, nil)
	require.NoError(t, err)

	query := Distances([]orb.Point{{1, 1}}, points).Row(0)
	pred, err := p.Predict(query, Nearest(3))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 0}, pred.Neighbors)
	assert.Equal(t, []float64{0.5, 0.5, 0}, pred.Weights)
	assert.Equal(t, 3.0, pred.Value)

	// self-excluded, sample 1 still finds its twin at distance zero.
	_, err = p.Predict(query, SelfExcluded(2))
	assert.ErrorIs(t, err, ErrInput)
}

func TestKrigingWeightsSumToOne(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		points, values := randomSamples(rnd, 12)
		train := PairwiseDistances(points)
		vg := &Variogram{
			Model: ModelTypes[trial%len(ModelTypes)],
			Params: Params{
				Nugget: 0.1 + rnd.Float64(),
				Sill:   0.5 + 5*rnd.Float64(),
				Range:  50 + 200*rnd.Float64(),
			},
		}
		p, err := NewPredictor(MethodKriging, train, values, vg)
		require.NoError(t, err)

		query := orb.Point{-97 + rnd.Float64(), 30 + rnd.Float64()}
		dist := Distances([]orb.Point{query}, points).Row(0)
		for _, k := range []int{2, 5, 11} {
			pred, err := p.Predict(dist, SelfExcluded(k))
			require.NoError(t, err)
			require.Len(t, pred.Weights, k)

			var sum float64
			for _, w := range pred.Weights {
				sum += w
			}
			assert.InDelta(t, 1, sum, 1e-9, "trial %d k %d", trial, k)
		}
	}
}

func TestKrigingSymmetricWeights(t *testing.T) {
	// three equidistant points on the equator, predicting the middle one.
	train, values := equatorSamples(t, 5, 5, 5)
	vg := &Variogram{Model: Exponential, Params: Params{Nugget: 0.2, Sill: 2, Range: 300}}

	p, err := NewPredictor(MethodKriging, train, values, vg)
	require.NoError(t, err)

	pred, err := p.Predict(train.Row(1), SelfExcluded(2))
	require.NoError(t, err)
	require.Len(t, pred.Weights, 2)
	assert.InDelta(t, 0.5, pred.Weights[0], 1e-9)
	assert.InDelta(t, 0.5, pred.Weights[1], 1e-9)
	assert.InDelta(t, 5, pred.Value, 1e-9)
}

func TestKrigingSingleNeighbor(t *testing.T) {
	train, values := equatorSamples(t, 3, 7, 11)
	vg := &Variogram{Model: Spherical, Params: Params{Nugget: 1, Sill: 1, Range: 100}}

	p, err := NewPredictor(MethodKriging, train, values, vg)
	require.NoError(t, err)

	pred, err := p.Predict(train.Row(0), SelfExcluded(1))
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, pred.Weights)
	assert.Equal(t, 7.0, pred.Value)
}

func TestKrigingDuplicateLocations(t *testing.T) {
	points := []orb.Point{{0, 0}, {1, 1}, {1, 1}, {2, 0}}
	train := PairwiseDistances(points)
	vg := &Variogram{Model: Spherical, Params: Params{Nugget: 0, Sill: 1, Range: 500}}

	p, err := NewPredictor(MethodKriging, train, []float64{1, 2, 3, 4}, vg)
	require.NoError(t, err)

	query := Distances([]orb.Point{{1, 0.9}}, points).Row(0)
	pred, err := p.Predict(query, Nearest(2))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNumerical)
	assert.ElementsMatch(t, []int{1, 2}, pred.Neighbors)
}

func TestNewPredictorErrors(t *testing.T) {
	train, values := equatorSamples(t, 1, 2, 3)

	_, err := NewPredictor(MethodKNN, train, values[:2], nil)
	assert.ErrorIs(t, err, ErrInput)

	rect, err := NewDistanceMatrix(1, 3, []float64{1, 2, 3})
	require.NoError(t, err)
	_, err = NewPredictor(MethodKNN, rect, values[:1], nil)
	assert.ErrorIs(t, err, ErrInput)

	_, err = NewPredictor(MethodKNN, PairwiseDistances(nil), nil, nil)
	assert.ErrorIs(t, err, ErrInput)

	_, err = NewPredictor(MethodKriging, train, values, nil)
	assert.ErrorIs(t, err, ErrInput)

	_, err = NewPredictor(Method("spline"), train, values, nil)
	assert.ErrorIs(t, err, ErrInput)

	p, err := NewPredictor(MethodKNN, train, values, nil)
	require.NoError(t, err)
	_, err = p.Predict([]float64{1, 2}, Nearest(1))
	assert.ErrorIs(t, err, ErrInput)
}

func TestParseMethod(t *testing.T) {
	for _, m := range Methods {
		got, err := ParseMethod(string(m))
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseMethod("nearest")
	assert.ErrorIs(t, err, ErrInput)
}
