package kriging

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrossValidateKNN(t *testing.T) {
	points := []orb.Point{{0, 0}, {1, 0}, {3, 0}, {6, 0}}
	values := []float64{2, 4, 8, 16}
	train := PairwiseDistances(points)

	p, err := NewPredictor(MethodKNN, train, values, nil)
	require.NoError(t, err)

	res, err := CrossValidate(context.Background(), train, values, []int{1, 2, 3}, p, BatchOptions{})
	require.NoError(t, err)

	assert.Equal(t, MethodKNN, res.Method)
	require.Len(t, res.Scores, 3)
	assert.Equal(t, 1, res.Scores[0].K)
	assert.InDelta(t, 22, res.Scores[0].MSE, 1e-12)
	assert.InDelta(t, 35.5, res.Scores[1].MSE, 1e-12)
	assert.InDelta(t, 460.0/9, res.Scores[2].MSE, 1e-9)
	assert.Equal(t, 1, res.BestK)
	assert.InDelta(t, 22, res.BestMSE, 1e-12)
}

func TestCrossValidateTieGoesToSmallerK(t *testing.T) {
	train, values := equatorSamples(t, 7, 7, 7, 7, 7)

	p, err := NewPredictor(MethodKNN, train, values, nil)
	require.NoError(t, err)

	res, err := CrossValidate(context.Background(), train, values, []int{4, 2, 3}, p, BatchOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.BestK)
	assert.Equal(t, 0.0, res.BestMSE)
}

func TestCrossValidateWorkersAgree(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	points, values := randomSamples(rnd, 30)
	train := PairwiseDistances(points)
	vg := &Variogram{Model: Spherical, Params: Params{Nugget: 5, Sill: 800, Range: 60}}

	var predictors []Predictor
	for _, m := range Methods {
		p, err := NewPredictor(m, train, values, vg)
		require.NoError(t, err)
		predictors = append(predictors, p)
	}
	sizes := []int{1, 2, 3, 5, 8, 13}

	serial, err := CompareMethods(context.Background(), train, values, sizes, predictors, BatchOptions{Workers: 1})
	require.NoError(t, err)
	parallel, err := CompareMethods(context.Background(), train, values, sizes, predictors, BatchOptions{Workers: 8})
	require.NoError(t, err)
	assert.Equal(t, serial, parallel)

	require.Len(t, serial, len(Methods))
	for i, res := range serial {
		assert.Equal(t, Methods[i], res.Method)
		require.Len(t, res.Scores, len(sizes))
		for _, s := range res.Scores {
			assert.GreaterOrEqual(t, s.MSE, res.BestMSE)
		}
	}
}

// duplicateSamples puts samples 1 and 2 on the same spot, so the Kriging
// systems of samples 0 and 3 at k=2 are singular.
func duplicateSamples(t *testing.T) (*DistanceMatrix, []float64, Predictor) {
	t.Helper()
	train := PairwiseDistances([]orb.Point{{0, 0}, {1, 1}, {1, 1}, {2, 0}})
	values := []float64{1, 2, 3, 4}
	vg := &Variogram{Model: Spherical, Params: Params{Nugget: 0, Sill: 1, Range: 500}}
	p, err := NewPredictor(MethodKriging, train, values, vg)
	require.NoError(t, err)
	return train, values, p
}

func TestCrossValidateAbort(t *testing.T) {
	train, values, p := duplicateSamples(t)

	_, err := CrossValidate(context.Background(), train, values, []int{1, 2}, p, BatchOptions{Workers: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNumerical)

	var qerr *QueryError
	require.True(t, errors.As(err, &qerr))
	assert.Equal(t, 0, qerr.Query)
	assert.ElementsMatch(t, []int{1, 2}, qerr.Neighbors)
}

func TestCrossValidateSkip(t *testing.T) {
	train, values, p := duplicateSamples(t)

	res, err := CrossValidate(context.Background(), train, values, []int{1, 2}, p, BatchOptions{OnError: PolicySkip})
	require.NoError(t, err)
	require.Len(t, res.Scores, 2)
	assert.Equal(t, 0, res.Scores[0].Skipped)
	assert.Equal(t, 2, res.Scores[1].Skipped)
	assert.False(t, math.IsNaN(res.Scores[1].MSE))
}

func TestCrossValidateFallback(t *testing.T) {
	train, values, p := duplicateSamples(t)
	idw, err := NewPredictor(MethodIDW, train, values, nil)
	require.NoError(t, err)

	_, err = CrossValidate(context.Background(), train, values, []int{2}, p, BatchOptions{OnError: PolicyFallback})
	assert.ErrorIs(t, err, ErrInput)

	res, err := CrossValidate(context.Background(), train, values, []int{1, 2}, p, BatchOptions{OnError: PolicyFallback, Fallback: idw})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Scores[0].Fallbacks)
	assert.Equal(t, 2, res.Scores[1].Fallbacks)
	assert.Equal(t, 0, res.Scores[1].Skipped)
}

func TestCrossValidateCanceled(t *testing.T) {
	train, values := equatorSamples(t, 1, 2, 3, 4)
	p, err := NewPredictor(MethodKNN, train, values, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = CrossValidate(ctx, train, values, []int{1}, p, BatchOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCrossValidateInputErrors(t *testing.T) {
	train, values := equatorSamples(t, 1, 2, 3, 4)
	p, err := NewPredictor(MethodKNN, train, values, nil)
	require.NoError(t, err)
	ctx := context.Background()

	for _, sizes := range [][]int{nil, {0}, {4}, {1, 2, 5}} {
		_, err := CrossValidate(ctx, train, values, sizes, p, BatchOptions{})
		assert.ErrorIs(t, err, ErrInput, "%v", sizes)
	}
	_, err = CrossValidate(ctx, train, values[:3], []int{1}, p, BatchOptions{})
	assert.ErrorIs(t, err, ErrInput)
	_, err = CrossValidate(ctx, train, values, []int{1}, p, BatchOptions{OnError: "retry"})
	assert.ErrorIs(t, err, ErrInput)
}

func TestCrossValidateForeignPredictor(t *testing.T) {
	train, values := equatorSamples(t, 1, 2, 3, 4)
	ctx := context.Background()

	// same size, other measurements.
	other, err := NewPredictor(MethodKNN, train, []float64{4, 3, 2, 1}, nil)
	require.NoError(t, err)
	_, err = CrossValidate(ctx, train, values, []int{1}, other, BatchOptions{})
	assert.ErrorIs(t, err, ErrInput)

	// same size and measurements, other locations.
	moved := PairwiseDistances([]orb.Point{{0, 0}, {0, 1}, {0, 2}, {0, 3}})
	other, err = NewPredictor(MethodIDW, moved, values, nil)
	require.NoError(t, err)
	_, err = CrossValidate(ctx, train, values, []int{1}, other, BatchOptions{})
	assert.ErrorIs(t, err, ErrInput)

	// an equal copy of the training set is accepted.
	copied := PairwiseDistances([]orb.Point{{0, 0}, {1, 0}, {2, 0}, {3, 0}})
	p, err := NewPredictor(MethodKNN, copied, append([]float64(nil), values...), nil)
	require.NoError(t, err)
	_, err = CrossValidate(ctx, train, values, []int{1}, p, BatchOptions{})
	assert.NoError(t, err)

	_, err = CrossValidate(ctx, train, values, []int{1}, p, BatchOptions{OnError: PolicyFallback, Fallback: other})
	assert.ErrorIs(t, err, ErrInput)
}

func TestParseFailurePolicy(t *testing.T) {
	for _, name := range []string{"abort", "skip", "fallback"} {
		got, err := ParseFailurePolicy(name)
		require.NoError(t, err)
		assert.Equal(t, FailurePolicy(name), got)
	}
	got, err := ParseFailurePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyAbort, got)
	_, err = ParseFailurePolicy("retry")
	assert.ErrorIs(t, err, ErrInput)
}
