package kriging

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineSymmetric(t *testing.T) {
	points := []orb.Point{
		{-97.7431, 30.2672},
		{-96.7970, 32.7767},
		{0, 0},
		{179.5, -45},
		{-179.5, -45},
		{12.5, 89.9},
		{-0.0001, 0.0001},
	}
	for _, p := range points {
		assert.Equal(t, 0.0, Haversine(p, p))
		for _, q := range points {
			assert.Equal(t, Haversine(p, q), Haversine(q, p), "%v %v", p, q)
			assert.GreaterOrEqual(t, Haversine(p, q), 0.0)
		}
	}
}

func TestHaversineKnownDistances(t *testing.T) {
	// Austin to Dallas
	assert.InDelta(t, 182.12, Haversine(orb.Point{-97.7431, 30.2672}, orb.Point{-96.7970, 32.7767}), 0.01)
	// one degree of longitude on the equator
	assert.InDelta(t, 2*math.Pi*EarthRadiusMiles/360, Haversine(orb.Point{0, 0}, orb.Point{1, 0}), 1e-9)
	// antipodes
	assert.InDelta(t, math.Pi*EarthRadiusMiles, Haversine(orb.Point{0, 0}, orb.Point{180, 0}), 1e-6)
}

func TestDistances(t *testing.T) {
	a := assert.New(t)

	points := []orb.Point{{0, 0}, {1, 0}, {2, 0}, {0.5, 1}}
	d := Distances(points, points)
	rows, cols := d.Dims()
	a.Equal(4, rows)
	a.Equal(4, cols)
	for i := range points {
		a.Equal(0.0, d.At(i, i))
		for j := range points {
			a.Equal(d.At(i, j), d.At(j, i))
		}
	}
	a.Equal(d.At(0, 1), d.At(1, 2))

	pairwise := PairwiseDistances(points)
	for i := range points {
		a.Equal(d.Row(i), pairwise.Row(i))
	}

	targets := []orb.Point{{0.25, 0.25}}
	q := Distances(targets, points)
	rows, cols = q.Dims()
	a.Equal(1, rows)
	a.Equal(4, cols)
	a.InDelta(Haversine(targets[0], points[3]), q.At(0, 3), 0)
}

func TestDistancesEmpty(t *testing.T) {
	d := Distances(nil, []orb.Point{{0, 0}})
	rows, cols := d.Dims()
	assert.Equal(t, 0, rows)
	assert.Equal(t, 1, cols)
	assert.True(t, d.Empty())

	assert.True(t, PairwiseDistances(nil).Empty())
}

func TestNewDistanceMatrix(t *testing.T) {
	_, err := NewDistanceMatrix(2, 2, []float64{0, 1, 1})
	require.ErrorIs(t, err, ErrInput)

	_, err = NewDistanceMatrix(1, 2, []float64{0, -1})
	require.ErrorIs(t, err, ErrInput)

	m, err := NewDistanceMatrix(2, 2, []float64{0, 3, 3, 0})
	require.NoError(t, err)
	assert.Equal(t, 3.0, m.At(1, 0))
	assert.True(t, m.Square())
}
