package kriging

import (
	"math"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/floats"
)

// EarthRadiusMiles is the mean Earth radius in statute miles.
const EarthRadiusMiles = 3958.8

// Haversine returns the great-circle distance between p and q in statute
// miles. Points are (longitude, latitude) in degrees.
func Haversine(p, q orb.Point) float64 {
	lat1 := degToRad(p.Lat())
	lat2 := degToRad(q.Lat())
	dLat := degToRad(q.Lat() - p.Lat())
	dLon := degToRad(q.Lon() - p.Lon())

	a := pow2(math.Sin(dLat/2)) + math.Cos(lat1)*math.Cos(lat2)*pow2(math.Sin(dLon/2))
	if a > 1 {
		a = 1
	}
	return 2 * EarthRadiusMiles * math.Asin(math.Sqrt(a))
}

// DistanceMatrix holds great-circle distances between a target set (rows)
// and a sample set (columns), row-major.
type DistanceMatrix struct {
	rows, cols int
	data       []float64
}

// Distances builds the M×N haversine matrix between targets and samples.
// Empty inputs give an empty matrix.
func Distances(targets, samples []orb.Point) *DistanceMatrix {
	m := &DistanceMatrix{rows: len(targets), cols: len(samples)}
	if m.rows == 0 || m.cols == 0 {
		return m
	}
	m.data = make([]float64, m.rows*m.cols)
	for i := range targets {
		row := m.data[i*m.cols : (i+1)*m.cols]
		for j := range samples {
			row[j] = Haversine(targets[i], samples[j])
		}
	}
	return m
}

// PairwiseDistances builds the symmetric N×N matrix of a point set, with an
// exact zero diagonal.
func PairwiseDistances(points []orb.Point) *DistanceMatrix {
	n := len(points)
	m := &DistanceMatrix{rows: n, cols: n}
	if n == 0 {
		return m
	}
	m.data = make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			d := Haversine(points[i], points[j])
			m.data[i*n+j] = d
			m.data[j*n+i] = d
		}
	}
	return m
}

// NewDistanceMatrix wraps row-major data. It is mostly useful for synthetic
// inputs in tests and for callers that computed distances elsewhere.
func NewDistanceMatrix(rows, cols int, data []float64) (*DistanceMatrix, error) {
	if rows < 0 || cols < 0 || len(data) != rows*cols {
		return nil, inputErrorf("distance matrix %dx%d with %d values", rows, cols, len(data))
	}
	for i, d := range data {
		if d < 0 || math.IsNaN(d) {
			return nil, inputErrorf("distance matrix entry %d is %v", i, d)
		}
	}
	return &DistanceMatrix{rows: rows, cols: cols, data: data}, nil
}

func (m *DistanceMatrix) Dims() (int, int) {
	return m.rows, m.cols
}

func (m *DistanceMatrix) At(i, j int) float64 {
	return m.data[i*m.cols+j]
}

// Row returns the distances from target i to every sample. The slice aliases
// the matrix and must not be modified.
func (m *DistanceMatrix) Row(i int) []float64 {
	return m.data[i*m.cols : (i+1)*m.cols : (i+1)*m.cols]
}

func (m *DistanceMatrix) equal(o *DistanceMatrix) bool {
	if m == nil || o == nil {
		return m == o
	}
	return m.rows == o.rows && m.cols == o.cols && floats.Equal(m.data, o.data)
}

func (m *DistanceMatrix) Empty() bool {
	return m.rows == 0 || m.cols == 0
}

func (m *DistanceMatrix) Square() bool {
	return m.rows == m.cols
}
