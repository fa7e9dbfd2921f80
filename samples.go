package kriging

import (
	"math"

	vec3d "github.com/flywave/go3d/float64/vec3"
	"github.com/paulmach/orb"
)

// SampleSet is an index-stable sequence of (point, measurement) pairs. The
// index is the identity used by neighbor selection and every predictor, so a
// set never changes once built.
type SampleSet struct {
	points []orb.Point
	values []float64
}

// NewSampleSet copies points and values into a read-only set. Measurements
// must be finite.
func NewSampleSet(points []orb.Point, values []float64) (*SampleSet, error) {
	if len(points) == 0 {
		return nil, inputErrorf("empty sample set")
	}
	if len(points) != len(values) {
		return nil, inputErrorf("%d points but %d measurements", len(points), len(values))
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, inputErrorf("measurement %d is %v", i, v)
		}
	}
	for i, p := range points {
		if math.Abs(p.Lat()) > 90 || math.Abs(p.Lon()) > 180 {
			return nil, inputErrorf("point %d (%v) is not a lon/lat coordinate", i, p)
		}
	}
	s := &SampleSet{
		points: make([]orb.Point, len(points)),
		values: make([]float64, len(values)),
	}
	copy(s.points, points)
	copy(s.values, values)
	return s, nil
}

// NewSampleSetFromPositions builds a set from (lon, lat, value) triples.
func NewSampleSetFromPositions(pos []vec3d.T) (*SampleSet, error) {
	points := make([]orb.Point, len(pos))
	values := make([]float64, len(pos))
	for i := range pos {
		points[i] = orb.Point{pos[i][0], pos[i][1]}
		values[i] = pos[i][2]
	}
	return NewSampleSet(points, values)
}

func (s *SampleSet) Len() int {
	return len(s.points)
}

func (s *SampleSet) Point(i int) orb.Point {
	return s.points[i]
}

func (s *SampleSet) Value(i int) float64 {
	return s.values[i]
}

// Points returns a copy of the sample locations.
func (s *SampleSet) Points() []orb.Point {
	ret := make([]orb.Point, len(s.points))
	copy(ret, s.points)
	return ret
}

// Values returns a copy of the measurements.
func (s *SampleSet) Values() []float64 {
	ret := make([]float64, len(s.values))
	copy(ret, s.values)
	return ret
}

// Positions returns the set as (lon, lat, value) triples.
func (s *SampleSet) Positions() []vec3d.T {
	ret := make([]vec3d.T, len(s.points))
	for i := range s.points {
		ret[i] = vec3d.T{s.points[i][0], s.points[i][1], s.values[i]}
	}
	return ret
}

// Subset returns the samples at the given indices, in that order.
func (s *SampleSet) Subset(indices []int) (*SampleSet, error) {
	points := make([]orb.Point, 0, len(indices))
	values := make([]float64, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(s.points) {
			return nil, inputErrorf("subset index %d out of range [0,%d)", i, len(s.points))
		}
		points = append(points, s.points[i])
		values = append(values, s.values[i])
	}
	return NewSampleSet(points, values)
}
