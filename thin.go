package kriging

import (
	"math"

	vec3d "github.com/flywave/go3d/float64/vec3"
)

type voxel struct {
	sum vec3d.T
	num int
}

func mulFloat(vec *vec3d.T, v float64) *vec3d.T {
	vec[0] *= v
	vec[1] *= v
	vec[2] *= v
	return vec
}

// Thin merges samples that share a lon/lat cell of the given size in degrees
// into one sample at their mean position with their mean value. A cell size
// of zero merges only exactly coincident samples. Output order follows the
// first sample of each cell.
func Thin(samples *SampleSet, cell float64) (*SampleSet, error) {
	if cell < 0 || math.IsNaN(cell) || math.IsInf(cell, 0) {
		return nil, inputErrorf("thinning cell size %v", cell)
	}
	pos := samples.Positions()

	var minLon, minLat = math.Inf(1), math.Inf(1)
	for i := range pos {
		minLon = math.Min(minLon, pos[i][0])
		minLat = math.Min(minLat, pos[i][1])
	}

	key := func(p vec3d.T) [2]float64 {
		if cell == 0 {
			return [2]float64{p[0], p[1]}
		}
		return [2]float64{math.Floor((p[0] - minLon) / cell), math.Floor((p[1] - minLat) / cell)}
	}

	index := make(map[[2]float64]int, len(pos))
	voxels := make([]voxel, 0, len(pos))
	for i := range pos {
		k := key(pos[i])
		n, ok := index[k]
		if !ok {
			n = len(voxels)
			index[k] = n
			voxels = append(voxels, voxel{})
		}
		voxels[n].sum.Add(&pos[i])
		voxels[n].num++
	}

	merged := make([]vec3d.T, len(voxels))
	for i := range voxels {
		v := &voxels[i]
		merged[i] = *mulFloat(&v.sum, 1.0/float64(v.num))
	}
	return NewSampleSetFromPositions(merged)
}
