package kriging

import (
	"math"
)

// cressieHawkins scales the squared median absolute difference toward an
// unbiased variance estimate under Gaussian differences.
const cressieHawkins = 2.198

// MaxBins bounds the number of lag bins of one variogram.
const MaxBins = 10000

// Bins describes the lag bins of an empirical variogram: centers at Radius,
// Radius+Step, ... strictly below Max, each collecting pairs whose distance
// lies in (h-Radius, h+Radius).
type Bins struct {
	Radius float64 `json:"radius" yaml:"radius"`
	Step   float64 `json:"step" yaml:"step"`
	Max    float64 `json:"max" yaml:"max"`
}

// count is the number of bin centers, possibly +Inf or NaN for bins that
// do not validate.
func (b Bins) count() float64 {
	if !(b.Step > 0) || !(b.Max > b.Radius) {
		return 0
	}
	return math.Ceil((b.Max - b.Radius) / b.Step)
}

// Centers returns the lag of every bin, or nil when there would be more
// than MaxBins.
func (b Bins) Centers() []float64 {
	n := b.count()
	if !(n <= MaxBins) {
		return nil
	}
	ret := make([]float64, 0, int(n))
	for i := 0; i < int(n); i++ {
		h := b.Radius + float64(i)*b.Step
		if h >= b.Max {
			break
		}
		ret = append(ret, h)
	}
	return ret
}

func (b Bins) validate() error {
	if !(b.Radius > 0) || !(b.Step > 0) || math.IsInf(b.Max, 0) || math.IsNaN(b.Max) || math.IsInf(b.Radius, 0) {
		return inputErrorf("variogram bins radius=%v step=%v max=%v", b.Radius, b.Step, b.Max)
	}
	if b.Radius+b.Step == b.Radius {
		return inputErrorf("variogram bin step %v vanishes next to radius %v", b.Step, b.Radius)
	}
	if n := b.count(); n > MaxBins {
		return inputErrorf("variogram bins radius=%v step=%v max=%v give %.0f lags, more than %d", b.Radius, b.Step, b.Max, n, MaxBins)
	}
	return nil
}

// EstimateVariogram computes the robust (Cressie-Hawkins) empirical
// semivariogram of values over the N×N sample distance matrix d. Every
// ordered pair (i, j) is visited, so symmetric pairs are counted twice. Bins
// without pairs are returned as missing rather than dropped.
func EstimateVariogram(d *DistanceMatrix, values []float64, bins Bins) (EmpiricalVariogram, error) {
	if err := bins.validate(); err != nil {
		return nil, err
	}
	if d.Empty() || !d.Square() {
		r, c := d.Dims()
		return nil, inputErrorf("variogram needs a square sample distance matrix, got %dx%d", r, c)
	}
	n, _ := d.Dims()
	if len(values) != n {
		return nil, inputErrorf("%d measurements for %d samples", len(values), n)
	}

	centers := bins.Centers()
	ev := make(EmpiricalVariogram, len(centers))
	diffs := make([]float64, 0, n)
	for b, h := range centers {
		lo, hi := h-bins.Radius, h+bins.Radius
		diffs = diffs[:0]
		for i := 0; i < n; i++ {
			row := d.Row(i)
			for j := 0; j < n; j++ {
				if row[j] > lo && row[j] < hi {
					diffs = append(diffs, math.Abs(values[i]-values[j]))
				}
			}
		}
		ev[b] = Lag{H: h, Gamma: math.NaN(), Pairs: len(diffs)}
		if len(diffs) > 0 {
			ev[b].Gamma = semivariance(diffs)
		}
	}
	return ev, nil
}

// semivariance reorders diffs.
func semivariance(diffs []float64) float64 {
	return 0.5 * cressieHawkins * pow2(median(diffs))
}
