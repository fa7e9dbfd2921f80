// Package kriging estimates a spatially distributed measurement at
// unobserved locations from geolocated samples, and compares nearest-neighbor
// averaging, inverse-distance weighting and ordinary Kriging by leave-one-out
// cross-validation.
package kriging

// VariogramFunc is a theoretical semivariance curve γ(h) for nugget a,
// partial sill s and range r.
type VariogramFunc func(h, a, s, r float64) float64

func krigingSpherical(h, a, s, r float64) float64 {
	if h == 0 {
		return 0
	}
	if h > r {
		return a + s
	}
	x := h / r
	return a + s*(1.5*x-0.5*pow3(x))
}

func krigingExponential(h, a, s, r float64) float64 {
	if h == 0 {
		return 0
	}
	return a + s*(1.0-exp(-h/r))
}

// krigingGaussian decays with the nugget, not the range, in its exponent.
// Fitted gaussian parameters depend on this form; do not swap in r.
func krigingGaussian(h, a, s, r float64) float64 {
	if h == 0 {
		return 0
	}
	return a + s*(1.0-exp(-pow2(h/a)))
}

// Func returns the semivariance curve of the model family, or nil for an
// unknown tag.
func (m ModelType) Func() VariogramFunc {
	switch m {
	case Spherical:
		return krigingSpherical
	case Exponential:
		return krigingExponential
	case Gaussian:
		return krigingGaussian
	}
	return nil
}

// Evaluate returns γ(h) under parameters p. γ(0) is 0 for every family; the
// nugget shows up as the jump to a for h > 0.
func (m ModelType) Evaluate(h float64, p Params) float64 {
	f := m.Func()
	if f == nil {
		panic("kriging: unknown variogram model " + string(m))
	}
	return f(h, p.Nugget, p.Sill, p.Range)
}

func (m ModelType) Valid() bool {
	return m.Func() != nil
}
