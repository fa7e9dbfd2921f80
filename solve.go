package kriging

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// krigingWeights solves the ordinary-Kriging system for the neighbors idx of
// a query:
//
//	w = C⁻¹b − C⁻¹1·(1ᵗC⁻¹b)/(1ᵗC⁻¹1) + C⁻¹1/(1ᵗC⁻¹1)
//
// with C[i,j] = −γ(d(idx[i], idx[j])) and b[i] = −γ(d(query, idx[i])). C⁻¹b
// and C⁻¹1 come from one LU factorization; C is never inverted. The weights
// sum to one.
func krigingWeights(train *DistanceMatrix, queryDist []float64, idx []int, vg Variogram) ([]float64, error) {
	k := len(idx)
	if k == 1 {
		// the unbiasedness constraint alone fixes a single weight.
		return []float64{1}, nil
	}

	f := vg.Model.Func()
	a, s, r := vg.Params.Nugget, vg.Params.Sill, vg.Params.Range

	C := make([]float64, k*k)
	b := make([]float64, k)
	ones := make([]float64, k)
	for i := 0; i < k; i++ {
		for j := 0; j < i; j++ {
			C[i*k+j] = -f(train.At(idx[i], idx[j]), a, s, r)
			C[j*k+i] = C[i*k+j]
		}
		C[i*k+i] = -f(0, a, s, r)
		b[i] = -f(queryDist[idx[i]], a, s, r)
		ones[i] = 1
	}

	var lu mat.LU
	lu.Factorize(mat.NewDense(k, k, C))
	if cond := lu.Cond(); math.IsInf(cond, 0) || math.IsNaN(cond) || cond > mat.ConditionTolerance {
		return nil, ErrNumerical
	}

	var x, y mat.VecDense
	if err := lu.SolveVecTo(&x, false, mat.NewVecDense(k, b)); err != nil {
		return nil, ErrNumerical
	}
	if err := lu.SolveVecTo(&y, false, mat.NewVecDense(k, ones)); err != nil {
		return nil, ErrNumerical
	}

	var sumX, sumY float64
	for i := 0; i < k; i++ {
		sumX += x.AtVec(i)
		sumY += y.AtVec(i)
	}
	if sumY == 0 || math.IsNaN(sumY) || math.IsInf(sumY, 0) {
		return nil, ErrNumerical
	}

	w := make([]float64, k)
	for i := 0; i < k; i++ {
		w[i] = x.AtVec(i) - y.AtVec(i)*sumX/sumY + y.AtVec(i)/sumY
		if math.IsNaN(w[i]) || math.IsInf(w[i], 0) {
			return nil, ErrNumerical
		}
	}
	return w, nil
}
