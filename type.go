package kriging

import (
	"math"
)

type ModelType string

const (
	Gaussian    ModelType = "gaussian"
	Exponential ModelType = "exponential"
	Spherical   ModelType = "spherical"
)

// ModelTypes lists the supported variogram families in a stable order.
var ModelTypes = []ModelType{Spherical, Exponential, Gaussian}

// ParseModelType selects a variogram family by name.
func ParseModelType(name string) (ModelType, error) {
	for _, m := range ModelTypes {
		if string(m) == name {
			return m, nil
		}
	}
	return "", inputErrorf("unknown variogram model %q", name)
}

// Params are the nugget (a), partial sill (s) and range (r) of a variogram.
type Params struct {
	Nugget float64 `json:"nugget" yaml:"nugget"`
	Sill   float64 `json:"sill" yaml:"sill"`
	Range  float64 `json:"range" yaml:"range"`
}

func (p Params) vector() [3]float64 {
	return [3]float64{p.Nugget, p.Sill, p.Range}
}

func paramsFromVector(v [3]float64) Params {
	return Params{Nugget: v[0], Sill: v[1], Range: v[2]}
}

// Variogram is a model family bound to fitted parameters.
type Variogram struct {
	Model  ModelType `json:"model" yaml:"model"`
	Params Params    `json:"params" yaml:"params"`
}

func (v Variogram) Gamma(h float64) float64 {
	return v.Model.Evaluate(h, v.Params)
}

type Method string

const (
	MethodKNN     Method = "knn"
	MethodIDW     Method = "idw"
	MethodKriging Method = "kriging"
)

var Methods = []Method{MethodKNN, MethodIDW, MethodKriging}

func ParseMethod(name string) (Method, error) {
	for _, m := range Methods {
		if string(m) == name {
			return m, nil
		}
	}
	return "", inputErrorf("unknown prediction method %q", name)
}

// Lag is one bin of an empirical variogram. Gamma is NaN when no pair fell
// into the bin.
type Lag struct {
	H     float64 `json:"h" yaml:"h"`
	Gamma float64 `json:"gamma" yaml:"gamma"`
	Pairs int     `json:"pairs" yaml:"pairs"`
}

func (l Lag) Missing() bool {
	return l.Pairs == 0 || math.IsNaN(l.Gamma)
}

type EmpiricalVariogram []Lag

// Valid returns the lags that carry a semivariance.
func (ev EmpiricalVariogram) Valid() EmpiricalVariogram {
	ret := make(EmpiricalVariogram, 0, len(ev))
	for _, l := range ev {
		if !l.Missing() {
			ret = append(ret, l)
		}
	}
	return ret
}

// Prediction is a predicted value together with the neighborhood that
// produced it. Weights is nil for the unweighted mean.
type Prediction struct {
	Value     float64   `json:"value" yaml:"value"`
	Neighbors []int     `json:"neighbors" yaml:"neighbors"`
	Weights   []float64 `json:"weights,omitempty" yaml:"weights,omitempty"`
}

type rankedList []ranked

type ranked struct {
	dist  float64
	index int
}

func (t rankedList) Len() int {
	return len(t)
}

func (t rankedList) Less(i, j int) bool {
	return t[i].dist < t[j].dist
}

func (t rankedList) Swap(i, j int) {
	t[i], t[j] = t[j], t[i]
}
