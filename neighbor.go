package kriging

import (
	"sort"
)

// Ranks selects a neighborhood by position in the ascending distance order,
// 1-based and inclusive.
type Ranks struct {
	First int `json:"first" yaml:"first"`
	Last  int `json:"last" yaml:"last"`
}

// SelfExcluded is the neighborhood of size k that skips rank 1.
//
// Rank 1 is dropped whenever the query may coincide with a sample, so that a
// sample never predicts itself through its own zero-distance entry. The same
// ranks are used for fresh locations that are not samples; there the
// convention discards the single closest genuine neighbor. Use Nearest when
// the caller knows the query is not a sample.
func SelfExcluded(k int) Ranks {
	return Ranks{First: 2, Last: k + 1}
}

// Nearest is the neighborhood of the k closest samples, rank 1 included.
func Nearest(k int) Ranks {
	return Ranks{First: 1, Last: k}
}

func (r Ranks) Size() int {
	return r.Last - r.First + 1
}

func (r Ranks) validate(n int) error {
	if r.First < 1 || r.Last < r.First || r.Last > n {
		return inputErrorf("neighbor ranks %d..%d outside 1..%d", r.First, r.Last, n)
	}
	return nil
}

// SelectNeighbors sorts sample indices by their distance in dist (ties keep
// index order) and returns the indices at ranks r.
func SelectNeighbors(dist []float64, r Ranks) ([]int, error) {
	if err := r.validate(len(dist)); err != nil {
		return nil, err
	}
	list := make(rankedList, len(dist))
	for i, d := range dist {
		list[i] = ranked{dist: d, index: i}
	}
	sort.Stable(list)

	ret := make([]int, 0, r.Size())
	for _, e := range list[r.First-1 : r.Last] {
		ret = append(ret, e.index)
	}
	return ret, nil
}
