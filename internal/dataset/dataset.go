// Package dataset loads measurement samples from CSV or GeoJSON and writes
// prediction grids back out.
package dataset

import (
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"

	kriging "github.com/flywave/go-kriging-cv"
)

// AllSubsets names the aggregate of every record.
const AllSubsets = "all"

// Record is one measurement with an optional subset label such as urban or
// rural.
type Record struct {
	Point  orb.Point
	Value  float64
	Subset string
}

// Dataset is a cleaned set of records.
type Dataset struct {
	Records []Record
	// Dropped counts the rows whose value was zero or non-finite. Upstream
	// uses zero to mark a measurement as excluded.
	Dropped int
}

func (d *Dataset) add(r Record) {
	if r.Value == 0 || math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
		d.Dropped++
		return
	}
	d.Records = append(d.Records, r)
}

// Load reads path, choosing the format by extension.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return ReadCSV(f)
	case ".geojson", ".json":
		return ReadGeoJSON(f)
	default:
		return nil, eris.Errorf("dataset: unsupported file extension %q", ext)
	}
}

// Subsets returns the distinct subset labels in lexical order.
func (d *Dataset) Subsets() []string {
	seen := make(map[string]struct{})
	for _, r := range d.Records {
		if r.Subset != "" {
			seen[r.Subset] = struct{}{}
		}
	}
	ret := make([]string, 0, len(seen))
	for s := range seen {
		ret = append(ret, s)
	}
	sort.Strings(ret)
	return ret
}

// Groups returns AllSubsets followed by every labeled subset, the order in
// which subsets are analyzed.
func (d *Dataset) Groups() []string {
	return append([]string{AllSubsets}, d.Subsets()...)
}

// Samples builds the sample set of one subset, or of every record for
// AllSubsets.
func (d *Dataset) Samples(subset string) (*kriging.SampleSet, error) {
	var points []orb.Point
	var values []float64
	for _, r := range d.Records {
		if subset != AllSubsets && r.Subset != subset {
			continue
		}
		points = append(points, r.Point)
		values = append(values, r.Value)
	}
	if len(points) == 0 {
		return nil, eris.Errorf("dataset: subset %q has no samples", subset)
	}
	s, err := kriging.NewSampleSet(points, values)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: subset %q", subset)
	}
	return s, nil
}
