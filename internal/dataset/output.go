package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"

	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"

	kriging "github.com/flywave/go-kriging-cv"
)

// GridPrediction is the outcome of predicting the unmasked cells of a grid.
// Results[i] belongs to grid cell Index[i].
type GridPrediction struct {
	Subset  string
	Method  kriging.Method
	Grid    *kriging.Grid
	Index   []int
	Results []kriging.Result
}

// Values returns one value per grid cell, NaN for masked or skipped cells.
func (p *GridPrediction) Values() []float64 {
	ret := make([]float64, len(p.Grid.Points))
	for i := range ret {
		ret[i] = math.NaN()
	}
	for i, r := range p.Results {
		if r.OK() {
			ret[p.Index[i]] = r.Value
		}
	}
	return ret
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV writes lon,lat,row,col,value for every cell; masked and skipped
// cells have an empty value.
func WriteCSV(w io.Writer, p *GridPrediction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"lon", "lat", "row", "col", "value"}); err != nil {
		return eris.Wrap(err, "csv: write header")
	}
	values := p.Values()
	for i, pt := range p.Grid.Points {
		row := []string{
			strconv.FormatFloat(pt.Lon(), 'f', -1, 64),
			strconv.FormatFloat(pt.Lat(), 'f', -1, 64),
			strconv.Itoa(i / p.Grid.Width),
			strconv.Itoa(i % p.Grid.Width),
			formatValue(values[i]),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "csv: write row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "csv: flush")
}

// WriteGeoJSON writes one Point feature per predicted cell. Skipped cells
// carry a null value and the failure message.
func WriteGeoJSON(w io.Writer, p *GridPrediction) error {
	fc := geojson.NewFeatureCollection()
	for i, r := range p.Results {
		cell := p.Index[i]
		f := geojson.NewFeature(p.Grid.Points[cell])
		f.Properties["subset"] = p.Subset
		f.Properties["method"] = string(p.Method)
		f.Properties["row"] = cell / p.Grid.Width
		f.Properties["col"] = cell % p.Grid.Width
		if r.OK() {
			f.Properties["value"] = r.Value
		} else {
			f.Properties["value"] = nil
			f.Properties["error"] = r.Err.Error()
		}
		if r.Fallback {
			f.Properties["fallback"] = true
		}
		fc.Append(f)
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return eris.Wrap(err, "geojson: marshal")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "geojson: write")
	}
	return nil
}
