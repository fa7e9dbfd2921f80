package dataset

import (
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"
)

// ReadGeoJSON reads a FeatureCollection of Point features carrying a numeric
// "value" property and an optional string "subset" property. Features of any
// other geometry are an error.
func ReadGeoJSON(r io.Reader) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "geojson: read")
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, eris.Wrap(err, "geojson: unmarshal")
	}

	d := &Dataset{}
	for i, f := range fc.Features {
		p, ok := f.Geometry.(orb.Point)
		if !ok {
			return nil, eris.Errorf("geojson: feature %d is a %T, not a point", i, f.Geometry)
		}
		value, ok := f.Properties["value"].(float64)
		if !ok {
			return nil, eris.Errorf("geojson: feature %d value %v is not a number", i, f.Properties["value"])
		}
		rec := Record{Point: p, Value: value}
		if subset, ok := f.Properties["subset"]; ok && subset != nil {
			if rec.Subset, ok = subset.(string); !ok {
				return nil, eris.Errorf("geojson: feature %d subset %v is not a string", i, subset)
			}
		}
		d.add(rec)
	}
	return d, nil
}
