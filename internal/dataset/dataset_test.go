package dataset

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	vec2d "github.com/flywave/go3d/float64/vec2"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kriging "github.com/flywave/go-kriging-cv"
)

func TestReadCSVWithHeader(t *testing.T) {
	in := `subset,value,latitude,longitude
urban,12.5,30.27,-97.74
rural,3,31.1,-98.2
# a comment line
urban,0,30.3,-97.7
rural,NaN,31.2,-98.1
`
	d, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)

	require.Len(t, d.Records, 2)
	assert.Equal(t, Record{Point: orb.Point{-97.74, 30.27}, Value: 12.5, Subset: "urban"}, d.Records[0])
	assert.Equal(t, Record{Point: orb.Point{-98.2, 31.1}, Value: 3, Subset: "rural"}, d.Records[1])
	assert.Equal(t, 2, d.Dropped)
	assert.Equal(t, []string{"rural", "urban"}, d.Subsets())
	assert.Equal(t, []string{AllSubsets, "rural", "urban"}, d.Groups())
}

func TestReadCSVWithoutHeader(t *testing.T) {
	in := "-97.74,30.27,12.5\n-98.2,31.1,3,rural\n"
	d, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)

	require.Len(t, d.Records, 2)
	assert.Equal(t, "", d.Records[0].Subset)
	assert.Equal(t, "rural", d.Records[1].Subset)
	assert.Empty(t, d.Dropped)
}

func TestReadCSVErrors(t *testing.T) {
	for name, in := range map[string]string{
		"short row":      "-97.74,30.27\n",
		"bad number":     "-97.74,north,1\n",
		"missing column": "lon,lat,subset\n-97.74,30.27,urban\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}

const featureCollection = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [-97.74, 30.27]}, "properties": {"value": 12.5, "subset": "urban"}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [-98.2, 31.1]}, "properties": {"value": 3}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [-98.3, 31.2]}, "properties": {"value": 0, "subset": "rural"}}
  ]
}`

func TestReadGeoJSON(t *testing.T) {
	d, err := ReadGeoJSON(strings.NewReader(featureCollection))
	require.NoError(t, err)

	require.Len(t, d.Records, 2)
	assert.Equal(t, Record{Point: orb.Point{-97.74, 30.27}, Value: 12.5, Subset: "urban"}, d.Records[0])
	assert.Equal(t, "", d.Records[1].Subset)
	assert.Equal(t, 1, d.Dropped)
}

func TestReadGeoJSONErrors(t *testing.T) {
	for name, in := range map[string]string{
		"not json":   "{",
		"line":       `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]},"properties":{"value":1}}]}`,
		"no value":   `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":[0,0]},"properties":{}}]}`,
		"bad value":  `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":[0,0]},"properties":{"value":"high"}}]}`,
		"bad subset": `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":[0,0]},"properties":{"value":1,"subset":7}}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ReadGeoJSON(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "samples.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("-97.74,30.27,12.5\n"), 0644))
	geoPath := filepath.Join(dir, "samples.geojson")
	require.NoError(t, os.WriteFile(geoPath, []byte(featureCollection), 0644))

	d, err := Load(csvPath)
	require.NoError(t, err)
	assert.Len(t, d.Records, 1)

	d, err = Load(geoPath)
	require.NoError(t, err)
	assert.Len(t, d.Records, 2)

	_, err = Load(filepath.Join(dir, "samples.parquet"))
	assert.Error(t, err)
}

func TestSamples(t *testing.T) {
	d, err := ReadGeoJSON(strings.NewReader(featureCollection))
	require.NoError(t, err)

	all, err := d.Samples(AllSubsets)
	require.NoError(t, err)
	assert.Equal(t, []float64{12.5, 3}, all.Values())

	urban, err := d.Samples("urban")
	require.NoError(t, err)
	assert.Equal(t, 1, urban.Len())

	_, err = d.Samples("suburban")
	assert.Error(t, err)
}

func gridPrediction(t *testing.T) *GridPrediction {
	t.Helper()
	grid, err := kriging.NewGrid(vec2d.Rect{Min: vec2d.T{0, 0}, Max: vec2d.T{2, 1}}, 2, 1)
	require.NoError(t, err)
	return &GridPrediction{
		Subset: AllSubsets,
		Method: kriging.MethodIDW,
		Grid:   grid,
		Index:  []int{0, 1},
		Results: []kriging.Result{
			{Prediction: kriging.Prediction{Value: 4.5}},
			{Prediction: kriging.Prediction{Value: math.NaN()}, Err: kriging.ErrNumerical},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, gridPrediction(t)))
	assert.Equal(t, "lon,lat,row,col,value\n0.5,0.5,0,0,4.5\n1.5,0.5,0,1,\n", buf.String())
}

func TestWriteGeoJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGeoJSON(&buf, gridPrediction(t)))

	var out struct {
		Features []struct {
			Geometry struct {
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out.Features, 2)
	assert.Equal(t, []float64{0.5, 0.5}, out.Features[0].Geometry.Coordinates)
	assert.Equal(t, 4.5, out.Features[0].Properties["value"])
	assert.Equal(t, "idw", out.Features[0].Properties["method"])
	assert.Nil(t, out.Features[1].Properties["value"])
	assert.Contains(t, out.Features[1].Properties, "error")
}
