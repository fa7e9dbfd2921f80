package dataset

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
)

type columns struct {
	lon, lat, value, subset int
}

var defaultColumns = columns{lon: 0, lat: 1, value: 2, subset: 3}

// headerColumns maps a header row to column positions. ok is false when the
// row is data.
func headerColumns(record []string) (columns, bool) {
	if _, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64); err == nil {
		return columns{}, false
	}
	c := columns{lon: -1, lat: -1, value: -1, subset: -1}
	for i, name := range record {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "lon", "lng", "longitude", "x":
			c.lon = i
		case "lat", "latitude", "y":
			c.lat = i
		case "value", "measurement", "throughput":
			c.value = i
		case "subset", "group", "class":
			c.subset = i
		}
	}
	return c, true
}

// ReadCSV reads lon,lat,value[,subset] rows. The header row is optional;
// when present it may name the columns in any order.
func ReadCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	d := &Dataset{}
	cols := defaultColumns
	lineNum := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}
		lineNum++

		if lineNum == 1 {
			if c, ok := headerColumns(record); ok {
				if c.lon < 0 || c.lat < 0 || c.value < 0 {
					return nil, eris.Errorf("csv: header %v needs lon, lat and value columns", record)
				}
				cols = c
				continue
			}
		}

		rec, err := parseRecord(record, cols)
		if err != nil {
			return nil, eris.Wrapf(err, "csv: line %d", lineNum)
		}
		d.add(rec)
	}
	return d, nil
}

func parseRecord(record []string, cols columns) (Record, error) {
	field := func(i int) (string, error) {
		if i >= len(record) {
			return "", eris.Errorf("expected at least %d columns, got %d", i+1, len(record))
		}
		return strings.TrimSpace(record[i]), nil
	}
	number := func(name string, i int) (float64, error) {
		s, err := field(i)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, eris.Wrapf(err, "parse %s", name)
		}
		return v, nil
	}

	var rec Record
	lon, err := number("lon", cols.lon)
	if err != nil {
		return rec, err
	}
	lat, err := number("lat", cols.lat)
	if err != nil {
		return rec, err
	}
	if rec.Value, err = number("value", cols.value); err != nil {
		return rec, err
	}
	rec.Point = orb.Point{lon, lat}
	if cols.subset >= 0 && cols.subset < len(record) {
		rec.Subset = strings.TrimSpace(record[cols.subset])
	}
	return rec, nil
}
