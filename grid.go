package kriging

import (
	"math"

	vec2d "github.com/flywave/go3d/float64/vec2"
	"github.com/paulmach/orb"
)

// Grid is a regular lon/lat raster of query points, one per cell center,
// ordered north to south and west to east.
type Grid struct {
	Width  int
	Height int
	Bounds vec2d.Rect
	Points []orb.Point
	// Mask marks the cells that should be predicted. It is nil until
	// MaskOutside is called, which means every cell.
	Mask []bool
}

func caclulatePixelSize(width, height int, bbox vec2d.Rect) [2]float64 {
	return [2]float64{
		(bbox.Max[0] - bbox.Min[0]) / float64(width),
		(bbox.Max[1] - bbox.Min[1]) / float64(height),
	}
}

// NewGrid lays a width×height raster over bounds (Min = south-west corner).
func NewGrid(bounds vec2d.Rect, width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, inputErrorf("grid size %dx%d", width, height)
	}
	if !(bounds.Max[0] > bounds.Min[0]) || !(bounds.Max[1] > bounds.Min[1]) {
		return nil, inputErrorf("grid bounds %v", bounds)
	}
	grid := &Grid{Width: width, Height: height, Bounds: bounds}
	pixelSize := caclulatePixelSize(width, height, bounds)

	grid.Points = make([]orb.Point, 0, width*height)
	for y := height - 1; y >= 0; y-- {
		latitude := bounds.Min[1] + pixelSize[1]*(float64(y)+0.5)
		for x := 0; x < width; x++ {
			longitude := bounds.Min[0] + pixelSize[0]*(float64(x)+0.5)
			grid.Points = append(grid.Points, orb.Point{longitude, latitude})
		}
	}
	return grid, nil
}

// MaskOutside restricts the grid to the cells inside hull.
func (g *Grid) MaskOutside(hull *Convex) {
	g.Mask = make([]bool, len(g.Points))
	for i, p := range g.Points {
		g.Mask[i] = hull.InHull(vec2d.T{p[0], p[1]})
	}
}

// Targets returns the cells to predict and their positions in Points.
func (g *Grid) Targets() ([]orb.Point, []int) {
	points := make([]orb.Point, 0, len(g.Points))
	index := make([]int, 0, len(g.Points))
	for i, p := range g.Points {
		if g.Mask != nil && !g.Mask[i] {
			continue
		}
		points = append(points, p)
		index = append(index, i)
	}
	return points, index
}

// Cell returns the point of the cell at row (from the north) and column.
func (g *Grid) Cell(row, column int) orb.Point {
	return g.Points[row*g.Width+column]
}

func lerp(value1, value2, amount float64) float64 { return value1 + (value2-value1)*amount }

// ValueAt bilinearly interpolates a raster holding one value per cell of
// Points at p, between the four surrounding cell centers. ok is false outside
// the outermost cell centers or when a surrounding cell has no value (NaN).
func (g *Grid) ValueAt(values []float64, p orb.Point) (value float64, ok bool) {
	if len(values) != len(g.Points) {
		return math.NaN(), false
	}
	pixelSize := caclulatePixelSize(g.Width, g.Height, g.Bounds)
	fx := (p.Lon()-g.Bounds.Min[0])/pixelSize[0] - 0.5
	fy := (g.Bounds.Max[1]-p.Lat())/pixelSize[1] - 0.5
	if fx < 0 || fy < 0 || fx > float64(g.Width-1) || fy > float64(g.Height-1) {
		return math.NaN(), false
	}

	x0, y0 := int(fx), int(fy)
	x1, y1 := x0, y0
	if x0 < g.Width-1 {
		x1++
	}
	if y0 < g.Height-1 {
		y1++
	}
	nw := values[y0*g.Width+x0]
	ne := values[y0*g.Width+x1]
	sw := values[y1*g.Width+x0]
	se := values[y1*g.Width+x1]
	for _, v := range [4]float64{nw, ne, sw, se} {
		if math.IsNaN(v) {
			return math.NaN(), false
		}
	}

	x, y := fx-float64(x0), fy-float64(y0)
	return lerp(lerp(nw, sw, y), lerp(ne, se, y), x), true
}
