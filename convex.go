package kriging

import (
	"math"

	vec2d "github.com/flywave/go3d/float64/vec2"
	"github.com/paulmach/orb"
)

// Convex is the convex hull of a set of sample locations, used to keep a
// prediction grid from extrapolating beyond the sampled area.
type Convex struct {
	vertices []vec2d.T
	hull     []vec2d.T
	edges    []Edge
}

type Edge struct {
	Start vec2d.T
	End   vec2d.T
}

func NewConvex(points []orb.Point) *Convex {
	vertices := make([]vec2d.T, len(points))
	for i, p := range points {
		vertices[i] = vec2d.T{p[0], p[1]}
	}
	return &Convex{vertices: vertices}
}

func (c *Convex) Rect() vec2d.Rect {
	r := vec2d.Rect{Min: vec2d.MaxVal, Max: vec2d.MinVal}
	hull := c.Hull()
	for i := range hull {
		r.Extend(&hull[i])
	}
	return r
}

// Hull returns the hull vertices counter-clockwise, starting from the
// leftmost vertex.
func (c *Convex) Hull() []vec2d.T {
	if c.hull == nil && len(c.vertices) > 0 {
		minX, maxX := c.getExtremePoints()
		c.hull = append(c.quickHull(c.vertices, maxX, minX), c.quickHull(c.vertices, minX, maxX)...)
	}
	return c.hull
}

func (c *Convex) Edges() []Edge {
	if c.edges == nil {
		hull := c.Hull()
		for i, start := range hull {
			nextIndex := i + 1
			if len(hull) <= nextIndex {
				nextIndex = 0
			}
			c.edges = append(c.edges, Edge{Start: start, End: hull[nextIndex]})
		}
	}
	return c.edges
}

// InHull reports whether point lies inside the hull or on its boundary.
func (c *Convex) InHull(point vec2d.T) bool {
	edges := c.Edges()
	if len(edges) == 0 {
		return false
	}
	for _, edge := range edges {
		if Cross(Subtract(edge.End, edge.Start), Subtract(point, edge.Start)) < 0 {
			return false
		}
	}
	return true
}

func (c *Convex) quickHull(points []vec2d.T, start, end vec2d.T) []vec2d.T {
	var lhs []vec2d.T
	farthest := start
	maxDistance := -math.MaxFloat64
	for _, point := range points {
		d := distanceIndicator(point, start, end)
		if d <= 0 {
			continue
		}
		lhs = append(lhs, point)
		if maxDistance < d {
			maxDistance = d
			farthest = point
		}
	}
	if len(lhs) == 0 {
		return []vec2d.T{end}
	}

	return append(
		c.quickHull(lhs, farthest, end),
		c.quickHull(lhs, start, farthest)...)
}

func (c *Convex) getExtremePoints() (minX, maxX vec2d.T) {
	minX = vec2d.T{math.MaxFloat64, 0}
	maxX = vec2d.T{-math.MaxFloat64, 0}

	for _, p := range c.vertices {
		if p[0] < minX[0] {
			minX = p
		}
		if maxX[0] < p[0] {
			maxX = p
		}
	}
	return minX, maxX
}

func Subtract(lhs, rhs vec2d.T) vec2d.T {
	return vec2d.T{lhs[0] - rhs[0], lhs[1] - rhs[1]}
}

func Cross(lhs, rhs vec2d.T) float64 {
	return (lhs[0] * rhs[1]) - (lhs[1] * rhs[0])
}

// distanceIndicator is positive when point lies left of start→end.
func distanceIndicator(point, start, end vec2d.T) float64 {
	return Cross(Subtract(end, start), Subtract(point, start))
}
