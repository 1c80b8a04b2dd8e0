package geom

import "math"

// Point is a position on the field in metres, origin at centre field.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Add(v Vector) Point { return Point{X: p.X + v.X, Y: p.Y + v.Y} }

// Sub returns the vector from o to p.
func (p Point) Sub(o Point) Vector { return Vector{X: p.X - o.X, Y: p.Y - o.Y} }

func (p Point) DistanceTo(o Point) float64 { return math.Hypot(p.X-o.X, p.Y-o.Y) }
