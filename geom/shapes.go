package geom

import "math"

// Rectangle is axis aligned and always stored with a normalised corner order.
type Rectangle struct {
	bottomLeft Point
	topRight   Point
}

// NewRectangle accepts any two opposite corners.
func NewRectangle(p1, p2 Point) Rectangle {
	return Rectangle{
		bottomLeft: Point{X: math.Min(p1.X, p2.X), Y: math.Min(p1.Y, p2.Y)},
		topRight:   Point{X: math.Max(p1.X, p2.X), Y: math.Max(p1.Y, p2.Y)},
	}
}

func (r Rectangle) BottomLeft() Point { return r.bottomLeft }
func (r Rectangle) TopRight() Point   { return r.topRight }
func (r Rectangle) LenX() float64     { return r.topRight.X - r.bottomLeft.X }
func (r Rectangle) LenY() float64     { return r.topRight.Y - r.bottomLeft.Y }

func (r Rectangle) Centre() Point {
	return Point{X: r.bottomLeft.X + r.LenX()/2, Y: r.bottomLeft.Y + r.LenY()/2}
}

// Contains is inclusive of the boundary.
func (r Rectangle) Contains(p Point) bool {
	return p.X >= r.bottomLeft.X && p.X <= r.topRight.X &&
		p.Y >= r.bottomLeft.Y && p.Y <= r.topRight.Y
}

type Circle struct {
	Center Point
	Radius float64
}

// TangentPoints returns the two points where lines from p touch the circle.
// ok is false when p lies inside the circle. A degenerate circle returns its
// centre twice.
func (c Circle) TangentPoints(p Point) (Point, Point, bool) {
	if c.Radius < 1e-6 {
		return c.Center, c.Center, true
	}
	toCenter := c.Center.Sub(p)
	d := toCenter.Length()
	if d < c.Radius {
		return Point{}, Point{}, false
	}
	off := Radians(math.Asin(c.Radius / d))
	tangentLen := math.Sqrt(d*d - c.Radius*c.Radius)
	p1 := p.Add(toCenter.Rotate(off.Neg()).Norm(tangentLen))
	p2 := p.Add(toCenter.Rotate(off).Norm(tangentLen))
	return p1, p2, true
}
