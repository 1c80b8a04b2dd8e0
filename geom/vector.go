package geom

import "math"

// Vector is a 2D displacement or velocity.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FromAngle returns a vector of the given length pointing along a.
func FromAngle(a Angle, length float64) Vector {
	return Vector{X: length * a.Cos(), Y: length * a.Sin()}
}

func (v Vector) Add(o Vector) Vector    { return Vector{X: v.X + o.X, Y: v.Y + o.Y} }
func (v Vector) Sub(o Vector) Vector    { return Vector{X: v.X - o.X, Y: v.Y - o.Y} }
func (v Vector) Scale(f float64) Vector { return Vector{X: v.X * f, Y: v.Y * f} }
func (v Vector) Div(f float64) Vector   { return Vector{X: v.X / f, Y: v.Y / f} }

// Length uses math.Hypot for stability with very small or very large components.
func (v Vector) Length() float64 { return math.Hypot(v.X, v.Y) }

func (v Vector) Orientation() Angle { return Radians(math.Atan2(v.Y, v.X)) }

// Rotate turns the vector counter-clockwise by a.
func (v Vector) Rotate(a Angle) Vector {
	s, c := a.Sin(), a.Cos()
	return Vector{
		X: v.X*c - v.Y*s,
		Y: v.X*s + v.Y*c,
	}
}

// Norm rescales the vector to the given length. The zero vector stays zero.
func (v Vector) Norm(length float64) Vector {
	l := v.Length()
	if l == 0 {
		return Vector{}
	}
	return Vector{X: v.X / l * length, Y: v.Y / l * length}
}
