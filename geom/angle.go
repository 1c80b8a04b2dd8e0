// Package geom holds the 2D primitives shared by every part of the robot core.
// Lengths are metres and angles are radians unless a name says otherwise.
package geom

import (
	"math"
	"strconv"
)

// Angle is a plain radian value. It is not wrapped automatically; callers
// choose Clamp2Pi or ClampPosNegPi when they need a canonical range.
type Angle struct {
	radians float64
}

func Zero() Angle { return Angle{} }
func Half() Angle { return Angle{radians: math.Pi} }
func Full() Angle { return Angle{radians: 2 * math.Pi} }

func Radians(r float64) Angle { return Angle{radians: r} }
func Degrees(d float64) Angle { return Angle{radians: d / 180 * math.Pi} }

func (a Angle) Radians() float64 { return a.radians }
func (a Angle) Degrees() float64 { return a.radians * 180 / math.Pi }
func (a Angle) Sin() float64     { return math.Sin(a.radians) }
func (a Angle) Cos() float64     { return math.Cos(a.radians) }

func (a Angle) Add(b Angle) Angle   { return Angle{radians: a.radians + b.radians} }
func (a Angle) Sub(b Angle) Angle   { return Angle{radians: a.radians - b.radians} }
func (a Angle) Neg() Angle          { return Angle{radians: -a.radians} }
func (a Angle) Mul(f float64) Angle { return Angle{radians: a.radians * f} }
func (a Angle) Div(f float64) Angle { return Angle{radians: a.radians / f} }
func (a Angle) Less(b Angle) bool   { return a.radians < b.radians }
func (a Angle) String() string      { return strconv.FormatFloat(a.radians, 'f', 4, 64) + "rad" }

// Clamp2Pi wraps the angle into [0, 2π).
func (a Angle) Clamp2Pi() Angle {
	r := math.Mod(a.radians, 2*math.Pi)
	if r < 0 {
		r += 2 * math.Pi
	}
	// math.Mod of a tiny negative value can round up to exactly 2π.
	if r >= 2*math.Pi {
		r = 0
	}
	return Angle{radians: r}
}

// ClampPosNegPi wraps the angle into (-π, π].
func (a Angle) ClampPosNegPi() Angle {
	w := a.Clamp2Pi()
	if w.radians > math.Pi {
		return w.Sub(Full())
	}
	return w
}

// Clamp limits the raw radian value to [lo, hi] without wrapping.
func (a Angle) Clamp(lo, hi Angle) Angle {
	return Angle{radians: math.Max(lo.radians, math.Min(hi.radians, a.radians))}
}

// ApproxEqual compares radian values with a tolerance scaled for accumulated
// float error from degree conversions and wrapping.
func (a Angle) ApproxEqual(b Angle) bool {
	return math.Abs(a.radians-b.radians) <= angleTolerance
}

const angleTolerance = 1e-9

// MarshalJSON encodes the angle as a bare radian number.
func (a Angle) MarshalJSON() ([]byte, error) {
	return strconv.AppendFloat(nil, a.radians, 'g', -1, 64), nil
}

func (a *Angle) UnmarshalJSON(data []byte) error {
	r, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	a.radians = r
	return nil
}
