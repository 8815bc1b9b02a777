package geom

import "math"

// Vec2 is a world-space position or velocity in pixels (per second).
type Vec2 struct {
	X float64 `yaml:"x" toml:"x"`
	Y float64 `yaml:"y" toml:"y"`
}

func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Add(o Vec2) Vec2       { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2       { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2  { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Dot(o Vec2) float64    { return v.X*o.X + v.Y*o.Y }
func (v Vec2) LenSq() float64        { return v.X*v.X + v.Y*v.Y }
func (v Vec2) Len() float64          { return math.Sqrt(v.LenSq()) }
func (v Vec2) IsZero() bool          { return v.X == 0 && v.Y == 0 }
func (v Vec2) DistSq(o Vec2) float64 { return v.Sub(o).LenSq() }
func (v Vec2) Dist(o Vec2) float64   { return v.Sub(o).Len() }

// Norm returns the unit vector, or zero for a zero vector.
func (v Vec2) Norm() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// ClampLen limits the magnitude to max.
func (v Vec2) ClampLen(max float64) Vec2 {
	if max <= 0 {
		return Vec2{}
	}
	l := v.Len()
	if l <= max {
		return v
	}
	return v.Scale(max / l)
}

// Rotate rotates by angle radians counter-clockwise.
func (v Vec2) Rotate(angle float64) Vec2 {
	s, c := math.Sincos(angle)
	return Vec2{v.X*c - v.Y*s, v.X*s + v.Y*c}
}

// Angle returns the heading of v in radians.
func (v Vec2) Angle() float64 { return math.Atan2(v.Y, v.X) }

// FromAngle returns the unit vector for heading a.
func FromAngle(a float64) Vec2 {
	s, c := math.Sincos(a)
	return Vec2{c, s}
}

// Rect is an axis-aligned world rectangle.
type Rect struct {
	Min Vec2 `yaml:"min" toml:"min"`
	Max Vec2 `yaml:"max" toml:"max"`
}

func (r Rect) Width() float64  { return r.Max.X - r.Min.X }
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// ClampToWorld keeps a circle of the given radius inside bounds. An axis
// narrower than 2*radius is left untouched.
func ClampToWorld(p Vec2, radius float64, bounds Rect) Vec2 {
	if bounds.Width() >= 2*radius {
		p.X = clamp(p.X, bounds.Min.X+radius, bounds.Max.X-radius)
	}
	if bounds.Height() >= 2*radius {
		p.Y = clamp(p.Y, bounds.Min.Y+radius, bounds.Max.Y-radius)
	}
	return p
}

// Overlaps reports whether two circles touch or intersect.
func Overlaps(a Vec2, ra float64, b Vec2, rb float64) bool {
	r := ra + rb
	return a.DistSq(b) <= r*r
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 clamps v into [0,1].
func Clamp01(v float64) float64 { return clamp(v, 0, 1) }
