// Package geom provides the float32 vector and shape primitives shared by the
// simulator, the spatial index and the movement table.
package geom

import (
	"fmt"
	"math"
)

// Point is a 2D vector. Y grows downwards, matching world coordinates.
type Point struct {
	X, Y float32
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float32) Point {
	return Point{X: x, Y: y}
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}

// Scale multiplies both components by f.
func (p Point) Scale(f float32) Point {
	return Point{p.X * f, p.Y * f}
}

// Mul multiplies component-wise.
func (p Point) Mul(q Point) Point {
	return Point{p.X * q.X, p.Y * q.Y}
}

// Div divides both components by f.
func (p Point) Div(f float32) Point {
	return Point{p.X / f, p.Y / f}
}

// Dot returns the dot product.
func (p Point) Dot(q Point) float32 {
	return p.X*q.X + p.Y*q.Y
}

// DistanceSq returns the squared distance between p and q.
func (p Point) DistanceSq(q Point) float32 {
	dx := q.X - p.X
	dy := q.Y - p.Y
	return dx*dx + dy*dy
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float32 {
	return sqrt32(p.DistanceSq(q))
}

// Magnitude returns the vector length.
func (p Point) Magnitude() float32 {
	return sqrt32(p.X*p.X + p.Y*p.Y)
}

// Normalize returns p scaled to unit length. The zero vector stays zero
// instead of producing NaN components.
func (p Point) Normalize() Point {
	m := p.Magnitude()
	if m == 0 {
		return Point{}
	}
	return p.Div(m)
}

// Round rounds both components half away from zero.
func (p Point) Round() Point {
	return Point{float32(math.Round(float64(p.X))), float32(math.Round(float64(p.Y)))}
}

// IsFinite reports whether neither component is NaN or infinite.
func (p Point) IsFinite() bool {
	return isFinite32(p.X) && isFinite32(p.Y)
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// sqrt32 is the correctly rounded float32 square root.
func sqrt32(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}

func isFinite32(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
