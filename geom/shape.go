package geom

import "fmt"

// Shape is the closed set of collider shapes: Rect and Circle.
// The unexported marker keeps other packages from adding members, so
// type switches over Shape are exhaustive.
type Shape interface {
	// Bounds returns the axis-aligned bounding box.
	Bounds() Rect
	// IsFinite reports whether every coordinate is finite.
	IsFinite() bool
	shape()
}

// Rect is an axis-aligned rectangle from its upper-left to its lower-right
// corner. Edges are exclusive for overlap tests: touching rectangles do not
// collide.
type Rect struct {
	UL, DR Point
}

// NewRect builds a rectangle from two corners.
func NewRect(ul, dr Point) Rect {
	return Rect{UL: ul, DR: dr}
}

// NewRectXYWH builds a rectangle from its upper-left corner and size.
func NewRectXYWH(x, y, w, h float32) Rect {
	return Rect{UL: Point{x, y}, DR: Point{x + w, y + h}}
}

func (Rect) shape() {}

// Bounds returns r itself.
func (r Rect) Bounds() Rect { return r }

// UR returns the upper-right corner.
func (r Rect) UR() Point { return Point{r.DR.X, r.UL.Y} }

// DL returns the lower-left corner.
func (r Rect) DL() Point { return Point{r.UL.X, r.DR.Y} }

// Width returns the horizontal extent.
func (r Rect) Width() float32 { return r.DR.X - r.UL.X }

// Height returns the vertical extent.
func (r Rect) Height() float32 { return r.DR.Y - r.UL.Y }

// Center returns the midpoint.
func (r Rect) Center() Point {
	return Point{(r.UL.X + r.DR.X) / 2, (r.UL.Y + r.DR.Y) / 2}
}

// Valid reports whether the rectangle has positive extent on both axes.
func (r Rect) Valid() bool {
	return r.Width() > 0 && r.Height() > 0
}

// IsFinite reports whether both corners are finite.
func (r Rect) IsFinite() bool {
	return r.UL.IsFinite() && r.DR.IsFinite()
}

// Translate moves the rectangle by d.
func (r Rect) Translate(d Point) Rect {
	return Rect{UL: r.UL.Add(d), DR: r.DR.Add(d)}
}

// Extend grows the rectangle by amount on the side facing dir.
func (r Rect) Extend(dir Direction, amount float32) Rect {
	switch dir {
	case Left:
		r.UL.X -= amount
	case Up:
		r.UL.Y -= amount
	case Right:
		r.DR.X += amount
	case Down:
		r.DR.Y += amount
	}
	return r
}

// ContainsRect reports whether o lies entirely inside r (edges inclusive).
func (r Rect) ContainsRect(o Rect) bool {
	return o.UL.X >= r.UL.X && o.UL.Y >= r.UL.Y && o.DR.X <= r.DR.X && o.DR.Y <= r.DR.Y
}

// Leading returns the coordinate of the side facing dir.
func (r Rect) Leading(dir Direction) float32 {
	switch dir {
	case Left:
		return r.UL.X
	case Up:
		return r.UL.Y
	case Right:
		return r.DR.X
	default:
		return r.DR.Y
	}
}

func (r Rect) String() string {
	return fmt.Sprintf("rect[%v-%v]", r.UL, r.DR)
}

// Circle is a disc around Origin.
type Circle struct {
	Origin Point
	Radius float32
}

// NewCircle builds a circle.
func NewCircle(origin Point, radius float32) Circle {
	return Circle{Origin: origin, Radius: radius}
}

func (Circle) shape() {}

// Bounds returns the square enclosing the circle.
func (c Circle) Bounds() Rect {
	return Rect{
		UL: Point{c.Origin.X - c.Radius, c.Origin.Y - c.Radius},
		DR: Point{c.Origin.X + c.Radius, c.Origin.Y + c.Radius},
	}
}

// IsFinite reports whether the origin and radius are finite.
func (c Circle) IsFinite() bool {
	return c.Origin.IsFinite() && isFinite32(c.Radius)
}

func (c Circle) String() string {
	return fmt.Sprintf("circle[%v r=%g]", c.Origin, c.Radius)
}

// ClosestPoint returns the point of r nearest to p.
func ClosestPoint(r Rect, p Point) Point {
	return Point{clamp(p.X, r.UL.X, r.DR.X), clamp(p.Y, r.UL.Y, r.DR.Y)}
}

// Overlaps reports whether a and b intersect. The test is symmetric.
func Overlaps(a, b Shape) bool {
	switch a := a.(type) {
	case Rect:
		switch b := b.(type) {
		case Rect:
			return rectRect(a, b)
		case Circle:
			return rectCircle(a, b)
		}
	case Circle:
		switch b := b.(type) {
		case Rect:
			return rectCircle(b, a)
		case Circle:
			return circleCircle(a, b)
		}
	}
	panic(fmt.Sprintf("geom: unknown shape pair %T/%T", a, b))
}

// Contains reports whether p lies strictly inside s.
func Contains(s Shape, p Point) bool {
	switch s := s.(type) {
	case Rect:
		return p.X > s.UL.X && p.X < s.DR.X && p.Y > s.UL.Y && p.Y < s.DR.Y
	case Circle:
		return s.Origin.DistanceSq(p) < s.Radius*s.Radius
	}
	panic(fmt.Sprintf("geom: unknown shape %T", s))
}

func rectRect(a, b Rect) bool {
	return a.UL.X < b.DR.X && b.UL.X < a.DR.X && a.UL.Y < b.DR.Y && b.UL.Y < a.DR.Y
}

func rectCircle(r Rect, c Circle) bool {
	closest := ClosestPoint(r, c.Origin)
	return c.Origin.DistanceSq(closest) < c.Radius*c.Radius
}

func circleCircle(a, b Circle) bool {
	rr := a.Radius + b.Radius
	return a.Origin.DistanceSq(b.Origin) < rr*rr
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
