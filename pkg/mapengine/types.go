// Package mapengine holds the in-memory star map: the point store, its
// spatial index, the viewport and the pulse animations drawn on top of it.
// It imports no rendering API; pkg/viewer drives it from an ebiten loop.
package mapengine

import "math"

// Vec2 is a position in world or screen space.
type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(f float64) Vec2 { return Vec2{v.X * f, v.Y * f} }

// Dist2 is the squared euclidean distance to o.
func (v Vec2) Dist2(o Vec2) float64 {
	dx, dy := v.X-o.X, v.Y-o.Y
	return dx*dx + dy*dy
}

func (v Vec2) Dist(o Vec2) float64 { return math.Sqrt(v.Dist2(o)) }

// Near reports whether both components differ by at most eps.
func (v Vec2) Near(o Vec2, eps float64) bool {
	return math.Abs(v.X-o.X) <= eps && math.Abs(v.Y-o.Y) <= eps
}

// Point is one star system. Pos is the corrected planar coordinate used by
// the index and the projector; Z keeps the third axis when the source has one.
type Point struct {
	ID    int64
	Name  string
	Pos   Vec2
	Z     float64
	Edges []int64
}

// Edge connects two points. Non-literal edges name their endpoints by id and
// get From/To filled in at load; literal edges (abstracted views) carry
// coordinates directly because their endpoints may not map 1:1 to a point.
type Edge struct {
	ID      int64
	A, B    int64
	From    Vec2
	To      Vec2
	Literal bool
}

// Label is a static overlay caption. It is not indexed.
type Label struct {
	ID     int64
	Name   string
	Anchor Vec2
}

// Dataset is one loaded collection of points, edges and labels.
type Dataset struct {
	Name   string
	Points []Point
	Edges  []Edge
	Labels []Label
}

// Bounds is the min/max box of all loaded points.
type Bounds struct {
	Min, Max Vec2
	valid    bool
}

// BoundsOf returns the bounding box of pts. The zero Bounds is returned for
// an empty slice and reports Empty.
func BoundsOf(pts []Point) Bounds {
	if len(pts) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: pts[0].Pos, Max: pts[0].Pos, valid: true}
	for _, p := range pts[1:] {
		b.Min.X = math.Min(b.Min.X, p.Pos.X)
		b.Min.Y = math.Min(b.Min.Y, p.Pos.Y)
		b.Max.X = math.Max(b.Max.X, p.Pos.X)
		b.Max.Y = math.Max(b.Max.Y, p.Pos.Y)
	}
	return b
}

func (b Bounds) Empty() bool { return !b.valid }

func (b Bounds) Midpoint() Vec2 {
	return Vec2{(b.Min.X + b.Max.X) / 2, (b.Min.Y + b.Max.Y) / 2}
}

func (b Bounds) Diagonal() float64 { return b.Min.Dist(b.Max) }

// Clamp moves v to the closest position inside b. Empty bounds leave v as is.
func (b Bounds) Clamp(v Vec2) Vec2 {
	if !b.valid {
		return v
	}
	return Vec2{
		X: math.Max(b.Min.X, math.Min(b.Max.X, v.X)),
		Y: math.Max(b.Min.Y, math.Min(b.Max.Y, v.Y)),
	}
}

func (b Bounds) Contains(v Vec2) bool {
	return b.valid && v.X >= b.Min.X && v.X <= b.Max.X && v.Y >= b.Min.Y && v.Y <= b.Max.Y
}
