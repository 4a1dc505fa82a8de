package mapengine

import "math"

const (
	DefaultMinZoom = 0.01
	DefaultMaxZoom = 50.0
)

// Viewport is the pan/zoom state of one pane. Every mutator reports whether
// the visible region changed so the caller can invalidate its cache.
type Viewport struct {
	center  Vec2
	zoom    float64
	minZoom float64
	maxZoom float64
	width   float64
	height  float64
	radius  float64
	bounds  Bounds
	ready   bool
}

// NewViewport creates an uninitialised viewport for a surface of the given
// size. A non-positive or inverted zoom range falls back to the defaults.
func NewViewport(width, height, minZoom, maxZoom float64) *Viewport {
	if minZoom <= 0 || maxZoom <= 0 || minZoom > maxZoom {
		minZoom, maxZoom = DefaultMinZoom, DefaultMaxZoom
	}
	v := &Viewport{
		zoom:    clampf(1, minZoom, maxZoom),
		minZoom: minZoom,
		maxZoom: maxZoom,
		width:   math.Max(0, width),
		height:  math.Max(0, height),
	}
	v.updateRadius()
	return v
}

func (v *Viewport) Center() Vec2      { return v.center }
func (v *Viewport) Zoom() float64     { return v.zoom }
func (v *Viewport) Radius() float64   { return v.radius }
func (v *Viewport) Bounds() Bounds    { return v.bounds }
func (v *Viewport) Initialized() bool { return v.ready }

// Size is the surface size in pixels.
func (v *Viewport) Size() (w, h float64) { return v.width, v.height }

// ZoomRange returns the allowed zoom interval.
func (v *Viewport) ZoomRange() (lo, hi float64) { return v.minZoom, v.maxZoom }

// SetBounds installs the bounds of a newly loaded dataset. The first
// non-empty bounds center the view on their midpoint at zoom 1; later ones
// only re-clamp the current center.
func (v *Viewport) SetBounds(b Bounds) bool {
	v.bounds = b
	if b.Empty() {
		return false
	}
	prev := v.center
	if !v.ready {
		v.ready = true
		v.center = b.Midpoint()
		v.zoom = clampf(1, v.minZoom, v.maxZoom)
		v.updateRadius()
		return true
	}
	v.center = b.Clamp(v.center)
	return v.center != prev
}

// Pan moves the center by delta/zoom, so a drag of n pixels moves the map by
// n pixels at any zoom. The result is clamped into the bounds.
func (v *Viewport) Pan(delta Vec2) bool {
	if !v.ready {
		return false
	}
	return v.moveTo(v.center.Add(delta.Scale(1 / v.zoom)))
}

// SetCenter moves the center to w, clamped into the bounds.
func (v *Viewport) SetCenter(w Vec2) bool {
	if !v.ready {
		return false
	}
	return v.moveTo(w)
}

func (v *Viewport) moveTo(w Vec2) bool {
	if math.IsNaN(w.X) || math.IsNaN(w.Y) {
		return false
	}
	next := v.bounds.Clamp(w)
	if next == v.center {
		return false
	}
	v.center = next
	return true
}

// SetZoom clamps factor into the zoom range and recomputes the visibility
// radius.
func (v *Viewport) SetZoom(factor float64) bool {
	if math.IsNaN(factor) {
		return false
	}
	next := clampf(factor, v.minZoom, v.maxZoom)
	if next == v.zoom {
		return false
	}
	v.zoom = next
	v.updateRadius()
	return true
}

// ZoomBy multiplies the zoom by factor.
func (v *Viewport) ZoomBy(factor float64) bool {
	return v.SetZoom(v.zoom * factor)
}

// Resize changes the surface size.
func (v *Viewport) Resize(width, height float64) bool {
	width, height = math.Max(0, width), math.Max(0, height)
	if width == v.width && height == v.height {
		return false
	}
	v.width, v.height = width, height
	v.updateRadius()
	return true
}

// updateRadius sets the radius to half the surface diagonal in world units.
func (v *Viewport) updateRadius() {
	v.radius = math.Hypot(v.width, v.height) / 2 / v.zoom
}

// Origin is the screen position the center is drawn at.
func (v *Viewport) Origin() Vec2 {
	return Vec2{v.width / 2, v.height / 2}
}

func clampf(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
