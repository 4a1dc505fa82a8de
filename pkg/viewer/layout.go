package viewer

import (
	"math"

	"github.com/sudorandom/telescope/pkg/mapengine"
)

type rect struct {
	X, Y, W, H float64
}

func (r rect) contains(p mapengine.Vec2) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

func (r rect) origin() mapengine.Vec2 { return mapengine.Vec2{X: r.X, Y: r.Y} }

// intersectsSegment is a cheap bounding box test used to skip edges that
// are entirely off screen.
func (r rect) intersectsSegment(a, b mapengine.Vec2) bool {
	return math.Max(a.X, b.X) >= r.X && math.Min(a.X, b.X) <= r.X+r.W &&
		math.Max(a.Y, b.Y) >= r.Y && math.Min(a.Y, b.Y) <= r.Y+r.H
}

// columns splits a w x h surface into n side-by-side panes. The last column
// absorbs the rounding remainder.
func columns(w, h float64, n int) []rect {
	if n <= 0 {
		return nil
	}
	out := make([]rect, n)
	colW := math.Floor(w / float64(n))
	for i := range out {
		out[i] = rect{X: float64(i) * colW, Y: 0, W: colW, H: h}
	}
	out[n-1].W = w - out[n-1].X
	return out
}

// paneAt returns the index of the pane containing p, or -1.
func paneAt(rects []rect, p mapengine.Vec2) int {
	for i, r := range rects {
		if r.contains(p) {
			return i
		}
	}
	return -1
}
