package mapengine

import "math"

// VisibilityCache keeps the ids inside the viewport from the last query, and
// the edges that may cross it, and only recomputes them after Invalidate.
type VisibilityCache struct {
	ids   []int64
	edges []Edge
	dirty bool
	runs  int
}

func NewVisibilityCache() *VisibilityCache {
	return &VisibilityCache{dirty: true}
}

// Invalidate marks the cached set stale.
func (c *VisibilityCache) Invalidate() { c.dirty = true }

func (c *VisibilityCache) Dirty() bool { return c.dirty }

// Recomputes counts how many times the index has actually been queried.
func (c *VisibilityCache) Recomputes() int { return c.runs }

// Edges returns the edges kept by the last recompute.
func (c *VisibilityCache) Edges() []Edge { return c.edges }

// RecomputeIfDirty returns the cached ids, querying the store's index first
// when the cache is dirty. A nil store yields an empty set.
func (c *VisibilityCache) RecomputeIfDirty(s *PointStore, v *Viewport) []int64 {
	if !c.dirty {
		return c.ids
	}
	center, r := v.Center(), v.Radius()
	c.ids = s.Index().QueryWithin(center, r)
	c.edges = cullEdges(nil, s.Edges(), center, r)
	c.dirty = false
	c.runs++
	return c.ids
}

// cullEdges appends to dst the edges whose bounding box overlaps the square
// of half-width r around center. The square holds the visibility circle, so
// an edge crossing the view with both endpoints outside it is kept.
func cullEdges(dst, edges []Edge, center Vec2, r float64) []Edge {
	lo, hi := Vec2{center.X - r, center.Y - r}, Vec2{center.X + r, center.Y + r}
	for _, e := range edges {
		if math.Max(e.From.X, e.To.X) < lo.X || math.Min(e.From.X, e.To.X) > hi.X ||
			math.Max(e.From.Y, e.To.Y) < lo.Y || math.Min(e.From.Y, e.To.Y) > hi.Y {
			continue
		}
		dst = append(dst, e)
	}
	return dst
}
