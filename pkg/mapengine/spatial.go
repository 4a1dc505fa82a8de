package mapengine

import (
	"errors"
	"math"
)

// ErrEmptyIndex is returned by BuildIndex when there is nothing to index.
var ErrEmptyIndex = errors.New("mapengine: no points to index")

// IndexEntry is the id and planar position the index keeps per point.
type IndexEntry struct {
	ID  int64
	Pos Vec2
}

type kdNode struct {
	entry       IndexEntry
	left, right int32
	axis        uint8
	// box covers the node and its whole subtree
	min, max Vec2
}

// SpatialIndex is a static 2-d tree. It is never patched; a new point set
// means a new index.
type SpatialIndex struct {
	nodes []kdNode
	root  int32
}

// BuildIndex builds a balanced 2-d tree in O(n log n) using median selection
// at every level. The input slice is reordered.
func BuildIndex(entries []IndexEntry) (*SpatialIndex, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyIndex
	}
	idx := &SpatialIndex{nodes: make([]kdNode, 0, len(entries))}
	idx.root = idx.build(entries, 0)
	return idx, nil
}

func (s *SpatialIndex) build(entries []IndexEntry, depth int) int32 {
	if len(entries) == 0 {
		return -1
	}
	axis := uint8(depth % 2)
	mid := len(entries) / 2
	selectKth(entries, mid, axis)

	at := int32(len(s.nodes))
	s.nodes = append(s.nodes, kdNode{entry: entries[mid], axis: axis, min: entries[mid].Pos, max: entries[mid].Pos})
	left := s.build(entries[:mid], depth+1)
	right := s.build(entries[mid+1:], depth+1)

	n := &s.nodes[at]
	n.left, n.right = left, right
	for _, c := range [2]int32{left, right} {
		if c < 0 {
			continue
		}
		child := s.nodes[c]
		n.min.X = math.Min(n.min.X, child.min.X)
		n.min.Y = math.Min(n.min.Y, child.min.Y)
		n.max.X = math.Max(n.max.X, child.max.X)
		n.max.Y = math.Max(n.max.Y, child.max.Y)
	}
	return at
}

func coord(v Vec2, axis uint8) float64 {
	if axis == 0 {
		return v.X
	}
	return v.Y
}

// selectKth partially orders entries so that entries[k] holds the k-th
// smallest coordinate on axis, with smaller-or-equal values before it.
func selectKth(entries []IndexEntry, k int, axis uint8) {
	lo, hi := 0, len(entries)-1
	for lo < hi {
		pivot := coord(entries[(lo+hi)/2].Pos, axis)
		i, j := lo, hi
		for i <= j {
			for coord(entries[i].Pos, axis) < pivot {
				i++
			}
			for coord(entries[j].Pos, axis) > pivot {
				j--
			}
			if i <= j {
				entries[i], entries[j] = entries[j], entries[i]
				i++
				j--
			}
		}
		switch {
		case k <= j:
			hi = j
		case k >= i:
			lo = i
		default:
			return
		}
	}
}

// Len is the number of indexed points.
func (s *SpatialIndex) Len() int {
	if s == nil {
		return 0
	}
	return len(s.nodes)
}

// QueryWithin returns the ids of every point whose distance to center is at
// most radius. A nil index answers with nothing.
func (s *SpatialIndex) QueryWithin(center Vec2, radius float64) []int64 {
	if s == nil || radius < 0 || math.IsNaN(radius) {
		return nil
	}
	var out []int64
	s.within(s.root, center, radius*radius, &out)
	return out
}

func (s *SpatialIndex) within(at int32, c Vec2, r2 float64, out *[]int64) {
	if at < 0 {
		return
	}
	n := &s.nodes[at]
	if boxDist2(n.min, n.max, c) > r2 {
		return
	}
	if n.entry.Pos.Dist2(c) <= r2 {
		*out = append(*out, n.entry.ID)
	}
	s.within(n.left, c, r2, out)
	s.within(n.right, c, r2, out)
}

// Nearest returns the closest point to c no further than maxDist.
func (s *SpatialIndex) Nearest(c Vec2, maxDist float64) (IndexEntry, bool) {
	if s == nil {
		return IndexEntry{}, false
	}
	best, bestD2 := int32(-1), maxDist*maxDist
	var walk func(at int32)
	walk = func(at int32) {
		if at < 0 {
			return
		}
		n := &s.nodes[at]
		if boxDist2(n.min, n.max, c) > bestD2 {
			return
		}
		if d2 := n.entry.Pos.Dist2(c); d2 <= bestD2 {
			best, bestD2 = at, d2
		}
		first, second := n.left, n.right
		if coord(c, n.axis) > coord(n.entry.Pos, n.axis) {
			first, second = second, first
		}
		walk(first)
		walk(second)
	}
	walk(s.root)
	if best < 0 {
		return IndexEntry{}, false
	}
	return s.nodes[best].entry, true
}

// boxDist2 is the squared distance from c to the closest point of the box.
func boxDist2(lo, hi, c Vec2) float64 {
	dx := math.Max(0, math.Max(lo.X-c.X, c.X-hi.X))
	dy := math.Max(0, math.Max(lo.Y-c.Y, c.Y-hi.Y))
	return dx*dx + dy*dy
}
