package mapengine

// PointStore owns one dataset's points, edges and labels together with the
// index built from them. A store is never edited in place: NewPointStore
// builds a complete replacement and the engine swaps it in.
type PointStore struct {
	name    string
	points  map[int64]*Point
	order   []int64
	edges   []Edge
	labels  []Label
	bounds  Bounds
	index   *SpatialIndex
	dropped int
}

// NewPointStore validates ds and builds its index. Duplicate point ids keep
// the first occurrence. Edges whose endpoints cannot be resolved are dropped
// and counted in Dropped.
func NewPointStore(ds Dataset) *PointStore {
	s := &PointStore{
		name:   ds.Name,
		points: make(map[int64]*Point, len(ds.Points)),
		order:  make([]int64, 0, len(ds.Points)),
	}

	entries := make([]IndexEntry, 0, len(ds.Points))
	kept := make([]Point, 0, len(ds.Points))
	for _, p := range ds.Points {
		if _, ok := s.points[p.ID]; ok {
			continue
		}
		p.Edges = nil
		kept = append(kept, p)
		s.points[p.ID] = &kept[len(kept)-1]
		s.order = append(s.order, p.ID)
		entries = append(entries, IndexEntry{ID: p.ID, Pos: p.Pos})
	}
	s.bounds = BoundsOf(kept)

	s.edges = make([]Edge, 0, len(ds.Edges))
	for _, e := range ds.Edges {
		if !e.Literal {
			a, okA := s.points[e.A]
			b, okB := s.points[e.B]
			if !okA || !okB {
				s.dropped++
				continue
			}
			e.From, e.To = a.Pos, b.Pos
			a.Edges = append(a.Edges, e.ID)
			b.Edges = append(b.Edges, e.ID)
		} else if a, ok := s.points[e.A]; ok {
			a.Edges = append(a.Edges, e.ID)
			if b, ok := s.points[e.B]; ok {
				b.Edges = append(b.Edges, e.ID)
			}
		}
		s.edges = append(s.edges, e)
	}

	s.labels = append([]Label(nil), ds.Labels...)

	// an empty dataset leaves index nil; queries on it return nothing
	s.index, _ = BuildIndex(entries)
	return s
}

func (s *PointStore) Name() string { return s.name }

// Len is the number of points.
func (s *PointStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Point looks up a point by id.
func (s *PointStore) Point(id int64) (Point, bool) {
	if s == nil {
		return Point{}, false
	}
	p, ok := s.points[id]
	if !ok {
		return Point{}, false
	}
	return *p, true
}

// Points returns every point in load order.
func (s *PointStore) Points() []Point {
	if s == nil {
		return nil
	}
	out := make([]Point, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.points[id])
	}
	return out
}

func (s *PointStore) Edges() []Edge {
	if s == nil {
		return nil
	}
	return s.edges
}

func (s *PointStore) Labels() []Label {
	if s == nil {
		return nil
	}
	return s.labels
}

// Label finds a label by id.
func (s *PointStore) Label(id int64) (Label, bool) {
	for _, l := range s.Labels() {
		if l.ID == id {
			return l, true
		}
	}
	return Label{}, false
}

func (s *PointStore) Bounds() Bounds {
	if s == nil {
		return Bounds{}
	}
	return s.bounds
}

func (s *PointStore) Index() *SpatialIndex {
	if s == nil {
		return nil
	}
	return s.index
}

// Dropped is the number of edges discarded at load because an endpoint was
// unknown.
func (s *PointStore) Dropped() int {
	if s == nil {
		return 0
	}
	return s.dropped
}

// Dataset rebuilds a Dataset from the store, used when the host augments a
// loaded store with extra points, edges or labels.
func (s *PointStore) Dataset() Dataset {
	if s == nil {
		return Dataset{}
	}
	return Dataset{Name: s.name, Points: s.Points(), Edges: append([]Edge(nil), s.edges...), Labels: s.Labels()}
}
