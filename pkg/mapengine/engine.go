package mapengine

import (
	"sort"
	"time"
)

// Options configures an Engine.
type Options struct {
	Width, Height    float64
	MinZoom, MaxZoom float64
	PulseDuration    time.Duration
}

// Marker is a tracked entity anchored at a point.
type Marker struct {
	EntityID int64
	PointID  int64
	Pos      Vec2
	Resolved bool
}

// Frame is what the render pass needs for one redraw. Edges holds the edges
// that may cross the viewport.
type Frame struct {
	Visible   []int64
	Edges     []Edge
	Pulses    map[int64]float64
	Animating bool
}

// Stats describes the engine state for debug overlays.
type Stats struct {
	Points     int
	Edges      int
	Dropped    int
	Indexed    int
	Visible    int
	Recomputes int
	Center     Vec2
	Zoom       float64
	Radius     float64
	Generation uint64
}

// Engine is one map pane: it owns its store, viewport, cache and pulses and
// outlives any single frame. All methods must be called from the render
// goroutine; datasets from other goroutines arrive through RequestLoad and
// commands through Attach.
type Engine struct {
	store    *PointStore
	view     *Viewport
	cache    *VisibilityCache
	pulses   *NotificationTracker
	markers  map[int64]int64
	commands <-chan Command
	loads    chan loadResult

	generation uint64
	applied    uint64

	// OnNotify is called for every Notify command drained from the
	// broadcast channel, after the pulse is started.
	OnNotify func(Notify)
}

func NewEngine(opts Options) *Engine {
	return &Engine{
		view:    NewViewport(opts.Width, opts.Height, opts.MinZoom, opts.MaxZoom),
		cache:   NewVisibilityCache(),
		pulses:  NewNotificationTracker(opts.PulseDuration),
		markers: make(map[int64]int64),
		loads:   make(chan loadResult, 4),
	}
}

func (e *Engine) Store() *PointStore                  { return e.store }
func (e *Engine) Viewport() *Viewport                 { return e.view }
func (e *Engine) Notifications() *NotificationTracker { return e.pulses }

// Load replaces the dataset synchronously. It counts as the newest load
// request, so background loads still in flight are discarded on arrival.
func (e *Engine) Load(ds Dataset) {
	e.generation++
	e.applied = e.generation
	e.swap(NewPointStore(ds))
}

func (e *Engine) swap(s *PointStore) {
	e.store = s
	e.view.SetBounds(s.Bounds())
	e.cache.Invalidate()
}

// AddPoints replaces the point set and revalidates the current edges
// against it.
func (e *Engine) AddPoints(points []Point) {
	ds := e.store.Dataset()
	ds.Points = points
	e.Load(ds)
}

// AddEdges replaces the edge set.
func (e *Engine) AddEdges(edges []Edge) {
	ds := e.store.Dataset()
	ds.Edges = edges
	e.Load(ds)
}

// AddLabels replaces the overlay labels.
func (e *Engine) AddLabels(labels []Label) {
	ds := e.store.Dataset()
	ds.Labels = labels
	e.Load(ds)
}

// Pan moves the view by a screen-space delta.
func (e *Engine) Pan(delta Vec2) {
	if e.view.Pan(delta) {
		e.cache.Invalidate()
	}
}

func (e *Engine) SetZoom(factor float64) {
	if e.view.SetZoom(factor) {
		e.cache.Invalidate()
	}
}

// ZoomAt multiplies the zoom by factor while keeping the world position under
// the screen point fixed, as long as the clamp allows it.
func (e *Engine) ZoomAt(screen Vec2, factor float64) {
	before := e.ScreenToWorld(screen)
	if !e.view.ZoomBy(factor) {
		return
	}
	after := e.ScreenToWorld(screen)
	e.view.SetCenter(e.view.Center().Add(before.Sub(after)))
	e.cache.Invalidate()
}

func (e *Engine) Resize(width, height float64) {
	if e.view.Resize(width, height) {
		e.cache.Invalidate()
	}
}

// SetCenter recenters on a world position, clamped into the bounds.
func (e *Engine) SetCenter(w Vec2) {
	if e.view.SetCenter(w) {
		e.cache.Invalidate()
	}
}

// SetCenterByPointID recenters on a point. It reports false if the point is
// not loaded.
func (e *Engine) SetCenterByPointID(id int64) bool {
	p, ok := e.store.Point(id)
	if !ok {
		return false
	}
	e.SetCenter(p.Pos)
	return true
}

// SetCenterByLabelID recenters on a label anchor.
func (e *Engine) SetCenterByLabelID(id int64) bool {
	l, ok := e.store.Label(id)
	if !ok {
		return false
	}
	e.SetCenter(l.Anchor)
	return true
}

// Notify starts a pulse on a point.
func (e *Engine) Notify(pointID int64, at time.Time) {
	e.pulses.Notify(pointID, at)
}

// UpdateMarker anchors an entity's marker at a point. The point does not
// have to be loaded yet; the marker resolves once it is.
func (e *Engine) UpdateMarker(entityID, pointID int64) {
	e.markers[entityID] = pointID
}

// RemoveMarker stops tracking an entity.
func (e *Engine) RemoveMarker(entityID int64) {
	delete(e.markers, entityID)
}

// Markers returns every marker sorted by entity id.
func (e *Engine) Markers() []Marker {
	out := make([]Marker, 0, len(e.markers))
	for ent, pid := range e.markers {
		m := Marker{EntityID: ent, PointID: pid}
		if p, ok := e.store.Point(pid); ok {
			m.Pos, m.Resolved = p.Pos, true
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out
}

func (e *Engine) ScreenToWorld(s Vec2) Vec2 {
	return ToWorld(s, e.view, e.view.Origin())
}

func (e *Engine) WorldToScreen(w Vec2) Vec2 {
	return ToScreen(w, e.view, e.view.Origin())
}

// PickAt returns the point closest to a screen position within tolerance
// pixels.
func (e *Engine) PickAt(s Vec2, tolerance float64) (Point, bool) {
	entry, ok := e.store.Index().Nearest(e.ScreenToWorld(s), tolerance/e.view.Zoom())
	if !ok {
		return Point{}, false
	}
	return e.store.Point(entry.ID)
}

// LabelNear returns the label whose anchor is closest to a world position.
func (e *Engine) LabelNear(w Vec2) (Label, bool) {
	var best Label
	found := false
	bestD := 0.0
	for _, l := range e.store.Labels() {
		if d := l.Anchor.Dist2(w); !found || d < bestD {
			best, bestD, found = l, d, true
		}
	}
	return best, found
}

// Attach makes the engine drain ch at the start of every frame.
func (e *Engine) Attach(ch <-chan Command) {
	e.commands = ch
}

// Apply executes a broadcast command.
func (e *Engine) Apply(cmd Command) {
	switch c := cmd.(type) {
	case CenterOn:
		if c.Target == TargetRegion {
			e.SetCenterByLabelID(c.ID)
		} else {
			e.SetCenterByPointID(c.ID)
		}
	case Notify:
		e.Notify(c.PointID, c.At)
		if e.OnNotify != nil {
			e.OnNotify(c)
		}
	case MarkerMoved:
		e.UpdateMarker(c.EntityID, c.PointID)
	}
}

func (e *Engine) drainCommands() {
	for e.commands != nil {
		select {
		case cmd, ok := <-e.commands:
			if !ok {
				e.commands = nil
				return
			}
			e.Apply(cmd)
		default:
			return
		}
	}
}

// Frame prepares one redraw: it swaps in a finished dataset load, applies
// pending commands, refreshes the visible set if anything moved and advances
// the pulses.
func (e *Engine) Frame(now time.Time) Frame {
	e.drainLoads()
	e.drainCommands()
	visible := e.cache.RecomputeIfDirty(e.store, e.view)
	return Frame{
		Visible:   visible,
		Edges:     e.cache.Edges(),
		Pulses:    e.pulses.Tick(now),
		Animating: e.pulses.Animating(),
	}
}

func (e *Engine) Stats() Stats {
	return Stats{
		Points:     e.store.Len(),
		Edges:      len(e.store.Edges()),
		Dropped:    e.store.Dropped(),
		Indexed:    e.store.Index().Len(),
		Visible:    len(e.cache.ids),
		Recomputes: e.cache.Recomputes(),
		Center:     e.view.Center(),
		Zoom:       e.view.Zoom(),
		Radius:     e.view.Radius(),
		Generation: e.generation,
	}
}
