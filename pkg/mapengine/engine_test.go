package mapengine

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestEngine() *Engine {
	return NewEngine(Options{Width: 20, Height: 20, MinZoom: 0.1, MaxZoom: 10, PulseDuration: time.Second})
}

func TestEngineFrameBeforeLoad(t *testing.T) {
	e := newTestEngine()
	f := e.Frame(time.Now())
	if len(f.Visible) != 0 || f.Animating {
		t.Errorf("frame before any load = %+v; want empty", f)
	}
	e.Pan(Vec2{5, 5})
	e.SetCenter(Vec2{1, 1})
	if e.Viewport().Center() != (Vec2{}) {
		t.Errorf("viewport moved before any dataset was loaded")
	}
}

func TestEngineVisibleSetIsCached(t *testing.T) {
	e := newTestEngine()
	e.Load(scenarioDataset())
	now := time.Now()

	first := e.Frame(now)
	if e.Stats().Recomputes != 1 {
		t.Fatalf("first frame should query the index once, got %d", e.Stats().Recomputes)
	}
	for i := 0; i < 10; i++ {
		e.Frame(now)
	}
	if e.Stats().Recomputes != 1 {
		t.Errorf("idle frames re-ran the query: %d recomputes", e.Stats().Recomputes)
	}

	e.Pan(Vec2{})
	e.Frame(now)
	if e.Stats().Recomputes != 1 {
		t.Errorf("Pan(0,0) invalidated the cache")
	}

	e.SetZoom(5)
	f := e.Frame(now)
	if e.Stats().Recomputes != 2 {
		t.Errorf("zoom change should recompute, got %d", e.Stats().Recomputes)
	}
	if len(f.Visible) >= len(first.Visible) {
		t.Errorf("zooming in should shrink the visible set: %d -> %d", len(first.Visible), len(f.Visible))
	}
}

func TestEngineCenterByPointID(t *testing.T) {
	e := newTestEngine()
	e.Load(scenarioDataset())
	if !e.SetCenterByPointID(2) {
		t.Fatal("SetCenterByPointID(2) returned false")
	}
	if e.Viewport().Center() != (Vec2{10, 0}) {
		t.Errorf("center = %v; want (10,0)", e.Viewport().Center())
	}
	if e.SetCenterByPointID(404) {
		t.Error("unknown point should report false")
	}
	if !e.SetCenterByLabelID(10) || e.Viewport().Center() != (Vec2{5, 5}) {
		t.Errorf("SetCenterByLabelID(10) center = %v; want (5,5)", e.Viewport().Center())
	}
}

func TestEngineMarkers(t *testing.T) {
	e := newTestEngine()
	e.UpdateMarker(900, 3)
	if m := e.Markers(); len(m) != 1 || m[0].Resolved {
		t.Fatalf("marker before load = %+v; want one unresolved marker", m)
	}
	e.Load(scenarioDataset())
	m := e.Markers()
	if !m[0].Resolved || m[0].Pos != (Vec2{0, 10}) {
		t.Errorf("marker after load = %+v; want resolved at (0,10)", m[0])
	}
	e.UpdateMarker(900, 2)
	if m := e.Markers(); m[0].PointID != 2 {
		t.Errorf("marker did not move: %+v", m[0])
	}
	e.RemoveMarker(900)
	if len(e.Markers()) != 0 {
		t.Error("RemoveMarker left the marker in place")
	}
}

func TestEnginePickAt(t *testing.T) {
	e := newTestEngine()
	e.Load(scenarioDataset())
	e.SetCenter(Vec2{0, 0})
	screen := e.WorldToScreen(Vec2{10, 0})
	p, ok := e.PickAt(screen.Add(Vec2{1, 1}), 3)
	if !ok || p.ID != 2 {
		t.Errorf("PickAt near point 2 = %+v, %v", p, ok)
	}
	if _, ok := e.PickAt(e.WorldToScreen(Vec2{5, 5}), 1); ok {
		t.Error("PickAt in empty space should find nothing")
	}
	if got := e.ScreenToWorld(screen); !got.Near(Vec2{10, 0}, 1e-9) {
		t.Errorf("ScreenToWorld(WorldToScreen(p)) = %v", got)
	}
}

func TestEngineAugment(t *testing.T) {
	e := newTestEngine()
	e.Load(scenarioDataset())
	e.AddEdges([]Edge{{ID: 5, A: 2, B: 3}, {ID: 6, A: 3, B: 77}})
	if got := e.Store().Edges(); len(got) != 1 || got[0].ID != 5 {
		t.Errorf("AddEdges kept %+v; want edge 5 only", got)
	}
	e.AddPoints([]Point{{ID: 2, Pos: Vec2{1, 1}}, {ID: 3, Pos: Vec2{2, 2}}})
	if e.Store().Len() != 2 || len(e.Store().Edges()) != 1 {
		t.Errorf("AddPoints: %d points %d edges", e.Store().Len(), len(e.Store().Edges()))
	}
	e.AddLabels([]Label{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}})
	if len(e.Store().Labels()) != 2 {
		t.Errorf("AddLabels: %d labels; want 2", len(e.Store().Labels()))
	}
}

func TestEngineCommands(t *testing.T) {
	b := NewBroadcaster(8)
	e := newTestEngine()
	e.Load(scenarioDataset())
	e.Attach(b.Subscribe("pane"))
	var seen []Notify
	e.OnNotify = func(n Notify) { seen = append(seen, n) }

	now := time.Now()
	b.Publish(CenterOn{Target: TargetSystem, ID: 3})
	b.Publish(Notify{PointID: 1, At: now})
	b.Publish(MarkerMoved{EntityID: 42, PointID: 2})

	f := e.Frame(now)
	if e.Viewport().Center() != (Vec2{0, 10}) {
		t.Errorf("CenterOn not applied, center = %v", e.Viewport().Center())
	}
	if f.Pulses[1] != 1 || !f.Animating {
		t.Errorf("Notify not applied, pulses = %v", f.Pulses)
	}
	if len(seen) != 1 {
		t.Errorf("OnNotify called %d times; want 1", len(seen))
	}
	if m := e.Markers(); len(m) != 1 || m[0].EntityID != 42 {
		t.Errorf("MarkerMoved not applied: %+v", m)
	}

	b.Unsubscribe("pane")
	e.Frame(now)
}

func waitFor(t *testing.T, e *Engine, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		e.Frame(time.Now())
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestEngineRequestLoadDiscardsStale(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	release := make(chan struct{})

	e.RequestLoad(ctx, func(context.Context) (Dataset, error) {
		<-release
		return Dataset{Name: "stale", Points: []Point{{ID: 1}}}, nil
	})
	e.RequestLoad(ctx, func(context.Context) (Dataset, error) {
		return scenarioDataset(), nil
	})

	waitFor(t, e, func() bool { return !e.Pending() })
	if e.Store().Name() != "scenario" {
		t.Fatalf("store = %q; want scenario", e.Store().Name())
	}
	close(release)

	// give the stale worker time to deliver, then make sure it is ignored
	time.Sleep(20 * time.Millisecond)
	for i := 0; i < 5; i++ {
		e.Frame(time.Now())
	}
	if e.Store().Name() != "scenario" {
		t.Errorf("stale dataset replaced the newer one")
	}
}

func TestEngineAddPointsSupersedesPendingLoad(t *testing.T) {
	e := newTestEngine()
	e.Load(scenarioDataset())
	release := make(chan struct{})
	delivered := make(chan struct{})

	e.RequestLoad(context.Background(), func(context.Context) (Dataset, error) {
		defer close(delivered)
		<-release
		return Dataset{Name: "old", Points: []Point{{ID: 1}}}, nil
	})
	e.AddPoints([]Point{{ID: 2, Pos: Vec2{3, 3}}})
	if e.Pending() {
		t.Error("Pending() = true after a synchronous replace")
	}

	close(release)
	<-delivered
	time.Sleep(20 * time.Millisecond)
	for i := 0; i < 5; i++ {
		e.Frame(time.Now())
	}
	if got := e.Store(); got.Name() != "scenario" || got.Len() != 1 {
		t.Errorf("store = %q with %d points; want scenario with the added point", got.Name(), got.Len())
	}
	if _, ok := e.Store().Point(2); !ok {
		t.Error("added point 2 was replaced by an older load")
	}
}

func TestEngineRequestLoadErrorKeepsStore(t *testing.T) {
	e := newTestEngine()
	e.Load(scenarioDataset())
	e.RequestLoad(context.Background(), func(context.Context) (Dataset, error) {
		return Dataset{}, errors.New("disk on fire")
	})
	waitFor(t, e, func() bool { return !e.Pending() })
	if e.Store().Name() != "scenario" {
		t.Errorf("failed load replaced the store")
	}
}

func TestEngineLabelNear(t *testing.T) {
	e := newTestEngine()
	if _, ok := e.LabelNear(Vec2{}); ok {
		t.Error("LabelNear found a label before any load")
	}
	ds := scenarioDataset()
	ds.Labels = append(ds.Labels, Label{ID: 11, Name: "Other", Anchor: Vec2{-20, -20}})
	e.Load(ds)
	if l, ok := e.LabelNear(Vec2{4, 4}); !ok || l.ID != 10 {
		t.Errorf("LabelNear(4,4) = %+v, %v; want label 10", l, ok)
	}
	if l, _ := e.LabelNear(Vec2{-15, -18}); l.ID != 11 {
		t.Errorf("LabelNear(-15,-18) = %+v; want label 11", l)
	}
}
