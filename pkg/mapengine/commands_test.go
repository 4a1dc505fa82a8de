package mapengine

import "testing"

func TestBroadcasterFanOut(t *testing.T) {
	b := NewBroadcaster(2)
	a := b.Subscribe("a")
	c := b.Subscribe("c")
	if again := b.Subscribe("a"); again != a {
		t.Error("subscribing twice should return the same channel")
	}
	if n := b.Publish(Notify{PointID: 1}); n != 2 {
		t.Errorf("Publish delivered to %d panes; want 2", n)
	}
	if got := (<-a).(Notify); got.PointID != 1 {
		t.Errorf("pane a got %+v", got)
	}
	if got := (<-c).(Notify); got.PointID != 1 {
		t.Errorf("pane c got %+v", got)
	}
}

func TestBroadcasterDropsWhenFull(t *testing.T) {
	b := NewBroadcaster(1)
	b.Subscribe("slow")
	b.Publish(CenterOn{ID: 1})
	if n := b.Publish(CenterOn{ID: 2}); n != 0 {
		t.Errorf("full pane should not receive, delivered %d", n)
	}
	if b.Dropped() != 1 {
		t.Errorf("Dropped() = %d; want 1", b.Dropped())
	}
}

func TestBroadcasterUnsubscribe(t *testing.T) {
	b := NewBroadcaster(0)
	ch := b.Subscribe("x")
	b.Unsubscribe("x")
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Unsubscribe")
	}
	if b.Panes() != 0 {
		t.Errorf("Panes() = %d; want 0", b.Panes())
	}
	b.Unsubscribe("x")
}

func TestNewPaneID(t *testing.T) {
	a, b := NewPaneID(), NewPaneID()
	if len(a) != 15 || a == b {
		t.Errorf("NewPaneID() = %q, %q", a, b)
	}
}
