package location

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sudorandom/telescope/pkg/mapengine"
)

type recorder struct {
	mu   sync.Mutex
	cmds []mapengine.Command
}

func (r *recorder) Publish(cmd mapengine.Command) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds = append(r.cmds, cmd)
	return 1
}

func (r *recorder) snapshot() []mapengine.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]mapengine.Command(nil), r.cmds...)
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name   string
		follow bool
		in     []Update
		want   int
	}{
		{"moves", false, []Update{{1, 30000142}, {1, 30000144}}, 2},
		{"repeats are ignored", false, []Update{{1, 30000142}, {1, 30000142}}, 1},
		{"follow recenters", true, []Update{{1, 30000142}}, 2},
		{"incomplete updates are ignored", true, []Update{{0, 30000142}, {1, 0}}, 0},
	}
	for _, tt := range tests {
		rec := &recorder{}
		c := NewClient("", tt.follow, rec)
		for _, u := range tt.in {
			c.Handle(u)
		}
		if got := len(rec.snapshot()); got != tt.want {
			t.Errorf("%s: published %d commands; want %d", tt.name, got, tt.want)
		}
	}

	rec := &recorder{}
	c := NewClient("", true, rec)
	c.Handle(Update{CharacterID: 7, SolarSystemID: 30002187})
	cmds := rec.snapshot()
	if m, ok := cmds[0].(mapengine.MarkerMoved); !ok || m.EntityID != 7 || m.PointID != 30002187 {
		t.Errorf("cmds[0] = %#v; want MarkerMoved", cmds[0])
	}
	if co, ok := cmds[1].(mapengine.CenterOn); !ok || co.Target != mapengine.TargetSystem || co.ID != 30002187 {
		t.Errorf("cmds[1] = %#v; want CenterOn system", cmds[1])
	}
}

func TestRunReadsFeed(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, msg := range []string{
			`{"character_id": 90000001, "solar_system_id": 30000142}`,
			`not json`,
			`{"character_id": 90000001, "solar_system_id": 30000144}`,
		} {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
		// hold the connection until the client goes away
		conn.ReadMessage()
	}))
	defer srv.Close()

	rec := &recorder{}
	c := NewClient("ws"+strings.TrimPrefix(srv.URL, "http"), false, rec)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for len(rec.snapshot()) < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	cmds := rec.snapshot()
	if len(cmds) != 2 {
		t.Fatalf("published %d commands; want 2", len(cmds))
	}
	if m := cmds[1].(mapengine.MarkerMoved); m.PointID != 30000144 {
		t.Errorf("last marker move = %+v; want Perimeter", m)
	}
}

func TestRunWithoutURL(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewClient("", false, &recorder{}).Run(ctx); err != nil {
		t.Errorf("Run() = %v; want nil", err)
	}
}
