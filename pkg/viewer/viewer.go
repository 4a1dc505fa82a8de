// Package viewer runs the star map in an ebiten window. Each pane owns a
// mapengine.Engine; the window splits its width between them.
package viewer

import (
	"bytes"
	"context"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/sudorandom/telescope/pkg/mapengine"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// Options configures a Viewer.
type Options struct {
	Width, Height int
	Engine        mapengine.Options
	Broadcaster   *mapengine.Broadcaster
	// Universe loads the dataset every new pane starts with.
	Universe mapengine.LoadFunc
	// Region returns a loader for the schematic layout of some regions.
	Region func(regionIDs ...int64) mapengine.LoadFunc
	Alert  *Alert
	Debug  bool
}

// Pane is one map view inside the window.
type Pane struct {
	ID     string
	Engine *mapengine.Engine

	bounds       rect
	frame        mapengine.Frame
	selected     int64
	hasSelection bool
}

// Viewer implements ebiten.Game.
type Viewer struct {
	ctx    context.Context
	opts   Options
	panes  []*Pane
	active int
	width  int
	height int
	drag   dragState
	debug  bool

	pulseImage *ebiten.Image
	fontSource *text.GoTextFaceSource
	monoSource *text.GoTextFaceSource
}

// New creates a viewer with one pane. Loads started by the viewer stop when
// ctx is done, and so does the game loop.
func New(ctx context.Context, opts Options) *Viewer {
	s, _ := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	m, _ := text.NewGoTextFaceSource(bytes.NewReader(gomono.TTF))
	if opts.Broadcaster == nil {
		opts.Broadcaster = mapengine.NewBroadcaster(mapengine.DefaultCommandBuffer)
	}
	v := &Viewer{
		ctx:        ctx,
		opts:       opts,
		width:      opts.Width,
		height:     opts.Height,
		debug:      opts.Debug,
		fontSource: s,
		monoSource: m,
	}
	v.AddPane()
	return v
}

// Panes returns the open panes, left to right.
func (v *Viewer) Panes() []*Pane { return v.panes }

// AddPane opens a pane subscribed to the broadcaster and starts loading the
// universe into it.
func (v *Viewer) AddPane() *Pane {
	id := mapengine.NewPaneID()
	eng := mapengine.NewEngine(v.opts.Engine)
	eng.Attach(v.opts.Broadcaster.Subscribe(id))
	eng.OnNotify = v.onNotify
	p := &Pane{ID: id, Engine: eng}
	v.panes = append(v.panes, p)
	v.active = len(v.panes) - 1
	v.relayout()
	if v.opts.Universe != nil {
		eng.RequestLoad(v.ctx, v.opts.Universe)
	}
	log.Printf("[MAP] Opened pane %s (%d open)", id, len(v.panes))
	return p
}

// ClosePane closes the pane at index i.
func (v *Viewer) ClosePane(i int) {
	if i < 0 || i >= len(v.panes) {
		return
	}
	p := v.panes[i]
	v.opts.Broadcaster.Unsubscribe(p.ID)
	v.panes = append(v.panes[:i], v.panes[i+1:]...)
	if v.active >= len(v.panes) {
		v.active = len(v.panes) - 1
	}
	v.drag = dragState{}
	v.relayout()
	log.Printf("[MAP] Closed pane %s (%d open)", p.ID, len(v.panes))
}

func (v *Viewer) activePane() *Pane {
	if v.active < 0 || v.active >= len(v.panes) {
		return nil
	}
	return v.panes[v.active]
}

func (v *Viewer) rects() []rect {
	out := make([]rect, len(v.panes))
	for i, p := range v.panes {
		out[i] = p.bounds
	}
	return out
}

func (v *Viewer) relayout() {
	rects := columns(float64(v.width), float64(v.height), len(v.panes))
	for i, p := range v.panes {
		p.bounds = rects[i]
		p.Engine.Resize(rects[i].W, rects[i].H)
	}
}

// onNotify runs on the game goroutine for every Notify drained by any pane.
func (v *Viewer) onNotify(n mapengine.Notify) {
	v.opts.Alert.Play()
}

func (v *Viewer) Update() error {
	if v.ctx.Err() != nil {
		return ebiten.Termination
	}
	v.handleInput()
	v.advance(time.Now())
	return nil
}

// advance prepares every pane's next frame.
func (v *Viewer) advance(now time.Time) {
	for _, p := range v.panes {
		p.frame = p.Engine.Frame(now)
	}
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	if v.pulseImage == nil {
		v.initPulseTexture()
	}
	screen.Fill(colorBackground)
	for i, p := range v.panes {
		v.drawPane(screen, p, i == v.active && len(v.panes) > 1)
	}
}

func (v *Viewer) Layout(w, h int) (int, int) {
	if w != v.width || h != v.height {
		v.width, v.height = w, h
		v.relayout()
	}
	return w, h
}
